package pricesource

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CachedSource puts a short-TTL redis cache in front of a Source so that
// back-to-back sweeps (and the hourly alert sweep re-checking duplicate
// product names) do not repeat identical upstream searches. Cache failures
// degrade to a direct search.
type CachedSource struct {
	Inner  Source
	Client *redis.Client
	TTL    time.Duration
	Logger *zap.Logger
}

func (c *CachedSource) Search(ctx context.Context, productName string) (SearchResult, error) {
	if c.Client == nil {
		return c.Inner.Search(ctx, productName)
	}
	key := cacheKey(productName)

	if raw, err := c.Client.Get(ctx, key).Bytes(); err == nil {
		var cached SearchResult
		if jsonErr := json.Unmarshal(raw, &cached); jsonErr == nil {
			return cached, nil
		}
	} else if err != redis.Nil {
		c.Logger.Warn("quote cache read failed", zap.String("key", key), zap.Error(err))
	}

	result, err := c.Inner.Search(ctx, productName)
	if err != nil {
		return result, err
	}
	if len(result.Quotes) == 0 {
		// An empty cycle is not worth pinning for the full TTL.
		return result, nil
	}
	raw, jsonErr := json.Marshal(result)
	if jsonErr != nil {
		return result, nil
	}
	if err := c.Client.Set(ctx, key, raw, c.TTL).Err(); err != nil {
		c.Logger.Warn("quote cache write failed", zap.String("key", key), zap.Error(err))
	}
	return result, nil
}

func cacheKey(productName string) string {
	return "quotes:" + strings.Join(strings.Fields(strings.ToLower(productName)), " ")
}

package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"dealhawk/internal/models"
	"dealhawk/internal/pricesource"
	"dealhawk/internal/repository"
)

// WishlistJobLock names the persisted lock for the nightly wishlist refresh.
const WishlistJobLock = "wishlist-job"

// WishlistRefreshService sweeps all wishlist items, fetches a fresh quote for
// each and appends changed prices to the item's history. Same sequential
// discipline and failure isolation as the alert sweep, minus the trigger and
// notification branch.
type WishlistRefreshService struct {
	Repo      repository.Repository
	Source    pricesource.Source
	Logger    *zap.Logger
	LockTTL   time.Duration
	ItemDelay time.Duration
}

func (s *WishlistRefreshService) Run(ctx context.Context) error {
	ttl := s.LockTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	ok, err := s.Repo.AcquireJobLock(ctx, WishlistJobLock, ttl)
	if err != nil {
		return err
	}
	if !ok {
		s.Logger.Info("wishlist refresh skipped, lock held elsewhere")
		return nil
	}

	items, err := s.Repo.ListWishlistItems(ctx)
	if err != nil {
		return err
	}
	s.Logger.Info("wishlist refresh started", zap.Int("items", len(items)))

	for i := range items {
		item := &items[i]
		if err := s.refreshItem(ctx, item); err != nil {
			s.Logger.Warn("wishlist item refresh failed",
				zap.Uint64("item_id", item.ID),
				zap.String("product", item.ProductName),
				zap.Error(err),
			)
		}
		if err := sleepCtx(ctx, s.ItemDelay); err != nil {
			return err
		}
	}
	return nil
}

func (s *WishlistRefreshService) refreshItem(ctx context.Context, item *models.WishlistItem) error {
	result, err := s.Source.Search(ctx, item.ProductName)
	if err != nil {
		return err
	}
	if len(result.Quotes) == 0 {
		return nil
	}

	quote := pricesource.SelectQuote(result, item.Website)
	if quote == nil || !quote.Price.IsPositive() {
		return nil
	}
	if quote.Price.Equal(item.CurrentPrice) {
		// Unchanged price: no history entry and no write.
		return nil
	}

	history, err := item.History()
	if err != nil {
		return err
	}
	history = append(history, models.PricePoint{Price: quote.Price, Date: time.Now().UTC()})
	history = models.PruneHistory(history, models.HistoryWindow)
	if err := item.SetHistory(history); err != nil {
		return err
	}
	item.CurrentPrice = quote.Price

	return s.Repo.SaveWishlistPrices(ctx, item)
}

package pricesource

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Quote is a single price observation for a product from one retailer.
type Quote struct {
	Website      string          `json:"website"`
	Title        string          `json:"title"`
	Price        decimal.Decimal `json:"price"`
	URL          string          `json:"url"`
	ImageURL     string          `json:"imageUrl"`
	Availability bool            `json:"availability"`
	Rating       float64         `json:"rating"`
	Reviews      int             `json:"reviews"`
}

// SearchResult is the normalized output of one shopping search.
type SearchResult struct {
	Quotes      []Quote `json:"quotes"`
	LowestQuote *Quote  `json:"lowestQuote"`
}

// Source is the price-source contract consumed by the sweep services. An
// empty result means "no data this cycle", never an error condition the
// caller should escalate.
type Source interface {
	Search(ctx context.Context, productName string) (SearchResult, error)
}

// Client queries the SerpAPI Google Shopping engine. The request timeout is
// owned here so callers never block past Timeout.
type Client struct {
	http   *resty.Client
	apiKey string
	logger *zap.Logger
}

type Options struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Country string
	Lang    string
}

func NewClient(opts Options, logger *zap.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = "https://serpapi.com"
	}
	country := opts.Country
	if country == "" {
		country = "in"
	}
	lang := opts.Lang
	if lang == "" {
		lang = "en"
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetQueryParams(map[string]string{
			"engine": "google_shopping",
			"gl":     country,
			"hl":     lang,
		})
	return &Client{http: client, apiKey: opts.APIKey, logger: logger}
}

type shoppingItem struct {
	Source         string          `json:"source"`
	Title          string          `json:"title"`
	Price          json.RawMessage `json:"price"`
	ExtractedPrice json.RawMessage `json:"extracted_price"`
	ProductLink    string          `json:"product_link"`
	Link           string          `json:"link"`
	Thumbnail      string          `json:"thumbnail"`
	Available      *bool           `json:"available"`
	Rating         float64         `json:"rating"`
	Reviews        int             `json:"reviews"`
}

type searchResponse struct {
	ShoppingResults []shoppingItem `json:"shopping_results"`
}

// Search runs one shopping search and normalizes the result set. Quotes whose
// price cannot be parsed as a positive number are dropped. On any transport
// or decode failure it returns an empty result rather than an error.
func (c *Client) Search(ctx context.Context, productName string) (SearchResult, error) {
	var body searchResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("q", productName).
		SetQueryParam("api_key", c.apiKey).
		SetResult(&body).
		Get("/search")
	if err != nil {
		c.logger.Warn("shopping search failed", zap.String("query", productName), zap.Error(err))
		return SearchResult{}, nil
	}
	if resp.IsError() {
		c.logger.Warn("shopping search http error",
			zap.String("query", productName),
			zap.Int("status", resp.StatusCode()),
		)
		return SearchResult{}, nil
	}

	quotes := make([]Quote, 0, len(body.ShoppingResults))
	for _, item := range body.ShoppingResults {
		price, ok := ParsePrice(item.ExtractedPrice)
		if !ok {
			price, ok = ParsePrice(item.Price)
		}
		if !ok {
			continue
		}
		url := item.ProductLink
		if url == "" {
			url = item.Link
		}
		quotes = append(quotes, Quote{
			Website:      NormalizeWebsite(item.Source),
			Title:        item.Title,
			Price:        price,
			URL:          url,
			ImageURL:     item.Thumbnail,
			Availability: item.Available == nil || *item.Available,
			Rating:       item.Rating,
			Reviews:      item.Reviews,
		})
	}
	if len(quotes) == 0 {
		return SearchResult{}, nil
	}
	lowest := quotes[0]
	for _, q := range quotes[1:] {
		if q.Price.LessThan(lowest.Price) {
			lowest = q
		}
	}
	return SearchResult{Quotes: quotes, LowestQuote: &lowest}, nil
}

// ParsePrice accepts a raw JSON value that is either a number or a
// currency-formatted string ("₹1,299.00") and returns a positive decimal.
func ParsePrice(raw json.RawMessage) (decimal.Decimal, bool) {
	if len(raw) == 0 {
		return decimal.Decimal{}, false
	}
	var num float64
	if err := json.Unmarshal(raw, &num); err == nil {
		return fromPositive(decimal.NewFromFloat(num))
	}
	var str string
	if err := json.Unmarshal(raw, &str); err != nil {
		return decimal.Decimal{}, false
	}
	var b strings.Builder
	for _, r := range str {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	d, err := decimal.NewFromString(b.String())
	if err != nil {
		return decimal.Decimal{}, false
	}
	return fromPositive(d)
}

func fromPositive(d decimal.Decimal) (decimal.Decimal, bool) {
	if !d.IsPositive() {
		return decimal.Decimal{}, false
	}
	return d, true
}

// NormalizeWebsite lowercases a retailer name and strips whitespace so that
// alert website scopes can be matched by substring.
func NormalizeWebsite(source string) string {
	if strings.TrimSpace(source) == "" {
		return "unknown"
	}
	return strings.Join(strings.Fields(strings.ToLower(source)), "")
}

// SelectQuote picks the quote for an alert: the first quote whose website
// contains the wanted retailer (case-insensitive substring), falling back to
// the first quote. Returns nil only when the result set is empty.
func SelectQuote(result SearchResult, website string) *Quote {
	if len(result.Quotes) == 0 {
		return nil
	}
	if want := strings.ToLower(strings.TrimSpace(website)); want != "" {
		for i := range result.Quotes {
			if strings.Contains(strings.ToLower(result.Quotes[i].Website), want) {
				return &result.Quotes[i]
			}
		}
	}
	return &result.Quotes[0]
}

package pricesource

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func TestParsePrice(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
		ok   bool
	}{
		{"plain number", `1299.5`, "1299.5", true},
		{"integer", `42`, "42", true},
		{"currency string", `"₹1,299.00"`, "1299.00", true},
		{"dollar string", `"$89.99"`, "89.99", true},
		{"zero", `0`, "", false},
		{"negative", `-5`, "", false},
		{"no digits", `"N/A"`, "", false},
		{"empty", ``, "", false},
		{"object", `{"x":1}`, "", false},
	}
	for _, tc := range cases {
		got, ok := ParsePrice(json.RawMessage(tc.raw))
		if ok != tc.ok {
			t.Errorf("%s: ok=%v want=%v", tc.name, ok, tc.ok)
			continue
		}
		if !ok {
			continue
		}
		want, err := decimal.NewFromString(tc.want)
		if err != nil {
			t.Fatalf("%s: bad want %q: %v", tc.name, tc.want, err)
		}
		if !got.Equal(want) {
			t.Errorf("%s: got=%s want=%s", tc.name, got, want)
		}
	}
}

func TestNormalizeWebsite(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Amazon.in", "amazon.in"},
		{"  Flip Kart  ", "flipkart"},
		{"", "unknown"},
		{"   ", "unknown"},
	}
	for _, tc := range cases {
		if got := NormalizeWebsite(tc.in); got != tc.want {
			t.Errorf("NormalizeWebsite(%q)=%q want=%q", tc.in, got, tc.want)
		}
	}
}

func TestSelectQuote(t *testing.T) {
	result := SearchResult{Quotes: []Quote{
		{Website: "flipkart", Price: decimal.NewFromInt(900)},
		{Website: "amazon.in", Price: decimal.NewFromInt(850)},
	}}

	if q := SelectQuote(result, "Amazon"); q == nil || q.Website != "amazon.in" {
		t.Fatalf("scoped selection got %+v", q)
	}
	if q := SelectQuote(result, ""); q == nil || q.Website != "flipkart" {
		t.Fatalf("unscoped selection got %+v", q)
	}
	// Unknown retailer falls back to the first quote.
	if q := SelectQuote(result, "croma"); q == nil || q.Website != "flipkart" {
		t.Fatalf("fallback selection got %+v", q)
	}
	if q := SelectQuote(SearchResult{}, "amazon"); q != nil {
		t.Fatalf("empty result should select nil, got %+v", q)
	}
}

func TestClientSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("engine"); got != "google_shopping" {
			t.Errorf("engine=%q want=google_shopping", got)
		}
		if got := r.URL.Query().Get("q"); got != "ipad mini" {
			t.Errorf("q=%q want=%q", got, "ipad mini")
		}
		if got := r.URL.Query().Get("api_key"); got != "test-key" {
			t.Errorf("api_key=%q want=test-key", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"shopping_results":[
			{"source":"Amazon.in","title":"iPad Mini","extracted_price":45900,"product_link":"https://a/1","thumbnail":"https://a/t.jpg","rating":4.5,"reviews":120},
			{"source":"Flipkart","title":"iPad Mini 6","price":"₹44,999.00","link":"https://f/2"},
			{"source":"Junk","title":"broken","price":"call for price"}
		]}`))
	}))
	defer srv.Close()

	client := NewClient(Options{BaseURL: srv.URL, APIKey: "test-key", Timeout: 2 * time.Second}, zap.NewNop())
	result, err := client.Search(context.Background(), "ipad mini")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(result.Quotes) != 2 {
		t.Fatalf("quotes=%d want=2", len(result.Quotes))
	}
	if result.Quotes[0].Website != "amazon.in" {
		t.Fatalf("website=%q want=amazon.in", result.Quotes[0].Website)
	}
	if !result.Quotes[1].Price.Equal(decimal.NewFromInt(44999)) {
		t.Fatalf("price=%s want=44999", result.Quotes[1].Price)
	}
	if result.Quotes[0].URL != "https://a/1" || result.Quotes[1].URL != "https://f/2" {
		t.Fatalf("urls=%q %q", result.Quotes[0].URL, result.Quotes[1].URL)
	}
	if result.LowestQuote == nil || result.LowestQuote.Website != "flipkart" {
		t.Fatalf("lowest=%+v", result.LowestQuote)
	}
}

func TestClientSearchHTTPErrorIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClient(Options{BaseURL: srv.URL, APIKey: "test-key"}, zap.NewNop())
	result, err := client.Search(context.Background(), "ipad mini")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(result.Quotes) != 0 || result.LowestQuote != nil {
		t.Fatalf("expected empty result, got %+v", result)
	}
}

func TestClientSearchTransportErrorIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	client := NewClient(Options{BaseURL: srv.URL, APIKey: "test-key", Timeout: time.Second}, zap.NewNop())
	result, err := client.Search(context.Background(), "ipad mini")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(result.Quotes) != 0 {
		t.Fatalf("expected empty result, got %+v", result)
	}
}

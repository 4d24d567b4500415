package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// HistoryWindow is the trailing window kept in a wishlist item's price
// history. Entries older than this (relative to the newest entry) are pruned
// on every write.
const HistoryWindow = 90 * 24 * time.Hour

// PricePoint is one observation in a wishlist item's price history.
type PricePoint struct {
	Price decimal.Decimal `json:"price"`
	Date  time.Time       `json:"date"`
}

// WishlistItem is a saved product whose price is re-checked nightly.
type WishlistItem struct {
	ID     uint64 `gorm:"primaryKey;autoIncrement"`
	UserID uint64 `gorm:"not null;index"`
	User   User

	ProductName  string          `gorm:"type:varchar(300);not null"`
	Website      string          `gorm:"type:varchar(120);not null"`
	CurrentPrice decimal.Decimal `gorm:"type:numeric(30,10);not null"`
	URL          string          `gorm:"type:text;not null"`
	ImageURL     *string         `gorm:"type:text"`
	Notes        string          `gorm:"type:text"`

	// PriceHistory is an ordered append-only log of PricePoint, stored as
	// jsonb and pruned to HistoryWindow on every mutation.
	PriceHistory datatypes.JSON `gorm:"type:jsonb;not null"`

	// Derived aggregates over the current history window.
	LowestPrice  *decimal.Decimal `gorm:"type:numeric(30,10)"`
	HighestPrice *decimal.Decimal `gorm:"type:numeric(30,10)"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (WishlistItem) TableName() string {
	return "wishlist_items"
}

// History decodes the stored price history. A missing or empty column decodes
// to a nil slice.
func (w *WishlistItem) History() ([]PricePoint, error) {
	if len(w.PriceHistory) == 0 {
		return nil, nil
	}
	var points []PricePoint
	if err := json.Unmarshal(w.PriceHistory, &points); err != nil {
		return nil, err
	}
	return points, nil
}

// SetHistory replaces the stored history and recomputes the derived bounds so
// LowestPrice/HighestPrice always equal min/max over the current window.
func (w *WishlistItem) SetHistory(points []PricePoint) error {
	if points == nil {
		points = []PricePoint{}
	}
	raw, err := json.Marshal(points)
	if err != nil {
		return err
	}
	w.PriceHistory = raw
	if len(points) == 0 {
		w.LowestPrice = nil
		w.HighestPrice = nil
		return nil
	}
	low := points[0].Price
	high := points[0].Price
	for _, p := range points[1:] {
		if p.Price.LessThan(low) {
			low = p.Price
		}
		if p.Price.GreaterThan(high) {
			high = p.Price
		}
	}
	w.LowestPrice = &low
	w.HighestPrice = &high
	return nil
}

// PruneHistory drops entries older than window relative to the newest entry's
// date and returns the result. The input order is preserved.
func PruneHistory(points []PricePoint, window time.Duration) []PricePoint {
	if len(points) == 0 {
		return points
	}
	latest := points[0].Date
	for _, p := range points[1:] {
		if p.Date.After(latest) {
			latest = p.Date
		}
	}
	cutoff := latest.Add(-window)
	kept := make([]PricePoint, 0, len(points))
	for _, p := range points {
		if !p.Date.Before(cutoff) {
			kept = append(kept, p)
		}
	}
	return kept
}

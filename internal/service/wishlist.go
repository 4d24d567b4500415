package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"dealhawk/internal/models"
	"dealhawk/internal/repository"
)

var ErrDuplicateWishlistItem = errors.New("product already in wishlist")

// WishlistService owns the user-facing wishlist lifecycle. Price history is
// pruned to the 90-day window on every write, the same policy the nightly
// refresh applies.
type WishlistService struct {
	Repo   repository.Repository
	Logger *zap.Logger
}

type AddWishlistItemInput struct {
	UserID       uint64
	ProductName  string
	Website      string
	CurrentPrice decimal.Decimal
	URL          string
	ImageURL     *string
	Notes        string
}

func (s *WishlistService) Add(ctx context.Context, in AddWishlistItemInput) (*models.WishlistItem, error) {
	name := strings.TrimSpace(in.ProductName)
	website := strings.TrimSpace(in.Website)
	if name == "" || website == "" || in.URL == "" || in.UserID == 0 {
		return nil, ErrInvalidInput
	}
	if !in.CurrentPrice.IsPositive() {
		return nil, ErrInvalidInput
	}

	existing, err := s.Repo.FindWishlistItem(ctx, in.UserID, name, website)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateWishlistItem
	}

	item := &models.WishlistItem{
		UserID:       in.UserID,
		ProductName:  name,
		Website:      website,
		CurrentPrice: in.CurrentPrice,
		URL:          in.URL,
		ImageURL:     in.ImageURL,
		Notes:        in.Notes,
	}
	seed := []models.PricePoint{{Price: in.CurrentPrice, Date: time.Now().UTC()}}
	if err := item.SetHistory(seed); err != nil {
		return nil, err
	}
	if err := s.Repo.CreateWishlistItem(ctx, item); err != nil {
		return nil, err
	}
	s.Logger.Info("wishlist item added",
		zap.Uint64("item_id", item.ID),
		zap.Uint64("user_id", in.UserID),
		zap.String("product", name),
	)
	return item, nil
}

// UpdatePrice is the manual price-update path: append to history, prune the
// window, recompute bounds, persist.
func (s *WishlistService) UpdatePrice(ctx context.Context, itemID, userID uint64, price decimal.Decimal) (*models.WishlistItem, error) {
	if !price.IsPositive() {
		return nil, ErrInvalidInput
	}
	item, err := s.Repo.GetWishlistItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil || item.UserID != userID {
		return nil, ErrNotFound
	}

	history, err := item.History()
	if err != nil {
		return nil, err
	}
	history = append(history, models.PricePoint{Price: price, Date: time.Now().UTC()})
	history = models.PruneHistory(history, models.HistoryWindow)
	if err := item.SetHistory(history); err != nil {
		return nil, err
	}
	item.CurrentPrice = price

	if err := s.Repo.SaveWishlistPrices(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *WishlistService) Remove(ctx context.Context, itemID, userID uint64) error {
	ok, err := s.Repo.DeleteWishlistItem(ctx, itemID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *WishlistService) List(ctx context.Context, userID uint64) ([]models.WishlistItem, error) {
	return s.Repo.ListWishlistItemsByUser(ctx, userID)
}

package gormrepository

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"dealhawk/internal/models"
	"dealhawk/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// --- Job locks ---------------------------------------------------------------

// AcquireJobLock performs the acquisition as one upsert: insert the lock row,
// or take over an existing row only when it is free (locked_at null or older
// than now - ttl). RowsAffected is zero exactly when a live lock blocked the
// conditional update, so it doubles as the "did this call's write win" answer.
func (s *Store) AcquireJobLock(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	now := time.Now().UTC()
	expiry := now.Add(-ttl)
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.Assignments(map[string]any{"locked_at": now}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "job_locks.locked_at IS NULL OR job_locks.locked_at < ?", Vars: []any{expiry}},
		}},
	}).Create(&models.JobLock{Name: name, LockedAt: &now})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *Store) ListJobLocks(ctx context.Context) ([]models.JobLock, error) {
	var items []models.JobLock
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// --- Alerts: sweep path ------------------------------------------------------

func (s *Store) ListActiveAlerts(ctx context.Context) ([]models.PriceAlert, error) {
	var items []models.PriceAlert
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("is_active = ? AND notified = ?", true, false).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) MarkAlertChecked(ctx context.Context, alertID uint64, price decimal.Decimal, at time.Time) error {
	return s.db.WithContext(ctx).
		Model(&models.PriceAlert{}).
		Where("id = ? AND is_active = ? AND notified = ?", alertID, true, false).
		Updates(map[string]any{
			"current_price": price,
			"last_checked":  at,
		}).Error
}

func (s *Store) TriggerAlert(ctx context.Context, alertID uint64, price decimal.Decimal, at time.Time) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.PriceAlert{}).
		Where("id = ? AND is_active = ? AND notified = ?", alertID, true, false).
		Updates(map[string]any{
			"current_price": price,
			"last_checked":  at,
			"notified":      true,
			"triggered_at":  at,
			"is_active":     false,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *Store) AddUserSavings(ctx context.Context, userID uint64, savings decimal.Decimal) error {
	return s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"total_savings": gorm.Expr("total_savings + ?", savings),
			"targets_hit":   gorm.Expr("targets_hit + 1"),
		}).Error
}

func (s *Store) DeleteResolvedAlertsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("notified = ? AND updated_at < ?", true, cutoff).
		Delete(&models.PriceAlert{})
	return res.RowsAffected, res.Error
}

// --- Alerts: lifecycle -------------------------------------------------------

func (s *Store) CreateAlert(ctx context.Context, alert *models.PriceAlert) error {
	return s.db.WithContext(ctx).Create(alert).Error
}

func (s *Store) GetAlertByID(ctx context.Context, id uint64) (*models.PriceAlert, error) {
	var item models.PriceAlert
	err := s.db.WithContext(ctx).Preload("User").First(&item, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) FindActiveDuplicateAlert(ctx context.Context, userID uint64, normalizedName string, normalizedWebsite *string) (*models.PriceAlert, error) {
	query := s.db.WithContext(ctx).
		Where("user_id = ? AND normalized_name = ? AND is_active = ?", userID, normalizedName, true)
	if normalizedWebsite == nil {
		query = query.Where("normalized_website IS NULL")
	} else {
		query = query.Where("normalized_website = ?", *normalizedWebsite)
	}
	var item models.PriceAlert
	err := query.First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListAlerts(ctx context.Context, params repository.ListAlertsParams) ([]models.PriceAlert, error) {
	query := s.db.WithContext(ctx).Model(&models.PriceAlert{})
	if params.UserID != 0 {
		query = query.Where("user_id = ?", params.UserID)
	}
	if params.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	limit := params.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}
	var items []models.PriceAlert
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateAlertTarget lowers (or raises) the target on a live alert and resets
// the trigger bookkeeping so the alert can fire again for the new target.
func (s *Store) UpdateAlertTarget(ctx context.Context, id uint64, targetPrice decimal.Decimal) error {
	return s.db.WithContext(ctx).
		Model(&models.PriceAlert{}).
		Where("id = ? AND is_active = ?", id, true).
		Updates(map[string]any{
			"target_price": targetPrice,
			"notified":     false,
			"triggered_at": nil,
		}).Error
}

func (s *Store) DeactivateAlert(ctx context.Context, id uint64) error {
	return s.db.WithContext(ctx).
		Model(&models.PriceAlert{}).
		Where("id = ?", id).
		Update("is_active", false).Error
}

// --- Wishlist ----------------------------------------------------------------

func (s *Store) CreateWishlistItem(ctx context.Context, item *models.WishlistItem) error {
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) GetWishlistItemByID(ctx context.Context, id uint64) (*models.WishlistItem, error) {
	var item models.WishlistItem
	err := s.db.WithContext(ctx).First(&item, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) FindWishlistItem(ctx context.Context, userID uint64, productName, website string) (*models.WishlistItem, error) {
	var item models.WishlistItem
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND product_name = ? AND website = ?", userID, productName, website).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListWishlistItems(ctx context.Context) ([]models.WishlistItem, error) {
	var items []models.WishlistItem
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListWishlistItemsByUser(ctx context.Context, userID uint64) ([]models.WishlistItem, error) {
	var items []models.WishlistItem
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) SaveWishlistPrices(ctx context.Context, item *models.WishlistItem) error {
	return s.db.WithContext(ctx).
		Model(&models.WishlistItem{}).
		Where("id = ?", item.ID).
		Updates(map[string]any{
			"current_price": item.CurrentPrice,
			"price_history": item.PriceHistory,
			"lowest_price":  item.LowestPrice,
			"highest_price": item.HighestPrice,
			"notes":         item.Notes,
			"url":           item.URL,
		}).Error
}

func (s *Store) DeleteWishlistItem(ctx context.Context, id uint64, userID uint64) (bool, error) {
	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.WishlistItem{})
	return res.RowsAffected > 0, res.Error
}

// --- Users -------------------------------------------------------------------

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Create(user).Error
}

func (s *Store) GetUserByID(ctx context.Context, id uint64) (*models.User, error) {
	var item models.User
	err := s.db.WithContext(ctx).First(&item, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"dealhawk/internal/models"
)

// ListAlertsParams filters user-facing alert listings.
type ListAlertsParams struct {
	UserID     uint64
	ActiveOnly bool
	Limit      int
	Offset     int
}

// Repository is the persistence surface used by the monitoring pipeline and
// the alert/wishlist lifecycle services. The Mark*/Trigger*/AcquireJobLock
// operations are single conditional atomic updates; a read-modify-write here
// would reintroduce the races they exist to prevent.
type Repository interface {
	// Job locks.
	AcquireJobLock(ctx context.Context, name string, ttl time.Duration) (bool, error)
	ListJobLocks(ctx context.Context) ([]models.JobLock, error)

	// Alerts: sweep path.
	ListActiveAlerts(ctx context.Context) ([]models.PriceAlert, error)
	MarkAlertChecked(ctx context.Context, alertID uint64, price decimal.Decimal, at time.Time) error
	// TriggerAlert attempts the notified transition for an active, unnotified
	// alert. It reports whether this call's write won the transition.
	TriggerAlert(ctx context.Context, alertID uint64, price decimal.Decimal, at time.Time) (bool, error)
	AddUserSavings(ctx context.Context, userID uint64, savings decimal.Decimal) error
	DeleteResolvedAlertsBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Alerts: lifecycle.
	CreateAlert(ctx context.Context, alert *models.PriceAlert) error
	GetAlertByID(ctx context.Context, id uint64) (*models.PriceAlert, error)
	FindActiveDuplicateAlert(ctx context.Context, userID uint64, normalizedName string, normalizedWebsite *string) (*models.PriceAlert, error)
	ListAlerts(ctx context.Context, params ListAlertsParams) ([]models.PriceAlert, error)
	UpdateAlertTarget(ctx context.Context, id uint64, targetPrice decimal.Decimal) error
	DeactivateAlert(ctx context.Context, id uint64) error

	// Wishlist.
	CreateWishlistItem(ctx context.Context, item *models.WishlistItem) error
	GetWishlistItemByID(ctx context.Context, id uint64) (*models.WishlistItem, error)
	FindWishlistItem(ctx context.Context, userID uint64, productName, website string) (*models.WishlistItem, error)
	ListWishlistItems(ctx context.Context) ([]models.WishlistItem, error)
	ListWishlistItemsByUser(ctx context.Context, userID uint64) ([]models.WishlistItem, error)
	SaveWishlistPrices(ctx context.Context, item *models.WishlistItem) error
	DeleteWishlistItem(ctx context.Context, id uint64, userID uint64) (bool, error)

	// Users.
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id uint64) (*models.User, error)
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceAlert is a user's request to be notified when a product's price drops
// to or below TargetPrice. Once triggered it is deactivated; users create a
// new alert if they want to keep watching.
type PriceAlert struct {
	ID     uint64 `gorm:"primaryKey;autoIncrement"`
	UserID uint64 `gorm:"not null;index;index:idx_alerts_dedupe,priority:1"`
	User   User

	ProductName string `gorm:"type:varchar(300);not null"`
	// NormalizedName is the lowercase dedupe key. Never mutated after creation.
	NormalizedName string `gorm:"type:varchar(300);not null;index:idx_alerts_dedupe,priority:2"`

	// Website scopes the alert to one retailer. Nil means any retailer.
	Website           *string `gorm:"type:varchar(120)"`
	NormalizedWebsite *string `gorm:"type:varchar(120);index:idx_alerts_dedupe,priority:3"`

	TargetPrice  decimal.Decimal `gorm:"type:numeric(30,10);not null"`
	InitialPrice decimal.Decimal `gorm:"type:numeric(30,10);not null"`
	CurrentPrice decimal.Decimal `gorm:"type:numeric(30,10);not null"`

	URL      *string `gorm:"type:text"`
	ImageURL *string `gorm:"type:text"`

	IsActive bool `gorm:"not null;default:true;index:idx_alerts_sweep,priority:1"`
	Notified bool `gorm:"not null;default:false;index:idx_alerts_sweep,priority:2"`

	LastChecked *time.Time `gorm:"type:timestamptz"`
	TriggeredAt *time.Time `gorm:"type:timestamptz"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime;index"`
}

func (PriceAlert) TableName() string {
	return "price_alerts"
}

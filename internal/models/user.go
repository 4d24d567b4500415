package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User carries only the fields the background pipeline touches. Account
// management (auth, OTP, profile) lives in a separate service.
type User struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"`

	Email string `gorm:"type:varchar(254);not null;uniqueIndex"`
	Name  string `gorm:"type:varchar(120);not null"`

	// Aggregates incremented atomically when an alert triggers.
	TotalSavings decimal.Decimal `gorm:"type:numeric(30,10);not null;default:0"`
	TargetsHit   int64           `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}

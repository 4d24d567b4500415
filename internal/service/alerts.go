package service

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"dealhawk/internal/models"
	"dealhawk/internal/repository"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrTargetTooHigh  = errors.New("target price must be lower than current price")
	ErrDuplicateAlert = errors.New("an active alert already exists for this product")
)

// AlertService owns the user-facing alert lifecycle: creation with
// duplicate detection, target edits and soft deletion. The background sweep
// relies on the preconditions validated here (target < price at write time).
type AlertService struct {
	Repo   repository.Repository
	Logger *zap.Logger
}

type CreateAlertInput struct {
	UserID       uint64
	ProductName  string
	TargetPrice  decimal.Decimal
	CurrentPrice decimal.Decimal
	Website      *string
	URL          *string
	ImageURL     *string
}

func (s *AlertService) Create(ctx context.Context, in CreateAlertInput) (*models.PriceAlert, error) {
	name := strings.TrimSpace(in.ProductName)
	if name == "" || in.UserID == 0 {
		return nil, ErrInvalidInput
	}
	if !in.TargetPrice.IsPositive() || !in.CurrentPrice.IsPositive() {
		return nil, ErrInvalidInput
	}
	if in.TargetPrice.GreaterThanOrEqual(in.CurrentPrice) {
		return nil, ErrTargetTooHigh
	}

	normalizedName := NormalizeName(name)
	var website, normalizedWebsite *string
	if in.Website != nil && strings.TrimSpace(*in.Website) != "" {
		w := strings.TrimSpace(*in.Website)
		nw := strings.ToLower(w)
		website, normalizedWebsite = &w, &nw
	}

	// Uniqueness among active alerts for (user, name, website) is enforced
	// here, not as a database constraint: resolved alerts for the same
	// product must stay queryable.
	existing, err := s.Repo.FindActiveDuplicateAlert(ctx, in.UserID, normalizedName, normalizedWebsite)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateAlert
	}

	alert := &models.PriceAlert{
		UserID:            in.UserID,
		ProductName:       name,
		NormalizedName:    normalizedName,
		Website:           website,
		NormalizedWebsite: normalizedWebsite,
		TargetPrice:       in.TargetPrice,
		InitialPrice:      in.CurrentPrice,
		CurrentPrice:      in.CurrentPrice,
		URL:               in.URL,
		ImageURL:          in.ImageURL,
		IsActive:          true,
	}
	if err := s.Repo.CreateAlert(ctx, alert); err != nil {
		return nil, err
	}
	s.Logger.Info("alert created",
		zap.Uint64("alert_id", alert.ID),
		zap.Uint64("user_id", in.UserID),
		zap.String("product", name),
	)
	return alert, nil
}

// UpdateTargetPrice changes the target on a live alert and clears the
// notified/triggeredAt bookkeeping so the alert can fire for the new target.
func (s *AlertService) UpdateTargetPrice(ctx context.Context, alertID, userID uint64, target decimal.Decimal) error {
	alert, err := s.Repo.GetAlertByID(ctx, alertID)
	if err != nil {
		return err
	}
	if alert == nil || alert.UserID != userID || !alert.IsActive {
		return ErrNotFound
	}
	if target.GreaterThanOrEqual(alert.CurrentPrice) {
		return ErrTargetTooHigh
	}
	return s.Repo.UpdateAlertTarget(ctx, alertID, target)
}

// Deactivate soft-deletes an alert. The retention job hard-deletes resolved
// alerts later.
func (s *AlertService) Deactivate(ctx context.Context, alertID, userID uint64) error {
	alert, err := s.Repo.GetAlertByID(ctx, alertID)
	if err != nil {
		return err
	}
	if alert == nil || alert.UserID != userID {
		return ErrNotFound
	}
	return s.Repo.DeactivateAlert(ctx, alertID)
}

func (s *AlertService) List(ctx context.Context, userID uint64) ([]models.PriceAlert, error) {
	return s.Repo.ListAlerts(ctx, repository.ListAlertsParams{UserID: userID, ActiveOnly: true})
}

// NormalizeName builds the dedupe key for a product name: lowercase with
// punctuation stripped and whitespace collapsed.
func NormalizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ':
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"dealhawk/internal/models"
	"dealhawk/internal/notification"
	"dealhawk/internal/pricesource"
	"dealhawk/internal/repository"
)

// AlertJobLock names the persisted lock for the hourly alert sweep.
const AlertJobLock = "price-alert-job"

// AlertSweepService re-checks every active, unnotified alert against the
// price source and fires the notification for alerts whose target is met.
// Items are processed sequentially with a fixed inter-item delay to bound
// load on the rate-limited price source.
type AlertSweepService struct {
	Repo      repository.Repository
	Source    pricesource.Source
	Mailer    notification.Mailer
	Logger    *zap.Logger
	LockTTL   time.Duration
	ItemDelay time.Duration
}

func (s *AlertSweepService) Run(ctx context.Context) error {
	ttl := s.LockTTL
	if ttl <= 0 {
		ttl = 55 * time.Minute
	}
	ok, err := s.Repo.AcquireJobLock(ctx, AlertJobLock, ttl)
	if err != nil {
		return err
	}
	if !ok {
		s.Logger.Info("alert sweep skipped, lock held elsewhere")
		return nil
	}

	alerts, err := s.Repo.ListActiveAlerts(ctx)
	if err != nil {
		return err
	}
	s.Logger.Info("alert sweep started", zap.Int("alerts", len(alerts)))

	for i := range alerts {
		alert := &alerts[i]
		if err := s.checkAlert(ctx, alert); err != nil {
			// Per-item failure never aborts the sweep; the alert is
			// re-checked on the next tick.
			s.Logger.Warn("alert check failed",
				zap.Uint64("alert_id", alert.ID),
				zap.String("product", alert.ProductName),
				zap.Error(err),
			)
		}
		if err := sleepCtx(ctx, s.ItemDelay); err != nil {
			return err
		}
	}
	return nil
}

func (s *AlertSweepService) checkAlert(ctx context.Context, alert *models.PriceAlert) error {
	result, err := s.Source.Search(ctx, alert.ProductName)
	if err != nil {
		return err
	}
	if len(result.Quotes) == 0 {
		// No data this cycle; not an error.
		return nil
	}

	website := ""
	if alert.Website != nil {
		website = *alert.Website
	}
	quote := pricesource.SelectQuote(result, website)
	if quote == nil || !quote.Price.IsPositive() {
		return nil
	}

	now := time.Now().UTC()
	if quote.Price.GreaterThan(alert.TargetPrice) {
		return s.Repo.MarkAlertChecked(ctx, alert.ID, quote.Price, now)
	}

	won, err := s.Repo.TriggerAlert(ctx, alert.ID, quote.Price, now)
	if err != nil {
		return err
	}
	if !won {
		// Another runner resolved this alert between the list and the
		// conditional update. Nothing more to do for this item.
		return nil
	}

	savings := alert.InitialPrice.Sub(quote.Price)
	if savings.IsNegative() {
		savings = decimal.Zero
	}
	if err := s.Repo.AddUserSavings(ctx, alert.UserID, savings); err != nil {
		return err
	}

	msg := notification.PriceAlertEmail{
		Email:        alert.User.Email,
		Name:         alert.User.Name,
		ProductName:  alert.ProductName,
		InitialPrice: alert.InitialPrice,
		TargetPrice:  alert.TargetPrice,
		CurrentPrice: quote.Price,
		Website:      website,
		ProductURL:   quote.URL,
		Savings:      savings,
	}
	if err := s.Mailer.SendPriceAlert(ctx, msg); err != nil {
		// The trigger transition is already committed; a dispatch failure
		// is logged and not retried.
		s.Logger.Warn("alert notification failed",
			zap.Uint64("alert_id", alert.ID),
			zap.String("email", alert.User.Email),
			zap.Error(err),
		)
		return nil
	}

	s.Logger.Info("alert triggered",
		zap.Uint64("alert_id", alert.ID),
		zap.String("product", alert.ProductName),
		zap.String("price", quote.Price.String()),
		zap.String("savings", savings.String()),
	)
	return nil
}

// sleepCtx waits for d or until ctx is done. A non-positive d returns
// immediately so tests can run sweeps without the throttle.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

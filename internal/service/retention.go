package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"dealhawk/internal/repository"
)

// RetentionService hard-deletes resolved alerts past the retention window.
// Deleting is idempotent, so this job runs without a lock.
type RetentionService struct {
	Repo   repository.Repository
	Logger *zap.Logger
	MaxAge time.Duration
}

func (s *RetentionService) Run(ctx context.Context) error {
	maxAge := s.MaxAge
	if maxAge <= 0 {
		maxAge = 30 * 24 * time.Hour
	}
	cutoff := time.Now().UTC().Add(-maxAge)
	deleted, err := s.Repo.DeleteResolvedAlertsBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	if deleted > 0 {
		s.Logger.Info("resolved alerts cleaned up", zap.Int64("deleted", deleted))
	}
	return nil
}

package jobs

import (
	"context"
	"time"
)

// ConversionReconciler retries project conversion for paid leads that
// were left unconverted.
type ConversionReconciler interface {
	ReconcileConversions(ctx context.Context, limit int) (int, error)
}

type NotificationPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

const reconcileBatch = 50

func (s *Service) ScheduleConversionReconcile(r ConversionReconciler, interval time.Duration) {
	s.Every(JobConversionReconcile, interval, func(ctx context.Context) (any, error) {
		converted, err := r.ReconcileConversions(ctx, reconcileBatch)
		return map[string]any{"converted": converted}, err
	})
}

func (s *Service) ScheduleNotificationPurge(p NotificationPurger, interval time.Duration) {
	s.Every(JobNotificationPurge, interval, func(ctx context.Context) (any, error) {
		deleted, err := p.PurgeExpired(ctx)
		return map[string]any{"deleted": deleted}, err
	})
}

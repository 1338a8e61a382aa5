package notifications

import (
	"context"
	"log/slog"
)

// Notifier is implemented by *Service.
type Notifier interface {
	Notify(ctx context.Context, evt Event) (Result, error)
}

// Emit sends each event and logs failures. Callers use it after their own
// mutation has committed, so a failed notification never fails the request.
func Emit(ctx context.Context, n Notifier, events ...Event) {
	if n == nil {
		return
	}
	for _, evt := range events {
		if _, err := n.Notify(ctx, evt); err != nil {
			slog.Warn("notification failed", "type", evt.Type, "err", err)
		}
	}
}

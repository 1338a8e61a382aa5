package notifications

import (
	"context"
	"time"
)

//go:generate mockgen -source=store_iface.go -destination=store_mock.go -package=notifications

type StoreAPI interface {
	Create(ctx context.Context, n *Notification) error
	List(ctx context.Context, userID string, filter ListFilter) ([]*Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, userID, id string) (*Notification, error)
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
	UserEmail(ctx context.Context, userID string) (string, error)
}

// Pusher delivers realtime events to connected clients. Both methods report
// whether at least one live connection received the event.
type Pusher interface {
	ToRoom(ctx context.Context, room, event string, payload any) bool
	Broadcast(ctx context.Context, event string, payload any) bool
}

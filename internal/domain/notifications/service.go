package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"crm/internal/platform/metrics"
	"crm/internal/platform/realtime"
)

type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

type Service struct {
	store       StoreAPI
	Pusher      Pusher
	Mailer      Mailer
	Metrics     *metrics.Collector
	DefaultFrom string
	TTL         time.Duration
	now         func() time.Time
}

func New(store StoreAPI, pusher Pusher, mailer Mailer, ttl time.Duration) *Service {
	return &Service{
		store:       store,
		Pusher:      pusher,
		Mailer:      mailer,
		DefaultFrom: "no-reply@example.com",
		TTL:         ttl,
		now:         time.Now,
	}
}

// Notify persists a row for a user recipient and pushes the event to the
// matching room. Room and broadcast events are push only. Delivery is best
// effort and never retried.
func (s *Service) Notify(ctx context.Context, evt Event) (Result, error) {
	if err := validateEvent(&evt); err != nil {
		return Result{}, err
	}

	if evt.To.UserID == "" {
		push := Push{
			Type:     evt.Type,
			Title:    evt.Title,
			Message:  evt.Message,
			Priority: evt.Priority,
			SenderID: evt.SenderID,
			Data:     evt.Data,
			SentAt:   s.now(),
		}
		delivered := false
		if s.Pusher != nil {
			if evt.To.Broadcast {
				delivered = s.Pusher.Broadcast(ctx, string(evt.Type), push)
			} else {
				delivered = s.Pusher.ToRoom(ctx, evt.To.Room, string(evt.Type), push)
			}
		}
		s.Metrics.RecordNotification(false, delivered)
		return Result{Delivered: delivered}, nil
	}

	n := &Notification{
		RecipientID: evt.To.UserID,
		Type:        evt.Type,
		Title:       evt.Title,
		Message:     evt.Message,
		Priority:    evt.Priority,
		Data:        evt.Data,
		ExpiresAt:   s.now().Add(s.TTL),
	}
	if evt.SenderID != "" {
		sender := evt.SenderID
		n.SenderID = &sender
	}
	if err := s.store.Create(ctx, n); err != nil {
		return Result{}, fmt.Errorf("persist notification: %w", err)
	}

	delivered := false
	if s.Pusher != nil {
		delivered = s.Pusher.ToRoom(ctx, realtime.UserRoom(n.RecipientID), EventNotification, n)
	}
	s.Metrics.RecordNotification(true, delivered)

	if n.Priority == PriorityUrgent {
		s.sendEmail(ctx, n)
	}
	return Result{Notification: n, Delivered: delivered}, nil
}

func validateEvent(evt *Event) error {
	if !evt.To.valid() {
		return fmt.Errorf("%w: exactly one recipient selector required", ErrInvalidEvent)
	}
	if !ValidType(evt.Type) {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidEvent, evt.Type)
	}
	if strings.TrimSpace(evt.Title) == "" {
		return fmt.Errorf("%w: title required", ErrInvalidEvent)
	}
	if evt.Priority == "" {
		evt.Priority = PriorityMedium
	}
	if !ValidPriority(evt.Priority) {
		return fmt.Errorf("%w: unknown priority %q", ErrInvalidEvent, evt.Priority)
	}
	return nil
}

func (s *Service) sendEmail(ctx context.Context, n *Notification) {
	if s.Mailer == nil {
		return
	}
	email, err := s.store.UserEmail(ctx, n.RecipientID)
	if err != nil {
		slog.Warn("notification email lookup failed", "err", err)
		return
	}
	if email == "" {
		return
	}
	if err := s.Mailer.Send(ctx, s.DefaultFrom, email, n.Title, n.Message); err != nil {
		slog.Warn("notification email send failed", "err", err)
	}
}

func (s *Service) List(ctx context.Context, userID string, filter ListFilter) ([]*Notification, error) {
	return s.store.List(ctx, userID, filter)
}

func (s *Service) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.store.CountUnread(ctx, userID)
}

func (s *Service) MarkRead(ctx context.Context, userID, id string) (*Notification, error) {
	return s.store.MarkRead(ctx, userID, id)
}

func (s *Service) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.store.MarkAllRead(ctx, userID)
}

func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	return s.store.PurgeExpired(ctx, s.now())
}

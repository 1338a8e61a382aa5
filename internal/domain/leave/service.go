package leave

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"crm/internal/domain/auth"
	"crm/internal/domain/notifications"
)

type Service struct {
	store  StoreAPI
	Notify notifications.Notifier
	now    func() time.Time
}

func NewService(store StoreAPI, notify notifications.Notifier) *Service {
	return &Service{store: store, Notify: notify, now: time.Now}
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (s *Service) Apply(ctx context.Context, actor auth.Actor, input ApplyInput) (*Leave, error) {
	if !ValidType(input.Type) {
		return nil, fmt.Errorf("%w: unknown leave type %q", ErrInvalidLeave, input.Type)
	}
	if input.StartDate.IsZero() || input.EndDate.IsZero() {
		return nil, fmt.Errorf("%w: start and end dates are required", ErrInvalidLeave)
	}
	start, end := dateOnly(input.StartDate), dateOnly(input.EndDate)
	days, err := CalculateDays(start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLeave, err)
	}

	l := &Leave{
		UserID:    actor.UserID,
		Type:      input.Type,
		StartDate: start,
		EndDate:   end,
		Days:      days,
		Reason:    strings.TrimSpace(input.Reason),
		Status:    StatusPending,
	}
	if err := s.store.Create(ctx, l); err != nil {
		return nil, err
	}

	notifications.Emit(ctx, s.Notify, notifications.Event{
		To:       notifications.ToRoom(auth.RoleRoom(auth.RoleHR)),
		SenderID: actor.UserID,
		Type:     notifications.TypeLeaveRequested,
		Title:    "New leave request",
		Message:  fmt.Sprintf("%d day(s) of %s leave from %s", days, l.Type, start.Format(time.DateOnly)),
		Data:     map[string]any{"leaveId": l.ID, "userId": l.UserID, "days": days},
	})
	return l, nil
}

// Review approves or denies a pending leave.
func (s *Service) Review(ctx context.Context, actor auth.Actor, id string, status Status, comments string) (*Leave, error) {
	if !actor.Can(auth.CapLeaveReview) {
		return nil, ErrNotAuthorized
	}
	if status != StatusApproved && status != StatusDenied {
		return nil, fmt.Errorf("%w: status must be approved or denied", ErrInvalidLeave)
	}
	if uuid.Validate(id) != nil {
		return nil, ErrNotFound
	}

	now := s.now()
	l, err := s.store.Transition(ctx, id, func(l *Leave) error {
		if l.Status != StatusPending {
			return ErrAlreadyReviewed
		}
		reviewer := actor.UserID
		l.Status = status
		l.ReviewedBy = &reviewer
		l.ReviewedAt = &now
		l.ReviewComments = strings.TrimSpace(comments)
		return nil
	})
	if err != nil {
		return nil, err
	}

	priority := notifications.PriorityMedium
	if status == StatusDenied {
		priority = notifications.PriorityHigh
	}
	notifications.Emit(ctx, s.Notify, notifications.Event{
		To:       notifications.ToUser(l.UserID),
		SenderID: actor.UserID,
		Type:     notifications.TypeLeaveDecision,
		Title:    "Leave " + string(status),
		Message:  fmt.Sprintf("Your leave from %s to %s was %s", l.StartDate.Format(time.DateOnly), l.EndDate.Format(time.DateOnly), status),
		Priority: priority,
		Data:     map[string]any{"leaveId": l.ID, "status": status},
	})
	return l, nil
}

// Cancel withdraws the actor's own pending leave.
func (s *Service) Cancel(ctx context.Context, actor auth.Actor, id string) (*Leave, error) {
	if uuid.Validate(id) != nil {
		return nil, ErrNotFound
	}
	return s.store.Transition(ctx, id, func(l *Leave) error {
		if l.UserID != actor.UserID {
			return ErrNotAuthorized
		}
		if l.Status != StatusPending {
			return ErrAlreadyReviewed
		}
		l.Status = StatusCancelled
		return nil
	})
}

// List returns every leave for reviewers and only the actor's own otherwise.
func (s *Service) List(ctx context.Context, actor auth.Actor, filter ListFilter) ([]*Leave, error) {
	if !actor.Can(auth.CapLeaveReview) {
		filter.UserID = actor.UserID
	}
	return s.store.List(ctx, filter)
}

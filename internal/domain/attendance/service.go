package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"crm/internal/domain/auth"
	"crm/internal/domain/notifications"
)

type Service struct {
	store    StoreAPI
	Notify   notifications.Notifier
	Location *time.Location
	now      func() time.Time
}

func NewService(store StoreAPI, notify notifications.Notifier, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: store, Notify: notify, Location: loc, now: time.Now}
}

func (s *Service) today() (time.Time, time.Time) {
	now := s.now().In(s.Location)
	return now, WorkDate(now, s.Location)
}

// CheckIn opens today's record. Status is classified once here and never
// revisited by later check-out.
func (s *Service) CheckIn(ctx context.Context, actor auth.Actor, input CheckInput) (*Record, error) {
	now, day := s.today()
	rec, err := s.store.CheckIn(ctx, actor.UserID, day, now, input, ClassifyCheckIn(now))
	if err != nil {
		return nil, err
	}
	s.emit(ctx, actor, "checkin", rec, "Employee checked in")
	return rec, nil
}

func (s *Service) CheckOut(ctx context.Context, actor auth.Actor, input CheckInput) (*Record, error) {
	now, day := s.today()
	rec, err := s.store.UpdateDay(ctx, actor.UserID, day, func(r *Record) error {
		if !r.CheckedIn() {
			return ErrNotCheckedIn
		}
		if r.CheckedOut() {
			return ErrDuplicateCheckOut
		}
		r.CheckOut = CheckInfo{Time: &now, Location: input.Location, IPAddress: input.IPAddress}
		r.recomputeHours()
		return nil
	})
	if err != nil {
		return nil, notCheckedIn(err)
	}
	s.emit(ctx, actor, "checkout", rec, "Employee checked out")
	return rec, nil
}

func (s *Service) StartBreak(ctx context.Context, actor auth.Actor) (*Record, error) {
	now, day := s.today()
	rec, err := s.store.UpdateDay(ctx, actor.UserID, day, func(r *Record) error {
		if !r.CheckedIn() {
			return ErrNotCheckedIn
		}
		if r.CheckedOut() {
			return ErrDuplicateCheckOut
		}
		if r.openBreak() != nil {
			return ErrBreakInProgress
		}
		r.Breaks = append(r.Breaks, Break{Start: now})
		return nil
	})
	if err != nil {
		return nil, notCheckedIn(err)
	}
	return rec, nil
}

func (s *Service) EndBreak(ctx context.Context, actor auth.Actor) (*Record, error) {
	now, day := s.today()
	rec, err := s.store.UpdateDay(ctx, actor.UserID, day, func(r *Record) error {
		open := r.openBreak()
		if open == nil {
			return ErrNoOpenBreak
		}
		open.End = &now
		r.recomputeHours()
		return nil
	})
	if err != nil {
		return nil, notCheckedIn(err)
	}
	return rec, nil
}

// Override lets attendance managers set status, notes, hours or times on any
// record regardless of its state.
func (s *Service) Override(ctx context.Context, actor auth.Actor, id string, input OverrideInput) (*Record, error) {
	if !actor.Can(auth.CapAttendanceManage) {
		return nil, ErrNotAuthorized
	}
	if input.Status != nil && !ValidStatus(*input.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidOverride, *input.Status)
	}
	if input.WorkingHours != nil && (*input.WorkingHours < 0 || *input.WorkingHours > 24) {
		return nil, fmt.Errorf("%w: workingHours must be between 0 and 24", ErrInvalidOverride)
	}

	rec, err := s.store.Update(ctx, id, func(r *Record) error {
		if input.CheckInTime != nil {
			r.CheckIn.Time = input.CheckInTime
		}
		if input.CheckOutTime != nil {
			r.CheckOut.Time = input.CheckOutTime
		}
		if r.CheckIn.Time != nil && r.CheckOut.Time != nil && r.CheckOut.Time.Before(*r.CheckIn.Time) {
			return fmt.Errorf("%w: checkOutTime precedes checkInTime", ErrInvalidOverride)
		}
		if input.CheckInTime != nil || input.CheckOutTime != nil {
			r.recomputeHours()
		}
		if input.WorkingHours != nil {
			r.WorkingHours = *input.WorkingHours
		}
		if input.Status != nil {
			r.Status = *input.Status
		}
		if input.Notes != nil {
			r.Notes = *input.Notes
		}
		approver := actor.UserID
		r.ApprovedBy = &approver
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, actor, "override", rec, "Attendance updated")
	return rec, nil
}

// Today returns the caller's record for the current day, or nil.
func (s *Service) Today(ctx context.Context, actor auth.Actor) (*Record, error) {
	_, day := s.today()
	rec, err := s.store.GetDay(ctx, actor.UserID, day)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return rec, err
}

func (s *Service) List(ctx context.Context, actor auth.Actor, filter ListFilter) ([]*Record, error) {
	if !actor.Can(auth.CapAttendanceManage) {
		filter.UserID = actor.UserID
	}
	return s.store.List(ctx, filter)
}

func (s *Service) emit(ctx context.Context, actor auth.Actor, action string, rec *Record, title string) {
	data := map[string]any{
		"action":       action,
		"attendanceId": rec.ID,
		"userId":       rec.UserID,
		"status":       rec.Status,
		"date":         rec.WorkDate.Format("2006-01-02"),
	}
	if rec.CheckedOut() {
		data["workingHours"] = rec.WorkingHours
	}
	notifications.Emit(ctx, s.Notify, notifications.Event{
		To:       notifications.ToRoom(auth.RoleRoom(auth.RoleHR)),
		SenderID: actor.UserID,
		Type:     notifications.TypeAttendanceUpdate,
		Title:    title,
		Message:  fmt.Sprintf("%s: %s", action, rec.Status),
		Priority: notifications.PriorityLow,
		Data:     data,
	})
}

func notCheckedIn(err error) error {
	if errors.Is(err, ErrNotFound) {
		return ErrNotCheckedIn
	}
	return err
}

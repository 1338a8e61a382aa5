package attendance

import "errors"

var (
	ErrNotFound          = errors.New("attendance record not found")
	ErrDuplicateCheckIn  = errors.New("already checked in today")
	ErrNotCheckedIn      = errors.New("not checked in today")
	ErrDuplicateCheckOut = errors.New("already checked out today")
	ErrBreakInProgress   = errors.New("a break is already in progress")
	ErrNoOpenBreak       = errors.New("no break in progress")
	ErrNotAuthorized     = errors.New("not authorized")
	ErrInvalidOverride   = errors.New("invalid attendance override")
)

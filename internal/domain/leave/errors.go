package leave

import "errors"

var (
	ErrNotFound        = errors.New("leave not found")
	ErrInvalidLeave    = errors.New("invalid leave request")
	ErrLeaveOverlap    = errors.New("leave overlaps an existing request")
	ErrAlreadyReviewed = errors.New("leave already reviewed")
	ErrNotAuthorized   = errors.New("not authorized")
)

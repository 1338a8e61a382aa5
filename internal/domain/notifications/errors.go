package notifications

import "errors"

var (
	ErrNotFound     = errors.New("notification not found")
	ErrInvalidEvent = errors.New("invalid notification event")
)

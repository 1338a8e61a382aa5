package leave

import (
	"errors"
	"math"
	"time"
)

var ErrInvalidRange = errors.New("end date before start date")

// CalculateDays returns the inclusive day count between start and end.
// A partial trailing day counts as a whole day.
func CalculateDays(start, end time.Time) (int, error) {
	if end.Before(start) {
		return 0, ErrInvalidRange
	}
	return int(math.Ceil(end.Sub(start).Hours()/24)) + 1, nil
}

package attendance

import "time"

const (
	lateCutoffHour   = 9
	lateCutoffMinute = 15
)

// ComputeWorkingHours returns the time between checkIn and checkOut minus
// every closed break, never below zero. Breaks without an end deduct nothing.
func ComputeWorkingHours(checkIn, checkOut time.Time, breaks []Break) float64 {
	raw := checkOut.Sub(checkIn)
	var onBreak time.Duration
	for _, b := range breaks {
		if b.End == nil {
			continue
		}
		onBreak += b.End.Sub(b.Start)
	}
	worked := raw - onBreak
	if worked < 0 {
		return 0
	}
	return worked.Hours()
}

// ClassifyCheckIn reports late for a wall-clock time after 09:15:00 in the
// location carried by t.
func ClassifyCheckIn(t time.Time) Status {
	cutoff := time.Date(t.Year(), t.Month(), t.Day(), lateCutoffHour, lateCutoffMinute, 0, 0, t.Location())
	if t.After(cutoff) {
		return StatusLate
	}
	return StatusPresent
}

// WorkDate is the calendar day of t in loc, as midnight UTC.
func WorkDate(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

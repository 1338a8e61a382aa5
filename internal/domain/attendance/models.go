package attendance

import "time"

type Status string

const (
	StatusPresent      Status = "present"
	StatusAbsent       Status = "absent"
	StatusLate         Status = "late"
	StatusHalfDay      Status = "half-day"
	StatusWorkFromHome Status = "work-from-home"
)

func ValidStatus(s Status) bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLate, StatusHalfDay, StatusWorkFromHome:
		return true
	}
	return false
}

type Break struct {
	Start time.Time  `json:"startTime"`
	End   *time.Time `json:"endTime,omitempty"`
}

type CheckInfo struct {
	Time      *time.Time `json:"time,omitempty"`
	Location  string     `json:"location,omitempty"`
	IPAddress string     `json:"ipAddress,omitempty"`
}

type Record struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	WorkDate     time.Time `json:"date"`
	CheckIn      CheckInfo `json:"checkIn"`
	CheckOut     CheckInfo `json:"checkOut"`
	Breaks       []Break   `json:"breaks"`
	WorkingHours float64   `json:"workingHours"`
	Status       Status    `json:"status"`
	Notes        string    `json:"notes,omitempty"`
	ApprovedBy   *string   `json:"approvedBy,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (r *Record) CheckedIn() bool  { return r.CheckIn.Time != nil }
func (r *Record) CheckedOut() bool { return r.CheckOut.Time != nil }

func (r *Record) openBreak() *Break {
	if len(r.Breaks) == 0 {
		return nil
	}
	last := &r.Breaks[len(r.Breaks)-1]
	if last.End != nil {
		return nil
	}
	return last
}

// recomputeHours refreshes WorkingHours when both check times are known.
func (r *Record) recomputeHours() {
	if r.CheckIn.Time == nil || r.CheckOut.Time == nil {
		return
	}
	r.WorkingHours = ComputeWorkingHours(*r.CheckIn.Time, *r.CheckOut.Time, r.Breaks)
}

type CheckInput struct {
	Location  string `json:"location"`
	IPAddress string `json:"-"`
}

type OverrideInput struct {
	Status       *Status    `json:"status"`
	Notes        *string    `json:"notes"`
	WorkingHours *float64   `json:"workingHours"`
	CheckInTime  *time.Time `json:"checkInTime"`
	CheckOutTime *time.Time `json:"checkOutTime"`
}

type ListFilter struct {
	UserID string
	From   time.Time
	To     time.Time
	Status Status
	Limit  int
	Offset int
}

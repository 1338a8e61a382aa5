package leave

import "time"

type Type string

const (
	TypeAnnual    Type = "annual"
	TypeSick      Type = "sick"
	TypePersonal  Type = "personal"
	TypeMaternity Type = "maternity"
	TypePaternity Type = "paternity"
	TypeUnpaid    Type = "unpaid"
)

func ValidType(t Type) bool {
	switch t {
	case TypeAnnual, TypeSick, TypePersonal, TypeMaternity, TypePaternity, TypeUnpaid:
		return true
	}
	return false
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusDenied    Status = "denied"
	StatusCancelled Status = "cancelled"
)

type Leave struct {
	ID             string     `json:"id"`
	UserID         string     `json:"userId"`
	Type           Type       `json:"type"`
	StartDate      time.Time  `json:"startDate"`
	EndDate        time.Time  `json:"endDate"`
	Days           int        `json:"days"`
	Reason         string     `json:"reason"`
	Status         Status     `json:"status"`
	ReviewedBy     *string    `json:"reviewedBy,omitempty"`
	ReviewedAt     *time.Time `json:"reviewedAt,omitempty"`
	ReviewComments string     `json:"reviewComments,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

type ApplyInput struct {
	Type      Type      `json:"type"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	Reason    string    `json:"reason"`
}

type ListFilter struct {
	UserID string
	Status Status
	Limit  int
	Offset int
}

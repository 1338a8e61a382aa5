package leads

type Status string

const (
	StatusNew         Status = "new"
	StatusContacted   Status = "contacted"
	StatusQualified   Status = "qualified"
	StatusProposal    Status = "proposal"
	StatusNegotiation Status = "negotiation"
	StatusPaid        Status = "paid"
	StatusPending     Status = "pending"
	StatusLost        Status = "lost"
)

// Statuses lists every status. Any status may move to any other.
var Statuses = []Status{
	StatusNew,
	StatusContacted,
	StatusQualified,
	StatusProposal,
	StatusNegotiation,
	StatusPaid,
	StatusPending,
	StatusLost,
}

func ValidStatus(s Status) bool {
	for _, candidate := range Statuses {
		if candidate == s {
			return true
		}
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func ValidPriority(p Priority) bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

const (
	ReasonCreated  = "created"
	ReasonAssigned = "assigned"
)

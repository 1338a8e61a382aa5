package notifications

type Type string

const (
	TypeLeadAssigned      Type = "lead_assigned"
	TypeLeadStatusChanged Type = "lead_status_changed"
	TypeProjectCreated    Type = "project_created"
	TypeAttendanceUpdate  Type = "attendance_update"
	TypeLeaveRequested    Type = "leave_requested"
	TypeLeaveDecision     Type = "leave_decision"
	TypePaymentReceived   Type = "payment_received"
	TypeGeneral           Type = "general"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// EventNotification is the push event carrying a persisted notification
// to its recipient's personal room.
const EventNotification = "notification"

var validTypes = map[Type]struct{}{
	TypeLeadAssigned:      {},
	TypeLeadStatusChanged: {},
	TypeProjectCreated:    {},
	TypeAttendanceUpdate:  {},
	TypeLeaveRequested:    {},
	TypeLeaveDecision:     {},
	TypePaymentReceived:   {},
	TypeGeneral:           {},
}

var validPriorities = map[Priority]struct{}{
	PriorityLow:    {},
	PriorityMedium: {},
	PriorityHigh:   {},
	PriorityUrgent: {},
}

func ValidType(t Type) bool {
	_, ok := validTypes[t]
	return ok
}

func ValidPriority(p Priority) bool {
	_, ok := validPriorities[p]
	return ok
}

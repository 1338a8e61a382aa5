package auth

import "strings"

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleHR        Role = "hr"
	RoleManager   Role = "manager"
	RoleSales     Role = "sales"
	RolePreSales  Role = "presales"
	RoleDeveloper Role = "developer"
	RoleEmployee  Role = "employee"
)

type Capability string

const (
	CapLeadsManage      Capability = "leads.manage"
	CapAttendanceManage Capability = "attendance.manage"
	CapLeaveReview      Capability = "leave.review"
	CapProjectsRead     Capability = "projects.read"
	CapProjectsManage   Capability = "projects.manage"
	CapInvoicesManage   Capability = "invoices.manage"
	CapUsersManage      Capability = "users.manage"
	CapAuditRead        Capability = "audit.read"
	CapReportsRead      Capability = "reports.read"
)

var DefaultCapabilities = []Capability{
	CapLeadsManage,
	CapAttendanceManage,
	CapLeaveReview,
	CapProjectsRead,
	CapProjectsManage,
	CapInvoicesManage,
	CapUsersManage,
	CapAuditRead,
	CapReportsRead,
}

// RoleCapabilities lists what each role may do beyond the operations open to
// every authenticated user.
var RoleCapabilities = map[Role][]Capability{
	RoleAdmin: DefaultCapabilities,
	RoleHR: {
		CapLeadsManage,
		CapAttendanceManage,
		CapLeaveReview,
		CapProjectsRead,
		CapUsersManage,
		CapAuditRead,
		CapReportsRead,
	},
	RoleManager: {
		CapProjectsRead,
		CapProjectsManage,
		CapInvoicesManage,
		CapReportsRead,
	},
	RoleSales: {
		CapProjectsRead,
	},
	RolePreSales: {
		CapProjectsRead,
	},
	RoleDeveloper: {
		CapProjectsRead,
	},
	RoleEmployee: {},
}

func ParseRole(value string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(value)))
	_, ok := RoleCapabilities[role]
	return role, ok
}

// Actor is the authenticated caller as seen by domain services.
type Actor struct {
	UserID       string
	Role         Role
	Capabilities map[Capability]struct{}
}

func NewActor(userID string, role Role) Actor {
	caps := make(map[Capability]struct{}, len(RoleCapabilities[role]))
	for _, c := range RoleCapabilities[role] {
		caps[c] = struct{}{}
	}
	return Actor{UserID: userID, Role: role, Capabilities: caps}
}

func (a Actor) Can(c Capability) bool {
	_, ok := a.Capabilities[c]
	return ok
}

// RoleRoom is the realtime room shared by every connection of this role.
func (a Actor) RoleRoom() string {
	return RoleRoom(a.Role)
}

func RoleRoom(role Role) string {
	return strings.ToLower(string(role))
}

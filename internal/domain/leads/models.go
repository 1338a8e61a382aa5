package leads

import (
	"time"

	"github.com/shopspring/decimal"
)

type HistoryEntry struct {
	Status    Status    `json:"status"`
	ChangedBy string    `json:"changedBy"`
	ChangedAt time.Time `json:"changedAt"`
	Reason    string    `json:"reason,omitempty"`
}

type Note struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"authorId"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

type Lead struct {
	ID                  string           `json:"id"`
	LeadCode            string           `json:"leadId"`
	Company             string           `json:"company"`
	ContactName         string           `json:"contactName"`
	Email               string           `json:"email"`
	Phone               string           `json:"phone,omitempty"`
	Industry            string           `json:"industry,omitempty"`
	Source              string           `json:"source,omitempty"`
	Priority            Priority         `json:"priority"`
	PotentialValue      decimal.Decimal  `json:"potentialValue"`
	ClientQuotation     *decimal.Decimal `json:"clientQuotation,omitempty"`
	FinalQuotation      *decimal.Decimal `json:"finalQuotation,omitempty"`
	InterestedPlatforms []string         `json:"interestedPlatforms"`
	SLAAgreed           bool             `json:"slaAgreed"`
	NDASigned           bool             `json:"ndaSigned"`
	Status              Status           `json:"status"`
	AssignedTo          *string          `json:"assignedTo,omitempty"`
	AssignedBy          *string          `json:"assignedBy,omitempty"`
	AssignedDate        *time.Time       `json:"assignedDate,omitempty"`
	CreatedBy           string           `json:"createdBy"`
	ConvertedToProject  bool             `json:"convertedToProject"`
	ProjectID           *string          `json:"projectId,omitempty"`
	LastActivity        *time.Time       `json:"lastActivity,omitempty"`
	CreatedAt           time.Time        `json:"createdAt"`
	StatusHistory       []HistoryEntry   `json:"statusHistory,omitempty"`
	Notes               []Note           `json:"notes,omitempty"`
}

func (l *Lead) IsAssignedTo(userID string) bool {
	return l.AssignedTo != nil && *l.AssignedTo == userID
}

// Stakeholders are the assignee and creator, deduplicated.
func (l *Lead) Stakeholders() []string {
	out := []string{l.CreatedBy}
	if l.AssignedTo != nil && *l.AssignedTo != l.CreatedBy {
		out = append(out, *l.AssignedTo)
	}
	return out
}

type CreateInput struct {
	Company             string           `json:"company"`
	ContactName         string           `json:"contactName"`
	Email               string           `json:"email"`
	Phone               string           `json:"phone"`
	Industry            string           `json:"industry"`
	Source              string           `json:"source"`
	Priority            Priority         `json:"priority"`
	PotentialValue      decimal.Decimal  `json:"potentialValue"`
	ClientQuotation     *decimal.Decimal `json:"clientQuotation"`
	FinalQuotation      *decimal.Decimal `json:"finalQuotation"`
	InterestedPlatforms []string         `json:"interestedPlatforms"`
	SLAAgreed           bool             `json:"slaAgreed"`
	NDASigned           bool             `json:"ndaSigned"`
}

type UpdateInput struct {
	Company             *string          `json:"company"`
	ContactName         *string          `json:"contactName"`
	Email               *string          `json:"email"`
	Phone               *string          `json:"phone"`
	Industry            *string          `json:"industry"`
	Source              *string          `json:"source"`
	Priority            *Priority        `json:"priority"`
	PotentialValue      *decimal.Decimal `json:"potentialValue"`
	ClientQuotation     *decimal.Decimal `json:"clientQuotation"`
	FinalQuotation      *decimal.Decimal `json:"finalQuotation"`
	InterestedPlatforms []string         `json:"interestedPlatforms"`
	SLAAgreed           *bool            `json:"slaAgreed"`
	NDASigned           *bool            `json:"ndaSigned"`
}

type ListFilter struct {
	Status     Status
	AssignedTo string
	// VisibleTo restricts results to leads the user created or is assigned.
	VisibleTo string
	Search    string
	Limit     int
	Offset    int
}

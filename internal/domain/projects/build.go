package projects

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"crm/internal/domain/leads"
)

// NewProjectCode returns a human-readable project identifier such as PRJ-1A2B3C4D.
func NewProjectCode() string {
	return "PRJ-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// NewFromLead builds the project a paid lead converts into.
func NewFromLead(lead *leads.Lead, now time.Time) *Project {
	budget := lead.PotentialValue
	if lead.FinalQuotation != nil {
		budget = *lead.FinalQuotation
	}
	leadID := lead.ID
	return &Project{
		ProjectCode: NewProjectCode(),
		Name:        projectName(lead.Company, lead.InterestedPlatforms),
		LeadID:      &leadID,
		Client: Client{
			Company: lead.Company,
			Name:    lead.ContactName,
			Email:   lead.Email,
			Phone:   lead.Phone,
		},
		Budget:       Budget{Allocated: budget},
		Timeline:     Timeline{StartDate: now},
		Technologies: append([]string{}, lead.InterestedPlatforms...),
		Status:       StatusPlanning,
	}
}

func projectName(company string, platforms []string) string {
	if len(platforms) == 0 {
		return company
	}
	return company + " - " + strings.Join(platforms, ", ")
}

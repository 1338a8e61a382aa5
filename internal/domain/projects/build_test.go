package projects

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crm/internal/domain/leads"
)

func TestNewFromLead(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	final := decimal.NewFromInt(82000)

	tests := []struct {
		name       string
		lead       leads.Lead
		wantName   string
		wantBudget decimal.Decimal
	}{
		{
			name:       "PotentialValueBudget",
			lead:       leads.Lead{ID: "l1", Company: "ACME", PotentialValue: decimal.NewFromInt(75000)},
			wantName:   "ACME",
			wantBudget: decimal.NewFromInt(75000),
		},
		{
			name: "FinalQuotationWins",
			lead: leads.Lead{
				ID:                  "l2",
				Company:             "Globex",
				PotentialValue:      decimal.NewFromInt(60000),
				FinalQuotation:      &final,
				InterestedPlatforms: []string{"web", "android"},
			},
			wantName:   "Globex - web, android",
			wantBudget: final,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewFromLead(&tt.lead, now)
			require.NotNil(t, p.LeadID)
			assert.Equal(t, tt.lead.ID, *p.LeadID)
			assert.Equal(t, tt.wantName, p.Name)
			assert.True(t, tt.wantBudget.Equal(p.Budget.Allocated))
			assert.Equal(t, tt.lead.Company, p.Client.Company)
			assert.Equal(t, now, p.Timeline.StartDate)
			assert.Equal(t, StatusPlanning, p.Status)
			assert.Regexp(t, `^PRJ-[0-9A-F]{8}$`, p.ProjectCode)
			assert.NotNil(t, p.Technologies)
		})
	}
}

func TestNewFromLeadCopiesPlatforms(t *testing.T) {
	lead := leads.Lead{Company: "ACME", InterestedPlatforms: []string{"web"}}
	p := NewFromLead(&lead, time.Now())
	p.Technologies[0] = "ios"
	assert.Equal(t, "web", lead.InterestedPlatforms[0])
}

package leads

import (
	"strings"

	"github.com/google/uuid"
)

// NewLeadCode returns a human-readable lead identifier such as LEAD-1A2B3C4D.
func NewLeadCode() string {
	return "LEAD-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

package leads

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound          = errors.New("lead not found")
	ErrInvalidStatus     = errors.New("invalid lead status")
	ErrInvalidLead       = errors.New("invalid lead")
	ErrNotAuthorized     = errors.New("not authorized")
	ErrAssigneeNotFound  = errors.New("assignee not found")
	ErrNoLeadsToAssign   = errors.New("no leads to assign")
	ErrDuplicateLeadCode = errors.New("lead code already exists")
)

// MissingLeadsError lists the ids an assignment could not find. It matches
// ErrNotFound with errors.Is.
type MissingLeadsError struct {
	IDs []string
}

func (e *MissingLeadsError) Error() string {
	return fmt.Sprintf("leads not found: %s", strings.Join(e.IDs, ", "))
}

func (e *MissingLeadsError) Is(target error) bool {
	return target == ErrNotFound
}

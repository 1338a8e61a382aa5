package leads

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepo is an in-memory Repository with the same locking and
// all-or-nothing semantics as Store.
type MemoryRepo struct {
	mu    sync.Mutex
	leads map[string]*Lead
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{leads: map[string]*Lead{}}
}

func clone(l *Lead) *Lead {
	c := *l
	c.InterestedPlatforms = append([]string(nil), l.InterestedPlatforms...)
	c.StatusHistory = append([]HistoryEntry(nil), l.StatusHistory...)
	c.Notes = append([]Note(nil), l.Notes...)
	return &c
}

func (m *MemoryRepo) Create(_ context.Context, lead *Lead, initial HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.leads {
		if existing.LeadCode == lead.LeadCode {
			return ErrDuplicateLeadCode
		}
	}
	lead.ID = uuid.NewString()
	lead.CreatedAt = initial.ChangedAt
	lead.StatusHistory = []HistoryEntry{initial}
	m.leads[lead.ID] = clone(lead)
	return nil
}

func (m *MemoryRepo) Get(_ context.Context, id string) (*Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lead, ok := m.leads[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(lead), nil
}

func (m *MemoryRepo) List(_ context.Context, filter ListFilter) ([]*Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Lead
	for _, lead := range m.leads {
		if filter.VisibleTo != "" && lead.CreatedBy != filter.VisibleTo && !lead.IsAssignedTo(filter.VisibleTo) {
			continue
		}
		if filter.Status != "" && lead.Status != filter.Status {
			continue
		}
		out = append(out, clone(lead))
	}
	return out, nil
}

func (m *MemoryRepo) ChangeStatus(_ context.Context, id string, authorize func(*Lead) error, entry HistoryEntry, note func(Status) string) (*Lead, Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lead, ok := m.leads[id]
	if !ok {
		return nil, "", ErrNotFound
	}
	if err := authorize(clone(lead)); err != nil {
		return nil, "", err
	}
	previous := lead.Status
	lead.Status = entry.Status
	lead.LastActivity = &entry.ChangedAt
	lead.StatusHistory = append(lead.StatusHistory, entry)
	lead.Notes = append(lead.Notes, Note{ID: uuid.NewString(), AuthorID: entry.ChangedBy, Body: note(previous), CreatedAt: entry.ChangedAt})
	return clone(lead), previous, nil
}

func (m *MemoryRepo) Assign(_ context.Context, ids []string, assignTo, assignedBy string, at time.Time) ([]*Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var missing []string
	for _, id := range ids {
		if _, ok := m.leads[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingLeadsError{IDs: missing}
	}
	var out []*Lead
	for _, id := range ids {
		lead := m.leads[id]
		to, by := assignTo, assignedBy
		lead.AssignedTo, lead.AssignedBy, lead.AssignedDate, lead.LastActivity = &to, &by, &at, &at
		lead.StatusHistory = append(lead.StatusHistory, HistoryEntry{Status: lead.Status, ChangedBy: assignedBy, ChangedAt: at, Reason: ReasonAssigned})
		out = append(out, clone(lead))
	}
	return out, nil
}

func (m *MemoryRepo) AddNote(_ context.Context, id string, authorize func(*Lead) error, note *Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	lead, ok := m.leads[id]
	if !ok {
		return ErrNotFound
	}
	if err := authorize(clone(lead)); err != nil {
		return err
	}
	note.ID = uuid.NewString()
	lead.Notes = append(lead.Notes, *note)
	lead.LastActivity = &note.CreatedAt
	return nil
}

func (m *MemoryRepo) Update(_ context.Context, id string, authorize func(*Lead) error, apply func(*Lead), at time.Time) (*Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lead, ok := m.leads[id]
	if !ok {
		return nil, ErrNotFound
	}
	if err := authorize(clone(lead)); err != nil {
		return nil, err
	}
	apply(lead)
	lead.LastActivity = &at
	return clone(lead), nil
}

func (m *MemoryRepo) PendingConversions(_ context.Context, limit int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for id, lead := range m.leads {
		if lead.Status == StatusPaid && !lead.ConvertedToProject && len(ids) < limit {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// MarkConverted is the guard the SQL converter performs with a conditional
// update: only a paid, unconverted lead is claimed.
func (m *MemoryRepo) MarkConverted(id, projectID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	lead := m.leads[id]
	if lead == nil || lead.ConvertedToProject || lead.Status != StatusPaid {
		return false
	}
	lead.ConvertedToProject = true
	lead.ProjectID = &projectID
	return true
}

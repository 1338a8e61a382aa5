package projects

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"crm/internal/domain/auth"
	"crm/internal/domain/leads"
	"crm/internal/domain/notifications"
	"crm/internal/platform/metrics"
)

// Converter implements leads.ProjectConverter.
type Converter struct {
	store   StoreAPI
	Notify  notifications.Notifier
	Metrics *metrics.Collector
	now     func() time.Time
}

func NewConverter(store StoreAPI, notify notifications.Notifier, m *metrics.Collector) *Converter {
	return &Converter{store: store, Notify: notify, Metrics: m, now: time.Now}
}

func (c *Converter) ConvertLead(ctx context.Context, leadID string) (string, bool, error) {
	project, err := c.store.ConvertLead(ctx, leadID, func(lead *leads.Lead) *Project {
		return NewFromLead(lead, c.now())
	})
	if err != nil {
		return "", false, err
	}
	if project == nil {
		return "", false, nil
	}

	c.Metrics.RecordConversion()
	notifications.Emit(ctx, c.Notify, notifications.Event{
		To:      notifications.ToEveryone(),
		Type:    notifications.TypeProjectCreated,
		Title:   "New project created",
		Message: fmt.Sprintf("%s was created from a paid lead", project.Name),
		Data: map[string]any{
			"projectId":   project.ID,
			"projectCode": project.ProjectCode,
			"leadId":      leadID,
			"name":        project.Name,
		},
	})
	return project.ID, true, nil
}

type Service struct {
	store  StoreAPI
	Notify notifications.Notifier
	now    func() time.Time
}

func NewService(store StoreAPI, notify notifications.Notifier) *Service {
	return &Service{store: store, Notify: notify, now: time.Now}
}

// Create adds a project that did not come from a lead.
func (s *Service) Create(ctx context.Context, actor auth.Actor, input CreateInput) (*Project, error) {
	if !actor.Can(auth.CapProjectsManage) {
		return nil, ErrNotAuthorized
	}
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, fmt.Errorf("%w: name required", ErrInvalidProject)
	}
	if input.Budget.IsNegative() {
		return nil, fmt.Errorf("%w: budget must not be negative", ErrInvalidProject)
	}
	start := input.StartDate
	if start.IsZero() {
		start = s.now()
	}
	technologies := input.Technologies
	if technologies == nil {
		technologies = []string{}
	}
	creator := actor.UserID
	project := &Project{
		ProjectCode:  NewProjectCode(),
		Name:         input.Name,
		Client:       input.Client,
		Budget:       Budget{Allocated: input.Budget},
		Timeline:     Timeline{StartDate: start},
		Technologies: technologies,
		Status:       StatusPlanning,
		CreatedBy:    &creator,
	}

	err := s.store.Create(ctx, project)
	if errors.Is(err, ErrDuplicateCode) {
		project.ProjectCode = NewProjectCode()
		err = s.store.Create(ctx, project)
	}
	if err != nil {
		return nil, err
	}

	notifications.Emit(ctx, s.Notify, notifications.Event{
		To:       notifications.ToEveryone(),
		SenderID: actor.UserID,
		Type:     notifications.TypeProjectCreated,
		Title:    "New project created",
		Message:  project.Name,
		Data:     map[string]any{"projectId": project.ID, "projectCode": project.ProjectCode},
	})
	return project, nil
}

func (s *Service) Get(ctx context.Context, actor auth.Actor, id string) (*Project, error) {
	if !actor.Can(auth.CapProjectsRead) {
		return nil, ErrNotAuthorized
	}
	if uuid.Validate(id) != nil {
		return nil, ErrNotFound
	}
	return s.store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, actor auth.Actor, filter ListFilter) ([]*Project, error) {
	if !actor.Can(auth.CapProjectsRead) {
		return nil, ErrNotAuthorized
	}
	return s.store.List(ctx, filter)
}

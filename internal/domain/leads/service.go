package leads

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"crm/internal/domain/auth"
	"crm/internal/domain/notifications"
)

type Service struct {
	repo      Repository
	Converter ProjectConverter
	Users     UserDirectory
	Notify    notifications.Notifier
	now       func() time.Time
}

func NewService(repo Repository, converter ProjectConverter, users UserDirectory, notify notifications.Notifier) *Service {
	return &Service{repo: repo, Converter: converter, Users: users, Notify: notify, now: time.Now}
}

func (s *Service) Create(ctx context.Context, actor auth.Actor, input CreateInput) (*Lead, error) {
	if err := validateCreate(&input); err != nil {
		return nil, err
	}

	lead := &Lead{
		LeadCode:            NewLeadCode(),
		Company:             input.Company,
		ContactName:         input.ContactName,
		Email:               input.Email,
		Phone:               strings.TrimSpace(input.Phone),
		Industry:            strings.TrimSpace(input.Industry),
		Source:              strings.TrimSpace(input.Source),
		Priority:            input.Priority,
		PotentialValue:      input.PotentialValue,
		ClientQuotation:     input.ClientQuotation,
		FinalQuotation:      input.FinalQuotation,
		InterestedPlatforms: normalizePlatforms(input.InterestedPlatforms),
		SLAAgreed:           input.SLAAgreed,
		NDASigned:           input.NDASigned,
		Status:              StatusNew,
		CreatedBy:           actor.UserID,
	}
	initial := HistoryEntry{Status: StatusNew, ChangedBy: actor.UserID, ChangedAt: s.now(), Reason: ReasonCreated}

	err := s.repo.Create(ctx, lead, initial)
	if errors.Is(err, ErrDuplicateLeadCode) {
		lead.LeadCode = NewLeadCode()
		err = s.repo.Create(ctx, lead, initial)
	}
	if err != nil {
		return nil, err
	}
	return lead, nil
}

func validateCreate(input *CreateInput) error {
	input.Company = strings.TrimSpace(input.Company)
	input.ContactName = strings.TrimSpace(input.ContactName)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	var missing []string
	if input.Company == "" {
		missing = append(missing, "company")
	}
	if input.ContactName == "" {
		missing = append(missing, "contactName")
	}
	if input.Email == "" {
		missing = append(missing, "email")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidLead, strings.Join(missing, ", "))
	}
	if _, err := mail.ParseAddress(input.Email); err != nil {
		return fmt.Errorf("%w: invalid email", ErrInvalidLead)
	}
	if input.Priority == "" {
		input.Priority = PriorityMedium
	}
	if !ValidPriority(input.Priority) {
		return fmt.Errorf("%w: invalid priority", ErrInvalidLead)
	}
	if input.PotentialValue.IsNegative() {
		return fmt.Errorf("%w: potentialValue must not be negative", ErrInvalidLead)
	}
	return nil
}

func normalizePlatforms(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]struct{}{}
	for _, p := range in {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

func validID(id string) bool {
	return uuid.Validate(id) == nil
}

// canChangeStatus allows the assignee or a lead manager.
func canChangeStatus(actor auth.Actor, lead *Lead) bool {
	return actor.Can(auth.CapLeadsManage) || lead.IsAssignedTo(actor.UserID)
}

// canTouch allows the assignee, the creator or a lead manager.
func canTouch(actor auth.Actor, lead *Lead) bool {
	return canChangeStatus(actor, lead) || lead.CreatedBy == actor.UserID
}

// SetStatus records a status change. Entering paid triggers project
// conversion after the change has committed; a failed conversion is logged
// and left for the reconcile job.
func (s *Service) SetStatus(ctx context.Context, actor auth.Actor, leadID string, status Status, reason string) (*Lead, error) {
	if !ValidStatus(status) {
		return nil, ErrInvalidStatus
	}
	if !validID(leadID) {
		return nil, ErrNotFound
	}

	now := s.now()
	entry := HistoryEntry{Status: status, ChangedBy: actor.UserID, ChangedAt: now, Reason: strings.TrimSpace(reason)}
	lead, previous, err := s.repo.ChangeStatus(ctx, leadID, func(l *Lead) error {
		if !canChangeStatus(actor, l) {
			return ErrNotAuthorized
		}
		return nil
	}, entry, func(from Status) string {
		return timelineNote(from, status, entry.Reason)
	})
	if err != nil {
		return nil, err
	}

	if status == StatusPaid && !lead.ConvertedToProject {
		s.convert(ctx, lead)
	}

	s.notifyStatusChange(ctx, actor, lead, previous)
	return lead, nil
}

func (s *Service) convert(ctx context.Context, lead *Lead) {
	if s.Converter == nil {
		return
	}
	projectID, converted, err := s.Converter.ConvertLead(ctx, lead.ID)
	if err != nil {
		slog.Warn("lead conversion failed", "leadId", lead.ID, "err", err)
		return
	}
	if converted {
		lead.ConvertedToProject = true
		lead.ProjectID = &projectID
	}
}

func timelineNote(from, to Status, reason string) string {
	note := fmt.Sprintf("Status changed from %s to %s", from, to)
	if reason != "" {
		note += ": " + reason
	}
	return note
}

func (s *Service) notifyStatusChange(ctx context.Context, actor auth.Actor, lead *Lead, previous Status) {
	data := map[string]any{
		"leadId":   lead.ID,
		"leadCode": lead.LeadCode,
		"from":     previous,
		"to":       lead.Status,
	}
	title := "Lead status changed"
	message := fmt.Sprintf("%s moved from %s to %s", lead.Company, previous, lead.Status)

	var events []notifications.Event
	for _, userID := range lead.Stakeholders() {
		if userID == actor.UserID {
			continue
		}
		events = append(events, notifications.Event{
			To:       notifications.ToUser(userID),
			SenderID: actor.UserID,
			Type:     notifications.TypeLeadStatusChanged,
			Title:    title,
			Message:  message,
			Data:     data,
		})
	}
	events = append(events, notifications.Event{
		To:       notifications.ToRoom(auth.RoleRoom(auth.RoleAdmin)),
		SenderID: actor.UserID,
		Type:     notifications.TypeLeadStatusChanged,
		Title:    title,
		Message:  message,
		Data:     data,
	})
	notifications.Emit(ctx, s.Notify, events...)
}

// Assign hands every lead in ids to assignTo. Nothing changes unless every
// lead exists.
func (s *Service) Assign(ctx context.Context, actor auth.Actor, ids []string, assignTo string) ([]*Lead, error) {
	if !actor.Can(auth.CapLeadsManage) {
		return nil, ErrNotAuthorized
	}
	ids = dedupe(ids)
	if len(ids) == 0 {
		return nil, ErrNoLeadsToAssign
	}
	if !validID(assignTo) {
		return nil, ErrAssigneeNotFound
	}
	var invalid []string
	for _, id := range ids {
		if !validID(id) {
			invalid = append(invalid, id)
		}
	}
	if len(invalid) > 0 {
		return nil, &MissingLeadsError{IDs: invalid}
	}
	if s.Users != nil {
		ok, err := s.Users.UserExists(ctx, assignTo)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrAssigneeNotFound
		}
	}

	assigned, err := s.repo.Assign(ctx, ids, assignTo, actor.UserID, s.now())
	if err != nil {
		return nil, err
	}

	events := make([]notifications.Event, 0, len(assigned))
	for _, lead := range assigned {
		events = append(events, notifications.Event{
			To:       notifications.ToUser(assignTo),
			SenderID: actor.UserID,
			Type:     notifications.TypeLeadAssigned,
			Title:    "New lead assigned",
			Message:  fmt.Sprintf("%s (%s) has been assigned to you", lead.Company, lead.LeadCode),
			Priority: notifications.PriorityHigh,
			Data:     map[string]any{"leadId": lead.ID, "leadCode": lead.LeadCode},
		})
	}
	notifications.Emit(ctx, s.Notify, events...)
	return assigned, nil
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := map[string]struct{}{}
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func (s *Service) AddNote(ctx context.Context, actor auth.Actor, leadID, body string) (*Note, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, fmt.Errorf("%w: note body required", ErrInvalidLead)
	}
	if !validID(leadID) {
		return nil, ErrNotFound
	}
	note := &Note{AuthorID: actor.UserID, Body: body, CreatedAt: s.now()}
	err := s.repo.AddNote(ctx, leadID, func(l *Lead) error {
		if !canTouch(actor, l) {
			return ErrNotAuthorized
		}
		return nil
	}, note)
	if err != nil {
		return nil, err
	}
	return note, nil
}

func (s *Service) Get(ctx context.Context, actor auth.Actor, leadID string) (*Lead, error) {
	if !validID(leadID) {
		return nil, ErrNotFound
	}
	lead, err := s.repo.Get(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if !canTouch(actor, lead) {
		return nil, ErrNotAuthorized
	}
	return lead, nil
}

func (s *Service) List(ctx context.Context, actor auth.Actor, filter ListFilter) ([]*Lead, error) {
	if !actor.Can(auth.CapLeadsManage) {
		filter.VisibleTo = actor.UserID
	}
	return s.repo.List(ctx, filter)
}

func (s *Service) Update(ctx context.Context, actor auth.Actor, leadID string, input UpdateInput) (*Lead, error) {
	if !validID(leadID) {
		return nil, ErrNotFound
	}
	if err := validateUpdate(input); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, leadID, func(l *Lead) error {
		if !canTouch(actor, l) {
			return ErrNotAuthorized
		}
		return nil
	}, func(l *Lead) { input.apply(l) }, s.now())
}

func validateUpdate(input UpdateInput) error {
	if input.Company != nil && strings.TrimSpace(*input.Company) == "" {
		return fmt.Errorf("%w: company must not be empty", ErrInvalidLead)
	}
	if input.ContactName != nil && strings.TrimSpace(*input.ContactName) == "" {
		return fmt.Errorf("%w: contactName must not be empty", ErrInvalidLead)
	}
	if input.Email != nil {
		if _, err := mail.ParseAddress(strings.TrimSpace(*input.Email)); err != nil {
			return fmt.Errorf("%w: invalid email", ErrInvalidLead)
		}
	}
	if input.Priority != nil && !ValidPriority(*input.Priority) {
		return fmt.Errorf("%w: invalid priority", ErrInvalidLead)
	}
	if input.PotentialValue != nil && input.PotentialValue.IsNegative() {
		return fmt.Errorf("%w: potentialValue must not be negative", ErrInvalidLead)
	}
	return nil
}

func (in UpdateInput) apply(l *Lead) {
	if in.Company != nil {
		l.Company = strings.TrimSpace(*in.Company)
	}
	if in.ContactName != nil {
		l.ContactName = strings.TrimSpace(*in.ContactName)
	}
	if in.Email != nil {
		l.Email = strings.ToLower(strings.TrimSpace(*in.Email))
	}
	if in.Phone != nil {
		l.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Industry != nil {
		l.Industry = strings.TrimSpace(*in.Industry)
	}
	if in.Source != nil {
		l.Source = strings.TrimSpace(*in.Source)
	}
	if in.Priority != nil {
		l.Priority = *in.Priority
	}
	if in.PotentialValue != nil {
		l.PotentialValue = *in.PotentialValue
	}
	if in.ClientQuotation != nil {
		l.ClientQuotation = in.ClientQuotation
	}
	if in.FinalQuotation != nil {
		l.FinalQuotation = in.FinalQuotation
	}
	if in.InterestedPlatforms != nil {
		l.InterestedPlatforms = normalizePlatforms(in.InterestedPlatforms)
	}
	if in.SLAAgreed != nil {
		l.SLAAgreed = *in.SLAAgreed
	}
	if in.NDASigned != nil {
		l.NDASigned = *in.NDASigned
	}
}

// ReconcileConversions retries conversion for paid leads that were never
// converted and reports how many projects were created.
func (s *Service) ReconcileConversions(ctx context.Context, limit int) (int, error) {
	if s.Converter == nil {
		return 0, nil
	}
	ids, err := s.repo.PendingConversions(ctx, limit)
	if err != nil {
		return 0, err
	}
	created := 0
	for _, id := range ids {
		_, converted, err := s.Converter.ConvertLead(ctx, id)
		if err != nil {
			slog.Warn("lead conversion retry failed", "leadId", id, "err", err)
			continue
		}
		if converted {
			created++
		}
	}
	return created, nil
}

package invoices

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"crm/internal/domain/auth"
	"crm/internal/domain/notifications"
)

const defaultCurrency = "USD"

type Service struct {
	store  StoreAPI
	Notify notifications.Notifier
	now    func() time.Time
}

func NewService(store StoreAPI, notify notifications.Notifier) *Service {
	return &Service{store: store, Notify: notify, now: time.Now}
}

func (s *Service) Create(ctx context.Context, actor auth.Actor, input CreateInput) (*Invoice, error) {
	if !actor.Can(auth.CapInvoicesManage) {
		return nil, ErrNotAuthorized
	}
	input.ClientName = strings.TrimSpace(input.ClientName)
	if input.ClientName == "" {
		return nil, fmt.Errorf("%w: clientName required", ErrInvalidInvoice)
	}
	if err := validateEmail(input.ClientEmail); err != nil {
		return nil, err
	}
	if err := validateItems(input.Items); err != nil {
		return nil, err
	}
	if !validTaxRate(input.TaxRate) {
		return nil, fmt.Errorf("%w: taxRate must be between 0 and 100", ErrInvalidInvoice)
	}
	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = defaultCurrency
	}

	items, subtotal, tax, total := BuildItems(input.Items, input.TaxRate)
	inv := &Invoice{
		InvoiceNumber: NewInvoiceNumber(s.now()),
		ClientName:    input.ClientName,
		ClientEmail:   strings.TrimSpace(input.ClientEmail),
		LeadID:        input.LeadID,
		ProjectID:     input.ProjectID,
		Items:         items,
		Currency:      currency,
		TaxRate:       input.TaxRate,
		Subtotal:      subtotal,
		Tax:           tax,
		Total:         total,
		Status:        StatusDraft,
		DueDate:       input.DueDate,
		CreatedBy:     actor.UserID,
	}
	err := s.store.Create(ctx, inv)
	if errors.Is(err, ErrDuplicateNumber) {
		inv.InvoiceNumber = NewInvoiceNumber(s.now())
		err = s.store.Create(ctx, inv)
	}
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func validateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("%w: clientEmail is invalid", ErrInvalidInvoice)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, actor auth.Actor, id string) (*Invoice, error) {
	if !actor.Can(auth.CapInvoicesManage) {
		return nil, ErrNotAuthorized
	}
	if uuid.Validate(id) != nil {
		return nil, ErrNotFound
	}
	return s.store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, actor auth.Actor, filter ListFilter) ([]*Invoice, error) {
	if !actor.Can(auth.CapInvoicesManage) {
		return nil, ErrNotAuthorized
	}
	return s.store.List(ctx, filter)
}

// Update edits an unpaid invoice. Paid invoices are immutable.
func (s *Service) Update(ctx context.Context, actor auth.Actor, id string, input UpdateInput) (*Invoice, error) {
	if !actor.Can(auth.CapInvoicesManage) {
		return nil, ErrNotAuthorized
	}
	if uuid.Validate(id) != nil {
		return nil, ErrNotFound
	}
	if input.ClientName != nil && strings.TrimSpace(*input.ClientName) == "" {
		return nil, fmt.Errorf("%w: clientName must not be empty", ErrInvalidInvoice)
	}
	if input.ClientEmail != nil {
		if err := validateEmail(*input.ClientEmail); err != nil {
			return nil, err
		}
	}
	if input.Items != nil {
		if err := validateItems(input.Items); err != nil {
			return nil, err
		}
	}
	if input.TaxRate != nil && !validTaxRate(*input.TaxRate) {
		return nil, fmt.Errorf("%w: taxRate must be between 0 and 100", ErrInvalidInvoice)
	}
	if input.Status != nil && *input.Status != StatusDraft && *input.Status != StatusSent && *input.Status != StatusCancelled {
		return nil, fmt.Errorf("%w: use the pay endpoint to mark an invoice paid", ErrInvalidInvoice)
	}

	return s.store.Update(ctx, id, func(inv *Invoice) error {
		if inv.Status == StatusPaid {
			return ErrInvoicePaid
		}
		if input.ClientName != nil {
			inv.ClientName = strings.TrimSpace(*input.ClientName)
		}
		if input.ClientEmail != nil {
			inv.ClientEmail = strings.TrimSpace(*input.ClientEmail)
		}
		if input.DueDate != nil {
			inv.DueDate = input.DueDate
		}
		if input.Status != nil {
			inv.Status = *input.Status
		}
		if input.TaxRate != nil {
			inv.TaxRate = *input.TaxRate
		}
		if input.Items != nil || input.TaxRate != nil {
			in := input.Items
			if in == nil {
				in = itemInputs(inv.Items)
			}
			inv.Items, inv.Subtotal, inv.Tax, inv.Total = BuildItems(in, inv.TaxRate)
		}
		return nil
	})
}

func itemInputs(items []Item) []ItemInput {
	out := make([]ItemInput, 0, len(items))
	for _, it := range items {
		out = append(out, ItemInput{Description: it.Description, Quantity: it.Quantity, UnitPrice: it.UnitPrice})
	}
	return out
}

// MarkPaid records payment. A second call returns ErrInvoicePaid.
func (s *Service) MarkPaid(ctx context.Context, actor auth.Actor, id string) (*Invoice, error) {
	if !actor.Can(auth.CapInvoicesManage) {
		return nil, ErrNotAuthorized
	}
	if uuid.Validate(id) != nil {
		return nil, ErrNotFound
	}
	now := s.now()
	inv, err := s.store.Update(ctx, id, func(inv *Invoice) error {
		if inv.Status == StatusPaid {
			return ErrInvoicePaid
		}
		if inv.Status == StatusCancelled {
			return fmt.Errorf("%w: invoice is cancelled", ErrInvalidInvoice)
		}
		inv.Status = StatusPaid
		inv.PaidAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	message := fmt.Sprintf("%s paid %s %s for %s", inv.ClientName, inv.Total.StringFixed(2), inv.Currency, inv.InvoiceNumber)
	data := map[string]any{"invoiceId": inv.ID, "invoiceNumber": inv.InvoiceNumber, "total": inv.Total.StringFixed(2)}
	events := []notifications.Event{{
		To:       notifications.ToRoom(auth.RoleRoom(auth.RoleAdmin)),
		SenderID: actor.UserID,
		Type:     notifications.TypePaymentReceived,
		Title:    "Payment received",
		Message:  message,
		Data:     data,
	}}
	if inv.CreatedBy != actor.UserID {
		events = append(events, notifications.Event{
			To:       notifications.ToUser(inv.CreatedBy),
			SenderID: actor.UserID,
			Type:     notifications.TypePaymentReceived,
			Title:    "Payment received",
			Message:  message,
			Priority: notifications.PriorityHigh,
			Data:     data,
		})
	}
	notifications.Emit(ctx, s.Notify, events...)
	return inv, nil
}

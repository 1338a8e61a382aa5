package invoices

import "errors"

var (
	ErrNotFound        = errors.New("invoice not found")
	ErrInvalidInvoice  = errors.New("invalid invoice")
	ErrInvoicePaid     = errors.New("invoice already paid")
	ErrNotAuthorized   = errors.New("not authorized")
	ErrDuplicateNumber = errors.New("invoice number already exists")
)

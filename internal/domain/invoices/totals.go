package invoices

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// BuildItems prices each line and returns them with the invoice totals.
// Amounts are rounded to cents; tax is applied to the rounded subtotal.
func BuildItems(in []ItemInput, taxRate decimal.Decimal) (items []Item, subtotal, tax, total decimal.Decimal) {
	items = make([]Item, 0, len(in))
	for _, it := range in {
		amount := it.Quantity.Mul(it.UnitPrice).Round(2)
		items = append(items, Item{
			Description: strings.TrimSpace(it.Description),
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Amount:      amount,
		})
		subtotal = subtotal.Add(amount)
	}
	tax = subtotal.Mul(taxRate).Div(hundred).Round(2)
	total = subtotal.Add(tax)
	return items, subtotal, tax, total
}

func validateItems(in []ItemInput) error {
	if len(in) == 0 {
		return fmt.Errorf("%w: at least one item is required", ErrInvalidInvoice)
	}
	for i, it := range in {
		if strings.TrimSpace(it.Description) == "" {
			return fmt.Errorf("%w: item %d needs a description", ErrInvalidInvoice, i+1)
		}
		if !it.Quantity.IsPositive() {
			return fmt.Errorf("%w: item %d quantity must be positive", ErrInvalidInvoice, i+1)
		}
		if it.UnitPrice.IsNegative() {
			return fmt.Errorf("%w: item %d unit price must not be negative", ErrInvalidInvoice, i+1)
		}
	}
	return nil
}

func validTaxRate(rate decimal.Decimal) bool {
	return !rate.IsNegative() && rate.LessThanOrEqual(hundred)
}

// NewInvoiceNumber returns an identifier such as INV-202405-1A2B3C.
func NewInvoiceNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("INV-%s-%s", now.Format("200601"), suffix)
}

package invoices

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestBuildItems(t *testing.T) {
	tests := []struct {
		name         string
		items        []ItemInput
		taxRate      decimal.Decimal
		wantSubtotal string
		wantTax      string
		wantTotal    string
	}{
		{
			name:         "NoTax",
			items:        []ItemInput{{Description: "Design", Quantity: d("2"), UnitPrice: d("500")}},
			taxRate:      decimal.Zero,
			wantSubtotal: "1000",
			wantTax:      "0",
			wantTotal:    "1000",
		},
		{
			name: "WithTax",
			items: []ItemInput{
				{Description: "Development", Quantity: d("10"), UnitPrice: d("120.50")},
				{Description: "Hosting", Quantity: d("1"), UnitPrice: d("49.99")},
			},
			taxRate:      d("18"),
			wantSubtotal: "1254.99",
			wantTax:      "225.9",
			wantTotal:    "1480.89",
		},
		{
			name:         "FractionalQuantityRounds",
			items:        []ItemInput{{Description: "Support", Quantity: d("1.333"), UnitPrice: d("10")}},
			taxRate:      d("5"),
			wantSubtotal: "13.33",
			wantTax:      "0.67",
			wantTotal:    "14",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, subtotal, tax, total := BuildItems(tt.items, tt.taxRate)
			require.Len(t, items, len(tt.items))
			assert.True(t, d(tt.wantSubtotal).Equal(subtotal), "subtotal %s", subtotal)
			assert.True(t, d(tt.wantTax).Equal(tax), "tax %s", tax)
			assert.True(t, d(tt.wantTotal).Equal(total), "total %s", total)
		})
	}
}

func TestValidateItems(t *testing.T) {
	assert.ErrorIs(t, validateItems(nil), ErrInvalidInvoice)
	assert.ErrorIs(t, validateItems([]ItemInput{{Description: " ", Quantity: d("1")}}), ErrInvalidInvoice)
	assert.ErrorIs(t, validateItems([]ItemInput{{Description: "x", Quantity: d("0")}}), ErrInvalidInvoice)
	assert.ErrorIs(t, validateItems([]ItemInput{{Description: "x", Quantity: d("1"), UnitPrice: d("-1")}}), ErrInvalidInvoice)
	assert.NoError(t, validateItems([]ItemInput{{Description: "x", Quantity: d("1"), UnitPrice: d("0")}}))
}

func TestNewInvoiceNumber(t *testing.T) {
	n := NewInvoiceNumber(time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC))
	assert.Regexp(t, `^INV-202405-[0-9A-F]{6}$`, n)
}

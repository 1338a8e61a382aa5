package invoices

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// RenderPDF writes a printable copy of inv to w.
func RenderPDF(w io.Writer, inv *Invoice) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Invoice "+inv.InvoiceNumber)
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Client: %s", inv.ClientName))
	pdf.Ln(7)
	if inv.ClientEmail != "" {
		pdf.Cell(0, 8, fmt.Sprintf("Email: %s", inv.ClientEmail))
		pdf.Ln(7)
	}
	pdf.Cell(0, 8, fmt.Sprintf("Issued: %s", inv.CreatedAt.Format(time.DateOnly)))
	pdf.Ln(7)
	if inv.DueDate != nil {
		pdf.Cell(0, 8, fmt.Sprintf("Due: %s", inv.DueDate.Format(time.DateOnly)))
		pdf.Ln(7)
	}
	pdf.Cell(0, 8, fmt.Sprintf("Status: %s", inv.Status))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(90, 8, "Description", "1", 0, "L", false, 0, "")
	pdf.CellFormat(25, 8, "Qty", "1", 0, "R", false, 0, "")
	pdf.CellFormat(35, 8, "Unit price", "1", 0, "R", false, 0, "")
	pdf.CellFormat(35, 8, "Amount", "1", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	for _, it := range inv.Items {
		pdf.CellFormat(90, 8, it.Description, "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 8, it.Quantity.String(), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 8, it.UnitPrice.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 8, it.Amount.StringFixed(2), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	pdf.Cell(0, 8, fmt.Sprintf("Subtotal: %s %s", inv.Subtotal.StringFixed(2), inv.Currency))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Tax (%s%%): %s %s", inv.TaxRate.String(), inv.Tax.StringFixed(2), inv.Currency))
	pdf.Ln(7)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Total: %s %s", inv.Total.StringFixed(2), inv.Currency))

	return pdf.Output(w)
}

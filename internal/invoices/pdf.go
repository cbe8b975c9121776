package invoices

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
)

// RenderPDF produces a printable A4 invoice.
func RenderPDF(inv Invoice) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Invoice "+inv.InvoiceNumber, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(100, 10, "INVOICE")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 10, inv.InvoiceNumber, "", 1, "R", false, 0, "")

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 6, inv.CompanyName, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	if inv.ContactName != "" {
		pdf.CellFormat(0, 5, inv.ContactName, "", 1, "L", false, 0, "")
	}
	if inv.Address != "" {
		pdf.CellFormat(0, 5, inv.Address, "", 1, "L", false, 0, "")
	}
	if inv.Email != "" {
		pdf.CellFormat(0, 5, inv.Email, "", 1, "L", false, 0, "")
	}

	pdf.Ln(3)
	pdf.CellFormat(0, 5, "Date: "+inv.Date.Format("2006-01-02"), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, "Due: "+inv.DueDate.Format("2006-01-02"), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, "Status: "+string(inv.Status), "", 1, "L", false, 0, "")

	pdf.Ln(5)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(100, 7, "Description", "1", 0, "L", true, 0, "")
	pdf.CellFormat(25, 7, "Qty", "1", 0, "R", true, 0, "")
	pdf.CellFormat(30, 7, "Unit", "1", 0, "R", true, 0, "")
	pdf.CellFormat(35, 7, "Amount", "1", 1, "R", true, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, it := range inv.Items {
		amount := it.UnitPrice * int64(it.Quantity)
		pdf.CellFormat(100, 7, it.Description, "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 7, fmt.Sprintf("%d", it.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 7, formatMoney(it.UnitPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 7, formatMoney(amount), "1", 1, "R", false, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(155, 8, "Total", "1", 0, "R", false, 0, "")
	pdf.CellFormat(35, 8, formatMoney(inv.Total()), "1", 1, "R", false, 0, "")

	if inv.Printing != nil {
		pdf.Ln(5)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(0, 6, "Custom printing", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		p := inv.Printing
		pdf.CellFormat(0, 5, fmt.Sprintf("Material: %s  Dimensions: %s  Colors: %s  Quantity: %d",
			p.Material, p.Dimensions, p.Colors, p.Quantity), "", 1, "L", false, 0, "")
	}

	if inv.Notes != "" {
		pdf.Ln(5)
		pdf.SetFont("Helvetica", "I", 9)
		pdf.MultiCell(0, 5, inv.Notes, "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("rendering invoice pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// formatMoney renders a smallest-unit amount with two decimals.
func formatMoney(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

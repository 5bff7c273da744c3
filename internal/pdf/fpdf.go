package pdf

import (
	"bytes"
	"context"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/invoicedesk/invoicedesk/internal/money"
)

const (
	pageMargin = 20.0
	dateFormat = "2 January 2006"
)

var (
	accent   = [3]int{255, 107, 0}
	dark     = [3]int{51, 51, 51}
	muted    = [3]int{102, 102, 102}
	rule     = [3]int{200, 200, 200}
	headFill = [3]int{245, 245, 245}
)

// FPDF renders documents natively with gofpdf. Amounts are printed with the
// ISO currency code since the core fonts carry no currency glyphs.
type FPDF struct{}

// NewFPDF constructs the native renderer.
func NewFPDF() *FPDF {
	return &FPDF{}
}

// Render implements Renderer.
func (FPDF) Render(ctx context.Context, doc Document) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f := money.NewFormatter(doc.Currency)
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pageWidth, _ := pdf.GetPageSize()
	contentWidth := pageWidth - 2*pageMargin

	// header
	setColor(pdf, dark)
	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(contentWidth/2, 10, tr(doc.CompanyName()), "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "B", 26)
	pdf.CellFormat(contentWidth/2, 10, "INVOICE", "", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	setColor(pdf, muted)
	pdf.CellFormat(contentWidth/2, 5, tr(doc.Company.Tagline), "", 0, "L", false, 0, "")
	pdf.CellFormat(contentWidth/2, 5, tr(doc.Number), "", 1, "R", false, 0, "")

	pdf.SetDrawColor(accent[0], accent[1], accent[2])
	pdf.SetLineWidth(1)
	y := pdf.GetY() + 1
	pdf.Line(pageMargin, y, pageMargin+60, y)
	pdf.Ln(5)

	for _, line := range companyLines(doc.Company) {
		pdf.CellFormat(contentWidth, 4.5, tr(line), "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	// bill to and dates
	top := pdf.GetY()
	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(contentWidth/2, 5, "BILL TO", "", 1, "L", false, 0, "")
	setColor(pdf, dark)
	pdf.SetFont("Helvetica", "B", 11)
	clientName := doc.Client.Name
	if clientName == "" {
		clientName = "Client"
	}
	pdf.CellFormat(contentWidth/2, 6, tr(clientName), "", 1, "L", false, 0, "")
	setColor(pdf, muted)
	pdf.SetFont("Helvetica", "", 9)
	for _, line := range []string{doc.Client.Address, doc.Client.Phone, doc.Client.Email} {
		if line != "" {
			pdf.CellFormat(contentWidth/2, 4.5, tr(line), "", 1, "L", false, 0, "")
		}
	}
	bottom := pdf.GetY()

	pdf.SetXY(pageMargin+contentWidth/2, top)
	detail(pdf, tr, contentWidth/2, "Invoice Date:", doc.InvoiceDate.Format(dateFormat))
	due := "-"
	if doc.DueDate != nil {
		due = doc.DueDate.Format(dateFormat)
	}
	detail(pdf, tr, contentWidth/2, "Due Date:", due)
	if doc.Status != "" {
		detail(pdf, tr, contentWidth/2, "Status:", doc.Status)
	}
	pdf.SetY(max(bottom, pdf.GetY()) + 8)

	// items
	widths := []float64{contentWidth * 0.46, contentWidth * 0.12, contentWidth * 0.21, contentWidth * 0.21}
	pdf.SetFillColor(headFill[0], headFill[1], headFill[2])
	pdf.SetDrawColor(rule[0], rule[1], rule[2])
	pdf.SetLineWidth(0.1)
	setColor(pdf, dark)
	pdf.SetFont("Helvetica", "B", 9)
	for i, head := range []string{"Description", "Qty", "Unit Price", "Total"} {
		align := "R"
		if i == 0 {
			align = "L"
		}
		pdf.CellFormat(widths[i], 8, head, "1", 0, align, true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 9)
	for _, l := range doc.Lines {
		pdf.CellFormat(widths[0], 7, tr(l.Description), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 7, l.Quantity.String(), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 7, f.FormatCode(l.UnitPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 7, f.FormatCode(l.Total), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	// totals
	labelX := pageMargin + contentWidth*0.5
	total := func(label, value string, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetX(labelX)
		pdf.SetFont("Helvetica", style, 9)
		pdf.CellFormat(contentWidth*0.25, 6, tr(label), "", 0, "L", false, 0, "")
		pdf.CellFormat(contentWidth*0.25, 6, value, "", 1, "R", false, 0, "")
	}
	total("Subtotal", f.FormatCode(doc.Subtotal), false)
	for _, c := range doc.Charges {
		total(c.Label, f.FormatCode(c.Amount), false)
	}
	setColor(pdf, accent)
	total("Total", f.FormatCode(doc.Total), true)
	setColor(pdf, dark)

	if doc.Notes != "" {
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(contentWidth, 5, "Notes", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		setColor(pdf, muted)
		pdf.MultiCell(contentWidth, 4.5, tr(doc.Notes), "", "L", false)
		setColor(pdf, dark)
	}

	if doc.Bank != nil {
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(contentWidth, 5, "Payment Details", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		for _, row := range [][2]string{
			{"Bank", doc.Bank.BankName},
			{"Account Name", doc.Bank.AccountName},
			{"Account Number", doc.Bank.AccountNumber},
		} {
			if row[1] == "" {
				continue
			}
			pdf.CellFormat(35, 5, row[0]+":", "", 0, "L", false, 0, "")
			pdf.CellFormat(contentWidth-35, 5, tr(row[1]), "", 1, "L", false, 0, "")
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: render %s: %w", doc.Number, err)
	}
	return buf.Bytes(), nil
}

func companyLines(c Company) []string {
	var out []string
	for _, line := range []string{c.Address, c.Phone, c.Email} {
		if line != "" {
			out = append(out, line)
		}
	}
	if c.RCNumber != "" {
		out = append(out, "RC: "+c.RCNumber)
	}
	return out
}

func detail(pdf *gofpdf.Fpdf, tr func(string) string, width float64, label, value string) {
	x := pdf.GetX()
	setColor(pdf, muted)
	pdf.CellFormat(width*0.45, 6, label, "", 0, "L", false, 0, "")
	setColor(pdf, dark)
	pdf.CellFormat(width*0.55, 6, tr(value), "", 1, "R", false, 0, "")
	pdf.SetX(x)
}

func setColor(pdf *gofpdf.Fpdf, c [3]int) {
	pdf.SetTextColor(c[0], c[1], c[2])
}

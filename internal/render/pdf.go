// Package render turns Schedule E reports into PDF documents and bundles
// several documents into a ZIP archive.
package render

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-pdf/fpdf"

	"rentaltax/internal/core"
)

const (
	pageMargin = 18.0
	lineHeight = 7.0
	colLine    = 22.0
	colAmount  = 40.0
)

// Renderer implements ports.ArtifactRenderer.
type Renderer struct {
	compress bool
	now      func() time.Time
}

type Option func(*Renderer)

// WithoutCompression leaves content streams readable, for tests and debugging.
func WithoutCompression() Option {
	return func(r *Renderer) { r.compress = false }
}

func New(opts ...Option) *Renderer {
	r := &Renderer{compress: true, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render lays out one report on a single Letter page.
func (r *Renderer) Render(ctx context.Context, report core.ScheduleEReport) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetCompression(r.compress)
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.SetTitle(fmt.Sprintf("Schedule E %d - %s", report.TaxYear, report.PropertyName), true)
	pdf.SetCreator("rentaltax", true)
	generated := report.GeneratedAt
	if generated.IsZero() {
		generated = r.now()
	}
	pdf.SetCreationDate(generated)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	width, _ := pdf.GetPageSize()
	content := width - 2*pageMargin
	colDesc := content - colLine - colAmount

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(content, 9, "Schedule E - Supplemental Income and Loss", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(content, lineHeight, "Tax Year "+strconv.Itoa(report.TaxYear), "", 1, "L", false, 0, "")
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(content, lineHeight, tr(report.PropertyName), "", 1, "L", false, 0, "")
	if report.PropertyAddress != "" {
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(content, lineHeight, tr(report.PropertyAddress), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	section := func(title string) {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetFillColor(230, 230, 230)
		pdf.CellFormat(content, lineHeight, title, "", 1, "L", true, 0, "")
	}
	row := func(line, desc string, amount core.Money, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 10)
		pdf.CellFormat(colLine, lineHeight, line, "B", 0, "L", false, 0, "")
		pdf.CellFormat(colDesc, lineHeight, tr(desc), "B", 0, "L", false, 0, "")
		pdf.CellFormat(colAmount, lineHeight, formatAmount(amount), "B", 1, "R", false, 0, "")
	}

	section("Income")
	row("Line 3", "Rents received", report.TotalIncome, false)
	pdf.Ln(3)

	section("Expenses")
	if len(report.ExpensesByCategory) == 0 {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.CellFormat(content, lineHeight, "No expenses recorded for this year.", "B", 1, "L", false, 0, "")
	}
	for _, item := range report.ExpensesByCategory {
		row(item.ScheduleLine, item.CategoryName, item.Amount, false)
	}
	row("Line 20", "Total expenses", report.TotalExpenses, true)
	pdf.Ln(3)

	section("Summary")
	row("Line 21", "Net income (loss)", report.NetIncome, true)

	pdf.Ln(8)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.CellFormat(content, 5, "Generated "+generated.UTC().Format("2006-01-02 15:04 MST"), "", 1, "L", false, 0, "")

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("layout pdf: %w", err)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// formatAmount renders money with two decimals and parentheses for losses.
func formatAmount(m core.Money) string {
	if m.Cents < 0 {
		return "(" + core.Cents(-m.Cents).String() + ")"
	}
	return m.String()
}

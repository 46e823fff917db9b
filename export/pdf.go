package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/warp/cashflow-engine/ledger"
)

// PDF renders r as an A4 report: summary, monthly table and bills.
func PDF(r *ledger.ProjectionResult, opts Options) ([]byte, error) {
	money := func(m ledger.Money) string { return m.Display(opts.Currency) }

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, opts.title())
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	for _, row := range summaryRows(r, money) {
		pdf.Cell(0, 6, fmt.Sprintf("%s: %s", row[0], row[1]))
		pdf.Ln(5)
	}

	pdf.Ln(4)
	header := []string{"Month", "Inflow", "Outflow", "Investment", "Closing"}
	tableHeader(pdf, header)
	for _, m := range r.Months {
		pdf.CellFormat(30, 6, m.Month.String(), "1", 0, "C", false, 0, "")
		for _, v := range []ledger.Money{m.Inflow, m.Outflow, m.Investment, m.Closing} {
			pdf.CellFormat(38, 6, money(v), "1", 0, "R", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if len(r.Bills) > 0 {
		pdf.Ln(6)
		tableHeader(pdf, []string{"Due", "Card", "Statement", "Amount"})
		for _, b := range r.Bills {
			pdf.CellFormat(30, 6, b.Date.String(), "1", 0, "C", false, 0, "")
			pdf.CellFormat(38, 6, string(b.CardID), "1", 0, "L", false, 0, "")
			pdf.CellFormat(38, 6, b.Statement.String(), "1", 0, "C", false, 0, "")
			pdf.CellFormat(38, 6, money(b.Amount), "1", 0, "R", false, 0, "")
			pdf.Ln(-1)
		}
	}

	if opts.IncludeDays {
		pdf.AddPage()
		tableHeader(pdf, []string{"Date", "Inflow", "Outflow", "Investment", "Balance"})
		for _, d := range r.Days {
			pdf.CellFormat(30, 6, d.Date.String(), "1", 0, "C", false, 0, "")
			for _, v := range []ledger.Money{d.Inflow, d.Outflow, d.Investment, d.Balance} {
				pdf.CellFormat(38, 6, money(v), "1", 0, "R", false, 0, "")
			}
			pdf.Ln(-1)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func tableHeader(pdf *gofpdf.Fpdf, cols []string) {
	pdf.SetFont("Arial", "B", 10)
	for i, c := range cols {
		w := 38.0
		if i == 0 {
			w = 30
		}
		pdf.CellFormat(w, 6, c, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
}

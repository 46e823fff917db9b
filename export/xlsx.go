package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/warp/cashflow-engine/ledger"
)

const (
	sheetSummary = "summary"
	sheetMonths  = "months"
	sheetDays    = "days"
	sheetBills   = "bills"
)

// XLSX renders r as a workbook.
func XLSX(r *ledger.ProjectionResult, opts Options) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return nil, err
	}

	_ = f.SetCellValue(sheetSummary, "A1", opts.title())
	for i, row := range summaryRows(r, func(m ledger.Money) string { return m.String() }) {
		_ = f.SetCellValue(sheetSummary, fmt.Sprintf("A%d", i+3), row[0])
		_ = f.SetCellValue(sheetSummary, fmt.Sprintf("B%d", i+3), row[1])
	}

	if _, err := f.NewSheet(sheetMonths); err != nil {
		return nil, err
	}
	writeRow(f, sheetMonths, 1, "Month", "Inflow", "Outflow", "Investment", "Transfers", "Closing")
	for i, m := range r.Months {
		writeRow(f, sheetMonths, i+2,
			m.Month.String(), major(m.Inflow), major(m.Outflow), major(m.Investment), major(m.Transfers), major(m.Closing))
	}

	if opts.IncludeDays {
		if _, err := f.NewSheet(sheetDays); err != nil {
			return nil, err
		}
		writeRow(f, sheetDays, 1, "Date", "Inflow", "Outflow", "Investment", "Transfers", "Balance")
		for i, d := range r.Days {
			writeRow(f, sheetDays, i+2,
				d.Date.String(), major(d.Inflow), major(d.Outflow), major(d.Investment), major(d.Transfers), major(d.Balance))
		}
	}

	if _, err := f.NewSheet(sheetBills); err != nil {
		return nil, err
	}
	writeRow(f, sheetBills, 1, "Due", "Card", "Statement", "Amount")
	for i, b := range r.Bills {
		writeRow(f, sheetBills, i+2, b.Date.String(), string(b.CardID), b.Statement.String(), major(b.Amount))
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values ...any) {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			continue
		}
		_ = f.SetCellValue(sheet, cell, v)
	}
}

// major converts cents to a float for spreadsheet arithmetic.
func major(m ledger.Money) float64 {
	f, _ := m.Decimal().Float64()
	return f
}

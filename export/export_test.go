package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/warp/cashflow-engine/ledger"
)

func sampleResult(t *testing.T) *ledger.ProjectionResult {
	t.Helper()
	feb := ledger.Competency{Year: 2024, Month: time.February}
	result, err := ledger.Project(ledger.ProjectionInput{
		Start:  ledger.Competency{Year: 2024, Month: time.January},
		Months: 3,
		Anchor: 100000,
		Entries: []ledger.Entry{
			{ID: "salary", Date: ledger.MustDate(2024, time.January, 27), Amount: 300000, Kind: ledger.KindInflow, Settled: true},
			{ID: "rent", Date: ledger.MustDate(2024, time.February, 5), Amount: 90000, Kind: ledger.KindOutflow},
		},
		Cards: []ledger.CardAccount{{
			Card:     ledger.Card{ID: "visa", ClosingDay: 25, DueDay: 5},
			Charges:  map[ledger.Competency]ledger.Money{feb: 12000},
			Payments: map[ledger.Competency]ledger.Money{},
		}},
	})
	require.NoError(t, err)
	return result
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"xlsx", FormatXLSX},
		{"PDF", FormatPDF},
		{"md", FormatMarkdown},
		{"markdown", FormatMarkdown},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseFormat("csv")
	assert.ErrorIs(t, err, ErrUnknownFormat)

	assert.Equal(t, ".pdf", FormatPDF.Extension())
	assert.Equal(t, "application/pdf", FormatPDF.ContentType())
}

func TestXLSX_Sheets(t *testing.T) {
	result := sampleResult(t)

	// WHEN: Rendering with the day series
	data, err := XLSX(result, Options{Title: "Household", IncludeDays: true})
	require.NoError(t, err)

	// THEN: The workbook opens and carries every sheet
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheetSummary, sheetMonths, sheetDays, sheetBills}, f.GetSheetList())

	title, err := f.GetCellValue(sheetSummary, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Household", title)

	months, err := f.GetRows(sheetMonths)
	require.NoError(t, err)
	assert.Len(t, months, 1+3)
	assert.Equal(t, "2024-01", months[1][0])

	bills, err := f.GetRows(sheetBills)
	require.NoError(t, err)
	require.Len(t, bills, 2)
	assert.Equal(t, []string{"2024-02-05", "visa", "2024-02", "120"}, bills[1])

	days, err := f.GetRows(sheetDays)
	require.NoError(t, err)
	assert.Len(t, days, 1+result.Window.Days())
}

func TestPDF_Renders(t *testing.T) {
	data, err := PDF(sampleResult(t), Options{Currency: "USD", IncludeDays: true})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestMarkdown_Tables(t *testing.T) {
	md := Markdown(sampleResult(t), Options{Currency: "USD"})

	assert.True(t, strings.HasPrefix(md, "# Cash flow projection\n"))
	assert.Contains(t, md, "| Opening | $1,000.00 |")
	assert.Contains(t, md, "| 2024-01 | $3,000.00 | $0.00 | $0.00 | $4,000.00 |")
	assert.Contains(t, md, "| 2024-02-05 | visa | 2024-02 | $120.00 |")
	assert.NotContains(t, md, "## Days")
}

func TestRender_Dispatch(t *testing.T) {
	result := sampleResult(t)

	md, err := Render(FormatMarkdown, result, Options{})
	require.NoError(t, err)
	assert.Contains(t, string(md), "## Months")

	_, err = Render("csv", result, Options{})
	assert.ErrorIs(t, err, ErrUnknownFormat)

	_, err = Render(FormatPDF, nil, Options{})
	assert.Error(t, err)
}

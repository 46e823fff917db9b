/*
Package export renders a projection for people: spreadsheets, PDF reports
and Markdown.

FORMATS:
  xlsx: Workbook with summary, months, days and bills sheets
  pdf:  One-page-per-section A4 report
  md:   Markdown tables, rendered in the terminal by the CLI

Amounts in XLSX cells are numbers in major units so spreadsheets can sum
them. PDF and Markdown use Money.Display for the configured currency.

SEE ALSO:
  - ledger/projection.go: ProjectionResult
*/
package export

import (
	"errors"
	"fmt"
	"strings"

	"github.com/warp/cashflow-engine/ledger"
)

// ErrUnknownFormat is returned for formats Render does not support.
var ErrUnknownFormat = errors.New("unknown export format")

type Format string

const (
	FormatXLSX     Format = "xlsx"
	FormatPDF      Format = "pdf"
	FormatMarkdown Format = "md"
)

// ParseFormat accepts xlsx, pdf, md and markdown, case-insensitive.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "xlsx":
		return FormatXLSX, nil
	case "pdf":
		return FormatPDF, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("%q: %w", s, ErrUnknownFormat)
}

// ContentType is the MIME type of f.
func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	default:
		return "text/markdown; charset=utf-8"
	}
}

// Extension is the file extension of f, with the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

type Options struct {
	Title    string
	Currency string

	// IncludeDays adds the day-by-day series. Off by default: a two year
	// window has more than seven hundred rows.
	IncludeDays bool
}

func (o Options) title() string {
	if o.Title == "" {
		return "Cash flow projection"
	}
	return o.Title
}

// Render dispatches to the renderer for f.
func Render(f Format, r *ledger.ProjectionResult, opts Options) ([]byte, error) {
	if r == nil {
		return nil, errors.New("export: nil projection")
	}
	switch f {
	case FormatXLSX:
		return XLSX(r, opts)
	case FormatPDF:
		return PDF(r, opts)
	case FormatMarkdown:
		return []byte(Markdown(r, opts)), nil
	}
	return nil, fmt.Errorf("%q: %w", f, ErrUnknownFormat)
}

// summaryRows is shared by every renderer so they agree on labels.
func summaryRows(r *ledger.ProjectionResult, money func(ledger.Money) string) [][2]string {
	s := r.Stats
	return [][2]string{
		{"Window", r.Window.String()},
		{"Opening", money(r.Opening)},
		{"Carried debt", money(r.CarriedDebt)},
		{"Inflow", money(s.TotalInflow)},
		{"Outflow", money(s.TotalOutflow)},
		{"Investment", money(s.TotalInvestment)},
		{"Transfers", money(s.TotalTransfers)},
		{"Closing", money(s.Closing)},
		{"Lowest", money(s.MinBalance) + " on " + s.MinDate.String()},
		{"Highest", money(s.MaxBalance) + " on " + s.MaxDate.String()},
	}
}

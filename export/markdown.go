package export

import (
	"fmt"
	"strings"

	"github.com/warp/cashflow-engine/ledger"
)

// Markdown renders r as GitHub-flavoured Markdown tables.
func Markdown(r *ledger.ProjectionResult, opts Options) string {
	money := func(m ledger.Money) string { return m.Display(opts.Currency) }

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", opts.title())

	b.WriteString("| | |\n|---|---:|\n")
	for _, row := range summaryRows(r, money) {
		fmt.Fprintf(&b, "| %s | %s |\n", row[0], row[1])
	}

	b.WriteString("\n## Months\n\n")
	b.WriteString("| Month | Inflow | Outflow | Investment | Closing |\n")
	b.WriteString("|---|---:|---:|---:|---:|\n")
	for _, m := range r.Months {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			m.Month, money(m.Inflow), money(m.Outflow), money(m.Investment), money(m.Closing))
	}

	if len(r.Bills) > 0 {
		b.WriteString("\n## Card bills\n\n")
		b.WriteString("| Due | Card | Statement | Amount |\n")
		b.WriteString("|---|---|---|---:|\n")
		for _, bill := range r.Bills {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", bill.Date, bill.CardID, bill.Statement, money(bill.Amount))
		}
	}

	if opts.IncludeDays {
		b.WriteString("\n## Days\n\n")
		b.WriteString("| Date | Inflow | Outflow | Investment | Balance |\n")
		b.WriteString("|---|---:|---:|---:|---:|\n")
		for _, d := range r.Days {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
				d.Date, money(d.Inflow), money(d.Outflow), money(d.Investment), money(d.Balance))
		}
	}

	return b.String()
}

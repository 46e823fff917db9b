package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"github.com/warp/cashflow-engine/ledger"
)

// expandCmd prints the forecast series of a recurring entry.
type expandCmd struct {
	date        string
	amount      string
	kind        string
	frequency   string
	description string
}

func (*expandCmd) Name() string     { return "expand" }
func (*expandCmd) Synopsis() string { return "expand a recurring entry into its forecast series" }
func (*expandCmd) Usage() string {
	return `cashflow expand -date <YYYY-MM-DD> -amount <amount> [-kind <kind>] [-freq monthly|annual]

  Prints every occurrence of a recurring entry: 24 for monthly, 5 for
  annual. Days past the end of a month are clamped to its last day.

Usage Examples:
$ cashflow expand -date 2024-01-31 -amount 900 -kind outflow -freq monthly
`
}

func (c *expandCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "date", "", "Date of the first occurrence YYYY-MM-DD")
	f.StringVar(&c.amount, "amount", "", "Amount in major units")
	f.StringVar(&c.kind, "kind", string(ledger.KindOutflow), "Entry kind (inflow, outflow, investment)")
	f.StringVar(&c.frequency, "freq", string(ledger.FrequencyMonthly), "Frequency (monthly, annual)")
	f.StringVar(&c.description, "d", "", "Description")
}

func (c *expandCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	base, freq, err := c.base()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	series, err := ledger.Expand(base, freq)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(seriesMarkdown(series, freq, currency()))
	return subcommands.ExitSuccess
}

func (c *expandCmd) base() (ledger.Entry, ledger.Frequency, error) {
	date, err := ledger.ParseDate(c.date)
	if err != nil {
		return ledger.Entry{}, "", err
	}
	amount, err := ledger.ParseMoney(c.amount)
	if err != nil {
		return ledger.Entry{}, "", err
	}
	kind, err := ledger.ParseKind(c.kind)
	if err != nil {
		return ledger.Entry{}, "", err
	}
	if kind.IsTransfer() || kind == ledger.KindCardBillDue {
		return ledger.Entry{}, "", fmt.Errorf("kind %s cannot be expanded on its own: %w", kind, ledger.ErrInvalidEntry)
	}
	freq, err := ledger.ParseFrequency(c.frequency)
	if err != nil {
		return ledger.Entry{}, "", err
	}
	return ledger.Entry{
		ID:          "entry",
		Date:        date,
		Amount:      amount,
		Kind:        kind,
		Description: c.description,
	}, freq, nil
}

// seriesMarkdown renders series as a table, one row per occurrence.
func seriesMarkdown(series []ledger.Entry, freq ledger.Frequency, currency string) string {
	var b strings.Builder
	b.WriteString("# Recurring series\n\n")
	if len(series) > 0 {
		fmt.Fprintf(&b, "%d %s occurrence(s) of %s %s.\n\n", len(series), freq, series[0].Kind, series[0].Amount.Display(currency))
	}
	b.WriteString("| # | Date | Amount | Status |\n")
	b.WriteString("|---:|---|---:|---|\n")
	for i, e := range series {
		status := "forecast"
		if e.Settled {
			status = "settled"
		}
		fmt.Fprintf(&b, "| %d | %s | %s | %s |\n", i+1, e.Date, e.Amount.Display(currency), status)
	}
	return b.String()
}

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

// planCmd splits a purchase on a card cycle.
type planCmd struct {
	date    string
	total   string
	count   int
	closing int
	due     int
}

func (*planCmd) Name() string     { return "plan" }
func (*planCmd) Synopsis() string { return "split a card purchase into installments" }
func (*planCmd) Usage() string {
	return `cashflow plan -date <YYYY-MM-DD> -total <amount> [-n <count>] -closing <day> -due <day>

  Prints the installment schedule of a purchase: the statement month each
  installment is billed in, its due date and its amount. Installments add
  up to the total exactly; leftover cents go to the first ones.

Usage Examples:
$ cashflow plan -date 2024-01-31 -total 1000 -n 3 -closing 25 -due 5
`
}

func (c *planCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "date", "", "Purchase date YYYY-MM-DD")
	f.StringVar(&c.total, "total", "", "Purchase total in major units, e.g. 1200.00")
	f.IntVar(&c.count, "n", 1, "Number of installments")
	f.IntVar(&c.closing, "closing", 0, "Card closing day (1-31)")
	f.IntVar(&c.due, "due", 0, "Card due day (1-31)")
}

func (c *planCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	date, err := ledger.ParseDate(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}
	total, err := ledger.ParseMoney(c.total)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing total: %v\n", err)
		return subcommands.ExitUsageError
	}
	card := ledger.Card{ID: "card", ClosingDay: c.closing, DueDay: c.due}
	if err := card.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	plan, err := ledger.BuildPlan(ledger.PlanInput{
		PurchaseID: "purchase",
		CardID:     card.ID,
		Date:       date,
		Total:      total,
		Count:      c.count,
		ClosingDay: card.ClosingDay,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	printMarkdown(planMarkdown(plan, card.DueDay, currency()))
	return subcommands.ExitSuccess
}

// planMarkdown renders plan as a table, one row per installment.
func planMarkdown(plan ledger.InstallmentPlan, dueDay int, currency string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Installments of %s\n\n", plan.Total.Display(currency))
	fmt.Fprintf(&b, "Purchased on %s, %d installment(s).\n\n", plan.PurchaseDate, len(plan.Installments))
	b.WriteString("| # | Statement | Due | Amount |\n")
	b.WriteString("|---:|---|---|---:|\n")
	for _, inst := range plan.Installments {
		fmt.Fprintf(&b, "| %d | %s | %s | %s |\n",
			inst.Number, inst.Competency, ledger.DueDate(inst.Competency, dueDay), inst.Amount.Display(currency))
	}
	return b.String()
}

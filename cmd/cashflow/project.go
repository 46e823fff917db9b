package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/subcommands"

	"github.com/warp/cashflow-engine/export"
	"github.com/warp/cashflow-engine/logging"
)

// projectCmd projects a snapshot file to the terminal.
type projectCmd struct {
	snapshotOverrides
	days  bool
	title string
}

func (*projectCmd) Name() string     { return "project" }
func (*projectCmd) Synopsis() string { return "project a snapshot file" }
func (*projectCmd) Usage() string {
	return `cashflow project [-start <YYYY-MM>] [-months <n>] [-today <YYYY-MM-DD>] [-days] <snapshot.json>

  Seeds an in-memory ledger with the snapshot, projects it and prints the
  summary, the monthly totals and the card bills. Use "-" to read the
  snapshot from stdin.

Usage Examples:
$ cashflow project -months 12 household.json
$ cat household.json | cashflow project -days -
`
}

func (c *projectCmd) SetFlags(f *flag.FlagSet) {
	c.snapshotOverrides.SetFlags(f)
	f.BoolVar(&c.days, "days", false, "Include the day by day balance")
	f.StringVar(&c.title, "title", "", "Report title")
}

func (c *projectCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one snapshot file is required")
		return subcommands.ExitUsageError
	}
	cfg, logger, err := settings()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	snap, err := loadSnapshot(f.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := c.apply(snap); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	result, err := projectSnapshot(ctx, snap, logging.WithComponent(logger, logging.ComponentProjection))
	if err != nil {
		logger.Error("projection failed", slog.Any(logging.FieldError, err))
		return subcommands.ExitFailure
	}

	printMarkdown(export.Markdown(result, export.Options{
		Title:       c.title,
		Currency:    cfg.Currency,
		IncludeDays: c.days,
	}))
	return subcommands.ExitSuccess
}

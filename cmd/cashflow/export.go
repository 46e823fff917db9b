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

// exportCmd renders a snapshot projection to a file.
type exportCmd struct {
	snapshotOverrides
	format string
	output string
	days   bool
	title  string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "render a snapshot projection as xlsx, pdf or md" }
func (*exportCmd) Usage() string {
	return `cashflow export [-format xlsx|pdf|md] [-o <file>] [-days] <snapshot.json>

  Projects the snapshot and writes the report document. Without -o the
  file is named projection-<start><ext> in the current directory.

Usage Examples:
$ cashflow export -format pdf household.json
$ cashflow export -format xlsx -days -o 2024.xlsx household.json
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	c.snapshotOverrides.SetFlags(f)
	f.StringVar(&c.format, "format", string(export.FormatXLSX), "Output format (xlsx, pdf, md)")
	f.StringVar(&c.output, "o", "", "Output file")
	f.BoolVar(&c.days, "days", false, "Include the day by day balance")
	f.StringVar(&c.title, "title", "", "Report title")
}

func (c *exportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one snapshot file is required")
		return subcommands.ExitUsageError
	}
	format, err := export.ParseFormat(c.format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
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

	data, err := export.Render(format, result, export.Options{
		Title:       c.title,
		Currency:    cfg.Currency,
		IncludeDays: c.days,
	})
	if err != nil {
		logger.Error("export failed", slog.String(logging.FieldFormat, string(format)), slog.Any(logging.FieldError, err))
		return subcommands.ExitFailure
	}

	name := c.output
	if name == "" {
		name = fmt.Sprintf("projection-%s%s", result.Window.From.Competency(), format.Extension())
	}
	if err := os.WriteFile(name, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %q: %v\n", name, err)
		return subcommands.ExitFailure
	}

	logging.WithComponent(logger, logging.ComponentExport).Info("projection exported",
		slog.String(logging.FieldFormat, string(format)),
		slog.String("file", name),
		slog.String(logging.FieldWindow, result.Window.String()))
	return subcommands.ExitSuccess
}

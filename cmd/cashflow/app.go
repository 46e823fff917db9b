package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"

	"github.com/warp/cashflow-engine/config"
	"github.com/warp/cashflow-engine/factory"
	"github.com/warp/cashflow-engine/ledger"
	"github.com/warp/cashflow-engine/logging"
)

// Register adds every cashflow command to c.
func Register(c *subcommands.Commander) {
	c.Register(&planCmd{}, "engine")
	c.Register(&expandCmd{}, "engine")
	c.Register(&projectCmd{}, "snapshots")
	c.Register(&exportCmd{}, "snapshots")
}

// A CLI run is short lived, so global flags are fine here.
var (
	currencyFlag = flag.String("currency", "", "Display currency (ISO 4217), defaults to the configured one")
	logLevelFlag = flag.String("log-level", "", "Log level (debug, info, warn, error)")
	rawFlag      = flag.Bool("raw", false, "Print Markdown without terminal styling")
)

// settings resolves the configuration shared by every command.
func settings() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load("")
	if err != nil {
		return cfg, nil, err
	}
	if *currencyFlag != "" {
		cfg.Currency = *currencyFlag
	}
	if *logLevelFlag != "" {
		cfg.LogLevel = *logLevelFlag
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return cfg, nil, err
	}
	logger := logging.WithComponent(logging.New(os.Stderr, level, cfg.LogFormat), logging.ComponentCLI)
	return cfg, logger, nil
}

// currency returns the display currency without loading the full config.
func currency() string {
	if *currencyFlag != "" {
		return *currencyFlag
	}
	cfg, err := config.Load("")
	if err != nil {
		return ledger.DefaultCurrency
	}
	return cfg.Currency
}

// printMarkdown writes md to stdout, styled for the terminal unless -raw.
func printMarkdown(md string) {
	if *rawFlag {
		fmt.Print(md)
		return
	}
	out, err := glamour.Render(md, "dark")
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}

// loadSnapshot reads and parses a snapshot file. "-" reads stdin.
func loadSnapshot(name string) (*factory.Snapshot, error) {
	var (
		data []byte
		err  error
	)
	if name == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(name)
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", name, err)
	}
	return factory.NewSnapshotFactory().Parse(data)
}

// snapshotOverrides are the window flags shared by project and export.
type snapshotOverrides struct {
	start  string
	months int
	today  string
}

func (o *snapshotOverrides) SetFlags(f *flag.FlagSet) {
	f.StringVar(&o.start, "start", "", "First month YYYY-MM (overrides the snapshot)")
	f.IntVar(&o.months, "months", 0, "Number of months (overrides the snapshot)")
	f.StringVar(&o.today, "today", "", "Reference date YYYY-MM-DD for overdue bills (overrides the snapshot)")
}

func (o *snapshotOverrides) apply(snap *factory.Snapshot) error {
	if o.start != "" {
		c, err := ledger.ParseCompetency(o.start)
		if err != nil {
			return err
		}
		snap.Start = c
	}
	if o.months != 0 {
		snap.Months = o.months
	}
	if o.today != "" {
		d, err := ledger.ParseDate(o.today)
		if err != nil {
			return err
		}
		snap.Today = d
	}
	return nil
}

// projectSnapshot seeds an in-memory book from snap and projects it.
func projectSnapshot(ctx context.Context, snap *factory.Snapshot, logger *slog.Logger) (*ledger.ProjectionResult, error) {
	input, err := factory.NewSnapshotFactory().ProjectionInput(ctx, snap)
	if err != nil {
		return nil, err
	}
	engine := &ledger.ProjectionEngine{Logger: logger}
	return engine.Project(ctx, input)
}

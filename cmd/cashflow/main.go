/*
main.go - Command-line front end of the cash flow engine

PURPOSE:
  Runs the engine offline, against snapshot files, without a server or a
  database. Every command prints Markdown rendered for the terminal.

COMMANDS:
  plan     Split a card purchase into installments
  expand   Expand a recurring entry into its forecast series
  project  Project a snapshot file
  export   Render a snapshot projection as xlsx, pdf or md

GLOBAL FLAGS:
  -currency   Display currency (default: config, EUR)
  -log-level  debug | info | warn | error
  -raw        Print Markdown without terminal styling

EXAMPLES:
  cashflow plan -date 2024-01-31 -total 1200 -n 10 -closing 25 -due 5
  cashflow expand -date 2024-01-31 -amount 900 -freq monthly
  cashflow project -months 12 household.json
  cashflow export -format xlsx -o projection.xlsx household.json

SEE ALSO:
  - factory/snapshot.go: Snapshot schema
  - export/: Document renderers
*/
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	Register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

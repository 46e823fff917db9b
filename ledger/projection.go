/*
projection.go - Forward balance projection

PURPOSE:
  Answers "what will my balance be, day by day, for the next 24 months?"
  by blending real entries, recurring forecasts, projected card bills and
  a what-if overlay into one aggregated series.

PROCESS:
  1. Window = first day of Start, Months months long (default 24)
  2. Synthesize card bills from card accounts (see CARD BILLS)
  3. Union at read time:
       real entries
     + Expand(recurrence) for each recurrence
     + synthesized bills
     + overlay entries (forced Virtual, ids and pair ids must not
       collide with the rest of the union)
  4. Aggregate the union from Anchor - CarriedDebt
  5. Derive Stats and per-month totals

CARD BILLS:
  For every competency of every card account:

    remainder = charges(c) - payments(c)
    remainder <= PaidTolerance (1 cent)  -> nothing to pay
    due = min(card.DueDay, lastDayOfMonth(c))

    due <  window start                  -> CarriedDebt (reduces the anchor)
    due >  window end                    -> beyond the horizon, dropped
    due <  Today (Today inside window)   -> overdue, placed on Today
    otherwise                            -> card_bill_due on the due date

DETERMINISM:
  Nothing here reads the clock. "Today" is an input. Two calls with the
  same input produce identical results. The overlay is never merged into
  Entries: removing it reproduces the baseline exactly.

EXAMPLE:
  result, err := ledger.Project(ledger.ProjectionInput{
      Start:   ledger.Competency{Year: 2024, Month: time.January},
      Today:   ledger.MustDate(2024, time.January, 10),
      Anchor:  150000,
      Entries: entries,
      Cards:   []ledger.CardAccount{visa},
      Overlay: session.Entries(),
  })

SEE ALSO:
  - aggregate.go: Day classification
  - billing.go: CardAccount, DueDate
  - overlay.go: Simulation sessions
*/
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"
)

// ProjectionMonths is the default horizon.
const ProjectionMonths = 24

// MaxProjectionMonths bounds the horizon of a single run.
const MaxProjectionMonths = 1200

// ProjectionInput contains every input of a projection run. All slices are
// read, never modified.
type ProjectionInput struct {
	// First projected month
	Start Competency

	// Horizon in months (0 = ProjectionMonths)
	Months int

	// Reference date for overdue bills. Zero disables relocation.
	Today Date

	// Balance at the end of the day before the window starts
	Anchor Money

	Entries     []Entry
	Recurrences []Recurrence
	Cards       []CardAccount

	// Simulation entries, unioned at read time only
	Overlay []Entry

	// Accounts whose movements count (empty = all)
	Visible AccountSet
}

// ProjectionResult is the output of a projection run.
type ProjectionResult struct {
	Window Window

	// Anchor minus CarriedDebt
	Opening Money

	// Unpaid card bills due before the window
	CarriedDebt Money

	// Bills synthesized inside the window
	Bills []Entry

	Days   []DaySummary
	Stats  Stats
	Months []MonthSummary
}

// Project runs a projection. It is pure.
func Project(in ProjectionInput) (*ProjectionResult, error) {
	months := in.Months
	if months == 0 {
		months = ProjectionMonths
	}
	if months < 0 || months > MaxProjectionMonths {
		return nil, fmt.Errorf("projection of %d months: %w", months, ErrInvalidWindow)
	}
	if err := in.Start.First().Validate(); err != nil {
		return nil, err
	}
	window := MonthsWindow(in.Start, months)

	bills, carried, err := projectBills(in.Cards, window, in.Today, in.Visible)
	if err != nil {
		return nil, err
	}

	all := make([]Entry, 0, len(in.Entries)+len(bills)+len(in.Overlay)+len(in.Recurrences)*MonthlyOccurrences)
	all = append(all, in.Entries...)
	for _, r := range in.Recurrences {
		series, err := Expand(r.Base, r.Frequency)
		if err != nil {
			return nil, fmt.Errorf("expand recurrence %s: %w", r.Base.ID, err)
		}
		all = append(all, series...)
	}
	all = append(all, bills...)
	all, err = unionOverlay(all, in.Overlay)
	if err != nil {
		return nil, err
	}

	opening := in.Anchor - carried
	days, err := Aggregator{Anchor: opening, Visible: in.Visible}.Aggregate(all, window.From, window.To)
	if err != nil {
		return nil, err
	}

	return &ProjectionResult{
		Window:      window,
		Opening:     opening,
		CarriedDebt: carried,
		Bills:       bills,
		Days:        days,
		Stats:       Summarize(opening, days),
		Months:      MonthTotals(days),
	}, nil
}

func projectBills(cards []CardAccount, window Window, today Date, visible AccountSet) ([]Entry, Money, error) {
	var (
		bills   []Entry
		carried Money
	)
	relocate := !today.IsZero() && window.Contains(today)

	for _, acct := range cards {
		card := acct.Card
		if err := card.Validate(); err != nil {
			return nil, 0, err
		}
		for _, c := range acct.Competencies() {
			remainder := acct.Outstanding(c)
			if remainder <= PaidTolerance {
				continue
			}
			bill := BillEntry(card, c, remainder)
			switch {
			case bill.Date.Before(window.From):
				if visible.Visible(bill) {
					carried += remainder
				}
				continue
			case bill.Date.After(window.To):
				continue
			case relocate && bill.Date.Before(today):
				bill.Date = today
			}
			bills = append(bills, bill)
		}
	}

	sort.Slice(bills, func(i, j int) bool {
		if !bills[i].Date.Equal(bills[j].Date) {
			return bills[i].Date.Before(bills[j].Date)
		}
		return bills[i].ID < bills[j].ID
	})
	return bills, carried, nil
}

// BillEntry builds the card_bill_due entry of competency c.
func BillEntry(card Card, c Competency, amount Money) Entry {
	name := card.Name
	if name == "" {
		name = string(card.ID)
	}
	return Entry{
		ID:          EntryID(fmt.Sprintf("bill-%s-%s", card.ID, c)),
		Date:        DueDate(c, card.DueDay),
		Amount:      amount,
		Kind:        KindCardBillDue,
		AccountID:   card.AccountID,
		CardID:      card.ID,
		Statement:   c,
		Description: fmt.Sprintf("%s bill %s", name, c),
		Category:    "card",
	}
}

// =============================================================================
// PROJECTION ENGINE - Context-aware entry point
// =============================================================================

// ProjectionEngine runs projections on behalf of services. It holds no
// state between calls.
type ProjectionEngine struct {
	Logger *slog.Logger
}

// Project validates ctx, runs Project and logs the outcome.
func (pe *ProjectionEngine) Project(ctx context.Context, in ProjectionInput) (*ProjectionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := Project(in)
	logger := pe.logger()
	if err != nil {
		logger.WarnContext(ctx, "projection failed",
			slog.String("start", in.Start.String()),
			slog.Any("error", err))
		return nil, err
	}

	logger.DebugContext(ctx, "projection computed",
		slog.String("window", result.Window.String()),
		slog.Int("entries", len(in.Entries)),
		slog.Int("overlay", len(in.Overlay)),
		slog.Int("bills", len(result.Bills)),
		slog.Int64("closing_cents", result.Stats.Closing.Cents()),
		slog.Duration("took", time.Since(start)))
	return result, nil
}

func (pe *ProjectionEngine) logger() *slog.Logger {
	if pe == nil || pe.Logger == nil {
		return slog.Default()
	}
	return pe.Logger
}

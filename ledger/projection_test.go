package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/cashflow-engine/ledger"
)

func visaAccount(t *testing.T, charges map[ledger.Competency]ledger.Money, payments map[ledger.Competency]ledger.Money) ledger.CardAccount {
	t.Helper()
	if payments == nil {
		payments = map[ledger.Competency]ledger.Money{}
	}
	return ledger.CardAccount{
		Card:     ledger.Card{ID: "visa", Name: "Visa", ClosingDay: 25, DueDay: 5, AccountID: "checking"},
		Charges:  charges,
		Payments: payments,
	}
}

func dayOf(t *testing.T, result *ledger.ProjectionResult, d ledger.Date) ledger.DaySummary {
	t.Helper()
	for _, s := range result.Days {
		if s.Date.Equal(d) {
			return s
		}
	}
	t.Fatalf("day %s not in projection", d)
	return ledger.DaySummary{}
}

// =============================================================================
// WINDOW
// =============================================================================

func TestProject_Default24MonthWindow(t *testing.T) {
	result, err := ledger.Project(ledger.ProjectionInput{
		Start:  month(2024, time.March),
		Anchor: 1000,
	})
	require.NoError(t, err)

	assert.Equal(t, day(2024, time.March, 1), result.Window.From)
	assert.Equal(t, day(2026, time.February, 28), result.Window.To)
	assert.Len(t, result.Days, result.Window.Days())
	assert.Len(t, result.Months, 24)
	assert.Equal(t, ledger.Money(1000), result.Stats.Closing)
}

func TestProject_RejectsBadWindow(t *testing.T) {
	for _, months := range []int{-1, ledger.MaxProjectionMonths + 1} {
		_, err := ledger.Project(ledger.ProjectionInput{Start: month(2024, time.March), Months: months})
		assert.ErrorIs(t, err, ledger.ErrInvalidWindow, "months %d", months)
	}

	_, err := ledger.Project(ledger.ProjectionInput{})
	assert.ErrorIs(t, err, ledger.ErrInvalidDate)
}

// =============================================================================
// REAL + RECURRING
// =============================================================================

func TestProject_BlendsEntriesAndRecurrences(t *testing.T) {
	// GIVEN: A one-off purchase and a monthly salary recurrence
	salary := entry("salary", day(2024, time.January, 27), 300000, ledger.KindInflow)
	laptop := entry("laptop", day(2024, time.February, 2), 150000, ledger.KindOutflow)

	// WHEN: Projecting 3 months
	result, err := ledger.Project(ledger.ProjectionInput{
		Start:       month(2024, time.January),
		Months:      3,
		Anchor:      10000,
		Entries:     []ledger.Entry{laptop},
		Recurrences: []ledger.Recurrence{{Base: salary, Frequency: ledger.FrequencyMonthly}},
	})
	require.NoError(t, err)

	// THEN: Three salaries and one purchase
	assert.Equal(t, ledger.Money(900000), result.Stats.TotalInflow)
	assert.Equal(t, ledger.Money(150000), result.Stats.TotalOutflow)
	assert.Equal(t, ledger.Money(10000+900000-150000), result.Stats.Closing)
	require.Len(t, result.Months, 3)
	assert.Equal(t, ledger.Money(310000), result.Months[0].Closing)
	assert.Equal(t, ledger.Money(460000), result.Months[1].Closing)
}

// =============================================================================
// CARD BILLS
// =============================================================================

func TestProject_SynthesizesCardBillOnDueDate(t *testing.T) {
	visa := visaAccount(t, map[ledger.Competency]ledger.Money{
		month(2024, time.February): 1000,
		month(2024, time.March):    500,
	}, map[ledger.Competency]ledger.Money{
		month(2024, time.March): 200,
	})

	result, err := ledger.Project(ledger.ProjectionInput{
		Start:  month(2024, time.February),
		Months: 3,
		Cards:  []ledger.CardAccount{visa},
	})
	require.NoError(t, err)

	require.Len(t, result.Bills, 2)
	feb := result.Bills[0]
	assert.Equal(t, ledger.KindCardBillDue, feb.Kind)
	assert.Equal(t, day(2024, time.February, 5), feb.Date)
	assert.Equal(t, ledger.Money(1000), feb.Amount)
	assert.Equal(t, ledger.AccountID("checking"), feb.AccountID)
	assert.Equal(t, month(2024, time.February), feb.Statement)
	assert.Equal(t, ledger.EntryID("bill-visa-2024-02"), feb.ID)

	// Partial payment leaves the remainder
	assert.Equal(t, ledger.Money(300), result.Bills[1].Amount)
	assert.Equal(t, ledger.Money(300), dayOf(t, result, day(2024, time.March, 5)).Outflow)
	assert.Equal(t, ledger.Money(-1300), result.Stats.Closing)
}

func TestProject_PaidToleranceSuppressesBill(t *testing.T) {
	visa := visaAccount(t, map[ledger.Competency]ledger.Money{
		month(2024, time.February): 1000,
		month(2024, time.March):    1000,
	}, map[ledger.Competency]ledger.Money{
		month(2024, time.February): 999, // 1 cent left: paid
		month(2024, time.March):    998, // 2 cents left: billed
	})

	result, err := ledger.Project(ledger.ProjectionInput{Start: month(2024, time.February), Months: 2, Cards: []ledger.CardAccount{visa}})
	require.NoError(t, err)

	require.Len(t, result.Bills, 1)
	assert.Equal(t, month(2024, time.March), result.Bills[0].Statement)
	assert.Equal(t, ledger.Money(2), result.Bills[0].Amount)
}

func TestProject_CarriedDebtReducesAnchor(t *testing.T) {
	// GIVEN: An unpaid January bill and a projection starting in March
	visa := visaAccount(t, map[ledger.Competency]ledger.Money{
		month(2024, time.January): 4000,
		month(2024, time.March):   1000,
	}, nil)

	result, err := ledger.Project(ledger.ProjectionInput{
		Start:  month(2024, time.March),
		Months: 1,
		Anchor: 10000,
		Cards:  []ledger.CardAccount{visa},
	})
	require.NoError(t, err)

	// THEN: January is carried, March is billed in window
	assert.Equal(t, ledger.Money(4000), result.CarriedDebt)
	assert.Equal(t, ledger.Money(6000), result.Opening)
	assert.Equal(t, ledger.Money(6000), result.Stats.Opening)
	require.Len(t, result.Bills, 1)
	assert.Equal(t, ledger.Money(5000), result.Stats.Closing)
}

func TestProject_CarriedDebtIgnoresHiddenAccounts(t *testing.T) {
	visa := visaAccount(t, map[ledger.Competency]ledger.Money{month(2024, time.January): 4000}, nil)

	result, err := ledger.Project(ledger.ProjectionInput{
		Start:   month(2024, time.March),
		Months:  1,
		Cards:   []ledger.CardAccount{visa},
		Visible: ledger.NewAccountSet("savings"),
	})
	require.NoError(t, err)
	assert.Equal(t, ledger.Money(0), result.CarriedDebt)
}

func TestProject_OverdueBillMovesToToday(t *testing.T) {
	visa := visaAccount(t, map[ledger.Competency]ledger.Money{month(2024, time.March): 2500}, nil)

	result, err := ledger.Project(ledger.ProjectionInput{
		Start:  month(2024, time.March),
		Months: 1,
		Today:  day(2024, time.March, 12),
		Cards:  []ledger.CardAccount{visa},
	})
	require.NoError(t, err)

	require.Len(t, result.Bills, 1)
	assert.Equal(t, day(2024, time.March, 12), result.Bills[0].Date)
	assert.Equal(t, ledger.Money(0), dayOf(t, result, day(2024, time.March, 5)).Outflow)
	assert.Equal(t, ledger.Money(2500), dayOf(t, result, day(2024, time.March, 12)).Outflow)
}

func TestProject_BillsBeyondHorizonDropped(t *testing.T) {
	visa := visaAccount(t, map[ledger.Competency]ledger.Money{month(2026, time.June): 2500}, nil)

	result, err := ledger.Project(ledger.ProjectionInput{Start: month(2024, time.March), Cards: []ledger.CardAccount{visa}})
	require.NoError(t, err)
	assert.Empty(t, result.Bills)
	assert.Equal(t, ledger.Money(0), result.CarriedDebt)
}

func TestProject_InvalidCard(t *testing.T) {
	bad := ledger.CardAccount{Card: ledger.Card{ID: "x", ClosingDay: 0, DueDay: 5}}
	_, err := ledger.Project(ledger.ProjectionInput{Start: month(2024, time.March), Cards: []ledger.CardAccount{bad}})
	assert.ErrorIs(t, err, ledger.ErrInvalidCard)
}

// =============================================================================
// OVERLAY & DETERMINISM
// =============================================================================

func TestProject_OverlayRemovalReproducesBaseline(t *testing.T) {
	// GIVEN: A baseline and a simulated vacation
	input := ledger.ProjectionInput{
		Start:   month(2024, time.January),
		Today:   day(2024, time.January, 15),
		Anchor:  50000,
		Entries: sampleEntries(),
		Cards: []ledger.CardAccount{visaAccount(t, map[ledger.Competency]ledger.Money{
			month(2024, time.February): 12000,
		}, nil)},
	}
	baseline, err := ledger.Project(input)
	require.NoError(t, err)

	vacation := entry("vacation", day(2024, time.August, 1), 200000, ledger.KindOutflow)
	withOverlay := input
	withOverlay.Overlay = []ledger.Entry{vacation}

	// WHEN: Projecting with the overlay
	simulated, err := ledger.Project(withOverlay)
	require.NoError(t, err)

	// THEN: The overlay changes the result, and is marked virtual
	assert.Equal(t, baseline.Stats.Closing-200000, simulated.Stats.Closing)
	aug := dayOf(t, simulated, day(2024, time.August, 1))
	require.Len(t, aug.Entries, 1)
	assert.True(t, aug.Entries[0].Virtual)

	// The caller's overlay slice is untouched
	assert.False(t, withOverlay.Overlay[0].Virtual)

	// AND: Removing it reproduces the baseline exactly
	withOverlay.Overlay = nil
	again, err := ledger.Project(withOverlay)
	require.NoError(t, err)
	assert.Equal(t, baseline, again)
}

func TestProject_OverlayCollisionsRejected(t *testing.T) {
	debit, credit := transferPair("save", "save-a", "save-b", day(2024, time.March, 7), 1000, "checking", "savings")
	simDebit, simCredit := transferPair("save", "sim-a", "sim-b", day(2024, time.March, 8), 500, "checking", "savings")

	tests := []struct {
		name    string
		overlay []ledger.Entry
	}{
		{"reused entry id", []ledger.Entry{entry("rent", day(2024, time.March, 9), 100, ledger.KindOutflow)}},
		{"reused recurrence occurrence id", []ledger.Entry{entry("r01-salary", day(2024, time.March, 9), 100, ledger.KindInflow)}},
		{"reused transfer pair", []ledger.Entry{simDebit, simCredit}},
		{"duplicate inside overlay", []ledger.Entry{
			entry("trip", day(2024, time.March, 9), 100, ledger.KindOutflow),
			entry("trip", day(2024, time.March, 10), 100, ledger.KindOutflow),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// GIVEN: Real entries, a recurring salary and a simulated entry reusing their identity
			input := ledger.ProjectionInput{
				Start:       month(2024, time.March),
				Entries:     []ledger.Entry{entry("rent", day(2024, time.March, 5), 900, ledger.KindOutflow), debit, credit},
				Recurrences: []ledger.Recurrence{{Base: entry("salary", day(2024, time.February, 27), 3000, ledger.KindInflow), Frequency: ledger.FrequencyMonthly}},
				Overlay:     tt.overlay,
			}

			// WHEN: Projecting
			_, err := ledger.Project(input)

			// THEN: The collision is reported instead of a corrupted pairing
			assert.ErrorIs(t, err, ledger.ErrDuplicateEntry)
			assert.True(t, ledger.IsDuplicate(err))
		})
	}
}

func TestProject_Deterministic(t *testing.T) {
	input := ledger.ProjectionInput{
		Start:       month(2024, time.January),
		Today:       day(2024, time.January, 15),
		Anchor:      50000,
		Entries:     sampleEntries(),
		Recurrences: []ledger.Recurrence{{Base: entry("rent-plan", day(2024, time.January, 1), 90000, ledger.KindOutflow), Frequency: ledger.FrequencyMonthly}},
		Overlay:     []ledger.Entry{entry("sim", day(2024, time.May, 1), 100, ledger.KindInflow)},
	}

	first, err := ledger.Project(input)
	require.NoError(t, err)
	second, err := ledger.Project(input)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestProjectionEngine_HonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine := &ledger.ProjectionEngine{}
	_, err := engine.Project(ctx, ledger.ProjectionInput{Start: month(2024, time.January)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProjectionEngine_Project(t *testing.T) {
	engine := &ledger.ProjectionEngine{}
	result, err := engine.Project(context.Background(), ledger.ProjectionInput{Start: month(2024, time.January), Months: 1, Anchor: 42})
	require.NoError(t, err)
	assert.Len(t, result.Days, 31)
	assert.Equal(t, ledger.Money(42), result.Stats.Closing)
}

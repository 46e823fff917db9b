package ledger_test

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/cashflow-engine/ledger"
)

func transferPair(pairID string, debitID, creditID string, date ledger.Date, amount ledger.Money, from, to ledger.AccountID) (ledger.Entry, ledger.Entry) {
	debit := entry(debitID, date, amount, ledger.KindTransferDebit)
	debit.PairID = pairID
	debit.AccountID = from
	credit := entry(creditID, date, amount, ledger.KindTransferCredit)
	credit.PairID = pairID
	credit.AccountID = to
	return debit, credit
}

func sampleEntries() []ledger.Entry {
	opening := entry("opening", day(2024, time.March, 1), 100000, ledger.KindInitialBalance)
	opening.AccountID = "checking"
	salary := entry("salary", day(2024, time.March, 5), 250000, ledger.KindInflow)
	salary.AccountID = "checking"
	rent := entry("rent", day(2024, time.March, 5), 90000, ledger.KindOutflow)
	rent.AccountID = "checking"
	etf := entry("etf", day(2024, time.March, 6), 30000, ledger.KindInvestment)
	etf.AccountID = "checking"
	bill := entry("visa bill", day(2024, time.March, 10), 45000, ledger.KindCardBillDue)
	bill.AccountID = "checking"
	debit, credit := transferPair("save", "save-a", "save-b", day(2024, time.March, 7), 20000, "checking", "savings")
	return []ledger.Entry{opening, salary, rent, etf, bill, debit, credit}
}

// =============================================================================
// CLASSIFICATION & RUNNING BALANCE
// =============================================================================

func TestAggregate_ClassifiesAndRunsBalance(t *testing.T) {
	// GIVEN: A month of mixed entries over two accounts, both visible
	entries := sampleEntries()

	// WHEN: Aggregating March from an anchor of 5000
	days, err := ledger.Aggregator{Anchor: 5000}.Aggregate(entries, day(2024, time.March, 1), day(2024, time.March, 31))
	require.NoError(t, err)

	// THEN: One summary per day, including empty ones
	require.Len(t, days, 31)
	assert.Equal(t, day(2024, time.March, 1), days[0].Date)
	assert.Equal(t, day(2024, time.March, 31), days[30].Date)

	// Initial balance seeds the balance, never inflow
	assert.Equal(t, ledger.Money(100000), days[0].InitialBalance)
	assert.Equal(t, ledger.Money(0), days[0].Inflow)
	assert.Equal(t, ledger.Money(105000), days[0].Balance)

	// Empty days carry the balance
	assert.Equal(t, ledger.Money(105000), days[3].Balance)

	assert.Equal(t, ledger.Money(250000), days[4].Inflow)
	assert.Equal(t, ledger.Money(90000), days[4].Outflow)
	assert.Equal(t, ledger.Money(265000), days[4].Balance)

	assert.Equal(t, ledger.Money(30000), days[5].Investment)
	assert.Equal(t, ledger.Money(235000), days[5].Balance)

	// Internal transfer: single event, no balance effect
	assert.Equal(t, ledger.Money(20000), days[6].Transfers)
	assert.Equal(t, ledger.Money(0), days[6].Inflow)
	assert.Equal(t, ledger.Money(0), days[6].Outflow)
	assert.Equal(t, ledger.Money(235000), days[6].Balance)
	require.Len(t, days[6].Entries, 1)
	assert.Equal(t, ledger.EntryID("save-a"), days[6].Entries[0].ID)

	// Card bill counts as outflow
	assert.Equal(t, ledger.Money(45000), days[9].Outflow)
	assert.Equal(t, ledger.Money(190000), days[9].Balance)
	assert.Equal(t, ledger.Money(190000), days[30].Balance)
}

func TestAggregate_RunningBalanceFormula(t *testing.T) {
	days, err := ledger.Aggregator{Anchor: -1234}.Aggregate(sampleEntries(), day(2024, time.March, 1), day(2024, time.March, 31))
	require.NoError(t, err)

	prev := ledger.Money(-1234)
	for _, d := range days {
		assert.Equal(t, prev+d.InitialBalance+d.Inflow-d.Outflow-d.Investment, d.Balance, d.Date.String())
		prev = d.Balance
	}
}

func TestAggregate_IgnoresEntriesOutsideWindow(t *testing.T) {
	days, err := ledger.Aggregator{}.Aggregate(sampleEntries(), day(2024, time.March, 6), day(2024, time.March, 8))
	require.NoError(t, err)

	require.Len(t, days, 3)
	assert.Equal(t, ledger.Money(-30000), days[2].Balance)
}

func TestAggregate_SortsByDescriptionWithinDay(t *testing.T) {
	d := day(2024, time.June, 1)
	entries := []ledger.Entry{
		entry("3", d, 100, ledger.KindOutflow),
		entry("1", d, 100, ledger.KindInflow),
		entry("2", d, 100, ledger.KindOutflow),
	}
	entries[0].Description = "Coffee"
	entries[1].Description = "Bonus"
	entries[2].Description = "Coffee"

	days, err := ledger.Aggregator{}.Aggregate(entries, d, d)
	require.NoError(t, err)

	var ids []ledger.EntryID
	for _, e := range days[0].Entries {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []ledger.EntryID{"1", "2", "3"}, ids)
}

func TestAggregate_OrderIndependent(t *testing.T) {
	// GIVEN: The same entries in many orders
	entries := sampleEntries()
	from, to := day(2024, time.March, 1), day(2024, time.March, 31)
	agg := ledger.Aggregator{Anchor: 777, Visible: ledger.NewAccountSet("checking")}

	baseline, err := agg.Aggregate(entries, from, to)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 25; i++ {
		shuffled := append([]ledger.Entry(nil), entries...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		// WHEN: Aggregating the shuffled list
		got, err := agg.Aggregate(shuffled, from, to)
		require.NoError(t, err)

		// THEN: Identical output
		assert.Equal(t, baseline, got)
	}
}

// =============================================================================
// TRANSFER PAIRING
// =============================================================================

func TestAggregate_TransferOneLegVisible(t *testing.T) {
	entries := sampleEntries()
	from, to := day(2024, time.March, 7), day(2024, time.March, 7)

	// Only checking visible: the debit leg is an outflow
	days, err := ledger.Aggregator{Visible: ledger.NewAccountSet("checking")}.Aggregate(entries, from, to)
	require.NoError(t, err)
	assert.Equal(t, ledger.Money(20000), days[0].Outflow)
	assert.Equal(t, ledger.Money(0), days[0].Transfers)

	// Only savings visible: the credit leg is an inflow
	days, err = ledger.Aggregator{Visible: ledger.NewAccountSet("savings")}.Aggregate(entries, from, to)
	require.NoError(t, err)
	assert.Equal(t, ledger.Money(20000), days[0].Inflow)
	assert.Equal(t, ledger.Money(20000), days[0].Balance)

	// Neither visible: ignored
	days, err = ledger.Aggregator{Visible: ledger.NewAccountSet("brokerage")}.Aggregate(entries, from, to)
	require.NoError(t, err)
	assert.Empty(t, days[0].Entries)
	assert.Equal(t, ledger.Money(0), days[0].Balance)
}

func TestAggregate_PairingByIDOrder_RegardlessOfInputOrder(t *testing.T) {
	// GIVEN: A pair whose stored kinds disagree with id ordering
	d := day(2024, time.April, 2)
	a := entry("t-1", d, 5000, ledger.KindTransferCredit)
	a.PairID, a.AccountID = "p", "savings"
	b := entry("t-2", d, 5000, ledger.KindTransferDebit)
	b.PairID, b.AccountID = "p", "checking"

	for _, order := range [][]ledger.Entry{{a, b}, {b, a}} {
		// WHEN: Only savings is visible
		days, err := ledger.Aggregator{Visible: ledger.NewAccountSet("savings")}.Aggregate(order, d, d)
		require.NoError(t, err)

		// THEN: The smaller id (t-1) is the debit, so savings sees an outflow
		assert.Equal(t, ledger.Money(5000), days[0].Outflow)
		assert.Equal(t, ledger.Money(0), days[0].Inflow)
	}
}

func TestAggregate_TransferLegsOnDifferentDays(t *testing.T) {
	debit := entry("x-a", day(2024, time.May, 30), 10000, ledger.KindTransferDebit)
	debit.PairID, debit.AccountID = "x", "checking"
	credit := entry("x-b", day(2024, time.June, 3), 10000, ledger.KindTransferCredit)
	credit.PairID, credit.AccountID = "x", "savings"

	days, err := ledger.Aggregator{}.Aggregate([]ledger.Entry{debit, credit}, day(2024, time.May, 30), day(2024, time.June, 3))
	require.NoError(t, err)

	assert.Equal(t, ledger.Money(10000), days[0].Outflow)
	assert.Equal(t, ledger.Money(-10000), days[1].Balance)
	assert.Equal(t, ledger.Money(10000), days[4].Inflow)
	assert.Equal(t, ledger.Money(0), days[4].Balance)
}

func TestAggregate_UnresolvedTransferPair(t *testing.T) {
	d := day(2024, time.April, 2)

	// Missing counterpart, even when the leg is outside the window
	lonely := entry("t-1", d, 5000, ledger.KindTransferDebit)
	lonely.PairID = "p"
	_, err := ledger.Aggregator{}.Aggregate([]ledger.Entry{lonely}, day(2024, time.May, 1), day(2024, time.May, 2))
	require.Error(t, err)
	assert.ErrorIs(t, err, ledger.ErrUnresolvedTransferPair)

	var ute *ledger.UnresolvedTransferError
	require.True(t, errors.As(err, &ute))
	assert.Equal(t, "p", ute.PairID)
	assert.Equal(t, []ledger.EntryID{"t-1"}, ute.EntryIDs)

	// Three legs on one pair
	b := lonely
	b.ID = "t-2"
	c := lonely
	c.ID = "t-3"
	_, err = ledger.Aggregator{}.Aggregate([]ledger.Entry{lonely, b, c}, d, d)
	assert.ErrorIs(t, err, ledger.ErrUnresolvedTransferPair)

	// No pair id at all
	nopair := entry("t-9", d, 5000, ledger.KindTransferCredit)
	_, err = ledger.Aggregator{}.Aggregate([]ledger.Entry{nopair}, d, d)
	assert.ErrorIs(t, err, ledger.ErrUnresolvedTransferPair)
}

func TestAggregate_VirtualEntriesAlwaysVisible(t *testing.T) {
	d := day(2024, time.April, 2)
	sim := entry("sim", d, 7000, ledger.KindOutflow)
	sim.AccountID = "savings"
	sim.Virtual = true

	days, err := ledger.Aggregator{Visible: ledger.NewAccountSet("checking")}.Aggregate([]ledger.Entry{sim}, d, d)
	require.NoError(t, err)
	assert.Equal(t, ledger.Money(7000), days[0].Outflow)
}

func TestAggregate_WindowLongerThanDurationRange(t *testing.T) {
	// GIVEN: A four century window and one entry on its last day
	from, to := day(1700, time.January, 1), day(2100, time.January, 1)
	last := entry("last", to, 500, ledger.KindInflow)

	// WHEN: Aggregating
	days, err := ledger.Aggregator{}.Aggregate([]ledger.Entry{last}, from, to)
	require.NoError(t, err)

	// THEN: The series reaches the requested end
	require.Len(t, days, ledger.DaysBetween(from, to))
	assert.Equal(t, from, days[0].Date)
	assert.Equal(t, to, days[len(days)-1].Date)
	assert.Equal(t, ledger.Money(500), days[len(days)-1].Balance)
}

func TestAggregate_InvalidWindow(t *testing.T) {
	_, err := ledger.Aggregator{}.Aggregate(nil, day(2024, time.May, 2), day(2024, time.May, 1))
	assert.ErrorIs(t, err, ledger.ErrInvalidWindow)
}

// =============================================================================
// STATS
// =============================================================================

func TestSummarize_MinMaxAndTotals(t *testing.T) {
	days, err := ledger.Aggregator{Anchor: 5000}.Aggregate(sampleEntries(), day(2024, time.March, 1), day(2024, time.March, 31))
	require.NoError(t, err)

	stats := ledger.Summarize(5000, days)

	assert.Equal(t, ledger.Money(5000), stats.Opening)
	assert.Equal(t, ledger.Money(190000), stats.Closing)
	assert.Equal(t, ledger.Money(185000), stats.NetChange())
	assert.Equal(t, ledger.Money(105000), stats.MinBalance)
	assert.Equal(t, day(2024, time.March, 1), stats.MinDate)
	assert.Equal(t, ledger.Money(265000), stats.MaxBalance)
	assert.Equal(t, day(2024, time.March, 5), stats.MaxDate)
	assert.Equal(t, ledger.Money(250000), stats.TotalInflow)
	assert.Equal(t, ledger.Money(135000), stats.TotalOutflow)
	assert.Equal(t, ledger.Money(30000), stats.TotalInvestment)
	assert.Equal(t, ledger.Money(20000), stats.TotalTransfers)
	assert.Equal(t, ledger.Money(100000), stats.TotalInitial)
}

func TestBalanceBefore_MatchesAggregation(t *testing.T) {
	entries := sampleEntries()

	got, err := ledger.BalanceBefore(entries, day(2024, time.March, 8), nil)
	require.NoError(t, err)

	days, err := ledger.Aggregator{}.Aggregate(entries, day(2024, time.March, 1), day(2024, time.March, 7))
	require.NoError(t, err)
	assert.Equal(t, days[len(days)-1].Balance, got)
}

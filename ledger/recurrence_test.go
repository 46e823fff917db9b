package ledger_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/cashflow-engine/ledger"
)

func TestExpand_Monthly_24ConsecutiveMonths(t *testing.T) {
	// GIVEN: A settled rent payment on 2024-05-10
	base := entry("rent", day(2024, time.May, 10), 90000, ledger.KindOutflow)
	base.Category = "housing"

	// WHEN: Expanding monthly
	series, err := ledger.Expand(base, ledger.FrequencyMonthly)
	require.NoError(t, err)

	// THEN: 24 occurrences in consecutive months across the year boundary
	require.Len(t, series, ledger.MonthlyOccurrences)
	require.Len(t, series, 24)

	for i, e := range series {
		want := month(2024, time.May).Add(i)
		assert.Equal(t, want, e.Date.Competency(), "occurrence %d", i)
		assert.Equal(t, 10, e.Date.Day)
		assert.Equal(t, ledger.Money(90000), e.Amount)
		assert.Equal(t, "rent", e.Description)
		assert.Equal(t, "housing", e.Category)
		assert.Equal(t, "rent", e.RecurrenceID)
	}
	assert.Equal(t, day(2025, time.January, 10), series[8].Date)
	assert.Equal(t, day(2026, time.April, 10), series[23].Date)
}

func TestExpand_FirstKeepsSettlement_RestAreForecast(t *testing.T) {
	base := entry("salary", day(2024, time.January, 27), 300000, ledger.KindInflow)
	base.Settled = true

	series, err := ledger.Expand(base, ledger.FrequencyMonthly)
	require.NoError(t, err)

	assert.Equal(t, ledger.EntryID("salary"), series[0].ID)
	assert.True(t, series[0].Settled)
	for _, e := range series[1:] {
		assert.False(t, e.Settled)
		assert.NotEqual(t, base.ID, e.ID)
	}
	assert.Equal(t, ledger.EntryID("r01-salary"), series[1].ID)
	assert.Equal(t, ledger.EntryID("r23-salary"), series[23].ID)

	// Unsettled base stays unsettled
	base.Settled = false
	series, err = ledger.Expand(base, ledger.FrequencyMonthly)
	require.NoError(t, err)
	assert.False(t, series[0].Settled)
}

func TestExpand_Monthly_ClampsDay31FromBase(t *testing.T) {
	base := entry("gym", day(2024, time.January, 31), 4000, ledger.KindOutflow)

	series, err := ledger.Expand(base, ledger.FrequencyMonthly)
	require.NoError(t, err)

	// Computed from the base each time: February clamps, March recovers 31
	assert.Equal(t, day(2024, time.February, 29), series[1].Date)
	assert.Equal(t, day(2024, time.March, 31), series[2].Date)
	assert.Equal(t, day(2024, time.April, 30), series[3].Date)
	assert.Equal(t, day(2025, time.February, 28), series[13].Date)
}

func TestExpand_Annual_FiveConsecutiveYears(t *testing.T) {
	base := entry("insurance", day(2024, time.February, 29), 65000, ledger.KindOutflow)

	series, err := ledger.Expand(base, ledger.FrequencyAnnual)
	require.NoError(t, err)

	require.Len(t, series, ledger.AnnualOccurrences)
	require.Len(t, series, 5)
	assert.Equal(t, []ledger.Date{
		day(2024, time.February, 29),
		day(2025, time.February, 28),
		day(2026, time.February, 28),
		day(2027, time.February, 28),
		day(2028, time.February, 29),
	}, []ledger.Date{series[0].Date, series[1].Date, series[2].Date, series[3].Date, series[4].Date})
}

func TestExpand_KeepsExplicitRecurrenceID(t *testing.T) {
	base := entry("netflix", day(2024, time.March, 3), 1299, ledger.KindOutflow)
	base.RecurrenceID = "subscriptions-netflix"

	series, err := ledger.Expand(base, ledger.FrequencyAnnual)
	require.NoError(t, err)
	for _, e := range series {
		assert.Equal(t, "subscriptions-netflix", e.RecurrenceID)
	}
}

func TestExpand_TransferLegsStayPaired(t *testing.T) {
	// GIVEN: Both legs of a monthly savings transfer
	debit := entry("save-a", day(2024, time.January, 1), 20000, ledger.KindTransferDebit)
	debit.PairID = "save"
	debit.AccountID = "checking"
	credit := entry("save-b", day(2024, time.January, 1), 20000, ledger.KindTransferCredit)
	credit.PairID = "save"
	credit.AccountID = "savings"

	// WHEN: Expanding each leg
	debits, err := ledger.Expand(debit, ledger.FrequencyMonthly)
	require.NoError(t, err)
	credits, err := ledger.Expand(credit, ledger.FrequencyMonthly)
	require.NoError(t, err)

	// THEN: Every occurrence forms its own pair and aggregates cleanly
	for i := range debits {
		assert.Equal(t, debits[i].PairID, credits[i].PairID)
	}
	days, err := ledger.Aggregator{}.Aggregate(append(debits, credits...), day(2024, time.January, 1), day(2025, time.December, 31))
	require.NoError(t, err)
	assert.Equal(t, ledger.Money(0), days[len(days)-1].Balance)
}

func TestExpand_TransferLegsKeepRolesWhenOneIDPrefixesTheOther(t *testing.T) {
	// GIVEN: A monthly transfer whose credit leg id extends the debit leg id
	debit, credit := transferPair("t", "t", "t-c", day(2024, time.January, 10), 10000, "A", "B")

	debits, err := ledger.Expand(debit, ledger.FrequencyMonthly)
	require.NoError(t, err)
	credits, err := ledger.Expand(credit, ledger.FrequencyMonthly)
	require.NoError(t, err)

	// WHEN: Aggregating with only the source account visible
	days, err := ledger.Aggregator{Visible: ledger.NewAccountSet("A")}.Aggregate(
		append(debits, credits...), day(2024, time.January, 1), day(2025, time.December, 31))
	require.NoError(t, err)

	// THEN: Every occurrence leaves A as an outflow
	outflows := 0
	for _, d := range days {
		assert.Equal(t, ledger.Money(0), d.Inflow, d.Date.String())
		if d.Date.Day == 10 {
			assert.Equal(t, ledger.Money(10000), d.Outflow, d.Date.String())
			outflows++
		}
	}
	assert.Equal(t, ledger.MonthlyOccurrences, outflows)
	assert.Equal(t, ledger.Money(-10000*ledger.MonthlyOccurrences), days[len(days)-1].Balance)

	tests := []struct {
		i            int
		debit, other ledger.EntryID
	}{
		{1, "r01-t", "r01-t-c"},
		{12, "r12-t", "r12-t-c"},
		{23, "r23-t", "r23-t-c"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.debit, debits[tt.i].ID)
		assert.Equal(t, tt.other, credits[tt.i].ID)
		assert.Less(t, string(debits[tt.i].ID), string(credits[tt.i].ID))
	}
}

func TestExpand_Rejections(t *testing.T) {
	base := entry("x", day(2024, time.March, 3), 100, ledger.KindOutflow)

	_, err := ledger.Expand(base, "weekly")
	assert.ErrorIs(t, err, ledger.ErrInvalidFrequency)

	base.Date = ledger.Date{Year: 2024, Month: time.February, Day: 30}
	_, err = ledger.Expand(base, ledger.FrequencyMonthly)
	assert.ErrorIs(t, err, ledger.ErrInvalidDate)
}

func TestParseFrequency(t *testing.T) {
	f, err := ledger.ParseFrequency("annual")
	require.NoError(t, err)
	assert.Equal(t, ledger.FrequencyAnnual, f)

	_, err = ledger.ParseFrequency("daily")
	assert.ErrorIs(t, err, ledger.ErrInvalidFrequency)
}

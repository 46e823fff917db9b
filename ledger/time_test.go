package ledger_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/cashflow-engine/ledger"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func day(y int, m time.Month, d int) ledger.Date {
	return ledger.MustDate(y, m, d)
}

func month(y int, m time.Month) ledger.Competency {
	return ledger.Competency{Year: y, Month: m}
}

func entry(id string, date ledger.Date, amount ledger.Money, kind ledger.Kind) ledger.Entry {
	return ledger.Entry{
		ID:          ledger.EntryID(id),
		Date:        date,
		Amount:      amount,
		Kind:        kind,
		Description: id,
		Settled:     true,
	}
}

// =============================================================================
// DATE MATH
// =============================================================================

func TestAddMonths_ZeroBasedIndexWithYearCarry(t *testing.T) {
	tests := []struct {
		name                string
		year, month, delta  int
		wantYear, wantMonth int
	}{
		{"december plus two", 2024, 11, 2, 2025, 1},
		{"no change", 2024, 5, 0, 2024, 5},
		{"within year", 2024, 0, 11, 2024, 11},
		{"exactly one year", 2024, 3, 12, 2025, 3},
		{"backward across year", 2024, 0, -1, 2023, 11},
		{"backward many years", 2024, 2, -27, 2021, 11},
		{"forward two years", 2023, 6, 24, 2025, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			y, m := ledger.AddMonths(tt.year, tt.month, tt.delta)
			assert.Equal(t, tt.wantYear, y)
			assert.Equal(t, tt.wantMonth, m)
		})
	}
}

func TestAddYears_KeepsMonth(t *testing.T) {
	y, m := ledger.AddYears(2024, 1, 3)
	assert.Equal(t, 2027, y)
	assert.Equal(t, 1, m)
}

func TestLastDayOfMonth(t *testing.T) {
	assert.Equal(t, 31, ledger.LastDayOfMonth(2024, time.January))
	assert.Equal(t, 29, ledger.LastDayOfMonth(2024, time.February))
	assert.Equal(t, 28, ledger.LastDayOfMonth(2023, time.February))
	assert.Equal(t, 28, ledger.LastDayOfMonth(1900, time.February))
	assert.Equal(t, 29, ledger.LastDayOfMonth(2000, time.February))
	assert.Equal(t, 30, ledger.LastDayOfMonth(2024, time.April))
	assert.Equal(t, 31, ledger.LastDayOfMonth(2024, time.December))
}

func TestCompare_Lexicographic(t *testing.T) {
	a := day(2024, time.March, 15)

	assert.Equal(t, 0, ledger.Compare(a, day(2024, time.March, 15)))
	assert.Equal(t, -1, ledger.Compare(a, day(2024, time.March, 16)))
	assert.Equal(t, -1, ledger.Compare(a, day(2024, time.April, 1)))
	assert.Equal(t, -1, ledger.Compare(a, day(2025, time.January, 1)))
	assert.Equal(t, 1, ledger.Compare(a, day(2024, time.March, 14)))
	assert.Equal(t, 1, ledger.Compare(a, day(2023, time.December, 31)))

	assert.True(t, a.Before(day(2024, time.March, 16)))
	assert.True(t, a.After(day(2024, time.February, 29)))
	assert.True(t, a.Equal(day(2024, time.March, 15)))
}

func TestDateAddMonths_ClampsToLastDay(t *testing.T) {
	base := day(2024, time.January, 31)

	assert.Equal(t, day(2024, time.February, 29), base.AddMonths(1))
	assert.Equal(t, day(2024, time.March, 31), base.AddMonths(2))
	assert.Equal(t, day(2024, time.April, 30), base.AddMonths(3))
	assert.Equal(t, day(2023, time.December, 31), base.AddMonths(-1))

	// The receiver is a value: it is never mutated
	assert.Equal(t, day(2024, time.January, 31), base)
}

func TestDateAddYears_LeapDay(t *testing.T) {
	leap := day(2024, time.February, 29)

	assert.Equal(t, day(2025, time.February, 28), leap.AddYears(1))
	assert.Equal(t, day(2028, time.February, 29), leap.AddYears(4))
}

func TestDateAddDays_CrossesMonthAndYear(t *testing.T) {
	assert.Equal(t, day(2025, time.January, 1), day(2024, time.December, 31).AddDays(1))
	assert.Equal(t, day(2024, time.February, 29), day(2024, time.March, 1).AddDays(-1))
}

func TestNewDate_RejectsMalformedComponents(t *testing.T) {
	tests := []struct {
		name  string
		year  int
		month time.Month
		day   int
	}{
		{"month zero", 2024, 0, 1},
		{"month thirteen", 2024, 13, 1},
		{"day zero", 2024, time.May, 0},
		{"april 31", 2024, time.April, 31},
		{"feb 29 non leap", 2023, time.February, 29},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ledger.NewDate(tt.year, tt.month, tt.day)
			require.Error(t, err)
			assert.ErrorIs(t, err, ledger.ErrInvalidDate)

			var de *ledger.DateError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, tt.day, de.Day)
		})
	}
}

func TestParseDate(t *testing.T) {
	d, err := ledger.ParseDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, day(2024, time.February, 29), d)
	assert.Equal(t, "2024-02-29", d.String())

	_, err = ledger.ParseDate("2023-02-29")
	assert.ErrorIs(t, err, ledger.ErrInvalidDate)

	_, err = ledger.ParseDate("29/02/2024")
	assert.ErrorIs(t, err, ledger.ErrInvalidDate)
}

func TestDate_TextRoundTrip(t *testing.T) {
	var d ledger.Date
	require.NoError(t, d.UnmarshalText([]byte("2024-12-31")))
	assert.Equal(t, day(2024, time.December, 31), d)

	b, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "2024-12-31", string(b))
}

// =============================================================================
// COMPETENCY
// =============================================================================

func TestCompetency_StringAndParse(t *testing.T) {
	c := month(2024, time.February)
	assert.Equal(t, "2024-02", c.String())

	parsed, err := ledger.ParseCompetency("2025-11")
	require.NoError(t, err)
	assert.Equal(t, month(2025, time.November), parsed)

	_, err = ledger.ParseCompetency("2025-13")
	assert.ErrorIs(t, err, ledger.ErrInvalidDate)
}

func TestCompetency_AddRollsYear(t *testing.T) {
	assert.Equal(t, month(2025, time.January), month(2024, time.December).Add(1))
	assert.Equal(t, month(2023, time.December), month(2024, time.January).Add(-1))
	assert.Equal(t, month(2026, time.March), month(2024, time.March).Add(24))
}

func TestMonthsWindow(t *testing.T) {
	w := ledger.MonthsWindow(month(2024, time.January), 24)

	assert.Equal(t, day(2024, time.January, 1), w.From)
	assert.Equal(t, day(2025, time.December, 31), w.To)
	assert.Equal(t, 366+365, w.Days())
}

func TestDaysBetween_CalendarDays(t *testing.T) {
	tests := []struct {
		name string
		a, b ledger.Date
		want int
	}{
		{"same day", day(2024, time.May, 1), day(2024, time.May, 1), 1},
		{"leap february", day(2024, time.February, 1), day(2024, time.February, 29), 29},
		{"before epoch", day(1960, time.January, 1), day(1960, time.December, 31), 366},
		{"across epoch", day(1969, time.December, 31), day(1970, time.January, 1), 2},
		{"four centuries", day(1700, time.January, 1), day(2100, time.January, 1), 146097 + 1},
		{"reversed", day(2024, time.May, 2), day(2024, time.May, 1), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ledger.DaysBetween(tt.a, tt.b))
		})
	}
}

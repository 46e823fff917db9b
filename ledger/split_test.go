package ledger_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/cashflow-engine/ledger"
)

func TestSplit_FrontLoadsRemainder(t *testing.T) {
	parts, err := ledger.Split(1000, 3)
	require.NoError(t, err)
	assert.Equal(t, []ledger.Money{334, 333, 333}, parts)
}

func TestSplit_Examples(t *testing.T) {
	tests := []struct {
		total ledger.Money
		count int
		want  []ledger.Money
	}{
		{1000, 1, []ledger.Money{1000}},
		{1000, 4, []ledger.Money{250, 250, 250, 250}},
		{1001, 4, []ledger.Money{251, 250, 250, 250}},
		{1003, 4, []ledger.Money{251, 251, 251, 250}},
		{2, 5, []ledger.Money{1, 1, 0, 0, 0}},
		{0, 3, []ledger.Money{0, 0, 0}},
	}

	for _, tt := range tests {
		parts, err := ledger.Split(tt.total, tt.count)
		require.NoError(t, err)
		assert.Equal(t, tt.want, parts, "split(%d, %d)", tt.total, tt.count)
	}
}

func TestSplit_PreservesTotalAndSpread(t *testing.T) {
	// GIVEN: A grid of positive totals and counts
	for _, total := range []ledger.Money{1, 7, 99, 100, 1000, 12345, 999999, 1000003} {
		for count := 1; count <= 36; count++ {
			// WHEN: Splitting
			parts, err := ledger.Split(total, count)
			require.NoError(t, err)

			// THEN: Length, sum and spread invariants hold
			require.Len(t, parts, count)
			assert.Equal(t, total, ledger.Sum(parts), "split(%d, %d)", total, count)

			hi, lo := parts[0], parts[0]
			for i, p := range parts {
				hi, lo = hi.Max(p), lo.Min(p)
				if i > 0 {
					assert.LessOrEqual(t, p, parts[i-1], "later parts never exceed earlier ones")
				}
			}
			assert.LessOrEqual(t, hi-lo, ledger.Money(1))
		}
	}
}

func TestSplit_InvalidCount(t *testing.T) {
	for _, count := range []int{0, -1, -12} {
		_, err := ledger.Split(1000, count)
		assert.ErrorIs(t, err, ledger.ErrInvalidInstallmentCount)
	}
}

func TestParseMoney(t *testing.T) {
	tests := []struct {
		in   string
		want ledger.Money
	}{
		{"12.34", 1234},
		{"0.5", 50},
		{"-5", -500},
		{"1000", 100000},
		{"0.005", 1},
		{"0.004", 0},
	}
	for _, tt := range tests {
		got, err := ledger.ParseMoney(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ledger.ParseMoney("twelve")
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)
}

func TestParseMoney_Int64Range(t *testing.T) {
	tests := []struct {
		in   string
		want ledger.Money
		ok   bool
	}{
		{"92233720368547758.07", math.MaxInt64, true},
		{"-92233720368547758.08", math.MinInt64, true},
		{"92233720368547758.08", 0, false},
		{"-92233720368547758.09", 0, false},
		{"92233720368547758.075", 0, false},
		{"1e30", 0, false},
	}
	for _, tt := range tests {
		got, err := ledger.ParseMoney(tt.in)
		if !tt.ok {
			assert.ErrorIs(t, err, ledger.ErrInvalidAmount, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestMoney_String(t *testing.T) {
	assert.Equal(t, "12.34", ledger.Money(1234).String())
	assert.Equal(t, "-0.05", ledger.Money(-5).String())
	assert.Equal(t, "0.00", ledger.Money(0).String())
}

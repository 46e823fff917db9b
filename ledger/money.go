package ledger

import (
	"fmt"
	"math"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is used by Display when no currency code is given.
const DefaultCurrency = money.EUR

var (
	minCents = decimal.NewFromInt(math.MinInt64)
	maxCents = decimal.NewFromInt(math.MaxInt64)
)

// ParseMoney converts a decimal string ("12.34", "-5", "0.5") into cents.
// More than two fractional digits are rounded half away from zero. Amounts
// outside the int64 cent range are rejected.
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, ErrInvalidAmount)
	}
	cents := d.Shift(2).Round(0)
	if cents.LessThan(minCents) || cents.GreaterThan(maxCents) {
		return 0, fmt.Errorf("parse amount %q: out of range: %w", s, ErrInvalidAmount)
	}
	return Money(cents.IntPart()), nil
}

// MustParseMoney is ParseMoney for literals. It panics on malformed input.
func MustParseMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

// Decimal returns the amount in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -2)
}

// String renders the amount in major units with two decimals.
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Display formats the amount for humans in the given ISO currency.
func (m Money) Display(currency string) string {
	if currency == "" {
		currency = DefaultCurrency
	}
	return money.New(int64(m), currency).Display()
}

package ledger

import (
	"fmt"

	"github.com/Rhymond/go-money"
)

// Split divides total into count parts that differ by at most one cent.
// The remainder goes to the first parts: Split(1000, 3) = [334 333 333].
func Split(total Money, count int) ([]Money, error) {
	if count <= 0 {
		return nil, fmt.Errorf("split %s into %d parts: %w", total, count, ErrInvalidInstallmentCount)
	}

	parts, err := money.New(int64(total), DefaultCurrency).Split(count)
	if err != nil {
		return nil, fmt.Errorf("split %s into %d parts: %w", total, count, err)
	}

	result := make([]Money, len(parts))
	for i, p := range parts {
		result[i] = Money(p.Amount())
	}
	return result, nil
}

// Sum adds amounts.
func Sum(amounts []Money) Money {
	var total Money
	for _, a := range amounts {
		total += a
	}
	return total
}

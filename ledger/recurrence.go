/*
recurrence.go - Bounded expansion of recurring entries

PURPOSE:
  Expands a recurring entry into a finite forecast series. The horizon is
  fixed so projections stay finite: 24 monthly or 5 annual occurrences.
  Callers that need a longer series re-invoke Expand on the last occurrence.

SERIES RULES:
  - Occurrence 0 is the base entry itself and keeps its Settled flag
  - Occurrences 1..N-1 are forecast (Settled = false)
  - Every occurrence shares RecurrenceID (the base id when unset)
  - Occurrence ids carry the index as a prefix ("r01-rent"), so two legs
    keep their relative id order in every occurrence
  - Transfer legs get a per-occurrence PairID, so expanding both legs of a
    pair yields one pair per occurrence
  - Occurrence i is dated base.Date + i months (or years), always computed
    from the base date and clamped to the month's last day:

      Jan 31 -> Feb 29 -> Mar 31 -> Apr 30 ...

SEE ALSO:
  - time.go: Date.AddMonths / Date.AddYears
  - cards/types.go: Recurring card purchases
*/
package ledger

import "fmt"

type Frequency string

const (
	FrequencyMonthly Frequency = "monthly"
	FrequencyAnnual  Frequency = "annual"
)

const (
	MonthlyOccurrences = 24
	AnnualOccurrences  = 5
)

// ParseFrequency converts a string to a Frequency.
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(s)
	if _, err := f.Occurrences(); err != nil {
		return "", err
	}
	return f, nil
}

// Occurrences returns the fixed series length for f.
func (f Frequency) Occurrences() (int, error) {
	switch f {
	case FrequencyMonthly:
		return MonthlyOccurrences, nil
	case FrequencyAnnual:
		return AnnualOccurrences, nil
	}
	return 0, fmt.Errorf("frequency %q: %w", f, ErrInvalidFrequency)
}

// DateAt returns the date of occurrence i of a series starting at base.
func (f Frequency) DateAt(base Date, i int) Date {
	if f == FrequencyAnnual {
		return base.AddYears(i)
	}
	return base.AddMonths(i)
}

// Recurrence pairs a base entry with its frequency.
type Recurrence struct {
	Base      Entry
	Frequency Frequency
}

// Expand produces the bounded series of base.
func Expand(base Entry, freq Frequency) ([]Entry, error) {
	n, err := freq.Occurrences()
	if err != nil {
		return nil, err
	}
	if err := base.Date.Validate(); err != nil {
		return nil, err
	}

	recurrenceID := base.RecurrenceID
	if recurrenceID == "" {
		recurrenceID = string(base.ID)
	}

	series := make([]Entry, n)
	for i := range series {
		e := base
		e.RecurrenceID = recurrenceID
		e.Date = freq.DateAt(base.Date, i)
		if i > 0 {
			e.ID = OccurrenceID(base.ID, i)
			e.Settled = false
			if base.PairID != "" {
				e.PairID = occurrenceKey(base.PairID, i)
			}
		}
		series[i] = e
	}
	return series, nil
}

// OccurrenceID is the deterministic id of occurrence i of base.
func OccurrenceID(base EntryID, i int) EntryID {
	return EntryID(occurrenceKey(string(base), i))
}

func occurrenceKey(base string, i int) string {
	return fmt.Sprintf("r%02d-%s", i, base)
}

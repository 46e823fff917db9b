package ledger

import (
	"fmt"
	"time"
)

// =============================================================================
// COMPETENCY - Billing statement month
// =============================================================================

// Competency identifies the statement month a card charge is billed in.
// Its text form is "YYYY-MM".
type Competency struct {
	Year  int
	Month time.Month
}

// ParseCompetency parses a "YYYY-MM" string.
func ParseCompetency(s string) (Competency, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Competency{}, fmt.Errorf("parse competency %q: %w", s, ErrInvalidDate)
	}
	return Competency{Year: t.Year(), Month: t.Month()}, nil
}

func (c Competency) IsZero() bool { return c == Competency{} }

func (c Competency) String() string {
	return fmt.Sprintf("%04d-%02d", c.Year, int(c.Month))
}

// Add moves the competency by n months.
func (c Competency) Add(n int) Competency {
	y, m := AddMonths(c.Year, int(c.Month)-1, n)
	return Competency{Year: y, Month: time.Month(m + 1)}
}

func (c Competency) First() Date { return Date{Year: c.Year, Month: c.Month, Day: 1} }
func (c Competency) Last() Date  { return Date{Year: c.Year, Month: c.Month, Day: LastDayOfMonth(c.Year, c.Month)} }

func (c Competency) Before(o Competency) bool { return c.First().Before(o.First()) }
func (c Competency) After(o Competency) bool  { return c.First().After(o.First()) }

func (c Competency) MarshalText() ([]byte, error) {
	if c.IsZero() {
		return []byte{}, nil
	}
	return []byte(c.String()), nil
}

func (c *Competency) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*c = Competency{}
		return nil
	}
	parsed, err := ParseCompetency(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// =============================================================================
// WINDOW - Inclusive date range
// =============================================================================

type Window struct {
	From Date
	To   Date
}

// MonthsWindow covers months whole months starting at start.
func MonthsWindow(start Competency, months int) Window {
	return Window{From: start.First(), To: start.Add(months).First().AddDays(-1)}
}

func (w Window) Validate() error {
	if err := w.From.Validate(); err != nil {
		return err
	}
	if err := w.To.Validate(); err != nil {
		return err
	}
	if w.To.Before(w.From) {
		return fmt.Errorf("window %s..%s: %w", w.From, w.To, ErrInvalidWindow)
	}
	return nil
}

func (w Window) Contains(d Date) bool { return d.Within(w.From, w.To) }
func (w Window) Days() int            { return DaysBetween(w.From, w.To) }

func (w Window) String() string {
	return w.From.String() + ".." + w.To.String()
}

package ledger

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE - Calendar date without time of day or zone
// =============================================================================

// DateFormat is the text form of a Date.
const DateFormat = "2006-01-02"

type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate returns a validated date.
func NewDate(year int, month time.Month, day int) (Date, error) {
	d := Date{Year: year, Month: month, Day: day}
	if err := d.Validate(); err != nil {
		return Date{}, err
	}
	return d, nil
}

// MustDate is NewDate for literals. It panics on an invalid date.
func MustDate(year int, month time.Month, day int) Date {
	d, err := NewDate(year, month, day)
	if err != nil {
		panic(err)
	}
	return d
}

// DateOf drops the time of day and zone of t.
func DateOf(t time.Time) Date {
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// ParseDate parses a "2006-01-02" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, ErrInvalidDate)
	}
	return DateOf(t), nil
}

func (d Date) Validate() error {
	if d.Month < time.January || d.Month > time.December || d.Day < 1 || d.Day > LastDayOfMonth(d.Year, d.Month) {
		return &DateError{Year: d.Year, Month: int(d.Month), Day: d.Day}
	}
	return nil
}

func (d Date) IsZero() bool { return d == Date{} }

// Time returns midnight UTC of d.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d Date) MarshalText() ([]byte, error) {
	if d.IsZero() {
		return []byte{}, nil
	}
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Comparison
func (d Date) Before(o Date) bool         { return Compare(d, o) < 0 }
func (d Date) After(o Date) bool          { return Compare(d, o) > 0 }
func (d Date) Equal(o Date) bool          { return Compare(d, o) == 0 }
func (d Date) BeforeOrEqual(o Date) bool  { return Compare(d, o) <= 0 }
func (d Date) AfterOrEqual(o Date) bool   { return Compare(d, o) >= 0 }
func (d Date) Within(from, to Date) bool  { return d.AfterOrEqual(from) && d.BeforeOrEqual(to) }
func (d Date) Competency() Competency     { return Competency{Year: d.Year, Month: d.Month} }
func (d Date) FirstOfMonth() Date         { return Date{Year: d.Year, Month: d.Month, Day: 1} }
func (d Date) LastOfMonth() Date          { return Date{Year: d.Year, Month: d.Month, Day: LastDayOfMonth(d.Year, d.Month)} }

// AddDays moves d by n calendar days.
func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

// AddMonths moves d by n months, clamping the day to the target month's
// last day (Jan 31 + 1 month = Feb 29 in a leap year).
func (d Date) AddMonths(n int) Date {
	y, m := AddMonths(d.Year, int(d.Month)-1, n)
	month := time.Month(m + 1)
	return Date{Year: y, Month: month, Day: min(d.Day, LastDayOfMonth(y, month))}
}

// AddYears moves d by n years with the same clamping (Feb 29 + 1 year = Feb 28).
func (d Date) AddYears(n int) Date {
	return d.AddMonths(12 * n)
}

// =============================================================================
// DATE MATH - Pure helpers over (year, month) pairs
// =============================================================================

// AddMonths adds delta months to a zero-based month index (0 = January)
// and carries the year. AddMonths(2024, 11, 2) = (2025, 1).
func AddMonths(year, month, delta int) (int, int) {
	total := year*12 + month + delta
	y := total / 12
	m := total % 12
	if m < 0 {
		m += 12
		y--
	}
	return y, m
}

// AddYears adds delta years to a (year, month) pair.
func AddYears(year, month, delta int) (int, int) {
	return AddMonths(year, month, delta*12)
}

// LastDayOfMonth returns the number of days in month.
func LastDayOfMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Compare orders dates lexicographically on (year, month, day).
func Compare(a, b Date) int {
	switch {
	case a.Year != b.Year:
		return sign(a.Year - b.Year)
	case a.Month != b.Month:
		return sign(int(a.Month) - int(b.Month))
	default:
		return sign(a.Day - b.Day)
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}

// DaysBetween counts the days from a to b, inclusive of both ends.
func DaysBetween(a, b Date) int {
	if b.Before(a) {
		return 0
	}
	return int(b.dayNumber()-a.dayNumber()) + 1
}

// dayNumber counts days since 1970-01-01.
func (d Date) dayNumber() int64 {
	return d.Time().Unix() / secondsPerDay
}

const secondsPerDay = 24 * 60 * 60

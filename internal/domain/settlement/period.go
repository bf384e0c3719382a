package settlement

import (
	"fmt"
	"time"
)

// DateLayout is the wire format of calendar dates
const DateLayout = "2006-01-02"

// MonthLayout is the wire format of calendar months
const MonthLayout = "2006-01"

// Period is an inclusive range of calendar dates.
// Dates are held as UTC midnight and carry no timezone of their own;
// Bounds converts them into instants for a reporting timezone.
type Period struct {
	Start time.Time
	End   time.Time
}

// NewPeriod creates a period from two calendar dates
func NewPeriod(start, end time.Time) (Period, error) {
	s, e := CivilDate(start), CivilDate(end)
	if s.IsZero() || e.IsZero() {
		return Period{}, NewValidationError("period start and end are required")
	}
	if e.Before(s) {
		return Period{}, NewValidationError("period end must not be before period start")
	}
	return Period{Start: s, End: e}, nil
}

// DayPeriod is the single-day period containing date
func DayPeriod(date time.Time) Period {
	d := CivilDate(date)
	return Period{Start: d, End: d}
}

// MonthPeriod is the calendar month period
func MonthPeriod(year int, month time.Month) Period {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Period{Start: start, End: start.AddDate(0, 1, -1)}
}

// TrailingPeriod is the period of n days ending on end (inclusive)
func TrailingPeriod(end time.Time, n int) Period {
	if n < 1 {
		n = 1
	}
	e := CivilDate(end)
	return Period{Start: e.AddDate(0, 0, -(n - 1)), End: e}
}

// CivilDate strips the clock and location from t, keeping its calendar date
func CivilDate(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateIn returns the calendar date of instant t as observed in loc
func DateIn(t time.Time, loc *time.Location) time.Time {
	return CivilDate(t.In(loc))
}

// ParseDate parses a YYYY-MM-DD calendar date
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, NewValidationError(fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", s))
	}
	return d, nil
}

// ParseMonth parses a YYYY-MM calendar month
func ParseMonth(s string) (int, time.Month, error) {
	d, err := time.Parse(MonthLayout, s)
	if err != nil {
		return 0, 0, NewValidationError(fmt.Sprintf("invalid month %q, expected YYYY-MM", s))
	}
	return d.Year(), d.Month(), nil
}

// Overlaps reports whether the two inclusive ranges share at least one day
func (p Period) Overlaps(o Period) bool {
	return !p.Start.After(o.End) && !o.Start.After(p.End)
}

// Contains reports whether the calendar date lies in the period
func (p Period) Contains(date time.Time) bool {
	d := CivilDate(date)
	return !d.Before(p.Start) && !d.After(p.End)
}

// Days returns the number of calendar days in the period
func (p Period) Days() int {
	return int(p.End.Sub(p.Start).Hours()/24) + 1
}

// EachDay calls fn for every date of the period in ascending order
func (p Period) EachDay(fn func(date time.Time)) {
	for d := p.Start; !d.After(p.End); d = d.AddDate(0, 0, 1) {
		fn(d)
	}
}

// Bounds returns the half-open instant range [from, to) covering the
// period in loc, from the start of the first day to the start of the day after the last.
func (p Period) Bounds(loc *time.Location) (time.Time, time.Time) {
	from := time.Date(p.Start.Year(), p.Start.Month(), p.Start.Day(), 0, 0, 0, 0, loc)
	next := p.End.AddDate(0, 0, 1)
	to := time.Date(next.Year(), next.Month(), next.Day(), 0, 0, 0, 0, loc)
	return from, to
}

// ClampEnd returns the period with its end moved back to limit when it lies beyond it
func (p Period) ClampEnd(limit time.Time) Period {
	l := CivilDate(limit)
	if p.End.After(l) && !l.Before(p.Start) {
		return Period{Start: p.Start, End: l}
	}
	return p
}

// String renders the period as "start..end"
func (p Period) String() string {
	return p.Start.Format(DateLayout) + ".." + p.End.Format(DateLayout)
}

package generic

import "fmt"

// =============================================================================
// PERIOD - Closed date range used for every report window
// =============================================================================

// Period is the closed range [Start, End]. Allocation date ranges and
// report windows are both periods.
//
// Examples:
//   - Calendar year 2025: Jan 1 - Dec 31
//   - Matrix window: 4 weeks before to 12 weeks after the current week
type Period struct {
	Start TimePoint
	End   TimePoint
}

// NewPeriod builds a validated period.
func NewPeriod(start, end TimePoint) (Period, error) {
	p := Period{Start: start, End: end}
	if err := p.Validate(); err != nil {
		return Period{}, err
	}
	return p, nil
}

// YearPeriod covers the calendar year.
func YearPeriod(year int) Period {
	return Period{Start: StartOfYear(year), End: EndOfYear(year)}
}

// Validate rejects periods whose end is before their start.
func (p Period) Validate() error {
	if p.End.Before(p.Start) {
		return &ValidationError{
			Field:   "to",
			Message: fmt.Sprintf("end %s is before start %s", p.End, p.Start),
			Err:     ErrInvalidPeriod,
		}
	}
	return nil
}

// Contains returns true if the time point is within the period [Start, End]
func (p Period) Contains(t TimePoint) bool {
	return t.AfterOrEqual(p.Start) && t.BeforeOrEqual(p.End)
}

// Overlaps reports whether the two closed ranges share at least one day.
func (p Period) Overlaps(other Period) bool {
	return !p.End.Before(other.Start) && !other.End.Before(p.Start)
}

// Intersect returns the shared range, or false when the periods are disjoint.
func (p Period) Intersect(other Period) (Period, bool) {
	if !p.Overlaps(other) {
		return Period{}, false
	}
	return Period{Start: MaxTime(p.Start, other.Start), End: MinTime(p.End, other.End)}, true
}

// Union returns the smallest period covering both.
func (p Period) Union(other Period) Period {
	return Period{Start: MinTime(p.Start, other.Start), End: MaxTime(p.End, other.End)}
}

// Weeks lists the Monday of every week touched by the period, from the
// week containing Start through the week containing End.
func (p Period) Weeks() []TimePoint {
	if p.End.Before(p.Start) {
		return nil
	}
	first := WeekStartOf(p.Start)
	last := WeekStartOf(p.End)
	weeks := make([]TimePoint, 0, WeeksBetween(first, last)+1)
	for w := first; w.BeforeOrEqual(last); w = w.AddWeeks(1) {
		weeks = append(weeks, w)
	}
	return weeks
}

// WeekSpan widens the period to whole weeks: Monday of the first week
// through Sunday of the last.
func (p Period) WeekSpan() Period {
	return Period{Start: WeekStartOf(p.Start), End: WeekEndOf(WeekStartOf(p.End))}
}

// Days returns all days in the period as a slice of TimePoints.
func (p Period) Days() []TimePoint {
	var days []TimePoint
	current := p.Start
	for current.BeforeOrEqual(p.End) {
		days = append(days, current)
		current = current.AddDays(1)
	}
	return days
}

// WorkingDays counts weekdays in the period.
func (p Period) WorkingDays() int {
	return WorkingDaysBetween(p.Start, p.End)
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

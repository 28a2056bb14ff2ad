package generic

import (
	"fmt"
	"time"
)

// =============================================================================
// TIME POINT - Calendar date, always UTC midnight
// =============================================================================

// TimePoint is a calendar date. Allocation ranges and week buckets are all
// day-granular, so the time of day is always truncated away.
type TimePoint struct {
	Time time.Time
}

const dateLayout = "2006-01-02"

// Constructors
func NewTimePoint(year int, month time.Month, day int) TimePoint {
	return TimePoint{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// FromTime drops the clock part of t, keeping the date as seen in t's location.
func FromTime(t time.Time) TimePoint {
	return NewTimePoint(t.Year(), t.Month(), t.Day())
}

func Today() TimePoint {
	return FromTime(time.Now())
}

// ParseDate parses a YYYY-MM-DD date. The field name is only used for the
// error message.
func ParseDate(field, s string) (TimePoint, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return TimePoint{}, &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", s),
		}
	}
	return FromTime(t), nil
}

// Comparison
func (tp TimePoint) Before(other TimePoint) bool        { return tp.Time.Before(other.Time) }
func (tp TimePoint) Equal(other TimePoint) bool         { return tp.Time.Equal(other.Time) }
func (tp TimePoint) After(other TimePoint) bool         { return tp.Time.After(other.Time) }
func (tp TimePoint) BeforeOrEqual(other TimePoint) bool { return !tp.After(other) }
func (tp TimePoint) AfterOrEqual(other TimePoint) bool  { return !tp.Before(other) }

// Arithmetic
func (tp TimePoint) AddDays(n int) TimePoint  { return TimePoint{Time: tp.Time.AddDate(0, 0, n)} }
func (tp TimePoint) AddWeeks(n int) TimePoint { return tp.AddDays(7 * n) }

// Properties
func (tp TimePoint) Year() int             { return tp.Time.Year() }
func (tp TimePoint) Month() time.Month     { return tp.Time.Month() }
func (tp TimePoint) Day() int              { return tp.Time.Day() }
func (tp TimePoint) Weekday() time.Weekday { return tp.Time.Weekday() }
func (tp TimePoint) IsWeekend() bool       { wd := tp.Weekday(); return wd == time.Saturday || wd == time.Sunday }
func (tp TimePoint) IsWorkday() bool       { return !tp.IsWeekend() }
func (tp TimePoint) IsMonday() bool        { return tp.Weekday() == time.Monday }
func (tp TimePoint) IsZero() bool          { return tp.Time.IsZero() }

func (tp TimePoint) String() string {
	return tp.Time.Format(dateLayout)
}

// MinTime / MaxTime pick the earlier / later of two dates.
func MinTime(a, b TimePoint) TimePoint {
	if a.Before(b) {
		return a
	}
	return b
}

func MaxTime(a, b TimePoint) TimePoint {
	if a.After(b) {
		return a
	}
	return b
}

// =============================================================================
// WEEK CALENDAR - Monday-anchored weeks, weekday counting
// =============================================================================
// A week is identified by its Monday and spans [Monday, Monday+6].
// Working days are Monday..Friday. There is no holiday calendar.

// WeekStartOf returns the Monday on or before tp.
func WeekStartOf(tp TimePoint) TimePoint {
	// time.Weekday has Sunday = 0; shift so Monday = 0 and Sunday = 6.
	offset := (int(tp.Weekday()) + 6) % 7
	return tp.AddDays(-offset)
}

// WeekEndOf returns the Sunday closing the week that starts at weekStart.
func WeekEndOf(weekStart TimePoint) TimePoint {
	return WeekStartOf(weekStart).AddDays(6)
}

// WorkingDaysInWeek counts the weekdays in [rangeStart, rangeEnd] that fall
// inside the week starting at weekStart. The result is in 0..5.
func WorkingDaysInWeek(rangeStart, rangeEnd, weekStart TimePoint) int {
	monday := WeekStartOf(weekStart)
	friday := monday.AddDays(4)

	lo := MaxTime(rangeStart, monday)
	hi := MinTime(rangeEnd, friday)
	if hi.Before(lo) {
		return 0
	}
	return DaysBetween(lo, hi) + 1
}

// WorkingDaysBetween counts weekdays in the closed range [from, to].
// Returns 0 when to is before from.
func WorkingDaysBetween(from, to TimePoint) int {
	if to.Before(from) {
		return 0
	}
	total := 0
	for week := WeekStartOf(from); week.BeforeOrEqual(to); week = week.AddWeeks(1) {
		total += WorkingDaysInWeek(from, to, week)
	}
	return total
}

// WeeksBetween returns the number of whole weeks from one week start to
// another. Both arguments are normalized to their Monday first.
func WeeksBetween(from, to TimePoint) int {
	return DaysBetween(WeekStartOf(from), WeekStartOf(to)) / 7
}

// =============================================================================
// TIME UTILITIES
// =============================================================================

func DaysBetween(from, to TimePoint) int { return int(to.Time.Sub(from.Time).Hours() / 24) }
func StartOfYear(year int) TimePoint     { return NewTimePoint(year, time.January, 1) }
func EndOfYear(year int) TimePoint       { return NewTimePoint(year, time.December, 31) }

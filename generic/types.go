/*
Package generic provides the core allocation aggregation engine.

PURPOSE:
  This package turns ranged, fractional-effort allocation records into
  week-bucketed person-day figures. Everything above it (matrix view,
  conflict detection, forecasts, utilization) reads the same weekly totals,
  so the four views can never disagree about how much a resource carries
  in a given week.

KEY CONCEPTS IN THIS FILE (types.go):
  - Allocation: A resource assigned to one phase of one release over a
    date range at a daily factor (0.5 = half-time)
  - ManualAdjustment: A planner's override of one resource-week total
  - WeeklyFigure: One (key, week, person-days) output cell
  - Phase: Closed set of delivery phases

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal so that 0.5 × 3 + 0.25 × 2 is exact
  2. No rounding inside the engine; DTOs round to 2 decimals on the way out
  3. Type Safety: Distinct id types keep resource and release ids apart
  4. Phase allocations are facts from the assignment process and are never
     edited by the weekly write path; edits are separate records

USAGE:
  alloc := generic.Allocation{
      ResourceID: "res-1",
      ReleaseID:  "rel-1",
      Phase:      generic.PhaseBuild,
      StartDate:  generic.NewTimePoint(2025, time.January, 6),
      EndDate:    generic.NewTimePoint(2025, time.January, 17),
      Factor:     decimal.RequireFromString("0.5"),
  }
  alloc.Days = alloc.ComputeDays() // 5 person-days

SEE ALSO:
  - time.go: Week calendar
  - aggregate.go: Weekly aggregation
  - balance.go: Capacity and availability per week
*/
package generic

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ResourceID string
type ReleaseID string
type AllocationID string
type AdjustmentID string

// =============================================================================
// PHASE - Closed set of delivery phases
// =============================================================================

type Phase string

const (
	PhaseRequirements Phase = "requirements"
	PhaseDesign       Phase = "design"
	PhaseBuild        Phase = "build"
	PhaseTest         Phase = "test"
	PhaseUAT          Phase = "uat"
	PhaseDeployment   Phase = "deployment"
)

// AllPhases lists the phases in delivery order.
var AllPhases = []Phase{
	PhaseRequirements, PhaseDesign, PhaseBuild, PhaseTest, PhaseUAT, PhaseDeployment,
}

// ParsePhase accepts the phase name in any case.
func ParsePhase(s string) (Phase, error) {
	p := Phase(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllPhases {
		if p == known {
			return p, nil
		}
	}
	return "", &ValidationError{Field: "phase", Message: fmt.Sprintf("unknown phase %q", s)}
}

// =============================================================================
// DAYS - Person-day quantities
// =============================================================================

// NewDays converts a float (config, JSON) into a decimal person-day value.
func NewDays(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// DisplayDays rounds to the two decimals shown to users. Only call this at
// the output boundary.
func DisplayDays(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// =============================================================================
// ALLOCATION - Phase-derived effort record
// =============================================================================

// Allocation is the output of the assignment process: one resource on one
// phase of one release, every weekday of [StartDate, EndDate], at Factor
// days per day. Days is the total over the whole range.
type Allocation struct {
	ID         AllocationID
	ResourceID ResourceID
	ReleaseID  ReleaseID
	Phase      Phase
	StartDate  TimePoint
	EndDate    TimePoint
	Factor     decimal.Decimal
	Days       decimal.Decimal
}

// Period returns the allocation's date range.
func (a Allocation) Period() Period {
	return Period{Start: a.StartDate, End: a.EndDate}
}

// ComputeDays returns Factor × working days in the range.
func (a Allocation) ComputeDays() decimal.Decimal {
	return ComputeAllocationDays(a.StartDate, a.EndDate, a.Factor)
}

// ComputeAllocationDays is factor × weekdays in [start, end].
func ComputeAllocationDays(start, end TimePoint, factor decimal.Decimal) decimal.Decimal {
	return factor.Mul(decimal.NewFromInt(int64(WorkingDaysBetween(start, end))))
}

// DaysInWeek is this allocation's contribution to the week starting at
// weekStart.
func (a Allocation) DaysInWeek(weekStart TimePoint) decimal.Decimal {
	wd := WorkingDaysInWeek(a.StartDate, a.EndDate, weekStart)
	if wd == 0 {
		return decimal.Zero
	}
	return a.Factor.Mul(decimal.NewFromInt(int64(wd)))
}

// CheckIntegrity reports the invariants the aggregator depends on. A stored
// allocation failing this is skipped, not fatal.
func (a Allocation) CheckIntegrity() error {
	switch {
	case a.EndDate.Before(a.StartDate):
		return &ComputationError{
			RecordID: string(a.ID),
			Reason:   fmt.Sprintf("end date %s before start date %s", a.EndDate, a.StartDate),
		}
	case !a.Factor.IsPositive():
		return &ComputationError{
			RecordID: string(a.ID),
			Reason:   fmt.Sprintf("allocation factor %s is not positive", a.Factor),
		}
	}
	return nil
}

// Validate checks a new allocation before it is stored.
func (a Allocation) Validate() error {
	if a.ResourceID == "" {
		return &ValidationError{Field: "resource_id", Message: "required"}
	}
	if a.ReleaseID == "" {
		return &ValidationError{Field: "release_id", Message: "required"}
	}
	if _, err := ParsePhase(string(a.Phase)); err != nil {
		return err
	}
	if a.StartDate.IsZero() || a.EndDate.IsZero() {
		return &ValidationError{Field: "start_date", Message: "start and end dates are required"}
	}
	if a.EndDate.Before(a.StartDate) {
		return &ValidationError{
			Field:   "end_date",
			Message: fmt.Sprintf("%s is before start date %s", a.EndDate, a.StartDate),
			Err:     ErrInvalidPeriod,
		}
	}
	if !a.Factor.IsPositive() {
		return &ValidationError{Field: "allocation_factor", Message: "must be greater than 0"}
	}
	if !a.Days.IsPositive() {
		return &ValidationError{Field: "allocation_days", Message: "range contains no working days"}
	}
	return nil
}

// =============================================================================
// MANUAL ADJUSTMENT - Planner override of one resource-week
// =============================================================================

// ManualAdjustment replaces the phase-derived total of one resource-week
// with PersonDays. At most one exists per (ResourceID, WeekStart).
type ManualAdjustment struct {
	ID         AdjustmentID
	ResourceID ResourceID
	WeekStart  TimePoint
	PersonDays decimal.Decimal
	UpdatedAt  time.Time
}

// CellKey identifies one resource-week.
type CellKey struct {
	ResourceID ResourceID
	WeekStart  string // YYYY-MM-DD of the Monday
}

func (m ManualAdjustment) Cell() CellKey {
	return CellKey{ResourceID: m.ResourceID, WeekStart: m.WeekStart.String()}
}

// =============================================================================
// WEEKLY FIGURE - One output cell
// =============================================================================

// WeeklyFigure is the allocated person-days of one key in one week. Key is
// a resource id, a skill key or GlobalKey.
type WeeklyFigure struct {
	Key       string
	WeekStart TimePoint
	Days      decimal.Decimal
}

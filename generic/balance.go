/*
balance.go - Weekly capacity balance and availability

PURPOSE:
  Compares allocated person-days with capacity for one week. This is the
  calculation that answers "is this person (or team) overbooked, and how
  much room is left?"

CAPACITY:
  Each resource can carry WeeklyCapacity person-days per week (default
  4.5, i.e. five working days minus a half-day of overhead). A group's
  capacity is the per-resource figure times the number of resources
  counted for the group.

BALANCE COMPONENTS:
  Allocated:      Sum from the weekly aggregator (or the override)
  Capacity:       Per-resource or group capacity
  Available:      max(Capacity - Allocated, 0)
  OverAllocation: Allocated - Capacity when positive

CONFLICT RULE:
  A week is over-allocated only when Allocated > Capacity. Exactly 4.5 of
  4.5 is full, not a conflict.

EXAMPLE:
  Capacity 9 (two people), allocated 10:
    Available = 0, OverAllocation = 1, Utilization = 111.11%

SEE ALSO:
  - aggregate.go: Produces the allocated figures
  - reports/: Conflicts, forecasts and utilization built on WeeklyBalance
*/
package generic

import "github.com/shopspring/decimal"

// DefaultWeeklyCapacity is the per-resource weekly capacity in person-days.
var DefaultWeeklyCapacity = decimal.RequireFromString("4.5")

var hundred = decimal.NewFromInt(100)

// =============================================================================
// CAPACITY POLICY
// =============================================================================

type CapacityPolicy struct {
	PerResource decimal.Decimal
}

// NewCapacityPolicy falls back to DefaultWeeklyCapacity for non-positive values.
func NewCapacityPolicy(perResource decimal.Decimal) CapacityPolicy {
	if !perResource.IsPositive() {
		perResource = DefaultWeeklyCapacity
	}
	return CapacityPolicy{PerResource: perResource}
}

// ForResources is the capacity of a group of n resources.
func (c CapacityPolicy) ForResources(n int) decimal.Decimal {
	return c.PerResource.Mul(decimal.NewFromInt(int64(n)))
}

// Balance builds the weekly balance of one resource.
func (c CapacityPolicy) Balance(weekStart TimePoint, allocated decimal.Decimal) WeeklyBalance {
	return WeeklyBalance{WeekStart: weekStart, Allocated: allocated, Capacity: c.PerResource}
}

// =============================================================================
// WEEKLY BALANCE
// =============================================================================

type WeeklyBalance struct {
	WeekStart TimePoint
	Allocated decimal.Decimal
	Capacity  decimal.Decimal
}

// Available is the remaining capacity, never negative.
func (b WeeklyBalance) Available() decimal.Decimal {
	remaining := b.Capacity.Sub(b.Allocated)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// IsOverAllocated is strictly greater than capacity.
func (b WeeklyBalance) IsOverAllocated() bool {
	return b.Allocated.GreaterThan(b.Capacity)
}

// OverAllocation is the excess above capacity, zero when within it.
func (b WeeklyBalance) OverAllocation() decimal.Decimal {
	if !b.IsOverAllocated() {
		return decimal.Zero
	}
	return b.Allocated.Sub(b.Capacity)
}

// UtilizationPercent is Allocated / Capacity × 100, unrounded. Zero
// capacity yields zero.
func (b WeeklyBalance) UtilizationPercent() decimal.Decimal {
	if b.Capacity.IsZero() {
		return decimal.Zero
	}
	return b.Allocated.Div(b.Capacity).Mul(hundred)
}

/*
Package reports derives the read-only weekly reports from the aggregator.

PURPOSE:
  Conflicts, utilization, capacity forecasts and the release timeline all
  share one pipeline: resolve a window, load the ledger view, aggregate by
  week, then compare against capacity. The Service owns that pipeline so
  every report agrees with the matrix to the cent.

REPORTS:
  Conflicts:             Resource-weeks strictly above capacity
  Utilization:           Allocated / capacity per resource-week
  CapacityForecast:      Team-wide allocated vs capacity per week
  SkillCapacityForecast: Same, grouped by skill function / sub-function
  ReleaseTimeline:       Weekly effort of one release, by phase

DEFAULT WINDOWS:
  Conflicts default to the full extent of stored data. Forecasts and
  utilization default to ForecastWeeks weeks starting with the current
  week. The current week comes from Clock so tests can pin it.
  A lone from or to anchors the window on that bound: forecasts span
  ForecastWeeks weeks from it, conflicts run to (or from) the data extent.

CAPACITY BASIS:
  BasisActive counts every active resource matching the scope.
  BasisAllocated counts only resources with an allocation in the window.

SEE ALSO:
  - kind.go: Closed request variant and Run dispatch
  - generic/balance.go: Capacity arithmetic
*/
package reports

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/allocation-engine/generic"
)

// =============================================================================
// CONFIGURATION
// =============================================================================

// CapacityBasis selects which resources count toward group capacity.
type CapacityBasis string

const (
	BasisActive    CapacityBasis = "active"
	BasisAllocated CapacityBasis = "allocated"
)

func ParseCapacityBasis(s string) (CapacityBasis, error) {
	switch CapacityBasis(strings.ToLower(strings.TrimSpace(s))) {
	case BasisActive, "":
		return BasisActive, nil
	case BasisAllocated:
		return BasisAllocated, nil
	}
	return "", &generic.ValidationError{Field: "capacity_basis", Message: fmt.Sprintf("unknown basis %q", s)}
}

type Config struct {
	WeeklyCapacity decimal.Decimal
	ForecastWeeks  int
	CapacityBasis  CapacityBasis
}

func DefaultConfig() Config {
	return Config{
		WeeklyCapacity: generic.DefaultWeeklyCapacity,
		ForecastWeeks:  12,
		CapacityBasis:  BasisActive,
	}
}

// =============================================================================
// SERVICE
// =============================================================================

type Service struct {
	Resources  generic.ResourceStore
	Ledger     *generic.Ledger
	Aggregator *generic.WeeklyAggregator
	Capacity   generic.CapacityPolicy
	Basis      CapacityBasis
	Horizon    int // forecast weeks
	Clock      func() time.Time
}

func NewService(resources generic.ResourceStore, ledger *generic.Ledger, aggregator *generic.WeeklyAggregator, cfg Config) *Service {
	horizon := cfg.ForecastWeeks
	if horizon <= 0 {
		horizon = DefaultConfig().ForecastWeeks
	}
	basis := cfg.CapacityBasis
	if basis == "" {
		basis = BasisActive
	}
	return &Service{
		Resources:  resources,
		Ledger:     ledger,
		Aggregator: aggregator,
		Capacity:   generic.NewCapacityPolicy(cfg.WeeklyCapacity),
		Basis:      basis,
		Horizon:    horizon,
		Clock:      time.Now,
	}
}

// DateRange is an optional window. Missing bounds take the report's default.
type DateRange struct {
	From *generic.TimePoint
	To   *generic.TimePoint
}

// Between is a convenience for a fully specified range.
func Between(from, to generic.TimePoint) DateRange {
	return DateRange{From: &from, To: &to}
}

// resolve fills missing bounds from def. A given bound is never contradicted
// by a default one: when def lies entirely on the wrong side of it, the
// window collapses onto the given bound. Only a caller-supplied to < from
// is an error.
func (r DateRange) resolve(def generic.Period) (generic.Period, error) {
	p := def
	switch {
	case r.From != nil && r.To != nil:
		p = generic.Period{Start: *r.From, End: *r.To}
	case r.From != nil:
		p = generic.Period{Start: *r.From, End: generic.MaxTime(def.End, *r.From)}
	case r.To != nil:
		p = generic.Period{Start: generic.MinTime(def.Start, *r.To), End: *r.To}
	}
	if err := p.Validate(); err != nil {
		return generic.Period{}, err
	}
	return p, nil
}

// CurrentWeek is the Monday of the clock's current week.
func (s *Service) CurrentWeek() generic.TimePoint {
	return generic.WeekStartOf(generic.FromTime(s.Clock()))
}

// forecastWindow covers Horizon weeks starting with the current week.
func (s *Service) forecastWindow() generic.Period {
	start := s.CurrentWeek()
	return generic.Period{Start: start, End: generic.WeekEndOf(start.AddWeeks(s.Horizon - 1))}
}

// forecastRange resolves a forecast or utilization window. A lone from
// runs Horizon weeks forward from its week; a lone to runs Horizon weeks
// back from its week.
func (s *Service) forecastRange(r DateRange) (generic.Period, error) {
	switch {
	case r.From != nil && r.To == nil:
		end := generic.WeekEndOf(generic.WeekStartOf(*r.From).AddWeeks(s.Horizon - 1))
		return generic.Period{Start: *r.From, End: end}, nil
	case r.To != nil && r.From == nil:
		start := generic.WeekStartOf(*r.To).AddWeeks(-(s.Horizon - 1))
		return generic.Period{Start: start, End: *r.To}, nil
	}
	return r.resolve(s.forecastWindow())
}

func (s *Service) resourceIndex(ctx context.Context) (generic.ResourceIndex, []generic.Resource, error) {
	resources, err := s.Resources.ListResources(ctx)
	if err != nil {
		return nil, nil, err
	}
	return generic.IndexResources(resources), resources, nil
}

func (s *Service) aggregate(ctx context.Context, window generic.Period, resourceIDs []generic.ResourceID) (*generic.LedgerView, *generic.WeeklyTotals, error) {
	view, err := s.Ledger.Load(ctx, window, resourceIDs)
	if err != nil {
		return nil, nil, err
	}
	totals, err := s.Aggregator.AggregateView(view)
	if err != nil {
		return nil, nil, err
	}
	return view, totals, nil
}

// basisResources picks the resources counted toward capacity.
func (s *Service) basisResources(resources []generic.Resource, allocated map[generic.ResourceID]bool, keep func(generic.Resource) bool) []generic.Resource {
	var out []generic.Resource
	for _, r := range resources {
		if !keep(r) {
			continue
		}
		switch s.Basis {
		case BasisAllocated:
			if allocated[r.ID] {
				out = append(out, r)
			}
		default:
			if r.Active {
				out = append(out, r)
			}
		}
	}
	return out
}

func nameOf(index generic.ResourceIndex, id generic.ResourceID) string {
	if r, ok := index[id]; ok {
		return r.Name
	}
	return string(id)
}

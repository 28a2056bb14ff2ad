package reports

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/warp/allocation-engine/generic"
)

// =============================================================================
// FORECASTS - Allocated vs capacity per week, team-wide and per skill
// =============================================================================

type ForecastWeek struct {
	WeekStart     generic.TimePoint
	AllocatedDays decimal.Decimal
	Capacity      decimal.Decimal
	AvailableDays decimal.Decimal // never negative
}

type CapacityForecast struct {
	Window        generic.Period
	ResourceCount int
	Weeks         []ForecastWeek
}

func (*CapacityForecast) Kind() Kind { return KindCapacityForecast }

type SkillGroupForecast struct {
	SkillFunction    string
	SkillSubFunction string
	ResourceCount    int
	Weeks            []ForecastWeek
}

type SkillCapacityForecast struct {
	Window generic.Period
	Groups []SkillGroupForecast
}

func (*SkillCapacityForecast) Kind() Kind { return KindSkillCapacityForecast }

// CapacityForecast sums every resource per week and compares it with the
// capacity of the basis resources. One row per week of the window.
func (s *Service) CapacityForecast(ctx context.Context, req CapacityForecastRequest) (*CapacityForecast, error) {
	window, err := s.forecastRange(req.Range)
	if err != nil {
		return nil, err
	}
	view, totals, err := s.aggregate(ctx, window, nil)
	if err != nil {
		return nil, err
	}
	_, resources, err := s.resourceIndex(ctx)
	if err != nil {
		return nil, err
	}

	counted := s.basisResources(resources, view.ResourceIDs(), func(generic.Resource) bool { return true })
	capacity := s.Capacity.ForResources(len(counted))
	global := totals.Rollup(generic.Global)

	return &CapacityForecast{
		Window:        window,
		ResourceCount: len(counted),
		Weeks:         forecastWeeks(global.Row(generic.GlobalKey), capacity),
	}, nil
}

// SkillCapacityForecast groups resources by (function, sub-function). With
// no filter every group is returned; a function filter alone keeps all of
// its sub-functions. Groups are ordered by function, then sub-function.
func (s *Service) SkillCapacityForecast(ctx context.Context, req SkillCapacityForecastRequest) (*SkillCapacityForecast, error) {
	if req.SkillFunction == "" && req.SkillSubFunction != "" {
		return nil, &generic.ValidationError{Field: "skill_function", Message: "required when skill_sub_function is set"}
	}
	window, err := s.forecastRange(req.Range)
	if err != nil {
		return nil, err
	}
	index, resources, err := s.resourceIndex(ctx)
	if err != nil {
		return nil, err
	}

	matches := func(r generic.Resource) bool {
		return r.Skill().Matches(req.SkillFunction, req.SkillSubFunction)
	}
	var scoped []generic.ResourceID
	for _, r := range resources {
		if matches(r) {
			scoped = append(scoped, r.ID)
		}
	}
	if len(scoped) == 0 {
		return &SkillCapacityForecast{Window: window}, nil
	}

	view, totals, err := s.aggregate(ctx, window, scoped)
	if err != nil {
		return nil, err
	}
	bySkill := totals.Rollup(index.SkillOf)

	groups := make(map[generic.SkillKey]int)
	for _, r := range s.basisResources(resources, view.ResourceIDs(), matches) {
		groups[r.Skill()]++
	}
	// Groups with work but no counted resources still show, at zero capacity.
	for _, id := range scoped {
		if key := index[id].Skill(); bySkill.Has(key.String()) {
			if _, ok := groups[key]; !ok {
				groups[key] = 0
			}
		}
	}

	keys := make([]generic.SkillKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Function != keys[j].Function {
			return keys[i].Function < keys[j].Function
		}
		return keys[i].SubFunction < keys[j].SubFunction
	})

	report := &SkillCapacityForecast{Window: window}
	for _, k := range keys {
		n := groups[k]
		report.Groups = append(report.Groups, SkillGroupForecast{
			SkillFunction:    k.Function,
			SkillSubFunction: k.SubFunction,
			ResourceCount:    n,
			Weeks:            forecastWeeks(bySkill.Row(k.String()), s.Capacity.ForResources(n)),
		})
	}
	return report, nil
}

func forecastWeeks(row []generic.WeeklyFigure, capacity decimal.Decimal) []ForecastWeek {
	weeks := make([]ForecastWeek, len(row))
	for i, f := range row {
		b := generic.WeeklyBalance{WeekStart: f.WeekStart, Allocated: f.Days, Capacity: capacity}
		weeks[i] = ForecastWeek{
			WeekStart:     f.WeekStart,
			AllocatedDays: b.Allocated,
			Capacity:      b.Capacity,
			AvailableDays: b.Available(),
		}
	}
	return weeks
}

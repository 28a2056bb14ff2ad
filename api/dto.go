/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract. Engine values
  are exact decimals; DTOs carry them rounded to two decimals as JSON
  numbers, the only place rounding happens.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Matrix:
    WeeklyMatrixDTO, MatrixRowDTO, WeeklyAllocationDTO, TimeWindowDTO
    SetWeeklyAllocationRequest, ManualAdjustmentDTO

  Reports:
    ResourceConflictsDTO, ConflictDTO, UtilizationDTO,
    CapacityForecastDTO, SkillCapacityForecastDTO, ReleaseTimelineDTO

  Resources and releases:
    ResourceDTO, factory.ReleaseAllocationsJSON

  Scenarios:
    ScenarioDTO, LoadScenarioRequest

VALIDATION:
  Validation is done in handlers and the factory, not in DTOs.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/allocation.go: Release allocation JSON
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/allocation-engine/generic"
	"github.com/warp/allocation-engine/matrix"
	"github.com/warp/allocation-engine/reports"
)

// =============================================================================
// MATRIX
// =============================================================================

type WeeklyAllocationDTO struct {
	WeekStart     string  `json:"week_start"`
	AllocatedDays float64 `json:"allocated_days"`
}

type MatrixRowDTO struct {
	ResourceID        string                `json:"resource_id"`
	Name              string                `json:"name"`
	Grade             string                `json:"grade,omitempty"`
	SkillFunction     string                `json:"skill_function,omitempty"`
	SkillSubFunction  string                `json:"skill_sub_function,omitempty"`
	ProfileRef        string                `json:"profile_ref,omitempty"`
	Active            bool                  `json:"active"`
	WeeklyAllocations []WeeklyAllocationDTO `json:"weekly_allocations"`
}

type TimeWindowDTO struct {
	StartWeek  string `json:"start_week"`
	EndWeek    string `json:"end_week"`
	TotalWeeks int    `json:"total_weeks"`
}

type WeeklyMatrixDTO struct {
	Resources  []MatrixRowDTO `json:"resources"`
	TimeWindow TimeWindowDTO  `json:"time_window"`
}

// SetWeeklyAllocationRequest is the body of PUT /api/allocations/weekly/{id}/{week}.
type SetWeeklyAllocationRequest struct {
	PersonDays *decimal.Decimal `json:"person_days"`
}

type ManualAdjustmentDTO struct {
	ID         string    `json:"id"`
	ResourceID string    `json:"resource_id"`
	WeekStart  string    `json:"week_start"`
	PersonDays float64   `json:"person_days"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toMatrixDTO(m *matrix.Matrix) WeeklyMatrixDTO {
	dto := WeeklyMatrixDTO{
		Resources: make([]MatrixRowDTO, len(m.Resources)),
		TimeWindow: TimeWindowDTO{
			StartWeek:  m.TimeWindow.StartWeek.String(),
			EndWeek:    m.TimeWindow.EndWeek.String(),
			TotalWeeks: m.TimeWindow.TotalWeeks,
		},
	}
	for i, row := range m.Resources {
		weeks := make([]WeeklyAllocationDTO, len(row.Weeks))
		for j, f := range row.Weeks {
			weeks[j] = WeeklyAllocationDTO{WeekStart: f.WeekStart.String(), AllocatedDays: generic.DisplayDays(f.Days)}
		}
		dto.Resources[i] = MatrixRowDTO{
			ResourceID:        string(row.ResourceID),
			Name:              row.Name,
			Grade:             row.Grade,
			SkillFunction:     row.SkillFunction,
			SkillSubFunction:  row.SkillSubFunction,
			ProfileRef:        row.ProfileRef,
			Active:            row.Active,
			WeeklyAllocations: weeks,
		}
	}
	return dto
}

func toAdjustmentDTO(adj *generic.ManualAdjustment) ManualAdjustmentDTO {
	return ManualAdjustmentDTO{
		ID:         string(adj.ID),
		ResourceID: string(adj.ResourceID),
		WeekStart:  adj.WeekStart.String(),
		PersonDays: generic.DisplayDays(adj.PersonDays),
		UpdatedAt:  adj.UpdatedAt,
	}
}

// =============================================================================
// REPORTS
// =============================================================================

type ConflictDTO struct {
	WeekStart      string  `json:"week_start"`
	AllocatedDays  float64 `json:"allocated_days"`
	Capacity       float64 `json:"capacity"`
	OverAllocation float64 `json:"over_allocation"`
}

type ResourceConflictsDTO struct {
	ResourceID      string        `json:"resource_id"`
	ResourceName    string        `json:"resource_name"`
	WeeklyConflicts []ConflictDTO `json:"weekly_conflicts"`
}

type UtilizationDTO struct {
	ResourceID         string  `json:"resource_id"`
	ResourceName       string  `json:"resource_name"`
	WeekStart          string  `json:"week_start"`
	AllocatedDays      float64 `json:"allocated_days"`
	Capacity           float64 `json:"capacity"`
	UtilizationPercent float64 `json:"utilization_percent"`
}

type CapacityForecastDTO struct {
	WeekStart     string  `json:"week_start"`
	AllocatedDays float64 `json:"allocated_days"`
	Capacity      float64 `json:"capacity"`
	AvailableDays float64 `json:"available_days"`
}

type SkillCapacityForecastDTO struct {
	SkillFunction    string  `json:"skill_function"`
	SkillSubFunction string  `json:"skill_sub_function"`
	ResourceCount    int     `json:"resource_count"`
	WeekStart        string  `json:"week_start"`
	AllocatedDays    float64 `json:"allocated_days"`
	Capacity         float64 `json:"capacity"`
	AvailableDays    float64 `json:"available_days"`
}

type TimelineWeekDTO struct {
	WeekStart     string             `json:"week_start"`
	AllocatedDays float64            `json:"allocated_days"`
	ByPhase       map[string]float64 `json:"by_phase,omitempty"`
}

type ReleaseTimelineDTO struct {
	ReleaseID string            `json:"release_id"`
	Year      *int              `json:"year,omitempty"`
	Weeks     []TimelineWeekDTO `json:"weeks"`
}

// ReportResultDTO wraps a report produced by POST /api/reports.
type ReportResultDTO struct {
	Type   string `json:"type"`
	Result any    `json:"result"`
}

func toConflictsDTO(rep *reports.ConflictReport) []ResourceConflictsDTO {
	out := make([]ResourceConflictsDTO, 0, len(rep.Resources))
	for _, rc := range rep.Resources {
		dto := ResourceConflictsDTO{
			ResourceID:      string(rc.ResourceID),
			ResourceName:    rc.Name,
			WeeklyConflicts: make([]ConflictDTO, len(rc.Conflicts)),
		}
		for i, c := range rc.Conflicts {
			dto.WeeklyConflicts[i] = ConflictDTO{
				WeekStart:      c.WeekStart.String(),
				AllocatedDays:  generic.DisplayDays(c.AllocatedDays),
				Capacity:       generic.DisplayDays(c.Capacity),
				OverAllocation: generic.DisplayDays(c.OverAllocation),
			}
		}
		out = append(out, dto)
	}
	return out
}

func toUtilizationDTO(rep *reports.UtilizationReport) []UtilizationDTO {
	out := make([]UtilizationDTO, len(rep.Rows))
	for i, r := range rep.Rows {
		out[i] = UtilizationDTO{
			ResourceID:         string(r.ResourceID),
			ResourceName:       r.Name,
			WeekStart:          r.WeekStart.String(),
			AllocatedDays:      generic.DisplayDays(r.AllocatedDays),
			Capacity:           generic.DisplayDays(r.Capacity),
			UtilizationPercent: generic.DisplayDays(r.UtilizationPercent),
		}
	}
	return out
}

func toForecastDTO(weeks []reports.ForecastWeek) []CapacityForecastDTO {
	out := make([]CapacityForecastDTO, len(weeks))
	for i, w := range weeks {
		out[i] = CapacityForecastDTO{
			WeekStart:     w.WeekStart.String(),
			AllocatedDays: generic.DisplayDays(w.AllocatedDays),
			Capacity:      generic.DisplayDays(w.Capacity),
			AvailableDays: generic.DisplayDays(w.AvailableDays),
		}
	}
	return out
}

func toSkillForecastDTO(rep *reports.SkillCapacityForecast) []SkillCapacityForecastDTO {
	out := []SkillCapacityForecastDTO{}
	for _, g := range rep.Groups {
		for _, w := range g.Weeks {
			out = append(out, SkillCapacityForecastDTO{
				SkillFunction:    g.SkillFunction,
				SkillSubFunction: g.SkillSubFunction,
				ResourceCount:    g.ResourceCount,
				WeekStart:        w.WeekStart.String(),
				AllocatedDays:    generic.DisplayDays(w.AllocatedDays),
				Capacity:         generic.DisplayDays(w.Capacity),
				AvailableDays:    generic.DisplayDays(w.AvailableDays),
			})
		}
	}
	return out
}

func toTimelineDTO(tl *reports.ReleaseTimeline) ReleaseTimelineDTO {
	dto := ReleaseTimelineDTO{
		ReleaseID: string(tl.ReleaseID),
		Year:      tl.Year,
		Weeks:     make([]TimelineWeekDTO, len(tl.Weeks)),
	}
	for i, w := range tl.Weeks {
		week := TimelineWeekDTO{WeekStart: w.WeekStart.String(), AllocatedDays: generic.DisplayDays(w.AllocatedDays)}
		if len(w.ByPhase) > 0 {
			week.ByPhase = make(map[string]float64, len(w.ByPhase))
			for phase, d := range w.ByPhase {
				week.ByPhase[string(phase)] = generic.DisplayDays(d)
			}
		}
		dto.Weeks[i] = week
	}
	return dto
}

// toResultDTO renders any report result with the same shape as its GET route.
func toResultDTO(res reports.Result) any {
	switch r := res.(type) {
	case *reports.ConflictReport:
		return toConflictsDTO(r)
	case *reports.UtilizationReport:
		return toUtilizationDTO(r)
	case *reports.CapacityForecast:
		return toForecastDTO(r.Weeks)
	case *reports.SkillCapacityForecast:
		return toSkillForecastDTO(r)
	case *reports.ReleaseTimeline:
		return toTimelineDTO(r)
	}
	return nil
}

// =============================================================================
// RESOURCES
// =============================================================================

// ResourceDTO is used for both responses and POST /api/resources.
type ResourceDTO struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Grade            string `json:"grade,omitempty"`
	SkillFunction    string `json:"skill_function,omitempty"`
	SkillSubFunction string `json:"skill_sub_function,omitempty"`
	ProfileRef       string `json:"profile_ref,omitempty"`
	Active           *bool  `json:"active,omitempty"` // defaults to true on create
}

func toResourceDTO(r generic.Resource) ResourceDTO {
	active := r.Active
	return ResourceDTO{
		ID:               string(r.ID),
		Name:             r.Name,
		Grade:            r.Grade,
		SkillFunction:    r.SkillFunction,
		SkillSubFunction: r.SkillSubFunction,
		ProfileRef:       r.ProfileRef,
		Active:           &active,
	}
}

func (d ResourceDTO) toResource() generic.Resource {
	active := true
	if d.Active != nil {
		active = *d.Active
	}
	return generic.Resource{
		ID:               generic.ResourceID(d.ID),
		Name:             d.Name,
		Grade:            d.Grade,
		SkillFunction:    d.SkillFunction,
		SkillSubFunction: d.SkillSubFunction,
		ProfileRef:       d.ProfileRef,
		Active:           active,
	}
}

// =============================================================================
// SCENARIOS & ERRORS
// =============================================================================

type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is returned for all errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

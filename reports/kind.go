package reports

import (
	"context"
	"fmt"

	"github.com/warp/allocation-engine/generic"
)

// =============================================================================
// REPORT KINDS - Closed request variant
// =============================================================================
// External callers name reports with the Kind strings below. factory maps a
// string to one of the request types exactly once; from then on the type
// switch in Run is the only dispatch.

type Kind string

const (
	KindConflicts             Kind = "ALLOCATION_CONFLICTS"
	KindUtilization           Kind = "RESOURCE_UTILIZATION"
	KindCapacityForecast      Kind = "CAPACITY_FORECAST"
	KindSkillCapacityForecast Kind = "SKILL_CAPACITY_FORECAST"
	KindReleaseTimeline       Kind = "RELEASE_TIMELINE"
)

// AllKinds lists every report kind.
var AllKinds = []Kind{
	KindConflicts, KindUtilization, KindCapacityForecast, KindSkillCapacityForecast, KindReleaseTimeline,
}

// Request is implemented only by the request types of this package.
type Request interface {
	Kind() Kind
	sealed()
}

// Result is implemented by every report type.
type Result interface {
	Kind() Kind
}

type ConflictsRequest struct {
	Range DateRange
}

type UtilizationRequest struct {
	Range       DateRange
	ResourceIDs []generic.ResourceID // empty = all
}

type CapacityForecastRequest struct {
	Range DateRange
}

type SkillCapacityForecastRequest struct {
	Range            DateRange
	SkillFunction    string // empty = all groups
	SkillSubFunction string // empty = all sub-functions of SkillFunction
}

type ReleaseTimelineRequest struct {
	ReleaseID generic.ReleaseID
	Year      *int
}

func (ConflictsRequest) Kind() Kind             { return KindConflicts }
func (UtilizationRequest) Kind() Kind           { return KindUtilization }
func (CapacityForecastRequest) Kind() Kind      { return KindCapacityForecast }
func (SkillCapacityForecastRequest) Kind() Kind { return KindSkillCapacityForecast }
func (ReleaseTimelineRequest) Kind() Kind       { return KindReleaseTimeline }

func (ConflictsRequest) sealed()             {}
func (UtilizationRequest) sealed()           {}
func (CapacityForecastRequest) sealed()      {}
func (SkillCapacityForecastRequest) sealed() {}
func (ReleaseTimelineRequest) sealed()       {}

// Run executes any report request.
func (s *Service) Run(ctx context.Context, req Request) (Result, error) {
	switch r := req.(type) {
	case ConflictsRequest:
		return s.Conflicts(ctx, r)
	case UtilizationRequest:
		return s.Utilization(ctx, r)
	case CapacityForecastRequest:
		return s.CapacityForecast(ctx, r)
	case SkillCapacityForecastRequest:
		return s.SkillCapacityForecast(ctx, r)
	case ReleaseTimelineRequest:
		return s.ReleaseTimeline(ctx, r)
	default:
		return nil, fmt.Errorf("unsupported report request %T", req)
	}
}

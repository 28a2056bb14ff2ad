/*
Package factory converts JSON payloads into validated engine types.

PURPOSE:
  External callers (admin UI, scripts, the assignment process) speak JSON
  with string type tags and ISO dates. The factory turns those payloads
  into the closed Go types the engine works with, so string matching on
  report kinds happens here and nowhere else.

JSON SCHEMA (report request):
  {
    "type": "SKILL_CAPACITY_FORECAST",
    "from": "2025-01-06",
    "to": "2025-03-30",
    "skill_function": "engineering",
    "skill_sub_function": "backend"
  }

  Other fields by type:
    RESOURCE_UTILIZATION: "resource_ids": ["r1", "r2"]
    RELEASE_TIMELINE:     "release_id": "rel-1", "year": 2025

JSON SCHEMA (release allocations):
  {
    "release_id": "rel-1",
    "allocations": [
      {
        "resource_id": "r1",
        "phase": "build",
        "start_date": "2025-01-06",
        "end_date": "2025-01-17",
        "allocation_factor": 0.5,
        "allocation_days": 5
      }
    ]
  }

USAGE:
  req, err := factory.NewReportFactory().ParseRequest(body)
  result, err := reportService.Run(ctx, req)

  releaseID, allocs, err := factory.NewAllocationFactory().ParseRelease(body)
  err = store.ReplaceReleaseAllocations(ctx, releaseID, allocs)

SEE ALSO:
  - reports/kind.go: Request variants
  - generic/types.go: Allocation
*/
package factory

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/warp/allocation-engine/generic"
	"github.com/warp/allocation-engine/reports"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// ReportRequestJSON is the JSON representation of a report request.
type ReportRequestJSON struct {
	Type             string   `json:"type"`
	From             string   `json:"from,omitempty"`
	To               string   `json:"to,omitempty"`
	ResourceIDs      []string `json:"resource_ids,omitempty"`
	SkillFunction    string   `json:"skill_function,omitempty"`
	SkillSubFunction string   `json:"skill_sub_function,omitempty"`
	ReleaseID        string   `json:"release_id,omitempty"`
	Year             *int     `json:"year,omitempty"`
}

// =============================================================================
// REPORT FACTORY
// =============================================================================

// ReportFactory converts JSON report requests to reports.Request variants.
type ReportFactory struct{}

func NewReportFactory() *ReportFactory {
	return &ReportFactory{}
}

// ParseRequest parses a JSON document into a report request.
func (f *ReportFactory) ParseRequest(data []byte) (reports.Request, error) {
	var rj ReportRequestJSON
	if err := json.Unmarshal(data, &rj); err != nil {
		return nil, &generic.ValidationError{Field: "body", Message: fmt.Sprintf("invalid report request JSON: %v", err)}
	}
	return f.FromJSON(rj)
}

// FromJSON maps the type tag to its request variant.
func (f *ReportFactory) FromJSON(rj ReportRequestJSON) (reports.Request, error) {
	kind, err := ParseKind(rj.Type)
	if err != nil {
		return nil, err
	}

	var rng reports.DateRange
	if kind != reports.KindReleaseTimeline {
		if rng, err = ParseDateRange(rj.From, rj.To); err != nil {
			return nil, err
		}
	}

	switch kind {
	case reports.KindConflicts:
		return reports.ConflictsRequest{Range: rng}, nil

	case reports.KindUtilization:
		req := reports.UtilizationRequest{Range: rng}
		for _, id := range rj.ResourceIDs {
			if id = strings.TrimSpace(id); id != "" {
				req.ResourceIDs = append(req.ResourceIDs, generic.ResourceID(id))
			}
		}
		return req, nil

	case reports.KindCapacityForecast:
		return reports.CapacityForecastRequest{Range: rng}, nil

	case reports.KindSkillCapacityForecast:
		if rj.SkillFunction == "" && rj.SkillSubFunction != "" {
			return nil, &generic.ValidationError{Field: "skill_function", Message: "required when skill_sub_function is set"}
		}
		return reports.SkillCapacityForecastRequest{
			Range:            rng,
			SkillFunction:    rj.SkillFunction,
			SkillSubFunction: rj.SkillSubFunction,
		}, nil

	case reports.KindReleaseTimeline:
		if rj.ReleaseID == "" {
			return nil, &generic.ValidationError{Field: "release_id", Message: "required"}
		}
		if rj.Year != nil && (*rj.Year < 1 || *rj.Year > 9999) {
			return nil, &generic.ValidationError{Field: "year", Message: fmt.Sprintf("%d is out of range", *rj.Year)}
		}
		return reports.ReleaseTimelineRequest{ReleaseID: generic.ReleaseID(rj.ReleaseID), Year: rj.Year}, nil
	}

	return nil, &generic.ValidationError{Field: "type", Message: fmt.Sprintf("unsupported report type %q", rj.Type)}
}

// ToJSON converts a request back to its JSON form.
func (f *ReportFactory) ToJSON(req reports.Request) ReportRequestJSON {
	rj := ReportRequestJSON{Type: string(req.Kind())}
	setRange := func(r reports.DateRange) {
		if r.From != nil {
			rj.From = r.From.String()
		}
		if r.To != nil {
			rj.To = r.To.String()
		}
	}

	switch r := req.(type) {
	case reports.ConflictsRequest:
		setRange(r.Range)
	case reports.UtilizationRequest:
		setRange(r.Range)
		for _, id := range r.ResourceIDs {
			rj.ResourceIDs = append(rj.ResourceIDs, string(id))
		}
	case reports.CapacityForecastRequest:
		setRange(r.Range)
	case reports.SkillCapacityForecastRequest:
		setRange(r.Range)
		rj.SkillFunction = r.SkillFunction
		rj.SkillSubFunction = r.SkillSubFunction
	case reports.ReleaseTimelineRequest:
		rj.ReleaseID = string(r.ReleaseID)
		rj.Year = r.Year
	}
	return rj
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

// ParseKind accepts a report type tag in any case.
func ParseKind(s string) (reports.Kind, error) {
	k := reports.Kind(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range reports.AllKinds {
		if k == known {
			return k, nil
		}
	}
	if s == "" {
		return "", &generic.ValidationError{Field: "type", Message: "required"}
	}
	return "", &generic.ValidationError{Field: "type", Message: fmt.Sprintf("unknown report type %q", s)}
}

// ParseDateRange parses optional from/to dates. Empty strings leave the
// bound open.
func ParseDateRange(from, to string) (reports.DateRange, error) {
	var rng reports.DateRange
	if from != "" {
		tp, err := generic.ParseDate("from", from)
		if err != nil {
			return rng, err
		}
		rng.From = &tp
	}
	if to != "" {
		tp, err := generic.ParseDate("to", to)
		if err != nil {
			return rng, err
		}
		rng.To = &tp
	}
	if rng.From != nil && rng.To != nil && rng.To.Before(*rng.From) {
		return rng, &generic.ValidationError{
			Field:   "to",
			Message: fmt.Sprintf("%s is before %s", rng.To, rng.From),
			Err:     generic.ErrInvalidPeriod,
		}
	}
	return rng, nil
}

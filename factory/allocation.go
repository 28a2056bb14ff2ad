package factory

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/allocation-engine/generic"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// ReleaseAllocationsJSON is one release's assignment output.
type ReleaseAllocationsJSON struct {
	ReleaseID   string           `json:"release_id"`
	Allocations []AllocationJSON `json:"allocations"`
}

// AllocationJSON is one phase allocation. ID and AllocationDays are optional.
type AllocationJSON struct {
	ID               string           `json:"id,omitempty"`
	ResourceID       string           `json:"resource_id"`
	ReleaseID        string           `json:"release_id,omitempty"`
	Phase            string           `json:"phase"`
	StartDate        string           `json:"start_date"`
	EndDate          string           `json:"end_date"`
	AllocationFactor decimal.Decimal  `json:"allocation_factor"`
	AllocationDays   *decimal.Decimal `json:"allocation_days,omitempty"`
}

// =============================================================================
// ALLOCATION FACTORY
// =============================================================================

// AllocationFactory converts assignment output to validated allocations.
type AllocationFactory struct {
	NewID func() generic.AllocationID
}

func NewAllocationFactory() *AllocationFactory {
	return &AllocationFactory{
		NewID: func() generic.AllocationID { return generic.AllocationID(uuid.NewString()) },
	}
}

// ParseRelease parses a release document.
func (f *AllocationFactory) ParseRelease(data []byte) (generic.ReleaseID, []generic.Allocation, error) {
	var rj ReleaseAllocationsJSON
	if err := json.Unmarshal(data, &rj); err != nil {
		return "", nil, &generic.ValidationError{Field: "body", Message: fmt.Sprintf("invalid allocations JSON: %v", err)}
	}
	if rj.ReleaseID == "" {
		return "", nil, &generic.ValidationError{Field: "release_id", Message: "required"}
	}
	allocs, err := f.FromJSON(generic.ReleaseID(rj.ReleaseID), rj.Allocations)
	if err != nil {
		return "", nil, err
	}
	return generic.ReleaseID(rj.ReleaseID), allocs, nil
}

// FromJSON converts the allocations of one release. A record naming a
// different release is rejected.
func (f *AllocationFactory) FromJSON(releaseID generic.ReleaseID, items []AllocationJSON) ([]generic.Allocation, error) {
	allocs := make([]generic.Allocation, 0, len(items))
	for i, aj := range items {
		a, err := f.fromJSON(releaseID, aj)
		if err != nil {
			return nil, fmt.Errorf("allocation %d: %w", i, err)
		}
		allocs = append(allocs, a)
	}
	return allocs, nil
}

func (f *AllocationFactory) fromJSON(releaseID generic.ReleaseID, aj AllocationJSON) (generic.Allocation, error) {
	if aj.ReleaseID != "" && generic.ReleaseID(aj.ReleaseID) != releaseID {
		return generic.Allocation{}, &generic.ValidationError{
			Field:   "release_id",
			Message: fmt.Sprintf("%q does not match release %q", aj.ReleaseID, releaseID),
		}
	}
	phase, err := generic.ParsePhase(aj.Phase)
	if err != nil {
		return generic.Allocation{}, err
	}
	start, err := generic.ParseDate("start_date", aj.StartDate)
	if err != nil {
		return generic.Allocation{}, err
	}
	end, err := generic.ParseDate("end_date", aj.EndDate)
	if err != nil {
		return generic.Allocation{}, err
	}

	a := generic.Allocation{
		ID:         generic.AllocationID(aj.ID),
		ResourceID: generic.ResourceID(aj.ResourceID),
		ReleaseID:  releaseID,
		Phase:      phase,
		StartDate:  start,
		EndDate:    end,
		Factor:     aj.AllocationFactor,
	}
	if a.ID == "" {
		a.ID = f.NewID()
	}
	a.Days = a.ComputeDays()

	if aj.AllocationDays != nil && !aj.AllocationDays.Equal(a.Days) {
		return generic.Allocation{}, &generic.ValidationError{
			Field:   "allocation_days",
			Message: fmt.Sprintf("%s does not match factor x working days = %s", aj.AllocationDays, a.Days),
		}
	}
	if err := a.Validate(); err != nil {
		return generic.Allocation{}, err
	}
	return a, nil
}

// ToJSON converts allocations back to their JSON form.
func (f *AllocationFactory) ToJSON(releaseID generic.ReleaseID, allocs []generic.Allocation) ReleaseAllocationsJSON {
	rj := ReleaseAllocationsJSON{
		ReleaseID:   string(releaseID),
		Allocations: make([]AllocationJSON, 0, len(allocs)),
	}
	for _, a := range allocs {
		days := a.Days
		rj.Allocations = append(rj.Allocations, AllocationJSON{
			ID:               string(a.ID),
			ResourceID:       string(a.ResourceID),
			ReleaseID:        string(a.ReleaseID),
			Phase:            string(a.Phase),
			StartDate:        a.StartDate.String(),
			EndDate:          a.EndDate.String(),
			AllocationFactor: a.Factor,
			AllocationDays:   &days,
		})
	}
	return rj
}

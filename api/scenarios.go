/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the store with realistic
	planning data. Each scenario creates resources, release allocations and
	manual overrides around the current week so the matrix and reports have
	something to show.

AVAILABLE SCENARIOS:

	single-release:     One release staffed across all phases, no conflicts
	competing-releases: Two releases sharing engineers, three conflict weeks
	manual-overrides:   Planner overrides on top of phase allocations
	skill-mix:          Five skill groups for the skill capacity forecast

HOW SCENARIOS WORK:
 1. Reset the store (clear all data)
 2. Create resources
 3. Build release allocations as assignment JSON and parse them through
    the allocation factory
 4. Optionally add manual overrides through the editor

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "competing-releases"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Create loader function: loadXxxScenario(ctx, h)
 3. Add case to LoadScenario handler

NOTE:

	Scenarios reset the store. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Matrix and report handlers
  - factory/allocation.go: Release allocation JSON
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/warp/allocation-engine/factory"
	"github.com/warp/allocation-engine/generic"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "single-release",
		Name:        "Single Release",
		Description: "One release staffed across every phase, everyone under capacity",
		Category:    "planning",
	},
	{
		ID:          "competing-releases",
		Name:        "Competing Releases",
		Description: "Two overlapping releases share backend engineers; one of them is over-allocated",
		Category:    "conflicts",
	},
	{
		ID:          "manual-overrides",
		Name:        "Manual Overrides",
		Description: "Planner overrides replace phase-derived totals for a few weeks",
		Category:    "planning",
	},
	{
		ID:          "skill-mix",
		Name:        "Skill Mix",
		Description: "Engineering, quality and design groups with uneven demand",
		Category:    "forecast",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: current, Name: current, Description: "Currently loaded scenario"})
}

// LoadScenario resets the store and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var load func(context.Context) error
	switch req.ScenarioID {
	case "single-release":
		load = h.loadSingleReleaseScenario
	case "competing-releases":
		load = h.loadCompetingReleasesScenario
	case "manual-overrides":
		load = h.loadManualOverridesScenario
	case "skill-mix":
		load = h.loadSkillMixScenario
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", fmt.Errorf("scenario %q", req.ScenarioID))
		return
	}

	ctx := r.Context()
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset store", err)
		return
	}
	h.currentScenario = ""

	if err := load(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}
	h.currentScenario = req.ScenarioID
	h.Logger.Info("scenario loaded", "scenario", req.ScenarioID)

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset store", err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// phasePlan is one line of a scenario's assignment output. Weeks are
// relative to the current week; the allocation runs Monday to Friday.
type phasePlan struct {
	resource string
	phase    generic.Phase
	fromWeek int
	toWeek   int
	factor   string
}

func (h *Handler) loadSingleReleaseScenario(ctx context.Context) error {
	if err := h.saveResources(ctx,
		generic.Resource{ID: "res-ana", Name: "Ana Ribeiro", Grade: "senior", SkillFunction: "engineering", SkillSubFunction: "backend", Active: true},
		generic.Resource{ID: "res-ben", Name: "Ben Okafor", Grade: "mid", SkillFunction: "engineering", SkillSubFunction: "frontend", Active: true},
		generic.Resource{ID: "res-cleo", Name: "Cleo Martin", Grade: "senior", SkillFunction: "quality", SkillSubFunction: "automation", Active: true},
	); err != nil {
		return err
	}

	return h.saveRelease(ctx, "rel-2-4", []phasePlan{
		{"res-ana", generic.PhaseRequirements, -2, -2, "0.4"},
		{"res-ana", generic.PhaseDesign, -1, 0, "0.6"},
		{"res-ana", generic.PhaseBuild, 1, 4, "0.8"},
		{"res-ben", generic.PhaseBuild, 1, 4, "0.6"},
		{"res-cleo", generic.PhaseTest, 3, 5, "0.7"},
		{"res-cleo", generic.PhaseUAT, 6, 6, "0.5"},
		{"res-ana", generic.PhaseDeployment, 7, 7, "0.2"},
	})
}

func (h *Handler) loadCompetingReleasesScenario(ctx context.Context) error {
	if err := h.saveResources(ctx,
		generic.Resource{ID: "res-ana", Name: "Ana Ribeiro", Grade: "senior", SkillFunction: "engineering", SkillSubFunction: "backend", Active: true},
		generic.Resource{ID: "res-dev", Name: "Dev Patel", Grade: "mid", SkillFunction: "engineering", SkillSubFunction: "backend", Active: true},
		generic.Resource{ID: "res-cleo", Name: "Cleo Martin", Grade: "senior", SkillFunction: "quality", SkillSubFunction: "automation", Active: true},
	); err != nil {
		return err
	}

	if err := h.saveRelease(ctx, "rel-2-4", []phasePlan{
		{"res-ana", generic.PhaseBuild, 0, 3, "0.6"},
		{"res-dev", generic.PhaseBuild, 0, 3, "0.5"},
		{"res-cleo", generic.PhaseTest, 2, 4, "0.5"},
	}); err != nil {
		return err
	}
	// Overlaps rel-2-4's build: Ana is at 1.1 for weeks 1-3.
	return h.saveRelease(ctx, "rel-2-5", []phasePlan{
		{"res-ana", generic.PhaseBuild, 1, 3, "0.5"},
		{"res-dev", generic.PhaseDesign, 1, 1, "0.4"},
		{"res-cleo", generic.PhaseTest, 5, 6, "0.6"},
	})
}

func (h *Handler) loadManualOverridesScenario(ctx context.Context) error {
	if err := h.loadSingleReleaseScenario(ctx); err != nil {
		return err
	}
	if err := h.saveResources(ctx,
		generic.Resource{ID: "res-eve", Name: "Eve Laurent", Grade: "junior", SkillFunction: "engineering", SkillSubFunction: "frontend", Active: true},
	); err != nil {
		return err
	}

	week := h.Reports.CurrentWeek()
	overrides := []struct {
		resource generic.ResourceID
		offset   int
		days     string
	}{
		{"res-ana", 1, "2"},  // Ana is out part of the week
		{"res-ben", 2, "0"},  // Ben is on leave
		{"res-eve", 2, "5"},  // Eve covers for Ben
		{"res-cleo", 4, "6"}, // crunch week
	}
	for _, o := range overrides {
		if _, err := h.Editor.SetWeeklyAllocation(ctx, o.resource, week.AddWeeks(o.offset), decimal.RequireFromString(o.days)); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadSkillMixScenario(ctx context.Context) error {
	if err := h.saveResources(ctx,
		generic.Resource{ID: "res-ana", Name: "Ana Ribeiro", Grade: "senior", SkillFunction: "engineering", SkillSubFunction: "backend", Active: true},
		generic.Resource{ID: "res-dev", Name: "Dev Patel", Grade: "mid", SkillFunction: "engineering", SkillSubFunction: "backend", Active: true},
		generic.Resource{ID: "res-ben", Name: "Ben Okafor", Grade: "mid", SkillFunction: "engineering", SkillSubFunction: "frontend", Active: true},
		generic.Resource{ID: "res-cleo", Name: "Cleo Martin", Grade: "senior", SkillFunction: "quality", SkillSubFunction: "automation", Active: true},
		generic.Resource{ID: "res-finn", Name: "Finn Berg", Grade: "mid", SkillFunction: "quality", SkillSubFunction: "manual", Active: true},
		generic.Resource{ID: "res-gia", Name: "Gia Rossi", Grade: "lead", SkillFunction: "design", SkillSubFunction: "ux", Active: true},
		generic.Resource{ID: "res-hal", Name: "Hal Jensen", Grade: "senior", SkillFunction: "design", SkillSubFunction: "ux", Active: false},
	); err != nil {
		return err
	}

	if err := h.saveRelease(ctx, "rel-3-0", []phasePlan{
		{"res-gia", generic.PhaseDesign, 0, 2, "0.9"},
		{"res-ana", generic.PhaseBuild, 2, 8, "1"},
		{"res-dev", generic.PhaseBuild, 2, 8, "0.8"},
		{"res-ben", generic.PhaseBuild, 3, 6, "0.5"},
		{"res-cleo", generic.PhaseTest, 6, 9, "0.6"},
		{"res-finn", generic.PhaseUAT, 9, 10, "1"},
	}); err != nil {
		return err
	}
	return h.saveRelease(ctx, "rel-3-1", []phasePlan{
		{"res-gia", generic.PhaseDesign, 3, 4, "0.5"},
		{"res-ben", generic.PhaseBuild, 7, 11, "0.7"},
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) saveResources(ctx context.Context, resources ...generic.Resource) error {
	for _, r := range resources {
		if err := h.Store.SaveResource(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

// saveRelease renders the plan as assignment JSON and stores it through the
// allocation factory, the same path PUT /api/releases/{id}/allocations uses.
func (h *Handler) saveRelease(ctx context.Context, releaseID string, plan []phasePlan) error {
	week := h.Reports.CurrentWeek()
	doc := factory.ReleaseAllocationsJSON{ReleaseID: releaseID}
	for _, p := range plan {
		doc.Allocations = append(doc.Allocations, factory.AllocationJSON{
			ResourceID:       p.resource,
			Phase:            string(p.phase),
			StartDate:        week.AddWeeks(p.fromWeek).String(),
			EndDate:          week.AddWeeks(p.toWeek).AddDays(4).String(),
			AllocationFactor: decimal.RequireFromString(p.factor),
		})
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	id, allocs, err := h.AllocationFactory.ParseRelease(data)
	if err != nil {
		return fmt.Errorf("release %s: %w", releaseID, err)
	}
	return h.Store.ReplaceReleaseAllocations(ctx, id, allocs)
}

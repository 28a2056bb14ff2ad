/*
scenarios_test.go - Unit tests for demo scenarios

PURPOSE:
	Tests that each scenario loads through the HTTP API and sets up the
	state its description promises: resources exist, matrix figures add up,
	conflicts appear only where expected.
*/
package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *testServer) loadScenario(t *testing.T, id string) {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: id})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestScenario_AllLoad(t *testing.T) {
	for _, sc := range scenarios {
		t.Run(sc.ID, func(t *testing.T) {
			s := setupTestServer(t)
			s.loadScenario(t, sc.ID)

			current := decode[ScenarioDTO](t, s.do(t, http.MethodGet, "/api/scenarios/current", nil))
			assert.Equal(t, sc.ID, current.ID)

			resources := decode[[]ResourceDTO](t, s.do(t, http.MethodGet, "/api/resources", nil))
			assert.NotEmpty(t, resources)

			m := decode[WeeklyMatrixDTO](t, s.do(t, http.MethodGet, "/api/allocations/weekly", nil))
			assert.NotEmpty(t, m.Resources)
		})
	}
}

func TestScenario_SingleReleaseHasNoConflicts(t *testing.T) {
	s := setupTestServer(t)
	s.loadScenario(t, "single-release")

	conflicts := decode[[]ResourceConflictsDTO](t, s.do(t, http.MethodGet, "/api/reports/conflicts", nil))
	assert.Empty(t, conflicts)

	tl := decode[ReleaseTimelineDTO](t, s.do(t, http.MethodGet, "/api/reports/release-timeline/rel-2-4", nil))
	require.NotEmpty(t, tl.Weeks)
	assert.Equal(t, 2.0, tl.Weeks[0].AllocatedDays, "requirements week: 0.4 x 5")
}

func TestScenario_CompetingReleasesOverAllocateAna(t *testing.T) {
	// GIVEN: Ana at 0.6 on rel-2-4 and 0.5 on rel-2-5 for weeks 1-3
	s := setupTestServer(t)
	s.loadScenario(t, "competing-releases")

	// WHEN: reading conflicts
	conflicts := decode[[]ResourceConflictsDTO](t, s.do(t, http.MethodGet, "/api/reports/conflicts", nil))

	// THEN: only Ana, three weeks at 5.5 days
	require.Len(t, conflicts, 1)
	assert.Equal(t, "res-ana", conflicts[0].ResourceID)
	require.Len(t, conflicts[0].WeeklyConflicts, 3)
	for _, c := range conflicts[0].WeeklyConflicts {
		assert.Equal(t, 5.5, c.AllocatedDays)
		assert.Equal(t, 1.0, c.OverAllocation)
	}
}

func TestScenario_ManualOverridesReplaceTotals(t *testing.T) {
	s := setupTestServer(t)
	s.loadScenario(t, "manual-overrides")

	m := decode[WeeklyMatrixDTO](t, s.do(t, http.MethodGet, "/api/allocations/weekly", nil))
	current := 4 // index of the current week with four weeks before it

	ana := findRow(m, "res-ana")
	require.NotNil(t, ana)
	assert.Equal(t, 2.0, ana.WeeklyAllocations[current+1].AllocatedDays)
	assert.Equal(t, 4.0, ana.WeeklyAllocations[current+2].AllocatedDays, "no override: 0.8 x 5")

	ben := findRow(m, "res-ben")
	require.NotNil(t, ben)
	assert.Equal(t, 0.0, ben.WeeklyAllocations[current+2].AllocatedDays)

	eve := findRow(m, "res-eve")
	require.NotNil(t, eve)
	assert.Equal(t, 5.0, eve.WeeklyAllocations[current+2].AllocatedDays)

	conflicts := decode[[]ResourceConflictsDTO](t, s.do(t, http.MethodGet, "/api/reports/conflicts", nil))
	ids := make([]string, len(conflicts))
	for i, c := range conflicts {
		ids[i] = c.ResourceID
	}
	assert.ElementsMatch(t, []string{"res-cleo", "res-eve"}, ids)
}

func TestScenario_SkillMixGroups(t *testing.T) {
	s := setupTestServer(t)
	s.loadScenario(t, "skill-mix")

	rows := decode[[]SkillCapacityForecastDTO](t, s.do(t, http.MethodGet, "/api/reports/skill-capacity-forecast?skill_function=design", nil))
	require.Len(t, rows, 12)
	assert.Equal(t, 1, rows[0].ResourceCount, "inactive designer is not counted")
	assert.Equal(t, 4.5, rows[0].AllocatedDays)
	assert.Equal(t, 0.0, rows[0].AvailableDays)
}

func TestScenario_ResetAndUnknown(t *testing.T) {
	s := setupTestServer(t)
	s.loadScenario(t, "skill-mix")

	rec := s.do(t, http.MethodPost, "/api/scenarios/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]ResourceDTO](t, s.do(t, http.MethodGet, "/api/resources", nil)))
	assert.JSONEq(t, `null`, s.do(t, http.MethodGet, "/api/scenarios/current", nil).Body.String())

	rec = s.do(t, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Len(t, decode[[]ScenarioDTO](t, s.do(t, http.MethodGet, "/api/scenarios", nil)), len(scenarios))
}

/*
resource.go - Resource profiles and skill grouping keys

PURPOSE:
  Resources are people (or roles) that carry allocations. Their profiles
  are owned by an external system; the engine only reads them to label
  matrix rows and to group weekly totals by skill.

GROUPING KEYS:
  Weekly totals are keyed by resource id. Rollups re-key them:
    - SkillKey: "function/sub-function" (e.g. "engineering/backend")
    - GlobalKey: every resource in one bucket
  Each resource maps to exactly one key per rollup, so rolled-up sums never
  count a person twice.

SEE ALSO:
  - aggregate.go: WeeklyTotals.Rollup
  - reports/forecast.go: Skill capacity forecast
*/
package generic

import "strings"

// =============================================================================
// RESOURCE
// =============================================================================

type Resource struct {
	ID               ResourceID
	Name             string
	Grade            string
	SkillFunction    string
	SkillSubFunction string
	ProfileRef       string // link to the external profile
	Active           bool
}

// Skill returns the resource's grouping key.
func (r Resource) Skill() SkillKey {
	return SkillKey{Function: r.SkillFunction, SubFunction: r.SkillSubFunction}
}

// Validate checks the fields the engine relies on.
func (r Resource) Validate() error {
	if r.ID == "" {
		return &ValidationError{Field: "id", Message: "required"}
	}
	if strings.TrimSpace(r.Name) == "" {
		return &ValidationError{Field: "name", Message: "required"}
	}
	return nil
}

// =============================================================================
// SKILL KEY
// =============================================================================

// GlobalKey is the single rollup key covering all resources.
const GlobalKey = "*"

type SkillKey struct {
	Function    string
	SubFunction string
}

func (k SkillKey) String() string {
	return k.Function + "/" + k.SubFunction
}

// Matches applies a skill filter. An empty function matches everything; an
// empty sub-function matches every sub-function of the function.
func (k SkillKey) Matches(function, subFunction string) bool {
	if function == "" {
		return true
	}
	if !strings.EqualFold(k.Function, function) {
		return false
	}
	return subFunction == "" || strings.EqualFold(k.SubFunction, subFunction)
}

// ResourceIndex maps ids to profiles.
type ResourceIndex map[ResourceID]Resource

func IndexResources(resources []Resource) ResourceIndex {
	idx := make(ResourceIndex, len(resources))
	for _, r := range resources {
		idx[r.ID] = r
	}
	return idx
}

// SkillOf returns the rollup key function for WeeklyTotals.Rollup.
// Unknown resources are dropped from the rollup.
func (idx ResourceIndex) SkillOf(key string) (string, bool) {
	r, ok := idx[ResourceID(key)]
	if !ok {
		return "", false
	}
	return r.Skill().String(), true
}

// Global maps every key to GlobalKey.
func Global(string) (string, bool) {
	return GlobalKey, true
}

package engine

import (
	"slices"

	"github.com/petrijr/stepform/pkg/api"
)

// stepRegistry is the immutable, ordered list of steps a wizard was built
// with. Definitions are copied on the way in and out so callers cannot
// mutate them after construction.
type stepRegistry struct {
	steps []api.StepDefinition
	byID  map[string]int
}

func newStepRegistry(defs []api.StepDefinition) (*stepRegistry, error) {
	if len(defs) == 0 {
		return nil, api.NewConfigurationError(api.ErrNoSteps, "got an empty step list")
	}

	r := &stepRegistry{
		steps: make([]api.StepDefinition, 0, len(defs)),
		byID:  make(map[string]int, len(defs)),
	}

	for i, def := range defs {
		if def.ID == "" {
			return nil, api.NewConfigurationError(api.ErrEmptyStepID, "step at index %d", i)
		}
		if prev, exists := r.byID[def.ID]; exists {
			return nil, api.NewConfigurationError(api.ErrDuplicateStepID, "%q at index %d and %d", def.ID, prev, i)
		}
		r.byID[def.ID] = i
		r.steps = append(r.steps, copyStep(def))
	}

	return r, nil
}

func copyStep(def api.StepDefinition) api.StepDefinition {
	def.FieldKeys = slices.Clone(def.FieldKeys)
	return def
}

func (r *stepRegistry) Len() int {
	return len(r.steps)
}

func (r *stepRegistry) LastIndex() int {
	return len(r.steps) - 1
}

func (r *stepRegistry) InRange(index int) bool {
	return index >= 0 && index < len(r.steps)
}

// At returns a copy of the step at index. index must be in range.
func (r *stepRegistry) At(index int) api.StepDefinition {
	return copyStep(r.steps[index])
}

func (r *stepRegistry) All() []api.StepDefinition {
	out := make([]api.StepDefinition, len(r.steps))
	for i, s := range r.steps {
		out[i] = copyStep(s)
	}
	return out
}

// IndexOf returns the index of the step with the given id, or -1.
func (r *stepRegistry) IndexOf(id string) int {
	if i, ok := r.byID[id]; ok {
		return i
	}
	return -1
}

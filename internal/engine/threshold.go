package engine

import (
	"fmt"
	"sort"
)

// ThresholdStep maps a minimum character level to the toxicity it can sustain.
type ThresholdStep struct {
	LevelFloor int `json:"level_floor" yaml:"level_floor"`
	Limit      int `json:"limit" yaml:"limit"`
}

// ThresholdTable is the level-scaled limit configuration. Steps are sorted
// ascending by level once, at construction, and never mutated afterwards.
type ThresholdTable struct {
	steps []ThresholdStep
}

// DefaultThresholdLevels are the stock limits: 3 at level 1 rising by one every four levels.
var DefaultThresholdLevels = map[int]int{1: 3, 4: 4, 8: 5, 12: 6, 16: 7, 20: 8}

// NewThresholdTable validates a level → limit mapping and returns the sorted table.
func NewThresholdTable(levels map[int]int) (ThresholdTable, error) {
	if len(levels) == 0 {
		return ThresholdTable{}, fmt.Errorf("threshold table is empty: %w", ErrConfiguration)
	}

	steps := make([]ThresholdStep, 0, len(levels))
	for level, limit := range levels {
		if level < 1 {
			return ThresholdTable{}, fmt.Errorf("threshold level %d must be positive: %w", level, ErrConfiguration)
		}
		if limit < 1 {
			return ThresholdTable{}, fmt.Errorf("threshold limit %d for level %d must be positive: %w", limit, level, ErrConfiguration)
		}
		steps = append(steps, ThresholdStep{LevelFloor: level, Limit: limit})
	}
	sort.Slice(steps, func(i, j int) bool { return steps[i].LevelFloor < steps[j].LevelFloor })

	return ThresholdTable{steps: steps}, nil
}

// DefaultThresholdTable returns the table built from DefaultThresholdLevels.
func DefaultThresholdTable() ThresholdTable {
	t, err := NewThresholdTable(DefaultThresholdLevels)
	if err != nil {
		// unreachable: the defaults are static and valid
		panic(err)
	}
	return t
}

// Steps returns a copy of the sorted steps.
func (t ThresholdTable) Steps() []ThresholdStep {
	out := make([]ThresholdStep, len(t.steps))
	copy(out, t.steps)
	return out
}

// Len reports the number of steps.
func (t ThresholdTable) Len() int { return len(t.steps) }

// Limit returns the maximum toxicity an entity of the given level sustains
// before overflowing: the limit of the greatest level floor <= level, or the
// smallest floor's limit when level is below every floor. Levels below 1 are
// looked up as level 1.
func (t ThresholdTable) Limit(level int) (int, error) {
	if len(t.steps) == 0 {
		return 0, fmt.Errorf("threshold table is empty: %w", ErrConfiguration)
	}
	if level < 1 {
		level = 1
	}

	limit := t.steps[0].Limit
	for _, step := range t.steps {
		if step.LevelFloor > level {
			break
		}
		limit = step.Limit
	}
	return limit, nil
}

// Limit is the free-function form of ThresholdTable.Limit.
func Limit(level int, table ThresholdTable) (int, error) {
	return table.Limit(level)
}

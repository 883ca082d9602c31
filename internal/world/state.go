// Package world is the reference host's view of the table: entities with hit
// points, conditions and active effects, projected from a journal of events.
package world

import "github.com/gearstra/vtt-potion-toxicity-5e/internal/engine"

// KindCharacter is the only entity kind whose toxicity is tracked.
const KindCharacter = "character"

// ActiveEffect is a status effect currently on an entity.
type ActiveEffect struct {
	Label    string                   `json:"label"`
	Icon     string                   `json:"icon"`
	Statuses []string                 `json:"statuses,omitempty"`
	Changes  []engine.AttributeChange `json:"changes,omitempty"`
	Duration engine.Duration          `json:"duration"`
}

// Entity represents a character or creature known to the session.
type Entity struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Kind       string         `json:"kind"`
	Level      int            `json:"level"`
	Resources  map[string]int `json:"resources"` // max values (e.g., "hp": 20)
	Spent      map[string]int `json:"spent"`     // current usage (e.g., "hp": 5)
	Conditions []string       `json:"conditions"`
	Effects    []ActiveEffect `json:"effects"`
}

// NewEntity creates an Entity with all maps initialized to avoid nil-map panics.
func NewEntity(id, name, kind string, level, maxHP int) *Entity {
	return &Entity{
		ID:         id,
		Name:       name,
		Kind:       kind,
		Level:      level,
		Resources:  map[string]int{"hp": maxHP},
		Spent:      make(map[string]int),
		Conditions: make([]string, 0),
		Effects:    make([]ActiveEffect, 0),
	}
}

// IsCharacter reports whether toxicity applies to the entity.
func (e *Entity) IsCharacter() bool { return e.Kind == KindCharacter }

// HP returns the current hit points.
func (e *Entity) HP() int { return e.Resources["hp"] - e.Spent["hp"] }

// HasCondition reports whether the condition is present.
func (e *Entity) HasCondition(cond string) bool {
	for _, c := range e.Conditions {
		if c == cond {
			return true
		}
	}
	return false
}

func (e *Entity) addCondition(cond string) {
	if !e.HasCondition(cond) {
		e.Conditions = append(e.Conditions, cond)
	}
}

// GameState is the full projection of the journal.
type GameState struct {
	Entities map[string]*Entity `json:"entities"`
	Metadata map[string]any     `json:"metadata"`
}

// NewGameState creates a clean, empty game state with all maps initialized.
func NewGameState() *GameState {
	return &GameState{
		Entities: make(map[string]*Entity),
		Metadata: make(map[string]any),
	}
}

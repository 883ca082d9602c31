package world

import (
	"fmt"
	"strings"

	"github.com/gearstra/vtt-potion-toxicity-5e/internal/engine"
)

// Event is the building block of the journal.
// Every state change is represented as an Event that can be applied to GameState.
type Event interface {
	Type() string
	Apply(state *GameState) error
	Message() string
}

// EntityAddedEvent registers an entity with the session.
type EntityAddedEvent struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Level int    `json:"level"`
	MaxHP int    `json:"max_hp"`
}

func (e *EntityAddedEvent) Type() string { return "EntityAddedEvent" }
func (e *EntityAddedEvent) Apply(state *GameState) error {
	if _, ok := state.Entities[e.ID]; ok {
		return fmt.Errorf("entity %s already tracked", e.ID)
	}
	state.Entities[e.ID] = NewEntity(e.ID, e.Name, e.Kind, e.Level, e.MaxHP)
	return nil
}
func (e *EntityAddedEvent) Message() string {
	return fmt.Sprintf("Added %s %s (level %d, %d HP)", e.Kind, e.Name, e.Level, e.MaxHP)
}

// EffectsAppliedEvent adds status effects and their conditions to an entity.
type EffectsAppliedEvent struct {
	EntityID string                    `json:"entity_id"`
	Effects  []engine.StatusEffectSpec `json:"effects"`
}

func (e *EffectsAppliedEvent) Type() string { return "EffectsAppliedEvent" }
func (e *EffectsAppliedEvent) Apply(state *GameState) error {
	ent, ok := state.Entities[e.EntityID]
	if !ok {
		return fmt.Errorf("entity %s not found", e.EntityID)
	}
	for _, spec := range e.Effects {
		ent.Effects = append(ent.Effects, ActiveEffect{
			Label:    spec.Label,
			Icon:     spec.Icon,
			Statuses: spec.Statuses,
			Changes:  spec.Changes,
			Duration: spec.Duration,
		})
		for _, s := range spec.Statuses {
			ent.addCondition(s)
		}
	}
	return nil
}
func (e *EffectsAppliedEvent) Message() string {
	labels := make([]string, 0, len(e.Effects))
	for _, eff := range e.Effects {
		labels = append(labels, fmt.Sprintf("%s (%s)", eff.Label, eff.Duration))
	}
	return fmt.Sprintf("%s is now affected by %s", e.EntityID, strings.Join(labels, ", "))
}

// HPChangedEvent modifies an entity's current HP (positive heals, negative damages).
type HPChangedEvent struct {
	EntityID string `json:"entity_id"`
	Amount   int    `json:"amount"`
	Category string `json:"category,omitempty"`
}

func (e *HPChangedEvent) Type() string { return "HPChangedEvent" }
func (e *HPChangedEvent) Apply(state *GameState) error {
	ent, ok := state.Entities[e.EntityID]
	if !ok {
		return fmt.Errorf("entity %s not found", e.EntityID)
	}
	// Spent["hp"] grows with damage and shrinks with healing, clamped to [0, max].
	ent.Spent["hp"] -= e.Amount
	if ent.Spent["hp"] < 0 {
		ent.Spent["hp"] = 0
	}
	if maxHP := ent.Resources["hp"]; ent.Spent["hp"] > maxHP {
		ent.Spent["hp"] = maxHP
	}
	return nil
}
func (e *HPChangedEvent) Message() string {
	switch {
	case e.Amount > 0:
		return fmt.Sprintf("%s healed for %d HP", e.EntityID, e.Amount)
	case e.Amount < 0 && e.Category != "":
		return fmt.Sprintf("%s took %d %s damage", e.EntityID, -e.Amount, e.Category)
	case e.Amount < 0:
		return fmt.Sprintf("%s took %d damage", e.EntityID, -e.Amount)
	}
	return fmt.Sprintf("%s HP was unchanged", e.EntityID)
}

// NarrationEvent is a chat line produced by the toxicity handler.
type NarrationEvent struct {
	EntityID string `json:"entity_id"`
	Text     string `json:"text"`
}

func (e *NarrationEvent) Type() string                 { return "NarrationEvent" }
func (e *NarrationEvent) Apply(state *GameState) error { return nil }
func (e *NarrationEvent) Message() string              { return e.Text }

// ToxicityChangedEvent records a ledger change for the audit trail. The ledger
// store stays authoritative; projection only keeps the last known value.
type ToxicityChangedEvent struct {
	EntityID string `json:"entity_id"`
	Previous int    `json:"previous"`
	Total    int    `json:"total"`
	Limit    int    `json:"limit"`
}

func (e *ToxicityChangedEvent) Type() string { return "ToxicityChangedEvent" }
func (e *ToxicityChangedEvent) Apply(state *GameState) error {
	state.Metadata["toxicity."+e.EntityID] = e.Total
	return nil
}
func (e *ToxicityChangedEvent) Message() string {
	return fmt.Sprintf("%s toxicity %d → %d (limit %d)", e.EntityID, e.Previous, e.Total, e.Limit)
}

// OverflowResolvedEvent records the authoritative outcome of an overflow.
type OverflowResolvedEvent struct {
	EntityID string                 `json:"entity_id"`
	Outcome  engine.OverflowOutcome `json:"outcome"`
}

func (e *OverflowResolvedEvent) Type() string { return "OverflowResolvedEvent" }
func (e *OverflowResolvedEvent) Apply(state *GameState) error {
	state.Metadata["last_overflow"] = map[string]any{
		"entity": e.EntityID,
		"roll":   e.Outcome.Roll,
		"tier":   e.Outcome.Tier.Label,
	}
	return nil
}
func (e *OverflowResolvedEvent) Message() string {
	return fmt.Sprintf("%s overflow roll %d: %s", e.EntityID, e.Outcome.Roll, e.Outcome.Tier.Label)
}

// RestCompletedEvent ends timed effects on a long rest; indefinite ones stay.
type RestCompletedEvent struct {
	EntityID string `json:"entity_id"`
	Long     bool   `json:"long"`
}

func (e *RestCompletedEvent) Type() string { return "RestCompletedEvent" }
func (e *RestCompletedEvent) Apply(state *GameState) error {
	ent, ok := state.Entities[e.EntityID]
	if !ok {
		return fmt.Errorf("entity %s not found", e.EntityID)
	}
	if !e.Long {
		return nil
	}

	kept := ent.Effects[:0]
	for _, eff := range ent.Effects {
		if eff.Duration.IsIndefinite() {
			kept = append(kept, eff)
		}
	}
	ent.Effects = kept
	ent.Conditions = conditionsFromEffects(ent.Effects)
	return nil
}
func (e *RestCompletedEvent) Message() string {
	if e.Long {
		return fmt.Sprintf("%s finished a long rest", e.EntityID)
	}
	return fmt.Sprintf("%s finished a short rest", e.EntityID)
}

func conditionsFromEffects(effects []ActiveEffect) []string {
	conds := make([]string, 0)
	seen := make(map[string]bool)
	for _, eff := range effects {
		for _, s := range eff.Statuses {
			if !seen[s] {
				seen[s] = true
				conds = append(conds, s)
			}
		}
	}
	return conds
}

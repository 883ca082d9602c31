package world

import (
	"testing"

	"github.com/gearstra/vtt-potion-toxicity-5e/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectorBuild(t *testing.T) {
	events := []Event{
		&EntityAddedEvent{ID: "elara", Name: "Elara", Kind: KindCharacter, Level: 5, MaxHP: 30},
		&EntityAddedEvent{ID: "wolf", Name: "Wolf", Kind: "npc", Level: 1, MaxHP: 11},
		&HPChangedEvent{EntityID: "elara", Amount: -10, Category: "poison"},
		&HPChangedEvent{EntityID: "elara", Amount: 2}, // slight heal
		&HPChangedEvent{EntityID: "wolf", Amount: -50},
	}

	state, err := NewProjector().Build(events)
	require.NoError(t, err)
	require.Len(t, state.Entities, 2)

	assert.Equal(t, 22, state.Entities["elara"].HP())
	assert.True(t, state.Entities["elara"].IsCharacter())
	assert.Equal(t, 0, state.Entities["wolf"].HP(), "damage clamps at zero")
	assert.False(t, state.Entities["wolf"].IsCharacter())
}

func TestProjectorUnknownEntity(t *testing.T) {
	_, err := NewProjector().Build([]Event{&HPChangedEvent{EntityID: "ghost", Amount: -1}})
	assert.Error(t, err)
}

func TestProjectorDuplicateEntity(t *testing.T) {
	_, err := NewProjector().Build([]Event{
		&EntityAddedEvent{ID: "elara", Kind: KindCharacter, Level: 1, MaxHP: 8},
		&EntityAddedEvent{ID: "elara", Kind: KindCharacter, Level: 1, MaxHP: 8},
	})
	assert.Error(t, err)
}

func TestEffectsAndLongRest(t *testing.T) {
	severe := engine.DefaultSeverityTable()
	events := []Event{
		&EntityAddedEvent{ID: "elara", Name: "Elara", Kind: KindCharacter, Level: 5, MaxHP: 30},
		&EffectsAppliedEvent{EntityID: "elara", Effects: severe[1].Effects}, // mild impairment
		&EffectsAppliedEvent{EntityID: "elara", Effects: severe[5].Effects}, // catastrophic
	}

	state, err := NewProjector().Build(events)
	require.NoError(t, err)
	ent := state.Entities["elara"]

	assert.True(t, ent.HasCondition("unconscious"))
	assert.True(t, ent.HasCondition("poisoned"))
	assert.True(t, IsIncapacitated(ent))
	assert.True(t, HasDisadvantageOnChecks(ent))
	assert.Equal(t, -1, Modifier(ent, "bonuses.abilities.check"))

	require.NoError(t, (&RestCompletedEvent{EntityID: "elara", Long: false}).Apply(state))
	assert.Len(t, ent.Effects, 3, "short rest keeps effects")

	require.NoError(t, (&RestCompletedEvent{EntityID: "elara", Long: true}).Apply(state))
	for _, eff := range ent.Effects {
		assert.True(t, eff.Duration.IsIndefinite())
	}
	assert.Equal(t, 0, Modifier(ent, "bonuses.abilities.check"), "the hour-long penalty is gone")
	assert.True(t, ent.HasCondition("unconscious"), "indefinite coma survives the rest")
}

func TestToxicityEventsProjectMetadata(t *testing.T) {
	state, err := NewProjector().Build([]Event{
		&ToxicityChangedEvent{EntityID: "elara", Previous: 0, Total: 5, Limit: 4},
		&OverflowResolvedEvent{EntityID: "elara", Outcome: engine.OverflowOutcome{Roll: 4, Tier: engine.DefaultSeverityTable()[1]}},
		&NarrationEvent{EntityID: "elara", Text: "hello"},
	})
	require.NoError(t, err)
	assert.Equal(t, 5, state.Metadata["toxicity.elara"])
	last := state.Metadata["last_overflow"].(map[string]any)
	assert.Equal(t, "Mild Impairment", last["tier"])
}

func TestHPChangedMessage(t *testing.T) {
	assert.Equal(t, "elara took 7 poison damage", (&HPChangedEvent{EntityID: "elara", Amount: -7, Category: "poison"}).Message())
	assert.Equal(t, "elara healed for 3 HP", (&HPChangedEvent{EntityID: "elara", Amount: 3}).Message())
}

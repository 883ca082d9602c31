package rules

import (
	"testing"

	"github.com/gearstra/vtt-potion-toxicity-5e/internal/config"
	"github.com/gearstra/vtt-potion-toxicity-5e/internal/data"
	"github.com/gearstra/vtt-potion-toxicity-5e/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCELRegistry(t *testing.T) {
	// Mock roll function that returns a fixed value for testing
	mockRoll := func(s string) int {
		if s == "1d10" {
			return 7
		}
		return 0
	}

	registry, err := NewRegistry(mockRoll)
	require.NoError(t, err)

	t.Run("Basic Boolean Expression", func(t *testing.T) {
		filter, err := registry.NewFilter("item.toxicity > 2")
		require.NoError(t, err)
		ok, err := filter.Accepts(map[string]any{
			"item":  map[string]any{"toxicity": 3},
			"actor": map[string]any{},
		})
		assert.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("Custom Roll Function", func(t *testing.T) {
		empty := map[string]any{"item": map[string]any{}, "actor": map[string]any{}}

		filter, err := registry.NewFilter("roll('1d10') == 7")
		require.NoError(t, err)
		ok, err := filter.Accepts(empty)
		assert.NoError(t, err)
		assert.True(t, ok)

		filter, err = registry.NewFilter("roll('1d4') > 0")
		require.NoError(t, err)
		ok, err = filter.Accepts(empty)
		assert.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Compile Error", func(t *testing.T) {
		_, err := registry.NewFilter("item.")
		assert.Error(t, err)
	})

	t.Run("Roll Result Is Not A Filter", func(t *testing.T) {
		_, err := registry.NewFilter("roll('1d10')")
		assert.Error(t, err)
	})
}

func TestConsumableFilter(t *testing.T) {
	registry, err := NewRegistry(nil)
	require.NoError(t, err)

	filter, err := registry.NewFilter(config.DefaultConsumableFilter)
	require.NoError(t, err)

	elara := world.NewEntity("elara", "Elara", world.KindCharacter, 5, 30)

	tests := []struct {
		name string
		item *data.Item
		want bool
	}{
		{name: "potion", item: &data.Item{Name: "Potion of Healing", Type: "consumable", ConsumableType: "potion", Toxicity: 2}, want: true},
		{name: "scroll", item: &data.Item{Name: "Scroll of Fireball", Type: "consumable", ConsumableType: "scroll"}, want: false},
		{name: "weapon", item: &data.Item{Name: "Longsword", Type: "weapon"}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := filter.Accepts(BuildEvalContext(tt.item, elara))
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestCustomFilterUsesActor(t *testing.T) {
	registry, err := NewRegistry(nil)
	require.NoError(t, err)

	filter, err := registry.NewFilter(`item.type == "consumable" && actor.level >= 3`)
	require.NoError(t, err)

	potion := &data.Item{Type: "consumable", ConsumableType: "potion"}
	ok, err := filter.Accepts(BuildEvalContext(potion, world.NewEntity("a", "A", world.KindCharacter, 5, 10)))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = filter.Accepts(BuildEvalContext(potion, world.NewEntity("b", "B", world.KindCharacter, 1, 10)))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewFilterRejectsNonBoolean(t *testing.T) {
	registry, err := NewRegistry(nil)
	require.NoError(t, err)

	_, err = registry.NewFilter("'potion'")
	assert.Error(t, err)

	_, err = registry.NewFilter("item.type ==")
	assert.Error(t, err)
}

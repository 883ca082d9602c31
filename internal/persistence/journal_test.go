package persistence

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gearstra/vtt-potion-toxicity-5e/internal/engine"
	"github.com/gearstra/vtt-potion-toxicity-5e/internal/world"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJournalAppendLoad(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "log.jsonl")

	j, err := NewJournal(logPath)
	require.NoError(t, err)
	defer j.Close()

	require.NoError(t, j.Append(&world.EntityAddedEvent{ID: "elara", Name: "Elara", Kind: world.KindCharacter, Level: 5, MaxHP: 30}))
	require.NoError(t, j.Append(&world.EffectsAppliedEvent{EntityID: "elara", Effects: engine.DefaultSeverityTable()[3].Effects}))
	require.NoError(t, j.Append(&world.HPChangedEvent{EntityID: "elara", Amount: -7, Category: "poison"}))

	events, err := j.Load()
	require.NoError(t, err)
	require.Len(t, events, 3)

	added, ok := events[0].(*world.EntityAddedEvent)
	require.True(t, ok)
	assert.Equal(t, "elara", added.ID)

	applied, ok := events[1].(*world.EffectsAppliedEvent)
	require.True(t, ok)
	require.Len(t, applied.Effects, 2)
	assert.Equal(t, engine.Rounds(1), applied.Effects[0].Duration)

	hp, ok := events[2].(*world.HPChangedEvent)
	require.True(t, ok)
	assert.Equal(t, -7, hp.Amount)

	state, err := world.NewProjector().Build(events)
	require.NoError(t, err)
	assert.Equal(t, 23, state.Entities["elara"].HP())
	assert.True(t, state.Entities["elara"].HasCondition("incapacitated"))
}

func TestJournalWrapsEventsWithIDs(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "log.jsonl")
	j, err := NewJournal(logPath)
	require.NoError(t, err)
	defer j.Close()

	require.NoError(t, j.Append(&world.NarrationEvent{EntityID: "elara", Text: "one"}))
	require.NoError(t, j.Append(&world.NarrationEvent{EntityID: "elara", Text: "two"}))

	raw, err := os.ReadFile(logPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)

	ids := make(map[string]bool)
	for _, line := range lines {
		var w EventWrapper
		require.NoError(t, json.Unmarshal([]byte(line), &w))
		_, err := uuid.Parse(w.ID)
		assert.NoError(t, err)
		assert.Equal(t, "NarrationEvent", w.Type)
		ids[w.ID] = true
	}
	assert.Len(t, ids, 2)
}

func TestJournalUnknownEventType(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "log.jsonl")
	require.NoError(t, os.WriteFile(logPath, []byte(`{"id":"x","type":"Bogus","data":{}}`+"\n"), 0644))

	j, err := NewJournal(logPath)
	require.NoError(t, err)
	defer j.Close()

	_, err = j.Load()
	assert.ErrorContains(t, err, "unknown event type")
}

func TestCampaignManager(t *testing.T) {
	cm := NewCampaignManager(t.TempDir())

	_, err := cm.Load("greyhawk", "tomb")
	assert.Error(t, err, "missing campaign")

	j, err := cm.Create("greyhawk", "tomb")
	require.NoError(t, err)
	require.NoError(t, j.Append(&world.NarrationEvent{EntityID: "elara", Text: "hi"}))
	require.NoError(t, j.Close())

	for _, sub := range []string{"characters", "items", "tables"} {
		assert.DirExists(t, filepath.Join(cm.GetCampaignPath("greyhawk", "tomb"), sub))
	}

	j, err = cm.Load("greyhawk", "tomb")
	require.NoError(t, err)
	defer j.Close()
	events, err := j.Load()
	require.NoError(t, err)
	assert.Len(t, events, 1)

	assert.True(t, strings.HasPrefix(cm.GetLedgerDSN("greyhawk", "tomb"), "sqlite://"))
}

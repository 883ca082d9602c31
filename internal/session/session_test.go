package session

import (
	"bytes"
	"context"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/gearstra/vtt-potion-toxicity-5e/internal/config"
	"github.com/gearstra/vtt-potion-toxicity-5e/internal/engine"
	"github.com/gearstra/vtt-potion-toxicity-5e/internal/persistence"
	"github.com/gearstra/vtt-potion-toxicity-5e/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	events []world.Event
}

func (m *memStore) Append(evt world.Event) error {
	m.events = append(m.events, evt)
	return nil
}
func (m *memStore) Load() ([]world.Event, error) { return m.events, nil }
func (m *memStore) Close() error                  { return nil }

func writeData(t *testing.T, dir, rel, body string) {
	t.Helper()
	path := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
}

func newDataDir(t *testing.T, withTable bool) string {
	t.Helper()
	dir := t.TempDir()
	writeData(t, dir, "characters/elara.yaml", "name: Elara\ntype: character\nlevel: 5\nhit_points: 30\n")
	writeData(t, dir, "characters/wolf.yaml", "name: Wolf\ntype: npc\nlevel: 1\nhit_points: 11\n")
	writeData(t, dir, "items/strong-elixir.yaml", "name: Strong Elixir\ntype: consumable\nconsumable_type: potion\ntoxicity: 5\n")
	writeData(t, dir, "items/weak-tonic.yaml", "name: Weak Tonic\ntype: consumable\nconsumable_type: potion\ntoxicity: 2\n")
	writeData(t, dir, "items/scroll-of-fire.yaml", "name: Scroll of Fire\ntype: consumable\nconsumable_type: scroll\ntoxicity: 4\n")
	if withTable {
		writeData(t, dir, "tables/toxicity-effects.yaml", `
name: Toxicity Effects
results:
  - range: [1, 3]
    text: A bitter aftertaste.
  - range: [4, 11]
    text: Your vision swims.
  - range: [12, 12]
    text: Darkness.
`)
	}
	return dir
}

type fixture struct {
	session *Session
	store   *memStore
	ledger  *engine.MemoryStore
	rng     *engine.ScriptedSource
	logs    *bytes.Buffer
}

func newFixture(t *testing.T, withTable bool, rolls ...int) *fixture {
	t.Helper()
	f := &fixture{
		store:  &memStore{},
		ledger: engine.NewMemoryStore(),
		rng:    engine.NewScriptedSource(rolls...),
		logs:   &bytes.Buffer{},
	}
	s, err := NewSession(f.store, Options{
		DataDirs: []string{newDataDir(t, withTable)},
		Ledger:   f.ledger,
		Random:   f.rng,
		Logger:   log.New(f.logs, "", 0),
	})
	require.NoError(t, err)
	f.session = s
	return f
}

func messages(res Result) []string { return res.Lines() }

func TestConsumeMildImpairment(t *testing.T) {
	f := newFixture(t, true, 3)
	ctx := context.Background()

	res, err := f.session.Execute(ctx, "consume by: Elara item: Strong Elixir")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Added character Elara (level 5, 30 HP)",
		"Elara consumed Strong Elixir, increasing toxicity to 5.",
		"Toxicity Overflow Check: 1d10 + 1 = 4",
		"elara is now affected by Mild Impairment (1 hour)",
		"Toxicity Overflow! Result (4): Mild Impairment. -1 to ability checks and attack rolls for 1 hour",
		"elara toxicity 0 → 5 (limit 4)",
		"elara overflow roll 4: Mild Impairment",
		"Toxicity Effects (4): Your vision swims.",
	}, messages(res))

	rep, err := f.session.Status(ctx, "Elara")
	require.NoError(t, err)
	assert.Equal(t, 5, rep.Toxicity)
	assert.Equal(t, 4, rep.Limit)
	assert.True(t, rep.OverLimit())
	assert.Equal(t, -1, rep.CheckModifier)
	assert.Equal(t, -1, rep.AttackModifier)
	assert.Equal(t, 30, rep.HP)
}

func TestConsumeCatastrophicOverdose(t *testing.T) {
	f := newFixture(t, true, 10, 12)
	ctx := context.Background()

	_, err := f.session.Execute(ctx, "consume by: Elara toxicity: 7")
	require.NoError(t, err)

	ent := f.session.State().Entities["elara"]
	assert.Equal(t, 18, ent.HP())
	assert.True(t, ent.HasCondition("unconscious"))
	assert.True(t, ent.HasCondition("poisoned"))
	assert.True(t, world.IsIncapacitated(ent))

	v, err := f.ledger.ReadLedgerValue(ctx, "elara")
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Equal(t, []string{"1d10", "3d6"}, f.rng.Calls)
}

func TestConsumeBelowLimit(t *testing.T) {
	f := newFixture(t, true)
	res, err := f.session.Execute(context.Background(), "consume by: Elara item: Weak Tonic")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Added character Elara (level 5, 30 HP)",
		"Elara consumed Weak Tonic, increasing toxicity to 2.",
		"elara toxicity 0 → 2 (limit 4)",
	}, messages(res))
	assert.Empty(t, f.rng.Calls)
}

func TestConsumeFilteredItem(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	_, err := f.session.Execute(ctx, "consume by: Elara item: Scroll of Fire")
	assert.ErrorIs(t, err, ErrNotConsumable)

	v, err := f.ledger.ReadLedgerValue(ctx, "elara")
	require.NoError(t, err)
	assert.Equal(t, 0, v)
}

func TestNonCharacterUntracked(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	_, err := f.session.Execute(ctx, "consume by: Wolf toxicity: 4")
	assert.ErrorIs(t, err, ErrUntracked)

	res, err := f.session.Execute(ctx, "status by: Wolf")
	require.NoError(t, err)
	assert.Equal(t, "Wolf: toxicity 0 / 3 (untracked) | HP 11/11", res.Reply)
}

func TestMissingRollTableOnlyWarns(t *testing.T) {
	f := newFixture(t, false, 3)
	res, err := f.session.Execute(context.Background(), "consume by: Elara toxicity: 5")
	require.NoError(t, err)

	assert.Contains(t, f.logs.String(), `roll table "Toxicity Effects" not found`)
	last := res.Events[len(res.Events)-1]
	_, ok := last.(*world.OverflowResolvedEvent)
	assert.True(t, ok, "outcome is still recorded")
}

func TestRestHandling(t *testing.T) {
	f := newFixture(t, true, 3)
	ctx := context.Background()

	_, err := f.session.Execute(ctx, "consume by: Elara toxicity: 5")
	require.NoError(t, err)

	_, err = f.session.Execute(ctx, "rest by: Elara type: short")
	require.NoError(t, err)
	v, _ := f.ledger.ReadLedgerValue(ctx, "elara")
	assert.Equal(t, 5, v, "short rests never reset")

	res, err := f.session.Execute(ctx, "rest by: Elara")
	require.NoError(t, err)
	assert.Contains(t, messages(res), "Elara's toxicity has been reset after a long rest.")
	v, _ = f.ledger.ReadLedgerValue(ctx, "elara")
	assert.Equal(t, 0, v)

	rep, err := f.session.Status(ctx, "Elara")
	require.NoError(t, err)
	assert.Equal(t, 0, rep.CheckModifier, "hour-long penalty ends with the long rest")

	_, err = f.session.Execute(ctx, "rest by: Elara type: nap")
	assert.ErrorContains(t, err, "rest by: <actor>")
}

func TestRestResetDisabled(t *testing.T) {
	settings := config.Default()
	off := false
	settings.ResetOnLongRest = &off

	ledger := engine.NewMemoryStore()
	s, err := NewSession(&memStore{}, Options{
		DataDirs: []string{newDataDir(t, true)},
		Settings: settings,
		Ledger:   ledger,
		Random:   engine.NewScriptedSource(),
		Logger:   log.New(&bytes.Buffer{}, "", 0),
	})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = s.Execute(ctx, "consume by: Elara toxicity: 3")
	require.NoError(t, err)
	_, err = s.Execute(ctx, "rest by: Elara type: long")
	require.NoError(t, err)

	v, _ := ledger.ReadLedgerValue(ctx, "elara")
	assert.Equal(t, 3, v)
}

func TestSetToxicity(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	res, err := f.session.Execute(ctx, "set by: Elara value: 6")
	require.NoError(t, err)
	assert.Contains(t, messages(res), "elara toxicity 0 → 6 (limit 4)")

	_, err = f.session.Execute(ctx, "set by: Elara value: -1")
	assert.ErrorIs(t, err, engine.ErrInvalidAmount)

	v, _ := f.ledger.ReadLedgerValue(ctx, "elara")
	assert.Equal(t, 6, v)
}

func TestUsageErrors(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	tests := []struct {
		input string
		want  string
	}{
		{input: "consume item: Weak Tonic", want: "consume by: <actor>"},
		{input: "consume by: Elara", want: "consume by: <actor>"},
		{input: "set by: Elara", want: "set by: <actor> value: <n>"},
		{input: "roll", want: "roll [by: <actor>] dice: <formula>"},
		{input: "", want: "I wasn't able to understand your command"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := f.session.Execute(ctx, tt.input)
			assert.ErrorContains(t, err, tt.want)
		})
	}

	_, err := f.session.Execute(ctx, "attack by: Elara")
	assert.ErrorIs(t, err, ErrUnknownCommand)

	_, err = f.session.Execute(ctx, "consume by: Nobody toxicity: 1")
	assert.Error(t, err)
}

func TestRollCommand(t *testing.T) {
	f := newFixture(t, true, 9)
	res, err := f.session.Execute(context.Background(), "roll by: Elara dice: 2d6")
	require.NoError(t, err)
	assert.Equal(t, []string{"Elara rolled 2d6: 9"}, messages(res))
}

func TestJournalReplay(t *testing.T) {
	ctx := context.Background()
	dataDir := newDataDir(t, true)
	logPath := filepath.Join(t.TempDir(), "log.jsonl")
	ledger := engine.NewMemoryStore()

	journal, err := persistence.NewJournal(logPath)
	require.NoError(t, err)
	s, err := NewSession(journal, Options{
		DataDirs: []string{dataDir},
		Ledger:   ledger,
		Random:   engine.NewScriptedSource(8, 5),
		Logger:   log.New(&bytes.Buffer{}, "", 0),
	})
	require.NoError(t, err)

	// excess 1, d10=8 → 9: Severe Reaction, 2d6=5
	_, err = s.Execute(ctx, "consume by: Elara toxicity: 5")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	journal, err = persistence.NewJournal(logPath)
	require.NoError(t, err)
	replayed, err := NewSession(journal, Options{DataDirs: []string{dataDir}, Ledger: ledger})
	require.NoError(t, err)
	defer replayed.Close()

	ent := replayed.State().Entities["elara"]
	require.NotNil(t, ent)
	assert.Equal(t, 25, ent.HP())
	assert.True(t, ent.HasCondition("incapacitated"))

	rep, err := replayed.Status(ctx, "Elara")
	require.NoError(t, err)
	assert.Equal(t, 5, rep.Toxicity)
	assert.True(t, rep.Disadvantage, "poisoned imposes disadvantage on checks")
	assert.Equal(t, "Elara: toxicity 5 / 4 | HP 25/30 | incapacitated, poisoned | disadvantage on checks | incapacitated", rep.String())
}

func TestNewSessionRejectsBadFilter(t *testing.T) {
	settings := config.Default()
	settings.ConsumableFilter = "item.type =="
	_, err := NewSession(&memStore{}, Options{Settings: settings})
	assert.Error(t, err)

	_, err = NewSession(nil, Options{})
	assert.ErrorIs(t, err, engine.ErrMissingCollaborator)
}

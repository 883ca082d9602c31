// Package session is the reference host for the toxicity handler: it keeps a
// journaled world of entities, turns REPL commands into handler calls and
// implements the handler's ports by recording events.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/gearstra/vtt-potion-toxicity-5e/internal/config"
	"github.com/gearstra/vtt-potion-toxicity-5e/internal/data"
	"github.com/gearstra/vtt-potion-toxicity-5e/internal/engine"
	"github.com/gearstra/vtt-potion-toxicity-5e/internal/parser"
	"github.com/gearstra/vtt-potion-toxicity-5e/internal/rules"
	"github.com/gearstra/vtt-potion-toxicity-5e/internal/world"
)

var (
	// ErrUnknownCommand is returned for commands the session does not handle.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrNotConsumable is returned when the consumable filter rejects an item.
	ErrNotConsumable = errors.New("item does not cause toxicity")
	// ErrUntracked is returned when a toxicity command targets a non-character.
	ErrUntracked = errors.New("toxicity is only tracked for characters")

	errUsage = errors.New("usage")
)

// Store defines the dependency required by Session to persist events
type Store interface {
	Append(evt world.Event) error
	Load() ([]world.Event, error)
	Close() error
}

// Options configures a Session. Zero values fall back to defaults: stock
// settings, an in-memory ledger, a crypto-seeded roller and log.Default().
type Options struct {
	DataDirs []string
	Settings *config.Settings
	Ledger   engine.LedgerStore
	Random   engine.RandomSource
	Logger   *log.Logger
}

// Result is what one command produced.
type Result struct {
	Events []world.Event
	Reply  string // set by read-only commands such as status
}

// Lines renders the result for a terminal.
func (r Result) Lines() []string {
	lines := make([]string, 0, len(r.Events)+1)
	for _, evt := range r.Events {
		lines = append(lines, evt.Message())
	}
	if r.Reply != "" {
		lines = append(lines, r.Reply)
	}
	return lines
}

// Session manages the loop of taking commands, running them through the
// toxicity handler, persisting events and projecting the world.
type Session struct {
	mu sync.Mutex

	loader   *data.Loader
	store    Store
	state    *world.GameState
	settings *config.Settings
	filter   *rules.Filter
	handler  *engine.Handler
	rng      engine.RandomSource
	logger   *log.Logger

	emitted []world.Event
}

// NewSession bootstraps a session on top of an event store and replays it.
func NewSession(store Store, opts Options) (*Session, error) {
	if store == nil {
		return nil, fmt.Errorf("event store: %w", engine.ErrMissingCollaborator)
	}

	settings := opts.Settings
	if settings == nil {
		settings = config.Default()
	}
	cfg, err := settings.EngineConfig()
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	rng := opts.Random
	if rng == nil {
		rng = engine.NewRoller()
	}
	ledgerStore := opts.Ledger
	if ledgerStore == nil {
		ledgerStore = engine.NewMemoryStore()
	}
	ledger, err := engine.NewLedger(ledgerStore)
	if err != nil {
		return nil, err
	}

	// Bridge rules.Registry to the session's dice
	reg, err := rules.NewRegistry(func(expr string) int {
		n, err := rng.Roll(expr)
		if err != nil {
			logger.Printf("warning: roll(%q) in filter failed: %v", expr, err)
			return 0
		}
		return n
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize rules registry: %w", err)
	}
	filter, err := reg.NewFilter(settings.ConsumableFilter)
	if err != nil {
		return nil, err
	}

	s := &Session{
		loader:   data.NewLoader(opts.DataDirs),
		store:    store,
		settings: settings,
		filter:   filter,
		rng:      rng,
		logger:   logger,
	}

	handler, err := engine.NewHandler(ledger, cfg, rng, engine.Host{Effects: s, Damage: s, Narrator: s}, logger)
	if err != nil {
		return nil, err
	}
	s.handler = handler

	if err := s.RebuildState(); err != nil {
		return nil, err
	}
	return s, nil
}

// RebuildState reads the entire event log from the store and projects the latest world
func (s *Session) RebuildState() error {
	events, err := s.store.Load()
	if err != nil {
		return fmt.Errorf("failed to load event log: %w", err)
	}

	state, err := world.NewProjector().Build(events)
	if err != nil {
		return fmt.Errorf("failed to project game state: %w", err)
	}

	s.state = state
	return nil
}

// State returns the current projected world.
func (s *Session) State() *world.GameState {
	return s.state
}

// Handler exposes the toxicity handler the session drives.
func (s *Session) Handler() *engine.Handler {
	return s.handler
}

// Close closes the event store.
func (s *Session) Close() error {
	return s.store.Close()
}

// Execute runs one command line. Commands are serialized; the returned
// Result holds every event the command journaled, even when it failed midway.
func (s *Session) Execute(ctx context.Context, input string) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emitted = nil

	p := ParseInput(input)
	var (
		reply string
		err   error
	)
	switch p.Command {
	case "add":
		reply, err = s.add(p)
	case "consume":
		err = s.consume(ctx, p)
	case "rest":
		err = s.rest(ctx, p)
	case "status":
		var rep StatusReport
		rep, err = s.status(ctx, p.ActorID)
		reply = rep.String()
	case "set":
		err = s.set(ctx, p)
	case "roll":
		err = s.roll(p)
	case "":
		err = errUsage
	default:
		err = fmt.Errorf("%w: %s", ErrUnknownCommand, p.Command)
	}

	res := Result{Events: s.emitted}
	if errors.Is(err, errUsage) {
		return res, parser.MapError(input)
	}
	if err != nil {
		return res, err
	}
	res.Reply = reply
	return res, nil
}

// Status reports an entity's toxicity against its limit.
func (s *Session) Status(ctx context.Context, name string) (StatusReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emitted = nil
	return s.status(ctx, name)
}

// ApplyAndAppend commits a finalized event to the store and updates memory
func (s *Session) ApplyAndAppend(evt world.Event) error {
	if err := s.store.Append(evt); err != nil {
		return fmt.Errorf("failed to persist event log: %w", err)
	}

	if err := evt.Apply(s.state); err != nil {
		return fmt.Errorf("failed to apply event to memory state: %w", err)
	}

	s.emitted = append(s.emitted, evt)
	return nil
}

// ApplyStatusEffects records the effects on the entity.
func (s *Session) ApplyStatusEffects(_ context.Context, entityID string, effects []engine.StatusEffectSpec) error {
	return s.ApplyAndAppend(&world.EffectsAppliedEvent{EntityID: entityID, Effects: effects})
}

// ApplyDamage records typed damage against the entity's hit points.
func (s *Session) ApplyDamage(_ context.Context, entityID string, amount int, category string) error {
	return s.ApplyAndAppend(&world.HPChangedEvent{EntityID: entityID, Amount: -amount, Category: category})
}

// Narrate records a narration line.
func (s *Session) Narrate(_ context.Context, entityID, text string) error {
	return s.ApplyAndAppend(&world.NarrationEvent{EntityID: entityID, Text: text})
}

// ensureEntity returns the tracked entity for name, loading its sheet and
// journaling it on first use.
func (s *Session) ensureEntity(name string) (*world.Entity, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errUsage
	}
	id := data.Slug(name)
	if ent, ok := s.state.Entities[id]; ok {
		return ent, nil
	}

	c, err := s.loader.LoadCharacter(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", name, err)
	}
	kind := c.Type
	if kind == "" {
		kind = world.KindCharacter
	}
	display := c.Name
	if display == "" {
		display = name
	}

	if err := s.ApplyAndAppend(&world.EntityAddedEvent{ID: id, Name: display, Kind: kind, Level: c.Level, MaxHP: c.HitPoints}); err != nil {
		return nil, err
	}
	return s.state.Entities[id], nil
}

func (s *Session) add(p ParsedInput) (string, error) {
	if _, ok := s.state.Entities[data.Slug(p.ActorID)]; ok {
		return fmt.Sprintf("%s is already in the session", p.ActorID), nil
	}
	_, err := s.ensureEntity(p.ActorID)
	return "", err
}

func (s *Session) limitFor(ent *world.Entity) (int, error) {
	if !ent.IsCharacter() {
		return s.settings.NonCharacterLimit, nil
	}
	return s.handler.Limit(ent.Level)
}

func (s *Session) consume(ctx context.Context, p ParsedInput) error {
	ent, err := s.ensureEntity(p.ActorID)
	if err != nil {
		return err
	}
	if !ent.IsCharacter() {
		return fmt.Errorf("%s: %w", ent.Name, ErrUntracked)
	}

	amount, hasAmount, err := p.Int("toxicity")
	if err != nil {
		return err
	}
	var label string
	switch itemName := p.Params["item"]; {
	case itemName != "":
		item, err := s.loader.LoadItem(itemName)
		if err != nil {
			return fmt.Errorf("failed to load item %s: %w", itemName, err)
		}
		ok, err := s.filter.Accepts(rules.BuildEvalContext(item, ent))
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%s: %w", item.Name, ErrNotConsumable)
		}
		amount, label = item.Toxicity, item.Name
	case !hasAmount:
		return errUsage
	}

	res, err := s.handler.OnConsume(ctx, engine.ConsumeEvent{
		EntityID: ent.ID,
		Name:     ent.Name,
		Level:    ent.Level,
		Toxicity: amount,
		Item:     label,
	})
	if res.Total == 0 {
		// nothing was committed
		return err
	}

	errs := []error{err}
	errs = append(errs, s.ApplyAndAppend(&world.ToxicityChangedEvent{EntityID: ent.ID, Previous: res.Previous, Total: res.Total, Limit: res.Limit}))
	if res.Overflow != nil {
		errs = append(errs, s.ApplyAndAppend(&world.OverflowResolvedEvent{EntityID: ent.ID, Outcome: *res.Overflow}))
		errs = append(errs, s.drawFlavor(ent.ID, res.Overflow.Roll))
	}
	return errors.Join(errs...)
}

// drawFlavor narrates the GM's roll table entry for an overflow roll. The
// table is presentational; a missing one is only logged.
func (s *Session) drawFlavor(entityID string, roll int) error {
	table, err := s.loader.LoadRollTable(s.settings.RollTable)
	if err != nil {
		s.logger.Printf("warning: roll table %q not found, check settings: %v", s.settings.RollTable, err)
		return nil
	}
	text, err := table.Draw(roll)
	if err != nil {
		s.logger.Printf("warning: %v", err)
		return nil
	}
	return s.ApplyAndAppend(&world.NarrationEvent{EntityID: entityID, Text: fmt.Sprintf("%s (%d): %s", table.Name, roll, text)})
}

func (s *Session) rest(ctx context.Context, p ParsedInput) error {
	ent, err := s.ensureEntity(p.ActorID)
	if err != nil {
		return err
	}

	var long bool
	switch strings.ToLower(p.Params["type"]) {
	case "", "long":
		long = true
	case "short":
	default:
		return errUsage
	}

	if err := s.ApplyAndAppend(&world.RestCompletedEvent{EntityID: ent.ID, Long: long}); err != nil {
		return err
	}
	if !long || !ent.IsCharacter() {
		return nil
	}

	previous, err := s.handler.Ledger().Get(ctx, ent.ID)
	if err != nil {
		return err
	}
	reset, err := s.handler.OnLongRestCompleted(ctx, engine.RestEvent{EntityID: ent.ID, Name: ent.Name})
	if !reset {
		return err
	}
	limit, limitErr := s.limitFor(ent)
	return errors.Join(err, limitErr,
		s.ApplyAndAppend(&world.ToxicityChangedEvent{EntityID: ent.ID, Previous: previous, Total: 0, Limit: limit}))
}

func (s *Session) set(ctx context.Context, p ParsedInput) error {
	ent, err := s.ensureEntity(p.ActorID)
	if err != nil {
		return err
	}
	if !ent.IsCharacter() {
		return fmt.Errorf("%s: %w", ent.Name, ErrUntracked)
	}
	value, ok, err := p.Int("value")
	if err != nil {
		return err
	}
	if !ok {
		return errUsage
	}

	ledger := s.handler.Ledger()
	previous, err := ledger.Get(ctx, ent.ID)
	if err != nil {
		return err
	}
	if err := ledger.Set(ctx, ent.ID, value); err != nil {
		return err
	}
	limit, err := s.limitFor(ent)
	if err != nil {
		return err
	}
	return s.ApplyAndAppend(&world.ToxicityChangedEvent{EntityID: ent.ID, Previous: previous, Total: value, Limit: limit})
}

func (s *Session) roll(p ParsedInput) error {
	dice := p.Params["dice"]
	if dice == "" {
		return errUsage
	}
	total, err := s.rng.Roll(dice)
	if err != nil {
		return err
	}
	who := p.ActorID
	if who == "" {
		who = "GM"
	}
	return s.ApplyAndAppend(&world.NarrationEvent{EntityID: data.Slug(who), Text: fmt.Sprintf("%s rolled %s: %d", who, dice, total)})
}

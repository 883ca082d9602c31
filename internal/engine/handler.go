package engine

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// EffectApplier applies status effects to an entity on the host.
type EffectApplier interface {
	ApplyStatusEffects(ctx context.Context, entityID string, effects []StatusEffectSpec) error
}

// DamageApplier applies rolled damage to an entity on the host.
type DamageApplier interface {
	ApplyDamage(ctx context.Context, entityID string, amount int, category string) error
}

// Narrator publishes a narration line about an entity (chat, journal, log).
type Narrator interface {
	Narrate(ctx context.Context, entityID, text string) error
}

// Host bundles the outbound ports. A nil field is a missing collaborator and
// fails only the operations that need it.
type Host struct {
	Effects  EffectApplier
	Damage   DamageApplier
	Narrator Narrator
}

// Config is the validated rules configuration handed to NewHandler.
type Config struct {
	Thresholds      ThresholdTable
	Severity        SeverityTable
	ResetOnLongRest bool
}

// ConsumeEvent is one consumption delivered by the host.
type ConsumeEvent struct {
	EntityID string
	Name     string // display name for narration, defaults to EntityID
	Level    int
	Toxicity int
	Item     string // item name for narration, optional
}

func (e ConsumeEvent) displayName() string { return displayName(e.Name, e.EntityID) }

// RestEvent is a completed long rest delivered by the host.
type RestEvent struct {
	EntityID string
	Name     string // display name for narration, defaults to EntityID
}

func displayName(name, entityID string) string {
	if strings.TrimSpace(name) != "" {
		return name
	}
	return entityID
}

// ConsumeResult reports what a consumption did.
type ConsumeResult struct {
	Previous int
	Total    int
	Limit    int
	Overflow *OverflowOutcome
}

// Handler is the inbound port: it orchestrates ledger, thresholds and the
// overflow engine for every consumption or rest event.
type Handler struct {
	ledger          *Ledger
	thresholds      ThresholdTable
	engine          *OverflowEngine
	rng             RandomSource
	host            Host
	resetOnLongRest bool
	logger          *log.Logger
}

// NewHandler validates the configuration once. A nil logger uses log.Default().
func NewHandler(ledger *Ledger, cfg Config, rng RandomSource, host Host, logger *log.Logger) (*Handler, error) {
	if ledger == nil {
		return nil, fmt.Errorf("ledger: %w", ErrMissingCollaborator)
	}
	if rng == nil {
		return nil, fmt.Errorf("random source: %w", ErrMissingCollaborator)
	}
	if cfg.Thresholds.Len() == 0 {
		return nil, fmt.Errorf("threshold table is empty: %w", ErrConfiguration)
	}
	engine, err := NewOverflowEngine(cfg.Severity)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}

	return &Handler{
		ledger:          ledger,
		thresholds:      cfg.Thresholds,
		engine:          engine,
		rng:             rng,
		host:            host,
		resetOnLongRest: cfg.ResetOnLongRest,
		logger:          logger,
	}, nil
}

// Ledger exposes the underlying ledger for direct reads and manual adjustments.
func (h *Handler) Ledger() *Ledger { return h.ledger }

// Limit returns the limit for a level under the configured table.
func (h *Handler) Limit(level int) (int, error) { return h.thresholds.Limit(level) }

// Status returns the entity's current toxicity and its limit at level.
func (h *Handler) Status(ctx context.Context, entityID string, level int) (current, limit int, err error) {
	limit, err = h.thresholds.Limit(level)
	if err != nil {
		return 0, 0, err
	}
	current, err = h.ledger.Get(ctx, entityID)
	if err != nil {
		return 0, 0, err
	}
	return current, limit, nil
}

// OnConsume handles one consumption. A zero toxicity is a no-op and a negative
// one is rejected before anything is touched. When the new total exceeds the
// limit the overflow is resolved, and the required host collaborators are
// checked, before the ledger write; effects are applied after it.
func (h *Handler) OnConsume(ctx context.Context, ev ConsumeEvent) (ConsumeResult, error) {
	if ev.Toxicity < 0 {
		return ConsumeResult{}, fmt.Errorf("toxicity %d consumed by %s: %w", ev.Toxicity, ev.EntityID, ErrInvalidAmount)
	}
	if ev.Toxicity == 0 {
		return ConsumeResult{}, nil
	}
	if h.host.Narrator == nil {
		return ConsumeResult{}, fmt.Errorf("narrator: %w", ErrMissingCollaborator)
	}

	limit, err := h.thresholds.Limit(ev.Level)
	if err != nil {
		return ConsumeResult{}, err
	}

	res := ConsumeResult{Limit: limit}
	total, err := h.ledger.Update(ctx, ev.EntityID, func(current int) (int, error) {
		res.Previous = current
		next := current + ev.Toxicity
		if next <= limit {
			return next, nil
		}

		outcome, err := h.engine.Resolve(next-limit, h.rng)
		if err != nil {
			return current, err
		}
		if err := h.requireCollaborators(outcome); err != nil {
			return current, err
		}
		res.Overflow = &outcome
		return next, nil
	})
	if err != nil {
		return ConsumeResult{}, err
	}
	res.Total = total

	consumed := "a potion"
	if ev.Item != "" {
		consumed = ev.Item
	}
	if err := h.host.Narrator.Narrate(ctx, ev.EntityID, fmt.Sprintf("%s consumed %s, increasing toxicity to %d.", ev.displayName(), consumed, total)); err != nil {
		return res, fmt.Errorf("failed to narrate consumption: %w", err)
	}

	if res.Overflow == nil {
		return res, nil
	}

	h.logger.Printf("toxicity overflow: entity=%s total=%d limit=%d excess=%d roll=%d tier=%q",
		ev.EntityID, total, limit, res.Overflow.Excess, res.Overflow.Roll, res.Overflow.Tier.Label)

	if err := h.apply(ctx, ev.EntityID, *res.Overflow); err != nil {
		return res, err
	}
	return res, nil
}

func (h *Handler) requireCollaborators(o OverflowOutcome) error {
	if len(o.Effects) > 0 && h.host.Effects == nil {
		return fmt.Errorf("status effect applier for tier %q: %w", o.Tier.Label, ErrMissingCollaborator)
	}
	if o.HasDamage() && h.host.Damage == nil {
		return fmt.Errorf("damage applier for tier %q: %w", o.Tier.Label, ErrMissingCollaborator)
	}
	return nil
}

// apply hands an already-resolved outcome to the host. Nothing is rolled back
// if a later call fails.
func (h *Handler) apply(ctx context.Context, entityID string, o OverflowOutcome) error {
	n := h.host.Narrator

	if err := n.Narrate(ctx, entityID, fmt.Sprintf("Toxicity Overflow Check: %s + %d = %d", OverflowDie, o.Excess, o.Roll)); err != nil {
		return fmt.Errorf("failed to narrate overflow roll: %w", err)
	}

	if len(o.Effects) > 0 {
		if err := h.host.Effects.ApplyStatusEffects(ctx, entityID, o.Effects); err != nil {
			return fmt.Errorf("failed to apply %s effects: %w", o.Tier.Label, err)
		}
	}

	if o.HasDamage() {
		if err := n.Narrate(ctx, entityID, fmt.Sprintf("Poison Damage from Toxicity: %s = %d", o.Tier.Damage.Dice, o.Damage)); err != nil {
			return fmt.Errorf("failed to narrate damage roll: %w", err)
		}
		if err := h.host.Damage.ApplyDamage(ctx, entityID, o.Damage, o.Tier.Damage.Category); err != nil {
			return fmt.Errorf("failed to apply %s damage: %w", o.Tier.Label, err)
		}
	}

	summary := fmt.Sprintf("Toxicity Overflow! Result (%d): %s. %s", o.Roll, o.Tier.Label, o.Tier.Description)
	if err := n.Narrate(ctx, entityID, summary); err != nil {
		return fmt.Errorf("failed to narrate overflow: %w", err)
	}
	return nil
}

// OnLongRestCompleted resets the entity's toxicity when the configuration
// enables it. It reports whether a reset happened.
func (h *Handler) OnLongRestCompleted(ctx context.Context, ev RestEvent) (bool, error) {
	if !h.resetOnLongRest {
		return false, nil
	}
	if h.host.Narrator == nil {
		return false, fmt.Errorf("narrator: %w", ErrMissingCollaborator)
	}

	if err := h.ledger.Reset(ctx, ev.EntityID); err != nil {
		return false, err
	}
	msg := fmt.Sprintf("%s's toxicity has been reset after a long rest.", displayName(ev.Name, ev.EntityID))
	if err := h.host.Narrator.Narrate(ctx, ev.EntityID, msg); err != nil {
		return true, fmt.Errorf("failed to narrate rest: %w", err)
	}
	return true, nil
}

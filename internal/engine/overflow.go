package engine

import (
	"fmt"
	"strings"

	"github.com/gearstra/vtt-potion-toxicity-5e/internal/parser"
)

// DurationKind says how a status effect expires.
type DurationKind string

const (
	DurationIndefinite DurationKind = "indefinite"
	DurationRounds     DurationKind = "rounds"
	DurationSeconds    DurationKind = "seconds"
)

// Duration is a round count, a second count, or indefinite.
type Duration struct {
	Kind  DurationKind `json:"kind" yaml:"kind"`
	Value int          `json:"value,omitempty" yaml:"value,omitempty"`
}

func Rounds(n int) Duration  { return Duration{Kind: DurationRounds, Value: n} }
func Seconds(n int) Duration { return Duration{Kind: DurationSeconds, Value: n} }
func Indefinite() Duration   { return Duration{Kind: DurationIndefinite} }

// IsIndefinite reports whether the effect never expires on its own.
func (d Duration) IsIndefinite() bool { return d.Kind == DurationIndefinite || d.Kind == "" }

func (d Duration) String() string {
	switch d.Kind {
	case DurationRounds:
		if d.Value == 1 {
			return "1 round"
		}
		return fmt.Sprintf("%d rounds", d.Value)
	case DurationSeconds:
		if d.Value%3600 == 0 {
			if d.Value == 3600 {
				return "1 hour"
			}
			return fmt.Sprintf("%d hours", d.Value/3600)
		}
		return fmt.Sprintf("%d seconds", d.Value)
	}
	return "indefinite"
}

// AttributeChange adds Delta to a host attribute while the effect lasts.
type AttributeChange struct {
	Key   string `json:"key" yaml:"key"`
	Delta int    `json:"delta" yaml:"delta"`
}

// StatusEffectSpec describes one timed condition the host should apply.
type StatusEffectSpec struct {
	Label    string            `json:"label" yaml:"label"`
	Icon     string            `json:"icon" yaml:"icon"`
	Statuses []string          `json:"statuses,omitempty" yaml:"statuses,omitempty"`
	Changes  []AttributeChange `json:"changes,omitempty" yaml:"changes,omitempty"`
	Duration Duration          `json:"duration" yaml:"duration"`
}

// DamageSpec is a damage roll and its category, e.g. 3d6 poison.
type DamageSpec struct {
	Dice     string `json:"dice" yaml:"dice"`
	Category string `json:"category" yaml:"category"`
}

// SeverityTier is one inclusive bracket [Low, High] of overflow roll totals.
// The last tier of a table is Unbounded and ignores High.
type SeverityTier struct {
	Low         int                `json:"low" yaml:"low"`
	High        int                `json:"high" yaml:"high"`
	Unbounded   bool               `json:"unbounded,omitempty" yaml:"unbounded,omitempty"`
	Label       string             `json:"label" yaml:"label"`
	Description string             `json:"description" yaml:"description"`
	Effects     []StatusEffectSpec `json:"effects,omitempty" yaml:"effects,omitempty"`
	Damage      *DamageSpec        `json:"damage,omitempty" yaml:"damage,omitempty"`
}

// Contains reports whether roll falls inside the tier.
func (t SeverityTier) Contains(roll int) bool {
	if roll < t.Low {
		return false
	}
	return t.Unbounded || roll <= t.High
}

// Range renders the bracket as "5-7", "4" or "12+".
func (t SeverityTier) Range() string {
	switch {
	case t.Unbounded:
		return fmt.Sprintf("%d+", t.Low)
	case t.Low == t.High:
		return fmt.Sprintf("%d", t.Low)
	}
	return fmt.Sprintf("%d-%d", t.Low, t.High)
}

// SeverityTable is the ordered list of tiers.
type SeverityTable []SeverityTier

// Validate checks the tiers partition the positive integers: the first starts
// at 1, each next one starts right after the previous, only the last is
// unbounded. Labels are unique and the most damage a tier can deal never
// falls below the previous tier's.
func (t SeverityTable) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("severity table is empty: %w", ErrConfiguration)
	}
	if t[0].Low != 1 {
		return fmt.Errorf("first severity tier must start at 1, got %d: %w", t[0].Low, ErrConfiguration)
	}

	last := len(t) - 1
	labels := make(map[string]bool, len(t))
	prevDamage := 0
	for i, tier := range t {
		if strings.TrimSpace(tier.Label) == "" {
			return fmt.Errorf("severity tier %d has no label: %w", i, ErrConfiguration)
		}
		if labels[tier.Label] {
			return fmt.Errorf("severity tier label %q is used twice: %w", tier.Label, ErrConfiguration)
		}
		labels[tier.Label] = true
		if tier.Unbounded != (i == last) {
			return fmt.Errorf("only the last severity tier may be unbounded (tier %q): %w", tier.Label, ErrConfiguration)
		}
		if !tier.Unbounded && tier.High < tier.Low {
			return fmt.Errorf("severity tier %q has high %d below low %d: %w", tier.Label, tier.High, tier.Low, ErrConfiguration)
		}
		if i > 0 && tier.Low != t[i-1].High+1 {
			return fmt.Errorf("severity tier %q starts at %d, expected %d: %w", tier.Label, tier.Low, t[i-1].High+1, ErrConfiguration)
		}
		if tier.Damage != nil && strings.TrimSpace(tier.Damage.Dice) == "" {
			return fmt.Errorf("severity tier %q has damage without dice: %w", tier.Label, ErrConfiguration)
		}

		damage, err := tier.maxDamage()
		if err != nil {
			return fmt.Errorf("severity tier %q has invalid damage dice: %v: %w", tier.Label, err, ErrConfiguration)
		}
		if damage < prevDamage {
			return fmt.Errorf("severity tier %q deals at most %d damage, less than the %d before it: %w", tier.Label, damage, prevDamage, ErrConfiguration)
		}
		prevDamage = damage
	}
	return nil
}

// maxDamage is the highest total the tier's damage dice can roll, 0 without damage.
func (t SeverityTier) maxDamage() (int, error) {
	if t.Damage == nil {
		return 0, nil
	}
	formula, err := parser.ParseFormula(t.Damage.Dice)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, term := range formula.Terms() {
		sign := 1
		if term.Op == "-" {
			sign = -1
		}
		if term.Term.Flat != nil {
			total += sign * *term.Term.Flat
			continue
		}
		spec, err := term.Term.Dice.Spec()
		if err != nil {
			return 0, err
		}
		if sign > 0 {
			total += spec.Keep * spec.Sides
		} else {
			total -= spec.Keep
		}
	}
	return total, nil
}

// Match returns the single tier containing roll.
func (t SeverityTable) Match(roll int) (SeverityTier, error) {
	for _, tier := range t {
		if tier.Contains(roll) {
			return tier, nil
		}
	}
	return SeverityTier{}, fmt.Errorf("no severity tier matches roll %d: %w", roll, ErrConfiguration)
}

const (
	iconPoison      = "icons/svg/poison.svg"
	iconParalysis   = "icons/svg/paralysis.svg"
	iconUnconscious = "icons/svg/unconscious.svg"
	iconProne       = "icons/svg/falling.svg"
)

func poisoned(d Duration) StatusEffectSpec {
	return StatusEffectSpec{Label: "Poisoned", Icon: iconPoison, Statuses: []string{"poisoned"}, Duration: d}
}

// DefaultSeverityTable is the stock overflow table.
func DefaultSeverityTable() SeverityTable {
	return SeverityTable{
		{
			Low: 1, High: 3,
			Label:       "Minor Discomfort",
			Description: "Minor discomfort, no mechanical effect",
		},
		{
			Low: 4, High: 4,
			Label:       "Mild Impairment",
			Description: "-1 to ability checks and attack rolls for 1 hour",
			Effects: []StatusEffectSpec{{
				Label: "Mild Impairment",
				Icon:  iconPoison,
				Changes: []AttributeChange{
					{Key: "bonuses.abilities.check", Delta: -1},
					{Key: "bonuses.weapon.attack", Delta: -1},
				},
				Duration: Seconds(3600),
			}},
		},
		{
			Low: 5, High: 7,
			Label:       "Moderate Poisoning",
			Description: "Poisoned condition + 1d6 poison damage",
			Effects:     []StatusEffectSpec{poisoned(Rounds(1))},
			Damage:      &DamageSpec{Dice: "1d6", Category: "poison"},
		},
		{
			Low: 8, High: 9,
			Label:       "Severe Reaction",
			Description: "Incapacitated for 1 round + 2d6 poison damage + poisoned",
			Effects: []StatusEffectSpec{
				{Label: "Incapacitated", Icon: iconParalysis, Statuses: []string{"incapacitated"}, Duration: Rounds(1)},
				poisoned(Rounds(1)),
			},
			Damage: &DamageSpec{Dice: "2d6", Category: "poison"},
		},
		{
			Low: 10, High: 11,
			Label:       "Critical Impairment",
			Description: "Unconscious + prone + poisoned for 1 round + 3d6 poison damage",
			Effects: []StatusEffectSpec{
				{Label: "Unconscious", Icon: iconUnconscious, Statuses: []string{"unconscious"}, Duration: Rounds(1)},
				{Label: "Prone", Icon: iconProne, Statuses: []string{"prone"}, Duration: Rounds(1)},
				poisoned(Rounds(1)),
			},
			Damage: &DamageSpec{Dice: "3d6", Category: "poison"},
		},
		{
			Low: 12, Unbounded: true,
			Label:       "Catastrophic Overdose",
			Description: "Comatose (unconscious) + poisoned + 3d6 poison damage",
			Effects: []StatusEffectSpec{
				{Label: "Comatose", Icon: iconUnconscious, Statuses: []string{"unconscious"}, Duration: Indefinite()},
				poisoned(Indefinite()),
			},
			Damage: &DamageSpec{Dice: "3d6", Category: "poison"},
		},
	}
}

// OverflowDie is the die rolled for every overflow check.
const OverflowDie = "1d10"

// OverflowOutcome is the resolved consequence of one overflow.
type OverflowOutcome struct {
	Tier    SeverityTier       `json:"tier"`
	Excess  int                `json:"excess"`
	Die     int                `json:"die"`
	Roll    int                `json:"roll"`
	Damage  int                `json:"damage"`
	Effects []StatusEffectSpec `json:"effects,omitempty"`
}

// HasDamage reports whether the tier carries a damage roll.
func (o OverflowOutcome) HasDamage() bool { return o.Tier.Damage != nil }

// DamageCategory returns the tier's damage category, or "" when there is none.
func (o OverflowOutcome) DamageCategory() string {
	if o.Tier.Damage == nil {
		return ""
	}
	return o.Tier.Damage.Category
}

// OverflowEngine maps an excess to a severity outcome. It keeps no state
// between calls; the table is read-only after construction.
type OverflowEngine struct {
	table SeverityTable
}

// NewOverflowEngine validates the table once.
func NewOverflowEngine(table SeverityTable) (*OverflowEngine, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return &OverflowEngine{table: table}, nil
}

// Table returns the engine's tiers.
func (e *OverflowEngine) Table() SeverityTable { return e.table }

// Resolve rolls 1d10 + excess, selects the tier, and draws its damage dice
// with a second roll. The outcome is built completely in memory; nothing is
// applied. Failures are never retried.
func (e *OverflowEngine) Resolve(excess int, rng RandomSource) (OverflowOutcome, error) {
	if excess < 0 {
		return OverflowOutcome{}, fmt.Errorf("overflow excess %d: %w", excess, ErrInvalidAmount)
	}
	if rng == nil {
		return OverflowOutcome{}, fmt.Errorf("random source: %w", ErrMissingCollaborator)
	}

	die, err := rng.Roll(OverflowDie)
	if err != nil {
		return OverflowOutcome{}, fmt.Errorf("failed to roll overflow check: %w", err)
	}
	if die < 1 || die > 10 {
		return OverflowOutcome{}, fmt.Errorf("random source returned %d for %s: %w", die, OverflowDie, ErrConfiguration)
	}

	roll := die + excess
	tier, err := e.table.Match(roll)
	if err != nil {
		return OverflowOutcome{}, err
	}

	out := OverflowOutcome{
		Tier:    tier,
		Excess:  excess,
		Die:     die,
		Roll:    roll,
		Effects: copyEffects(tier.Effects),
	}

	if tier.Damage != nil {
		dmg, err := rng.Roll(tier.Damage.Dice)
		if err != nil {
			return OverflowOutcome{}, fmt.Errorf("failed to roll %s damage: %w", tier.Label, err)
		}
		if dmg < 0 {
			dmg = 0
		}
		out.Damage = dmg
	}

	return out, nil
}

func copyEffects(in []StatusEffectSpec) []StatusEffectSpec {
	if len(in) == 0 {
		return nil
	}
	out := make([]StatusEffectSpec, len(in))
	for i, eff := range in {
		eff.Statuses = append([]string(nil), eff.Statuses...)
		eff.Changes = append([]AttributeChange(nil), eff.Changes...)
		out[i] = eff
	}
	return out
}

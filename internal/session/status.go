package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/gearstra/vtt-potion-toxicity-5e/internal/world"
)

// StatusReport is the "current / limit" readout for one entity.
type StatusReport struct {
	EntityID       string
	Name           string
	Tracked        bool
	Toxicity       int
	Limit          int
	HP             int
	MaxHP          int
	Conditions     []string
	CheckModifier  int
	AttackModifier int
	Disadvantage   bool // disadvantage on ability checks from a condition
	Incapacitated  bool
}

// OverLimit reports whether the entity sits above its limit.
func (r StatusReport) OverLimit() bool { return r.Toxicity > r.Limit }

func (r StatusReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: toxicity %d / %d", r.Name, r.Toxicity, r.Limit)
	if !r.Tracked {
		b.WriteString(" (untracked)")
	}
	fmt.Fprintf(&b, " | HP %d/%d", r.HP, r.MaxHP)
	if len(r.Conditions) > 0 {
		fmt.Fprintf(&b, " | %s", strings.Join(r.Conditions, ", "))
	}
	if r.CheckModifier != 0 || r.AttackModifier != 0 {
		fmt.Fprintf(&b, " | checks %+d, attacks %+d", r.CheckModifier, r.AttackModifier)
	}
	if r.Disadvantage {
		b.WriteString(" | disadvantage on checks")
	}
	if r.Incapacitated {
		b.WriteString(" | incapacitated")
	}
	return b.String()
}

func (s *Session) status(ctx context.Context, name string) (StatusReport, error) {
	ent, err := s.ensureEntity(name)
	if err != nil {
		return StatusReport{}, err
	}
	limit, err := s.limitFor(ent)
	if err != nil {
		return StatusReport{}, err
	}

	rep := StatusReport{
		EntityID:       ent.ID,
		Name:           ent.Name,
		Tracked:        ent.IsCharacter(),
		Limit:          limit,
		HP:             ent.HP(),
		MaxHP:          ent.Resources["hp"],
		Conditions:     append([]string(nil), ent.Conditions...),
		CheckModifier:  world.Modifier(ent, "bonuses.abilities.check"),
		AttackModifier: world.Modifier(ent, "bonuses.weapon.attack"),
		Disadvantage:   world.HasDisadvantageOnChecks(ent),
		Incapacitated:  world.IsIncapacitated(ent),
	}
	if rep.Tracked {
		rep.Toxicity, err = s.handler.Ledger().Get(ctx, ent.ID)
		if err != nil {
			return StatusReport{}, err
		}
	}
	return rep, nil
}

package world

// IsIncapacitated checks if an entity is unable to take actions or reactions
func IsIncapacitated(ent *Entity) bool {
	for _, c := range ent.Conditions {
		switch c {
		case "incapacitated", "paralyzed", "petrified", "stunned", "unconscious":
			return true
		}
	}
	return false
}

// HasDisadvantageOnChecks reports whether a condition imposes disadvantage on ability checks.
func HasDisadvantageOnChecks(ent *Entity) bool {
	for _, c := range ent.Conditions {
		switch c {
		case "poisoned", "frightened", "exhaustion":
			return true
		}
	}
	return false
}

// Modifier sums the deltas all active effects apply to an attribute key,
// e.g. "bonuses.abilities.check".
func Modifier(ent *Entity, key string) int {
	total := 0
	for _, eff := range ent.Effects {
		for _, ch := range eff.Changes {
			if ch.Key == key {
				total += ch.Delta
			}
		}
	}
	return total
}

package data

import "fmt"

// Character is a creature sheet loaded via YAML. Type is "character" for
// player characters; anything else ("npc", "monster") is untracked.
type Character struct {
	Index     string `yaml:"index"`
	Name      string `yaml:"name"`
	Type      string `yaml:"type"`
	Level     int    `yaml:"level"`
	HitPoints int    `yaml:"hit_points"`
}

// Item is an inventory item. Toxicity is the amount a consumption adds.
type Item struct {
	Index          string `yaml:"index"`
	Name           string `yaml:"name"`
	Type           string `yaml:"type"`
	ConsumableType string `yaml:"consumable_type"`
	Toxicity       int    `yaml:"toxicity"`
}

// Fields exposes the item to CEL expressions under its YAML names.
func (i *Item) Fields() map[string]any {
	return map[string]any{
		"index":           i.Index,
		"name":            i.Name,
		"type":            i.Type,
		"consumable_type": i.ConsumableType,
		"toxicity":        int64(i.Toxicity),
	}
}

// TableResult maps an inclusive roll range to flavor text.
type TableResult struct {
	Range [2]int `yaml:"range"`
	Text  string `yaml:"text"`
}

// RollTable is a GM-authored flavor table drawn with the overflow roll.
type RollTable struct {
	Name    string        `yaml:"name"`
	Formula string        `yaml:"formula"`
	Results []TableResult `yaml:"results"`
}

// Draw returns the text of the first result containing roll. Rolls past the
// last range take the highest result, as overflow totals are open-ended.
func (t *RollTable) Draw(roll int) (string, error) {
	if len(t.Results) == 0 {
		return "", fmt.Errorf("roll table %q has no results", t.Name)
	}
	best := t.Results[0]
	for _, r := range t.Results {
		if roll >= r.Range[0] && roll <= r.Range[1] {
			return r.Text, nil
		}
		if r.Range[1] > best.Range[1] {
			best = r
		}
	}
	if roll > best.Range[1] {
		return best.Text, nil
	}
	return "", fmt.Errorf("roll %d matches no result in table %q", roll, t.Name)
}

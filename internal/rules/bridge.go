package rules

import (
	"github.com/gearstra/vtt-potion-toxicity-5e/internal/data"
	"github.com/gearstra/vtt-potion-toxicity-5e/internal/world"
)

// ContextFromEntity converts a world.Entity into a map suitable for CEL evaluation.
func ContextFromEntity(e *world.Entity) map[string]any {
	if e == nil {
		return map[string]any{}
	}
	return map[string]any{
		"id":         e.ID,
		"name":       e.Name,
		"kind":       e.Kind,
		"level":      int64(e.Level),
		"hp":         int64(e.HP()),
		"conditions": e.Conditions,
	}
}

// BuildEvalContext binds the item and actor variables.
func BuildEvalContext(item *data.Item, actor *world.Entity) map[string]any {
	res := map[string]any{
		"item":  map[string]any{},
		"actor": ContextFromEntity(actor),
	}
	if item != nil {
		res["item"] = item.Fields()
	}
	return res
}

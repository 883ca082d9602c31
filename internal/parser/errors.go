package parser

import (
	"fmt"
	"strings"
)

// MapFormulaError turns a participle failure into a short message naming the bad formula.
func MapFormulaError(raw string, err error) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("dice formula cannot be empty")
	}
	return fmt.Errorf("invalid dice formula %q (expected e.g. 1d10 + 3): %w", raw, err)
}

// MapError takes a raw command input and returns a human-friendly usage message.
func MapError(input string) error {
	input = strings.TrimSpace(input)
	if input == "" {
		return fmt.Errorf("I wasn't able to understand your command")
	}

	cmd := strings.Fields(strings.ToLower(input))[0]

	switch cmd {
	case "consume":
		return fmt.Errorf("The command consume must be: consume by: <actor> (item: <item> | toxicity: <n>)")
	case "rest":
		return fmt.Errorf("The command rest must be: rest by: <actor> [type: long|short]")
	case "status":
		return fmt.Errorf("The command status must be: status by: <actor>")
	case "set":
		return fmt.Errorf("The command set must be: set by: <actor> value: <n>")
	case "roll":
		return fmt.Errorf("The command roll must be: roll [by: <actor>] dice: <formula>")
	}

	return fmt.Errorf("I wasn't able to understand your command")
}

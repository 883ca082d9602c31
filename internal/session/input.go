package session

import (
	"fmt"
	"strconv"
	"strings"
)

// ParsedInput represents the structured result of parsing a raw command string.
// The DSL format is:
//
//	<command> [by: <actor>] [<key>: <value>]*
//
// Multi-word commands are joined with underscores and multi-word values with
// single spaces, so "item: Potion of Healing" keeps the full item name.
type ParsedInput struct {
	Command string
	ActorID string
	Params  map[string]string
}

// ParseInput parses a raw command string into a structured ParsedInput.
//
// Examples:
//
//	"consume by: Elara item: Potion of Healing" → Command="consume", ActorID="Elara", Params={"item":"Potion of Healing"}
//	"consume by: Elara toxicity: 3" → Params={"toxicity":"3"}
//	"rest by: Elara type: short" → Command="rest", Params={"type":"short"}
func ParseInput(input string) ParsedInput {
	result := ParsedInput{
		Params: make(map[string]string),
	}

	tokens := strings.Fields(input)
	if len(tokens) == 0 {
		return result
	}

	// Command words are everything before the first "key:" token.
	var cmdParts []string
	i := 0
	for i < len(tokens) && !strings.HasSuffix(tokens[i], ":") {
		cmdParts = append(cmdParts, tokens[i])
		i++
	}
	result.Command = strings.ToLower(strings.Join(cmdParts, "_"))

	var currentKey string
	var currentValues []string

	flushKey := func() {
		if currentKey == "" {
			return
		}
		value := strings.Join(currentValues, " ")
		if currentKey == "by" {
			result.ActorID = value
		} else {
			result.Params[currentKey] = value
		}
		currentKey = ""
		currentValues = nil
	}

	for ; i < len(tokens); i++ {
		token := tokens[i]
		if strings.HasSuffix(token, ":") {
			flushKey()
			currentKey = strings.ToLower(strings.TrimSuffix(token, ":"))
			continue
		}
		currentValues = append(currentValues, token)
	}
	flushKey()

	return result
}

// Int reads an integer parameter. ok is false when the key is absent.
func (p ParsedInput) Int(key string) (n int, ok bool, err error) {
	raw, present := p.Params[key]
	if !present || raw == "" {
		return 0, false, nil
	}
	n, err = strconv.Atoi(raw)
	if err != nil {
		return 0, true, fmt.Errorf("%s must be a whole number, got %q", key, raw)
	}
	return n, true, nil
}

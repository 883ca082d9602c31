package parser

import (
	"fmt"
	"strconv"
	"strings"
)

// Formula is a sum of dice and flat terms, e.g. "1d10 + 3".
type Formula struct {
	First *Term        `parser:"@@"`
	Rest  []*SignedTerm `parser:"@@*"`
}

// SignedTerm is a term preceded by + or -.
type SignedTerm struct {
	Op   string `parser:"@Op"`
	Term *Term  `parser:"@@"`
}

// Term is either a dice expression or a flat integer.
type Term struct {
	Dice *DiceExpr `parser:"  @@"`
	Flat *int      `parser:"| @Int"`
}

// DiceExpr represents an RPG-style dice roll: [N]dS[kh|klZ]
type DiceExpr struct {
	Raw string `parser:"@DiceMacro"`
}

// DiceSpec is the decoded form of a DiceExpr.
type DiceSpec struct {
	Count   int
	Sides   int
	Keep    int
	Highest bool
}

// Spec decodes the raw macro into count, sides and keep rules.
// A missing count means one die; a missing keep rule keeps every die.
func (d *DiceExpr) Spec() (DiceSpec, error) {
	raw := strings.ToLower(d.Raw)
	countStr, rest, ok := strings.Cut(raw, "d")
	if !ok {
		return DiceSpec{}, fmt.Errorf("invalid dice expression: %s", d.Raw)
	}

	spec := DiceSpec{Count: 1, Highest: true}
	if countStr != "" {
		n, err := strconv.Atoi(countStr)
		if err != nil {
			return DiceSpec{}, fmt.Errorf("invalid dice count in %s: %w", d.Raw, err)
		}
		spec.Count = n
	}

	sidesStr, keepStr, hasKeep := strings.Cut(rest, "k")
	sides, err := strconv.Atoi(sidesStr)
	if err != nil {
		return DiceSpec{}, fmt.Errorf("invalid dice sides in %s: %w", d.Raw, err)
	}
	spec.Sides = sides
	spec.Keep = spec.Count

	if hasKeep {
		// keepStr is "h3" or "l1"
		spec.Highest = keepStr[0] == 'h'
		keep, err := strconv.Atoi(keepStr[1:])
		if err != nil {
			return DiceSpec{}, fmt.Errorf("invalid keep count in %s: %w", d.Raw, err)
		}
		spec.Keep = keep
	}

	if spec.Count <= 0 || spec.Sides <= 0 {
		return DiceSpec{}, fmt.Errorf("cannot roll %s: count and sides must be positive", d.Raw)
	}
	if spec.Keep > spec.Count {
		spec.Keep = spec.Count
	}
	return spec, nil
}

// Terms flattens the formula into signed terms, the first one always positive.
func (f *Formula) Terms() []SignedTerm {
	terms := []SignedTerm{{Op: "+", Term: f.First}}
	for _, t := range f.Rest {
		terms = append(terms, *t)
	}
	return terms
}

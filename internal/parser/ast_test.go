package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormula(t *testing.T) {
	tests := []struct {
		name  string
		input string
		terms int
	}{
		{"single die", "1d10", 1},
		{"implicit count", "d6", 1},
		{"dice plus flat", "1d10 + 3", 2},
		{"no spaces", "2d6+1", 2},
		{"minus", "3d6 - 2", 2},
		{"keep highest", "4d6kh3", 1},
		{"several dice", "1d6 + 1d4 + 2", 3},
		{"flat only", "7", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ParseFormula(tt.input)
			require.NoError(t, err)
			assert.Len(t, f.Terms(), tt.terms)
		})
	}
}

func TestParseFormulaErrors(t *testing.T) {
	for _, input := range []string{"", "abc", "1d10 +", "+ 3"} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseFormula(input)
			assert.Error(t, err)
		})
	}
}

func TestDiceSpec(t *testing.T) {
	tests := []struct {
		raw  string
		want DiceSpec
	}{
		{"1d10", DiceSpec{Count: 1, Sides: 10, Keep: 1, Highest: true}},
		{"d6", DiceSpec{Count: 1, Sides: 6, Keep: 1, Highest: true}},
		{"3D6", DiceSpec{Count: 3, Sides: 6, Keep: 3, Highest: true}},
		{"4d6kh3", DiceSpec{Count: 4, Sides: 6, Keep: 3, Highest: true}},
		{"2d20kl1", DiceSpec{Count: 2, Sides: 20, Keep: 1, Highest: false}},
		{"2d6kh5", DiceSpec{Count: 2, Sides: 6, Keep: 2, Highest: true}},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := (&DiceExpr{Raw: tt.raw}).Spec()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDiceSpecRejectsZeroSides(t *testing.T) {
	_, err := (&DiceExpr{Raw: "2d0"}).Spec()
	assert.Error(t, err)
}

func TestMapError(t *testing.T) {
	assert.Contains(t, MapError("consume by: elara").Error(), "consume by:")
	assert.Contains(t, MapError("dance").Error(), "wasn't able")
	assert.Contains(t, MapError("  ").Error(), "wasn't able")
}

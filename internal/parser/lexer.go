package parser

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Lexer tokenizes dice formulas such as "1d10 + 3" or "4d6kh3-1".
var Lexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "DiceMacro", Pattern: `\d*[dD]\d+(?:[kK][hHlL]\d+)?`},
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Op", Pattern: `[-+]`},
	{Name: "Whitespace", Pattern: `[ \t]+`},
})

var formulaParser = Build()

// Build creates the formula parser based on the struct tags in `ast.go`
func Build() *participle.Parser[Formula] {
	return participle.MustBuild[Formula](
		participle.Lexer(Lexer),
		participle.Elide("Whitespace"),
	)
}

// ParseFormula parses a raw dice formula into its terms.
func ParseFormula(raw string) (*Formula, error) {
	f, err := formulaParser.ParseString("", raw)
	if err != nil {
		return nil, MapFormulaError(raw, err)
	}
	return f, nil
}

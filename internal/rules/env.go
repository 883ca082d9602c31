// Package rules evaluates GM-authored CEL expressions against items and actors.
package rules

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// Registry manages the CEL environment and provides helper methods for evaluation.
type Registry struct {
	env *cel.Env
}

// NewRegistry initializes the CEL environment with the item and actor
// variables and a roll function backed by rollFunc.
func NewRegistry(rollFunc func(string) int) (*Registry, error) {
	if rollFunc == nil {
		rollFunc = func(string) int { return 0 }
	}
	env, err := cel.NewEnv(
		cel.Variable("item", cel.MapType(cel.StringType, cel.AnyType)),
		cel.Variable("actor", cel.MapType(cel.StringType, cel.AnyType)),

		cel.Function("roll",
			cel.Overload("roll_string",
				[]*cel.Type{cel.StringType},
				cel.IntType,
				cel.UnaryBinding(func(arg ref.Val) ref.Val {
					s := arg.Value().(string)
					return types.Int(rollFunc(s))
				}),
			),
		),
	)
	if err != nil {
		return nil, err
	}
	return &Registry{env: env}, nil
}

// compile type-checks an expression and builds its program.
func (r *Registry) compile(expression string) (*cel.Ast, cel.Program, error) {
	ast, iss := r.env.Compile(expression)
	if iss.Err() != nil {
		return nil, nil, iss.Err()
	}
	prog, err := r.env.Program(ast)
	if err != nil {
		return nil, nil, err
	}
	return ast, prog, nil
}

// Filter is a compiled boolean expression over item and actor.
type Filter struct {
	expr string
	prog cel.Program
}

// NewFilter compiles expr and rejects it unless it yields a bool.
func (r *Registry) NewFilter(expr string) (*Filter, error) {
	ast, prog, err := r.compile(expr)
	if err != nil {
		return nil, fmt.Errorf("failed to compile filter %q: %w", expr, err)
	}
	if out := ast.OutputType(); !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("filter %q must be boolean, got %s", expr, out)
	}
	return &Filter{expr: expr, prog: prog}, nil
}

// Accepts evaluates the filter for one context built by BuildEvalContext.
func (f *Filter) Accepts(context map[string]any) (bool, error) {
	out, _, err := f.prog.Eval(context)
	if err != nil {
		return false, fmt.Errorf("failed to evaluate filter %q: %w", f.expr, err)
	}
	ok, isBool := out.Value().(bool)
	if !isBool {
		return false, fmt.Errorf("filter %q returned %T, expected bool", f.expr, out.Value())
	}
	return ok, nil
}

func (f *Filter) String() string { return f.expr }

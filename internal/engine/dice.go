package engine

import (
	"crypto/rand"
	"fmt"
	"math/big"
	mrand "math/rand"
	"sort"
	"sync"

	"github.com/gearstra/vtt-potion-toxicity-5e/internal/parser"
)

// RandomSource evaluates a dice expression (e.g. "1d10", "3d6") and returns the total.
// It is injected everywhere a roll happens so outcomes can be replayed in tests.
type RandomSource interface {
	Roll(expr string) (int, error)
}

// RollResult contains the finalized answer alongside the raw rolls used
type RollResult struct {
	Expression string
	Total      int
	RawRolls   []int
	Kept       []int
	Dropped    []int
	Modifier   int
}

// Roller is the production RandomSource. It is safe for concurrent use.
type Roller struct {
	mu   sync.Mutex
	intn func(max int) int
}

// NewRoller returns a Roller backed by crypto/rand.
func NewRoller() *Roller {
	return &Roller{intn: safeRand}
}

// NewSeededRoller returns a Roller whose sequence is fully determined by seed.
func NewSeededRoller(seed int64) *Roller {
	rng := mrand.New(mrand.NewSource(seed))
	return &Roller{intn: func(max int) int { return rng.Intn(max) + 1 }}
}

// safeRand fetches a strongly uniform random integer in [1, max] via crypto/rand
func safeRand(max int) int {
	if max <= 0 {
		return 0
	}
	n, _ := rand.Int(rand.Reader, big.NewInt(int64(max)))
	return int(n.Int64()) + 1
}

// Roll implements RandomSource.
func (r *Roller) Roll(expr string) (int, error) {
	res, err := r.Evaluate(expr)
	if err != nil {
		return 0, err
	}
	return res.Total, nil
}

// Evaluate parses a dice formula and rolls every term, keeping the audit trail.
func (r *Roller) Evaluate(expr string) (RollResult, error) {
	formula, err := parser.ParseFormula(expr)
	if err != nil {
		return RollResult{}, err
	}

	res := RollResult{Expression: expr}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, term := range formula.Terms() {
		sign := 1
		if term.Op == "-" {
			sign = -1
		}

		if term.Term.Flat != nil {
			res.Modifier += sign * *term.Term.Flat
			continue
		}

		spec, err := term.Term.Dice.Spec()
		if err != nil {
			return RollResult{}, err
		}

		rolls := make([]int, spec.Count)
		for i := range rolls {
			rolls[i] = r.intn(spec.Sides)
		}
		res.RawRolls = append(res.RawRolls, rolls...)

		// Clone before sorting so RawRolls keeps the rolled order
		sorted := make([]int, len(rolls))
		copy(sorted, rolls)
		if spec.Highest {
			sort.Sort(sort.Reverse(sort.IntSlice(sorted)))
		} else {
			sort.Ints(sorted)
		}

		kept := sorted[:spec.Keep]
		res.Kept = append(res.Kept, kept...)
		res.Dropped = append(res.Dropped, sorted[spec.Keep:]...)
		for _, v := range kept {
			res.Total += sign * v
		}
	}

	res.Total += res.Modifier
	return res, nil
}

// ScriptedSource replays a fixed sequence of totals, one per Roll call,
// regardless of the expression. Expressions are recorded in Calls.
type ScriptedSource struct {
	mu      sync.Mutex
	results []int
	Calls   []string
}

// NewScriptedSource prepares a deterministic sequence of roll totals.
func NewScriptedSource(results ...int) *ScriptedSource {
	return &ScriptedSource{results: results}
}

// Roll implements RandomSource.
func (s *ScriptedSource) Roll(expr string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Calls = append(s.Calls, expr)
	if len(s.results) == 0 {
		return 0, fmt.Errorf("roll %s: %w", expr, ErrSourceExhausted)
	}
	v := s.results[0]
	s.results = s.results[1:]
	return v, nil
}

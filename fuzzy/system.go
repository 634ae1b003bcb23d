// Package fuzzy is a small Mamdani inference engine: trapezoidal membership
// sets, expr-compiled rule antecedents, max aggregation and centroid
// defuzzification.
package fuzzy

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

var (
	ErrUnknownVariable = errors.New("fuzzy: unknown variable")
	ErrUnknownSet      = errors.New("fuzzy: unknown set")
)

// Samples is the number of points the output universe is sampled at when
// computing the centroid.
const Samples = 101

var setRef = regexp.MustCompile(`\b([A-Za-z_][A-Za-z0-9_]*)\.([A-Za-z_][A-Za-z0-9_]*)\b`)

// System is one fuzzy-inference stage.
type System struct {
	Name    string
	Inputs  []Variable
	Output  Variable
	Neutral float64 // result when no rule fires
	rules   []*Rule
}

// NewSystem validates every set reference in rules and compiles their
// antecedents once.
func NewSystem(name string, inputs []Variable, output Variable, rules []*Rule) (*System, error) {
	s := &System{Name: name, Inputs: inputs, Output: output}
	env := s.zeroEnv()
	for _, r := range rules {
		if _, ok := output.set(r.Consequent); !ok {
			return nil, fmt.Errorf("rule %q consequent %s.%s: %w", r.Name, output.Name, r.Consequent, ErrUnknownSet)
		}
		if err := s.checkRefs(r); err != nil {
			return nil, err
		}
		prog, err := expr.Compile(r.ConditionSrc, expr.Env(env))
		if err != nil {
			return nil, fmt.Errorf("compile rule %q: %w", r.Name, err)
		}
		r.program = prog
		if r.Weight == 0 {
			r.Weight = 1
		}
	}
	s.rules = rules
	return s, nil
}

// MustSystem is NewSystem for rule bases fixed at compile time.
func MustSystem(name string, inputs []Variable, output Variable, rules []*Rule) *System {
	s, err := NewSystem(name, inputs, output, rules)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *System) input(name string) (Variable, bool) {
	for _, v := range s.Inputs {
		if v.Name == name {
			return v, true
		}
	}
	return Variable{}, false
}

func (s *System) checkRefs(r *Rule) error {
	for _, m := range setRef.FindAllStringSubmatch(r.ConditionSrc, -1) {
		v, ok := s.input(m[1])
		if !ok {
			return fmt.Errorf("rule %q references %s: %w", r.Name, m[1], ErrUnknownVariable)
		}
		if _, ok := v.set(m[2]); !ok {
			return fmt.Errorf("rule %q references %s.%s: %w", r.Name, m[1], m[2], ErrUnknownSet)
		}
	}
	return nil
}

func (s *System) zeroEnv() map[string]any {
	env := make(map[string]any, len(s.Inputs))
	for _, v := range s.Inputs {
		sets := make(map[string]float64, len(v.Sets))
		for _, set := range v.Sets {
			sets[set.Name] = 0
		}
		env[v.Name] = sets
	}
	return env
}

// Activations returns the aggregated activation of every output set.
// Missing inputs leave all their memberships at zero.
func (s *System) Activations(in map[string]float64) map[string]float64 {
	env := s.zeroEnv()
	for _, v := range s.Inputs {
		if x, ok := in[v.Name]; ok {
			env[v.Name] = v.Fuzzify(x)
		}
	}

	act := make(map[string]float64, len(s.Output.Sets))
	for _, r := range s.rules {
		out, err := vm.Run(r.program, env)
		if err != nil {
			slog.Warn("fuzzy rule error", "system", s.Name, "rule", r.Name, "error", err)
			continue
		}
		var strength float64
		switch v := out.(type) {
		case float64:
			strength = v
		case int:
			strength = float64(v)
		default:
			slog.Warn("fuzzy rule returned non-number", "system", s.Name, "rule", r.Name, "type", fmt.Sprintf("%T", out))
			continue
		}
		strength *= r.Weight
		if strength < 0 {
			strength = 0
		} else if strength > 1 {
			strength = 1
		}
		if strength > act[r.Consequent] {
			act[r.Consequent] = strength
		}
	}
	return act
}

// Evaluate runs fuzzify, rule evaluation and centroid defuzzification. With no
// rule activation it returns Neutral.
func (s *System) Evaluate(in map[string]float64) float64 {
	return s.Defuzzify(s.Activations(in))
}

// Defuzzify clips each output set at its activation, takes the max over sets
// and returns the centroid of the result.
func (s *System) Defuzzify(act map[string]float64) float64 {
	lo, hi := s.Output.Min, s.Output.Max
	step := (hi - lo) / float64(Samples-1)

	var num, den float64
	for i := 0; i < Samples; i++ {
		x := lo + float64(i)*step
		mu := 0.0
		for _, set := range s.Output.Sets {
			a := act[set.Name]
			if a <= 0 {
				continue
			}
			mu = max(mu, min(a, set.Degree(x)))
		}
		num += x * mu
		den += mu
	}
	if den == 0 {
		return s.Neutral
	}
	return num / den
}

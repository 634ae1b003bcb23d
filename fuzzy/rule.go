package fuzzy

import "github.com/expr-lang/expr/vm"

// Rule maps an antecedent to one output set. The antecedent is an expr
// expression over set memberships written as variable.set, combined with
// min for AND and max for OR, e.g. "min(distance.close, threat.high)".
type Rule struct {
	Name         string      // human-readable identifier
	ConditionSrc string      // expr source
	Consequent   string      // output set name
	Weight       float64     // scales activation; zero means 1
	program      *vm.Program // compiled bytecode
}

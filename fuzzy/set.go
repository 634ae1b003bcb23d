package fuzzy

// Set is a trapezoidal membership function over a variable's universe. A
// triangle is a trapezoid whose plateau is a single point; a shoulder repeats
// an edge breakpoint so membership stays 1 up to the universe boundary.
type Set struct {
	Name       string
	A, B, C, D float64
}

// Trapezoid returns a set rising over [a,b], flat at 1 over [b,c] and falling
// over [c,d].
func Trapezoid(name string, a, b, c, d float64) Set {
	return Set{Name: name, A: a, B: b, C: c, D: d}
}

// Triangle returns a set peaking at b.
func Triangle(name string, a, b, c float64) Set {
	return Set{Name: name, A: a, B: b, C: b, D: c}
}

// Degree returns the membership of x in [0, 1].
func (s Set) Degree(x float64) float64 {
	switch {
	case x < s.A || x > s.D:
		return 0
	case x >= s.B && x <= s.C:
		return 1
	case x < s.B:
		return (x - s.A) / (s.B - s.A)
	default:
		return (s.D - x) / (s.D - s.C)
	}
}

// Variable is a linguistic variable: a bounded universe and its named sets.
type Variable struct {
	Name     string
	Min, Max float64
	Sets     []Set
}

// Clamp limits x to the variable's universe.
func (v Variable) Clamp(x float64) float64 {
	if x < v.Min {
		return v.Min
	}
	if x > v.Max {
		return v.Max
	}
	return x
}

// Fuzzify returns the membership of x, clamped to the universe, in every set.
func (v Variable) Fuzzify(x float64) map[string]float64 {
	x = v.Clamp(x)
	out := make(map[string]float64, len(v.Sets))
	for _, s := range v.Sets {
		out[s.Name] = s.Degree(x)
	}
	return out
}

func (v Variable) set(name string) (Set, bool) {
	for _, s := range v.Sets {
		if s.Name == name {
			return s, true
		}
	}
	return Set{}, false
}

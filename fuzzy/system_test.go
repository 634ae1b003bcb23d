package fuzzy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempSystem(t *testing.T) *System {
	t.Helper()
	temp := Variable{Name: "temp", Min: 0, Max: 40, Sets: []Set{
		Trapezoid("cold", 0, 0, 10, 20),
		Triangle("warm", 15, 22, 30),
		Trapezoid("hot", 25, 35, 40, 40),
	}}
	humid := Variable{Name: "humid", Min: 0, Max: 1, Sets: []Set{
		Triangle("dry", 0, 0, 0.5),
		Triangle("wet", 0.5, 1, 1),
	}}
	fan := Variable{Name: "fan", Min: 0, Max: 1, Sets: []Set{
		Triangle("off", 0, 0, 0.3),
		Triangle("low", 0.2, 0.5, 0.8),
		Triangle("high", 0.7, 1, 1),
	}}
	s, err := NewSystem("fan", []Variable{temp, humid}, fan, []*Rule{
		{Name: "cold", ConditionSrc: "temp.cold", Consequent: "off"},
		{Name: "warm", ConditionSrc: "temp.warm", Consequent: "low"},
		{Name: "hot and wet", ConditionSrc: "min(temp.hot, humid.wet)", Consequent: "high"},
		{Name: "hot or muggy", ConditionSrc: "max(temp.hot, min(temp.warm, humid.wet))", Consequent: "high", Weight: 0.5},
	})
	require.NoError(t, err)
	return s
}

func TestSetDegree(t *testing.T) {
	tri := Triangle("t", 0, 5, 10)
	assert.InDelta(t, 0, tri.Degree(-1), 1e-9)
	assert.InDelta(t, 0.5, tri.Degree(2.5), 1e-9)
	assert.InDelta(t, 1, tri.Degree(5), 1e-9)
	assert.InDelta(t, 0.2, tri.Degree(9), 1e-9)
	assert.InDelta(t, 0, tri.Degree(11), 1e-9)

	shoulder := Trapezoid("s", 0, 0, 2, 4)
	assert.InDelta(t, 1, shoulder.Degree(0), 1e-9)
	assert.InDelta(t, 0.5, shoulder.Degree(3), 1e-9)

	right := Trapezoid("r", 6, 8, 10, 10)
	assert.InDelta(t, 1, right.Degree(10), 1e-9)
}

func TestFuzzifyClampsToUniverse(t *testing.T) {
	v := Variable{Name: "x", Min: 0, Max: 10, Sets: []Set{Trapezoid("high", 5, 10, 10, 10)}}
	assert.InDelta(t, 1, v.Fuzzify(500)["high"], 1e-9)
	assert.InDelta(t, 0, v.Fuzzify(-3)["high"], 1e-9)
}

func TestEvaluateFollowsRules(t *testing.T) {
	s := tempSystem(t)
	cold := s.Evaluate(map[string]float64{"temp": 5, "humid": 0.2})
	hot := s.Evaluate(map[string]float64{"temp": 38, "humid": 0.9})
	warm := s.Evaluate(map[string]float64{"temp": 22, "humid": 0.2})

	assert.Less(t, cold, 0.2)
	assert.Greater(t, hot, 0.8)
	assert.InDelta(t, 0.5, warm, 0.05)
}

func TestActivationsUseMinAndMax(t *testing.T) {
	s := tempSystem(t)
	act := s.Activations(map[string]float64{"temp": 30, "humid": 0.75})
	// hot(30) = 0.5, wet(0.75) = 0.5, warm(30) = 0
	assert.InDelta(t, 0.5, act["high"], 1e-9)
	assert.InDelta(t, 0, act["low"], 1e-9)
}

func TestZeroActivationIsNeutral(t *testing.T) {
	s := tempSystem(t)
	s.Neutral = 0.123
	assert.Equal(t, 0.123, s.Evaluate(nil))
	assert.Equal(t, 0.123, s.Defuzzify(map[string]float64{}))
}

func TestNewSystemRejectsBadReferences(t *testing.T) {
	in := []Variable{{Name: "a", Max: 1, Sets: []Set{Triangle("lo", 0, 0, 1)}}}
	out := Variable{Name: "o", Max: 1, Sets: []Set{Triangle("y", 0, 1, 1)}}

	_, err := NewSystem("bad", in, out, []*Rule{{Name: "r", ConditionSrc: "a.hi", Consequent: "y"}})
	assert.True(t, errors.Is(err, ErrUnknownSet))

	_, err = NewSystem("bad", in, out, []*Rule{{Name: "r", ConditionSrc: "b.lo", Consequent: "y"}})
	assert.True(t, errors.Is(err, ErrUnknownVariable))

	_, err = NewSystem("bad", in, out, []*Rule{{Name: "r", ConditionSrc: "a.lo", Consequent: "n"}})
	assert.True(t, errors.Is(err, ErrUnknownSet))

	_, err = NewSystem("bad", in, out, []*Rule{{Name: "r", ConditionSrc: "min(a.lo", Consequent: "y"}})
	assert.Error(t, err)
}

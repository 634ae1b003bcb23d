package turret

import (
	"math"

	"github.com/Jvsin/tank-agent-ai/fuzzy"
)

// The four rule bases scale their distance universes with vision range so a
// short-sighted vehicle reasons about the ranges it can actually see.

func distanceMax(vision float64) float64 {
	return math.Max(vision*1.5, 30)
}

func targetSelection(vision float64) *fuzzy.System {
	maxDist := distanceMax(vision)
	veryCloseMax := vision * 0.3
	closeMin, closeMax := vision*0.2, vision*0.6
	mediumMin, mediumMax := vision*0.5, vision*1.0
	farMin := vision * 0.8

	distance := fuzzy.Variable{Name: "distance", Min: 0, Max: maxDist, Sets: []fuzzy.Set{
		fuzzy.Trapezoid("very_close", 0, 0, veryCloseMax*0.5, veryCloseMax),
		fuzzy.Triangle("close", closeMin, (closeMin+closeMax)/2, closeMax),
		fuzzy.Triangle("medium", mediumMin, (mediumMin+mediumMax)/2, mediumMax),
		fuzzy.Trapezoid("far", farMin, mediumMax, maxDist, maxDist),
	}}
	threat := fuzzy.Variable{Name: "threat", Min: 0, Max: 10, Sets: []fuzzy.Set{
		fuzzy.Triangle("low", 0, 0, 5),
		fuzzy.Triangle("medium", 3, 5, 7),
		fuzzy.Triangle("high", 5, 10, 10),
	}}
	priority := fuzzy.Variable{Name: "priority", Min: 0, Max: 100, Sets: []fuzzy.Set{
		fuzzy.Triangle("ignore", 0, 0, 20),
		fuzzy.Triangle("low", 10, 25, 40),
		fuzzy.Triangle("medium", 30, 50, 70),
		fuzzy.Triangle("high", 60, 75, 90),
		fuzzy.Triangle("critical", 80, 100, 100),
	}}

	return fuzzy.MustSystem("target_selection", []fuzzy.Variable{distance, threat}, priority, []*fuzzy.Rule{
		{Name: "very close high", ConditionSrc: "min(distance.very_close, threat.high)", Consequent: "critical"},
		{Name: "very close medium", ConditionSrc: "min(distance.very_close, threat.medium)", Consequent: "high"},
		{Name: "very close low", ConditionSrc: "min(distance.very_close, threat.low)", Consequent: "medium"},
		{Name: "close high", ConditionSrc: "min(distance.close, threat.high)", Consequent: "critical"},
		{Name: "close medium", ConditionSrc: "min(distance.close, threat.medium)", Consequent: "high"},
		{Name: "close low", ConditionSrc: "min(distance.close, threat.low)", Consequent: "medium"},
		{Name: "medium high", ConditionSrc: "min(distance.medium, threat.high)", Consequent: "high"},
		{Name: "medium medium", ConditionSrc: "min(distance.medium, threat.medium)", Consequent: "medium"},
		{Name: "medium low", ConditionSrc: "min(distance.medium, threat.low)", Consequent: "low"},
		{Name: "far high", ConditionSrc: "min(distance.far, threat.high)", Consequent: "medium"},
		{Name: "far medium", ConditionSrc: "min(distance.far, threat.medium)", Consequent: "low"},
		{Name: "far low", ConditionSrc: "min(distance.far, threat.low)", Consequent: "ignore"},
	})
}

func rotationSpeed(vision float64) *fuzzy.System {
	maxDist := distanceMax(vision)
	closeMax := vision * 0.5
	mediumMin, mediumMax := vision*0.4, vision*0.9
	farMin := vision * 0.7

	angle := fuzzy.Variable{Name: "angle_error", Min: 0, Max: 180, Sets: []fuzzy.Set{
		fuzzy.Trapezoid("small", 0, 0, 5, 15),
		fuzzy.Triangle("medium", 10, 30, 60),
		fuzzy.Trapezoid("large", 45, 90, 180, 180),
	}}
	distance := fuzzy.Variable{Name: "distance", Min: 0, Max: maxDist, Sets: []fuzzy.Set{
		fuzzy.Trapezoid("close", 0, 0, closeMax*0.6, closeMax),
		fuzzy.Triangle("medium", mediumMin, (mediumMin+mediumMax)/2, mediumMax),
		fuzzy.Trapezoid("far", farMin, mediumMax, maxDist, maxDist),
	}}
	speed := fuzzy.Variable{Name: "speed", Min: 0, Max: 1, Sets: []fuzzy.Set{
		fuzzy.Triangle("very_slow", 0, 0, 0.25),
		fuzzy.Triangle("slow", 0.15, 0.35, 0.55),
		fuzzy.Triangle("medium", 0.45, 0.65, 0.85),
		fuzzy.Triangle("fast", 0.75, 0.9, 1.0),
		fuzzy.Triangle("very_fast", 0.9, 1.0, 1.0),
	}}

	return fuzzy.MustSystem("rotation_speed", []fuzzy.Variable{angle, distance}, speed, []*fuzzy.Rule{
		{Name: "small", ConditionSrc: "angle_error.small", Consequent: "very_slow"},
		{Name: "medium close", ConditionSrc: "min(angle_error.medium, distance.close)", Consequent: "medium"},
		{Name: "medium medium", ConditionSrc: "min(angle_error.medium, distance.medium)", Consequent: "medium"},
		{Name: "medium far", ConditionSrc: "min(angle_error.medium, distance.far)", Consequent: "fast"},
		{Name: "large close", ConditionSrc: "min(angle_error.large, distance.close)", Consequent: "fast"},
		{Name: "large medium", ConditionSrc: "min(angle_error.large, distance.medium)", Consequent: "fast"},
		{Name: "large far", ConditionSrc: "min(angle_error.large, distance.far)", Consequent: "very_fast"},
	})
}

func fireDecision(vision float64) *fuzzy.System {
	maxDist := distanceMax(vision)
	optimalPeak := math.Min(vision*0.5, optimalEngagementRange)
	optimalEnd := vision * 0.7
	suboptimalMid := vision * 0.9
	suboptimalEnd := vision * 1.2
	extremeStart := vision * 1.0

	aim := fuzzy.Variable{Name: "aim", Min: 0, Max: 10, Sets: []fuzzy.Set{
		fuzzy.Trapezoid("perfect", 0, 0, 1, 2),
		fuzzy.Triangle("good", 1.5, 2.5, 4),
		fuzzy.Triangle("acceptable", 3, 5, 7),
		fuzzy.Trapezoid("poor", 6, 8, 10, 10),
	}}
	distance := fuzzy.Variable{Name: "distance", Min: 0, Max: maxDist, Sets: []fuzzy.Set{
		fuzzy.Triangle("optimal", 0, optimalPeak, optimalEnd),
		fuzzy.Triangle("suboptimal", optimalEnd*0.8, suboptimalMid, suboptimalEnd),
		fuzzy.Trapezoid("extreme", extremeStart, suboptimalEnd, maxDist, maxDist),
	}}
	vulnerability := fuzzy.Variable{Name: "vulnerability", Min: 0, Max: 1, Sets: []fuzzy.Set{
		fuzzy.Triangle("resilient", 0, 0, 0.4),
		fuzzy.Triangle("normal", 0.3, 0.5, 0.7),
		fuzzy.Triangle("vulnerable", 0.6, 1.0, 1.0),
	}}
	confidence := fuzzy.Variable{Name: "confidence", Min: 0, Max: 1, Sets: []fuzzy.Set{
		fuzzy.Triangle("no", 0, 0, 0.3),
		fuzzy.Triangle("maybe", 0.2, 0.5, 0.7),
		fuzzy.Triangle("yes", 0.6, 1.0, 1.0),
	}}

	return fuzzy.MustSystem("fire_decision", []fuzzy.Variable{aim, distance, vulnerability}, confidence, []*fuzzy.Rule{
		{Name: "perfect optimal", ConditionSrc: "min(aim.perfect, distance.optimal)", Consequent: "yes"},
		{Name: "perfect suboptimal", ConditionSrc: "min(aim.perfect, distance.suboptimal)", Consequent: "yes"},
		{Name: "perfect extreme", ConditionSrc: "min(aim.perfect, distance.extreme)", Consequent: "maybe"},
		{Name: "good optimal", ConditionSrc: "min(aim.good, distance.optimal)", Consequent: "yes"},
		{Name: "good suboptimal", ConditionSrc: "min(aim.good, distance.suboptimal)", Consequent: "maybe"},
		{Name: "good extreme", ConditionSrc: "min(aim.good, distance.extreme)", Consequent: "no"},
		{Name: "acceptable optimal vulnerable", ConditionSrc: "min(aim.acceptable, distance.optimal, vulnerability.vulnerable)", Consequent: "yes"},
		{Name: "acceptable optimal normal", ConditionSrc: "min(aim.acceptable, distance.optimal, vulnerability.normal)", Consequent: "maybe"},
		{Name: "acceptable optimal resilient", ConditionSrc: "min(aim.acceptable, distance.optimal, vulnerability.resilient)", Consequent: "maybe"},
		{Name: "acceptable suboptimal", ConditionSrc: "min(aim.acceptable, distance.suboptimal)", Consequent: "maybe"},
		{Name: "acceptable extreme", ConditionSrc: "min(aim.acceptable, distance.extreme)", Consequent: "no"},
		{Name: "poor", ConditionSrc: "aim.poor", Consequent: "no"},
		{Name: "extreme poor", ConditionSrc: "min(distance.extreme, aim.poor)", Consequent: "no"},
		{Name: "extreme acceptable", ConditionSrc: "min(distance.extreme, aim.acceptable)", Consequent: "no"},
	})
}

func idleScan() *fuzzy.System {
	unseen := fuzzy.Variable{Name: "unseen", Min: 0, Max: 100, Sets: []fuzzy.Set{
		fuzzy.Trapezoid("recent", 0, 0, 10, 25),
		fuzzy.Triangle("moderate", 15, 40, 65),
		fuzzy.Trapezoid("long", 50, 80, 100, 100),
	}}
	scanError := fuzzy.Variable{Name: "scan_error", Min: 0, Max: 180, Sets: []fuzzy.Set{
		fuzzy.Trapezoid("aligned", 0, 0, 20, 45),
		fuzzy.Trapezoid("misaligned", 30, 90, 180, 180),
	}}
	speed := fuzzy.Variable{Name: "speed", Min: 0, Max: 1, Sets: []fuzzy.Set{
		fuzzy.Triangle("slow", 0, 0.2, 0.4),
		fuzzy.Triangle("medium", 0.3, 0.5, 0.7),
		fuzzy.Triangle("fast", 0.6, 0.8, 1.0),
	}}

	return fuzzy.MustSystem("idle_scan", []fuzzy.Variable{unseen, scanError}, speed, []*fuzzy.Rule{
		{Name: "recent misaligned", ConditionSrc: "min(unseen.recent, scan_error.misaligned)", Consequent: "fast"},
		{Name: "recent aligned", ConditionSrc: "min(unseen.recent, scan_error.aligned)", Consequent: "slow"},
		{Name: "moderate", ConditionSrc: "unseen.moderate", Consequent: "medium"},
		{Name: "long", ConditionSrc: "unseen.long", Consequent: "medium"},
	})
}

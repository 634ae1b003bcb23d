// Package turret aims and fires the barrel with four fuzzy-inference stages:
// target selection, rotation speed, fire decision and idle scan.
package turret

import (
	"math"

	"github.com/Jvsin/tank-agent-ai/fuzzy"
	"github.com/Jvsin/tank-agent-ai/geometry"
	"github.com/Jvsin/tank-agent-ai/model"
)

const (
	optimalEngagementRange = 50.0
	DefaultFireThreshold   = 0.6
	CooldownTicks          = 10
	TightAim               = 2.5
	ScanMemoryTicks        = 100
	DefaultVisionRange     = 70.0

	// A destructible obstacle this close and inside the forward cone obstructs
	// the hull.
	obstructionRange = 25.0
	obstructionCone  = 35.0
	scanAlignedError = 15.0
)

// ThreatLevels maps a vehicle category to its threat score on [0, 10].
var ThreatLevels = map[string]float64{
	"LIGHT":  3,
	"HEAVY":  7,
	"Sniper": 9,
}

const defaultThreat = 5

// Threat returns the threat score of a category.
func Threat(category string) float64 {
	if t, ok := ThreatLevels[category]; ok {
		return t
	}
	return defaultThreat
}

// AmmoPreference is the loading order: longest range first.
var AmmoPreference = []string{"LONG_DISTANCE", "LIGHT", "HEAVY"}

// SelectAmmo returns the first preferred kind still in stock, or "".
func SelectAmmo(stock map[string]int) string {
	for _, kind := range AmmoPreference {
		if stock[kind] > 0 {
			return kind
		}
	}
	return ""
}

// Input is what the turret needs from one tick.
type Input struct {
	Position    geometry.Point
	Heading     float64
	Barrel      float64 // relative to the hull
	MaxRotation float64 // barrel spin rate limit
	Hostiles    []model.SeenTank
	Obstacles   []model.SeenObstacle
	Ammo        map[string]int
	Stuck       bool
}

// TargetKind says what the turret is aiming at.
type TargetKind int

const (
	NoTarget TargetKind = iota
	HostileTarget
	ObstacleTarget
)

func (k TargetKind) String() string {
	switch k {
	case HostileTarget:
		return "hostile"
	case ObstacleTarget:
		return "obstacle"
	}
	return "none"
}

// Output is one tick of turret control.
type Output struct {
	Rotation   float64
	Fire       bool
	Ammo       string
	Target     TargetKind
	TargetID   string
	Distance   float64
	AimError   float64
	Confidence float64
}

// Controller holds the turret's memory across ticks. It is owned by a single
// vehicle.
type Controller struct {
	vision    float64
	threshold float64

	selection *fuzzy.System
	rotation  *fuzzy.System
	fire      *fuzzy.System
	scan      *fuzzy.System

	cooldown    int
	lastSeen    float64 // relative bearing of the last hostile
	hasLastSeen bool
	unseen      int
}

// New builds the rule bases for the given vision range. A threshold of zero
// selects DefaultFireThreshold.
func New(vision, threshold float64) *Controller {
	if vision <= 0 {
		vision = DefaultVisionRange
	}
	if threshold <= 0 {
		threshold = DefaultFireThreshold
	}
	return &Controller{
		vision:    vision,
		threshold: threshold,
		selection: targetSelection(vision),
		rotation:  rotationSpeed(vision),
		fire:      fireDecision(vision),
		scan:      idleScan(),
	}
}

// Cooldown returns the ticks left before the next shot is allowed.
func (c *Controller) Cooldown() int { return c.cooldown }

// Priority scores one hostile at distance d.
func (c *Controller) Priority(d float64, category string) float64 {
	return c.selection.Evaluate(map[string]float64{"distance": d, "threat": Threat(category)})
}

// SelectTarget returns the index of the hostile with the highest priority,
// ties going to the closest, or -1 when there are none.
func (c *Controller) SelectTarget(pos geometry.Point, hostiles []model.SeenTank) int {
	best := -1
	var bestPriority, bestDist float64
	for i, h := range hostiles {
		d := geometry.Distance(pos, h.Position)
		p := c.Priority(d, h.Category)
		if best < 0 || p > bestPriority || (p == bestPriority && d < bestDist) {
			best, bestPriority, bestDist = i, p, d
		}
	}
	return best
}

// RotationFactor returns the 0-1 share of the barrel spin rate to use.
func (c *Controller) RotationFactor(aimError, distance float64) float64 {
	return c.rotation.Evaluate(map[string]float64{"angle_error": math.Abs(aimError), "distance": distance})
}

// Vulnerability estimates how exposed a target is.
func (c *Controller) Vulnerability(distance float64, damaged bool) float64 {
	v := 0.5
	if damaged {
		v = 0.9
	}
	if distance < c.vision*0.3 {
		v = math.Min(1, v+0.2)
	}
	return v
}

// FireConfidence returns the 0-1 confidence that a shot now would land.
func (c *Controller) FireConfidence(aimError, distance, vulnerability float64) float64 {
	return c.fire.Evaluate(map[string]float64{
		"aim":           math.Abs(aimError),
		"distance":      distance,
		"vulnerability": vulnerability,
	})
}

// Update runs one tick: counts down the cooldown, picks a target, rotates the
// barrel towards it and decides whether to fire. With no target it scans.
func (c *Controller) Update(in Input) Output {
	if c.cooldown > 0 {
		c.cooldown--
	}
	out := Output{Ammo: SelectAmmo(in.Ammo)}

	if idx := c.SelectTarget(in.Position, in.Hostiles); idx >= 0 {
		h := in.Hostiles[idx]
		rel := geometry.AngleDiff(geometry.Bearing(in.Position, h.Position), in.Heading)
		c.lastSeen, c.hasLastSeen, c.unseen = rel, true, 0

		out.Target, out.TargetID = HostileTarget, h.ID
		c.aim(in, h.Position, h.Damaged, &out)
		return out
	}

	if obs, ok := c.obstacleTarget(in); ok {
		out.Target = ObstacleTarget
		c.aim(in, obs.Position, false, &out)
		return out
	}

	out.Rotation = c.idleScan(in)
	return out
}

// aim rotates towards target and fills the fire decision. Obstacles also need
// the barrel within TightAim. A shot arms the cooldown.
func (c *Controller) aim(in Input, target geometry.Point, damaged bool, out *Output) {
	dist := geometry.Distance(in.Position, target)
	rel := geometry.AngleDiff(geometry.Bearing(in.Position, target), in.Heading)
	aimErr := geometry.AngleDiff(rel, in.Barrel)

	factor := c.RotationFactor(aimErr, dist)
	rot := factor * in.MaxRotation * geometry.Sign(aimErr)
	// Never rotate past the target in one tick.
	rot = geometry.Clamp(rot, -math.Abs(aimErr), math.Abs(aimErr))

	out.Rotation = geometry.Clamp(rot, -in.MaxRotation, in.MaxRotation)
	out.Distance = dist
	out.AimError = aimErr
	out.Confidence = c.FireConfidence(aimErr, dist, c.Vulnerability(dist, damaged))

	out.Fire = c.cooldown == 0 && out.Confidence >= c.threshold
	if out.Target == ObstacleTarget && math.Abs(aimErr) > TightAim {
		out.Fire = false
	}
	if out.Fire {
		c.cooldown = CooldownTicks
	}
}

// obstacleTarget returns the nearest destructible obstacle when the hull is
// stuck or one sits in the forward cone.
func (c *Controller) obstacleTarget(in Input) (model.SeenObstacle, bool) {
	var best model.SeenObstacle
	bestDist := math.Inf(1)
	obstructed := in.Stuck
	for _, o := range in.Obstacles {
		if !o.Destructible {
			continue
		}
		d := geometry.Distance(in.Position, o.Position)
		if d < bestDist {
			best, bestDist = o, d
		}
		off := geometry.AngleDiff(geometry.Bearing(in.Position, o.Position), in.Heading)
		if d <= obstructionRange && math.Abs(off) <= obstructionCone {
			obstructed = true
		}
	}
	if math.IsInf(bestDist, 1) || !obstructed {
		return model.SeenObstacle{}, false
	}
	return best, true
}

// idleScan sweeps the barrel, realigning with the remembered bearing of the
// last hostile while that memory is fresh.
func (c *Controller) idleScan(in Input) float64 {
	c.unseen++
	if c.unseen > ScanMemoryTicks {
		c.hasLastSeen = false
	}

	scanErr := 90.0
	var diff float64
	if c.hasLastSeen {
		diff = geometry.AngleDiff(c.lastSeen, in.Barrel)
		scanErr = math.Abs(diff)
	}

	factor := c.scan.Evaluate(map[string]float64{
		"unseen":     math.Min(float64(c.unseen), ScanMemoryTicks),
		"scan_error": scanErr,
	})

	var rot float64
	if c.hasLastSeen && scanErr > scanAlignedError {
		rot = factor * in.MaxRotation * geometry.Sign(diff)
	} else {
		rot = factor * in.MaxRotation * 0.5
	}
	return geometry.Clamp(rot, -in.MaxRotation, in.MaxRotation)
}

package model

import (
	"math"

	"github.com/Jvsin/tank-agent-ai/geometry"
)

// TickRequest is everything the engine tells one vehicle about a single tick.
type TickRequest struct {
	Tick             int            `json:"tick"`
	Tank             TankState      `json:"tank"`
	Sensors          SensorSnapshot `json:"sensors"`
	EnemiesRemaining int            `json:"enemiesRemaining"`
}

// TankState is the vehicle's own state as reported by the engine.
type TankState struct {
	ID              string         `json:"id"`
	Team            int            `json:"team"`
	Position        geometry.Point `json:"position"`
	Heading         float64        `json:"heading"`
	BarrelAngle     float64        `json:"barrelAngle"` // relative to the hull
	TopSpeed        float64        `json:"topSpeed"`
	HeadingSpinRate float64        `json:"headingSpinRate"`
	BarrelSpinRate  float64        `json:"barrelSpinRate"`
	VisionRange     float64        `json:"visionRange"`
	HP              float64        `json:"hp"`
	MaxHP           float64        `json:"maxHp"`
	Ammo            map[string]int `json:"ammo"`
	AmmoLoaded      string         `json:"ammoLoaded"`
	ReloadProgress  float64        `json:"reloadProgress"`
}

// Capabilities are the per-axis limits every command is clamped to.
type Capabilities struct {
	TopSpeed        float64
	HeadingSpinRate float64
	BarrelSpinRate  float64
}

// Capabilities returns the state's limits with NaN, infinite or negative
// values replaced by zero. A vehicle that does not know its limits holds still.
func (t TankState) Capabilities() Capabilities {
	return Capabilities{
		TopSpeed:        nonNegative(t.TopSpeed),
		HeadingSpinRate: nonNegative(t.HeadingSpinRate),
		BarrelSpinRate:  nonNegative(t.BarrelSpinRate),
	}
}

// HPRatio returns hp/maxHp in [0, 1], or 0 when maxHp is unknown.
func (t TankState) HPRatio() float64 {
	if t.MaxHP <= 0 || math.IsNaN(t.HP) {
		return 0
	}
	return geometry.Clamp(t.HP/t.MaxHP, 0, 1)
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// SensorSnapshot lists what the vehicle can currently see. Nil slices mean
// nothing of that kind was observed this tick.
type SensorSnapshot struct {
	Tanks     []SeenTank     `json:"tanks"`
	Obstacles []SeenObstacle `json:"obstacles"`
	Terrains  []SeenTerrain  `json:"terrains"`
	Powerups  []SeenPowerup  `json:"powerups"`
}

type SeenTank struct {
	ID       string         `json:"id"`
	Team     int            `json:"team"`
	Position geometry.Point `json:"position"`
	Category string         `json:"category"`
	Damaged  bool           `json:"damaged"`
}

type SeenObstacle struct {
	Position     geometry.Point `json:"position"`
	Destructible bool           `json:"destructible"`
}

type SeenTerrain struct {
	Position geometry.Point `json:"position"`
	Kind     string         `json:"kind"`
	Damage   float64        `json:"damage"`
}

type SeenPowerup struct {
	Position geometry.Point `json:"position"`
	Kind     string         `json:"kind"`
}

// Hostiles returns the visible tanks that are not on team. Tanks reporting
// team 0 are treated as hostile.
func (s SensorSnapshot) Hostiles(team int) []SeenTank {
	var out []SeenTank
	for _, t := range s.Tanks {
		if t.Team == 0 || t.Team != team {
			out = append(out, t)
		}
	}
	return out
}

// Command is the single per-tick response.
type Command struct {
	BarrelRotation  float64 `json:"barrelRotation"`
	HeadingRotation float64 `json:"headingRotation"`
	MoveSpeed       float64 `json:"moveSpeed"`
	AmmoToLoad      string  `json:"ammoToLoad,omitempty"`
	Fire            bool    `json:"fire"`
}

// Clamp limits every axis of c to caps.
func (c Command) Clamp(caps Capabilities) Command {
	c.BarrelRotation = geometry.Clamp(finite(c.BarrelRotation), -caps.BarrelSpinRate, caps.BarrelSpinRate)
	c.HeadingRotation = geometry.Clamp(finite(c.HeadingRotation), -caps.HeadingSpinRate, caps.HeadingSpinRate)
	c.MoveSpeed = geometry.Clamp(finite(c.MoveSpeed), -caps.TopSpeed, caps.TopSpeed)
	return c
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

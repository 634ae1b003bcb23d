// Package motion turns a cell path or a single waypoint into hull steering and
// speed, and recovers from getting physically stuck with a randomized escape.
package motion

import (
	"log/slog"
	"math"
	"math/rand"

	"github.com/Jvsin/tank-agent-ai/geometry"
	"github.com/Jvsin/tank-agent-ai/world"
)

// State is the controller's driving state.
type State int

const (
	Driving State = iota
	Escaping
)

func (s State) String() string {
	if s == Escaping {
		return "escaping"
	}
	return "driving"
}

// Output is one tick of hull control: turn in degrees, speed in world units.
type Output struct {
	Turn  float64
	Speed float64
}

const (
	// StuckTicks is how many consecutive pinned ticks declare the vehicle stuck.
	StuckTicks     = 10
	stuckMinSpeed  = 0.4
	stuckMinMove   = 0.15
	DeadEndTTL     = 560
	ReachedRadius  = 2.5
	escapeMinTicks = 45
	escapeMaxTicks = 90
	escapeMaxTurn  = 22.0

	// Escape headings whose next cell is blocked are redrawn this many times.
	escapeHeadingTries = 6
)

// Controller owns the active path for one vehicle.
type Controller struct {
	world *world.Model
	rng   *rand.Rand

	path []world.Cell

	state         State
	escapeHeading float64
	escapeTicks   int

	lastPos   geometry.Point
	hasLast   bool
	lastSpeed float64
	stuck     int
}

// New creates a controller that marks dead ends in w and draws escape
// headings from rng.
func New(w *world.Model, rng *rand.Rand) *Controller {
	return &Controller{world: w, rng: rng}
}

// Steer computes turn and speed to head from pos towards target. Turn is
// banded by angular error and speed drops as the error grows.
func Steer(target, pos geometry.Point, heading, topSpeed float64) Output {
	diff := geometry.AngleDiff(geometry.Bearing(pos, target), heading)
	ad := math.Abs(diff)

	var turn float64
	switch {
	case ad <= 4:
		turn = 0
	case ad <= 18:
		turn = geometry.Clamp(diff, -10, 10)
	case ad <= 45:
		turn = geometry.Clamp(diff, -16, 16)
	default:
		turn = geometry.Clamp(diff, -22, 22)
	}

	speed := topSpeed
	switch {
	case ad > 60:
		speed *= 0.5
	case ad > 30:
		speed *= 0.76
	}
	return Output{Turn: turn, Speed: speed}
}

// State returns the current driving state.
func (c *Controller) State() State { return c.state }

// Escaping reports whether an escape manoeuvre is in progress.
func (c *Controller) Escaping() bool { return c.state == Escaping }

// SetPath replaces the active path.
func (c *Controller) SetPath(path []world.Cell) { c.path = path }

// ClearPath drops the active path.
func (c *Controller) ClearPath() { c.path = nil }

// Path returns the remaining cells of the active path.
func (c *Controller) Path() []world.Cell { return c.path }

// HasPath reports whether any cells remain on the active path.
func (c *Controller) HasPath() bool { return len(c.path) > 0 }

// FollowPath drops path cells already reached and steers for the next one,
// detouring one step if that cell is dangerous. It reports false when no path
// remains.
func (c *Controller) FollowPath(pos geometry.Point, heading, topSpeed float64) (Output, bool) {
	for len(c.path) > 0 && geometry.Distance(pos, c.world.Center(c.path[0])) < ReachedRadius {
		c.path = c.path[1:]
	}
	if len(c.path) == 0 {
		return c.Hold(), false
	}

	next := c.path[0]
	if c.world.IsDangerous(next) {
		if alt, ok := c.detour(c.world.CellAt(pos)); ok {
			next = alt
		}
	}
	return c.record(Steer(c.world.Center(next), pos, heading, topSpeed)), true
}

// FollowWaypoint steers straight at target.
func (c *Controller) FollowWaypoint(target, pos geometry.Point, heading, topSpeed float64) Output {
	return c.record(Steer(target, pos, heading, topSpeed))
}

// Hold commands a standstill.
func (c *Controller) Hold() Output {
	return c.record(Output{})
}

// detour picks the best passable, non-dangerous neighbour of from.
func (c *Controller) detour(from world.Cell) (world.Cell, bool) {
	var best world.Cell
	bestScore := math.Inf(-1)
	found := false
	for _, n := range from.Neighbors4() {
		if c.world.IsBlocked(n) || c.world.IsDangerous(n) {
			continue
		}
		st, _ := c.world.State(n)
		score := 4*st.Safe - 8*st.Danger - 4*st.Blocked - 0.2*float64(st.Visits)
		if score > bestScore {
			best, bestScore, found = n, score, true
		}
	}
	return best, found
}

// UpdateStuck feeds this tick's position. When the vehicle has been commanded
// to move but stayed put for StuckTicks ticks, the current cell becomes a dead
// end, the path is dropped and an escape starts; it then returns true. Counting
// is suspended while escaping so one episode triggers once.
func (c *Controller) UpdateStuck(pos geometry.Point) bool {
	if !c.hasLast {
		c.lastPos, c.hasLast = pos, true
		return false
	}
	moved := geometry.Distance(c.lastPos, pos)
	c.lastPos = pos
	if c.state == Escaping {
		return false
	}

	if c.lastSpeed > stuckMinSpeed && moved < stuckMinMove {
		c.stuck++
	} else if c.stuck > 0 {
		c.stuck--
	}
	if c.stuck < StuckTicks {
		return false
	}

	cell := c.world.CellAt(pos)
	c.world.MarkDeadEnd(cell, DeadEndTTL)
	c.path = nil
	c.stuck = 0
	c.StartEscape()
	slog.Debug("stuck", "cell", cell, "escapeHeading", c.escapeHeading, "escapeTicks", c.escapeTicks)
	return true
}

// StuckCount returns the current stuck suspicion counter.
func (c *Controller) StuckCount() int { return c.stuck }

// StartEscape picks a uniformly random heading and a random duration. A
// heading that runs straight into a blocked cell is redrawn; after
// escapeHeadingTries the last draw is kept.
func (c *Controller) StartEscape() {
	c.state = Escaping
	for i := 0; i < escapeHeadingTries; i++ {
		c.escapeHeading = c.rng.Float64() * 360
		ahead := c.world.CellAt(geometry.Project(c.lastPos, c.escapeHeading, c.world.CellSize()))
		if !c.world.IsBlocked(ahead) {
			break
		}
	}
	c.escapeTicks = escapeMinTicks + c.rng.Intn(escapeMaxTicks-escapeMinTicks+1)
}

// EscapeDrive steers towards the escape heading at full speed and returns to
// Driving when the manoeuvre runs out.
func (c *Controller) EscapeDrive(heading, topSpeed float64) Output {
	diff := geometry.AngleDiff(c.escapeHeading, heading)
	out := Output{Turn: geometry.Clamp(diff, -escapeMaxTurn, escapeMaxTurn), Speed: topSpeed}
	c.escapeTicks--
	if c.escapeTicks <= 0 {
		c.state = Driving
		c.escapeTicks = 0
	}
	return c.record(out)
}

// EscapeHeading returns the heading of the current or last escape.
func (c *Controller) EscapeHeading() float64 { return c.escapeHeading }

func (c *Controller) record(out Output) Output {
	c.lastSpeed = out.Speed
	return out
}

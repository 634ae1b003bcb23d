// Package corridor derives a safe bootstrap route across the map and follows
// it checkpoint by checkpoint until the vehicle is far enough forward to
// navigate on its own.
package corridor

import (
	"errors"
	"hash/fnv"

	"github.com/Jvsin/tank-agent-ai/geometry"
	"github.com/Jvsin/tank-agent-ai/model"
)

// ErrNoSafeRow means no row of the bootstrap grid has a single safe cell.
var ErrNoSafeRow = errors.New("corridor: no safe row in terrain grid")

const (
	DefaultStride        = 3
	DefaultLaneWidth     = 4.0
	DefaultArrivalRadius = 3.0

	team1Threshold = 0.6
	team2Threshold = 0.4
)

// Config tunes corridor generation and following.
type Config struct {
	Stride        int     // columns between waypoints
	LaneWidth     float64 // lateral spacing between lanes
	ArrivalRadius float64
}

func (c Config) withDefaults() Config {
	if c.Stride <= 0 {
		c.Stride = DefaultStride
	}
	if c.LaneWidth <= 0 {
		c.LaneWidth = DefaultLaneWidth
	}
	if c.ArrivalRadius <= 0 {
		c.ArrivalRadius = DefaultArrivalRadius
	}
	return c
}

// Generate returns the shared waypoint row for team 1. The row with the most
// safe cells wins; ties go to the row nearest the middle of the map and then
// to the lower index. Team 2 receives the same points in reverse order.
func Generate(mask model.SafetyMask, team, stride int) ([]geometry.Point, error) {
	if stride <= 0 {
		stride = DefaultStride
	}

	bestRow, bestCount := -1, 0
	mid := float64(mask.Rows-1) / 2
	for row := 0; row < mask.Rows; row++ {
		count := 0
		for col := 0; col < mask.Cols; col++ {
			if mask.IsSafe(col, row) {
				count++
			}
		}
		if count == 0 {
			continue
		}
		if count > bestCount || (count == bestCount && absf(float64(row)-mid) < absf(float64(bestRow)-mid)) {
			bestRow, bestCount = row, count
		}
	}
	if bestRow < 0 {
		return nil, ErrNoSafeRow
	}

	center := func(col int) geometry.Point {
		return geometry.Point{
			X: (float64(col) + 0.5) * mask.CellSize,
			Y: (float64(bestRow) + 0.5) * mask.CellSize,
		}
	}

	var points []geometry.Point
	for col := 0; col < mask.Cols; col += stride {
		if mask.IsSafe(col, bestRow) {
			points = append(points, center(col))
		}
	}
	if len(points) == 0 {
		// Safe cells exist but none on a stride column.
		for col := 0; col < mask.Cols; col++ {
			if mask.IsSafe(col, bestRow) {
				points = append(points, center(col))
				break
			}
		}
	}

	if team == 2 {
		for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
			points[i], points[j] = points[j], points[i]
		}
	}
	return points, nil
}

// LaneOffset returns the lateral offset for a vehicle: one of -width, 0 or
// +width, stable for a given id.
func LaneOffset(id string, width float64) float64 {
	h := fnv.New32a()
	h.Write([]byte(id))
	lane := int(h.Sum32()%3) - 1
	return float64(lane) * width
}

// TeamFromSpawn guesses the team from which half of the map the vehicle
// starts in.
func TeamFromSpawn(x, mapWidth float64) int {
	if x > mapWidth/2 {
		return 2
	}
	return 1
}

// Navigator walks one vehicle along its corridor.
type Navigator struct {
	points   []geometry.Point
	idx      int
	team     int
	width    float64
	arrival  float64
	switched bool
}

// New builds the corridor for team from mask and shifts it into the lane
// derived from id.
func New(mask model.SafetyMask, team int, id string, cfg Config) (*Navigator, error) {
	cfg = cfg.withDefaults()
	points, err := Generate(mask, team, cfg.Stride)
	if err != nil {
		return nil, err
	}
	offset := LaneOffset(id, cfg.LaneWidth)
	for i := range points {
		points[i].Y += offset
	}
	return &Navigator{
		points:  points,
		team:    team,
		width:   float64(mask.Cols) * mask.CellSize,
		arrival: cfg.ArrivalRadius,
	}, nil
}

// Points returns the lane-shifted checkpoints in travel order.
func (n *Navigator) Points() []geometry.Point { return n.points }

// Index returns the current checkpoint index.
func (n *Navigator) Index() int { return n.idx }

// Start moves the index to the checkpoint closest to spawn.
func (n *Navigator) Start(spawn geometry.Point) {
	best := 0
	bestDist := geometry.Distance(spawn, n.points[0])
	for i, p := range n.points[1:] {
		if d := geometry.Distance(spawn, p); d < bestDist {
			best, bestDist = i+1, d
		}
	}
	n.idx = best
}

// Advance skips every checkpoint already within the arrival radius, so the
// target returned afterwards is valid for this tick.
func (n *Navigator) Advance(pos geometry.Point) {
	for n.idx < len(n.points)-1 && geometry.Distance(pos, n.points[n.idx]) < n.arrival {
		n.idx++
	}
}

// Target returns the current checkpoint.
func (n *Navigator) Target() geometry.Point { return n.points[n.idx] }

// Done reports whether the vehicle sits on the final checkpoint.
func (n *Navigator) Done(pos geometry.Point) bool {
	return n.idx == len(n.points)-1 && geometry.Distance(pos, n.points[n.idx]) < n.arrival
}

// ShouldSwitch reports whether the vehicle has crossed its team's forward
// threshold or finished the corridor. Once true it stays true.
func (n *Navigator) ShouldSwitch(pos geometry.Point) bool {
	if n.switched {
		return true
	}
	switch {
	case n.team == 2 && pos.X <= team2Threshold*n.width:
		n.switched = true
	case n.team != 2 && pos.X >= team1Threshold*n.width:
		n.switched = true
	case n.Done(pos):
		n.switched = true
	}
	return n.switched
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// Package goal decides what the planner should aim for once a vehicle is
// navigating on its own: engage a hostile from a standoff cell, collect a
// known pickup, or push into unexplored ground.
package goal

import (
	"math"

	"github.com/Jvsin/tank-agent-ai/world"
)

// Kind says why a goal was chosen.
type Kind int

const (
	Engage Kind = iota
	Collect
	Explore
)

func (k Kind) String() string {
	switch k {
	case Engage:
		return "engage"
	case Collect:
		return "collect"
	case Explore:
		return "explore"
	}
	return "unknown"
}

// Goal is a target cell plus the reason for it.
type Goal struct {
	Cell world.Cell
	Kind Kind
}

const (
	standoffRadius  = 5
	standoffMinDist = 2
	standoffMaxDist = 6
	standoffIdeal   = 4

	frontierRadius  = 12
	frontierMinDist = 3
	frontierIdeal   = 7
)

// Selector scores cells against one vehicle's world model. It never mutates
// the model.
type Selector struct {
	world *world.Model
}

func NewSelector(w *world.Model) *Selector {
	return &Selector{world: w}
}

// Safety is the shared rubric for combat positioning and exploration.
func (s *Selector) Safety(c world.Cell) float64 {
	st, _ := s.world.State(c)
	return 2.8*st.Safe -
		6.5*st.Danger -
		4.2*st.Blocked -
		0.8*s.world.LocalPressure(c) -
		0.18*float64(st.Visits)
}

// Select applies the priority order engage, collect, explore. hostiles are the
// cells of currently sensed enemies.
func (s *Selector) Select(me world.Cell, hostiles []world.Cell) (Goal, bool) {
	if len(hostiles) > 0 {
		target := hostiles[0]
		for _, h := range hostiles[1:] {
			if world.Manhattan(me, h) < world.Manhattan(me, target) {
				target = h
			}
		}
		return Goal{Cell: s.Standoff(me, target), Kind: Engage}, true
	}

	if pu := s.world.Powerups(); len(pu) > 0 {
		target := pu[0]
		for _, c := range pu[1:] {
			if world.Manhattan(me, c) < world.Manhattan(me, target) {
				target = c
			}
		}
		return Goal{Cell: target, Kind: Collect}, true
	}

	if c, ok := s.Frontier(me); ok {
		return Goal{Cell: c, Kind: Explore}, true
	}
	return Goal{}, false
}

// Standoff picks a passable cell near enemy inside the preferred engagement
// band. With nothing suitable it returns the enemy cell itself.
func (s *Selector) Standoff(me, enemy world.Cell) world.Cell {
	best := enemy
	bestScore := math.Inf(-1)
	for dy := -standoffRadius; dy <= standoffRadius; dy++ {
		for dx := -standoffRadius; dx <= standoffRadius; dx++ {
			c := world.Cell{Col: enemy.Col + dx, Row: enemy.Row + dy}
			d := world.Manhattan(c, enemy)
			if d < standoffMinDist || d > standoffMaxDist || s.world.IsBlocked(c) {
				continue
			}
			score := 1.8*s.Safety(c) -
				0.35*float64(world.Manhattan(c, me)) -
				0.15*math.Abs(float64(d-standoffIdeal))
			if score > bestScore {
				best, bestScore = c, score
			}
		}
	}
	return best
}

// Frontier picks an exploration cell around me, favouring cells next to
// never-observed ground at a comfortable distance.
func (s *Selector) Frontier(me world.Cell) (world.Cell, bool) {
	var best world.Cell
	bestScore := math.Inf(-1)
	found := false
	for dy := -frontierRadius; dy <= frontierRadius; dy++ {
		for dx := -frontierRadius; dx <= frontierRadius; dx++ {
			c := world.Cell{Col: me.Col + dx, Row: me.Row + dy}
			d := world.Manhattan(c, me)
			if d < frontierMinDist || d > frontierRadius || s.world.IsBlocked(c) {
				continue
			}
			score := s.Safety(c) +
				0.65*float64(s.unknownNeighbors(c)) -
				0.12*math.Abs(float64(d-frontierIdeal))
			if score > bestScore {
				best, bestScore, found = c, score, true
			}
		}
	}
	return best, found
}

func (s *Selector) unknownNeighbors(c world.Cell) int {
	n := 0
	for _, nb := range c.Neighbors4() {
		if !s.world.Known(nb) {
			n++
		}
	}
	return n
}

// NearestPassable searches outward from target in growing Manhattan rings and
// returns the first cell the planner may enter.
func (s *Selector) NearestPassable(target world.Cell, radius int) (world.Cell, bool) {
	if !s.world.IsBlocked(target) {
		return target, true
	}
	for r := 1; r <= radius; r++ {
		for dy := -r; dy <= r; dy++ {
			rest := r - abs(dy)
			for _, dx := range []int{-rest, rest} {
				c := world.Cell{Col: target.Col + dx, Row: target.Row + dy}
				if !s.world.IsBlocked(c) {
					return c, true
				}
				if rest == 0 {
					break
				}
			}
		}
	}
	return world.Cell{}, false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Package world keeps one vehicle's decaying belief about the battlefield: a
// sparse grid of per-cell safety, danger and blockage accumulators, transient
// occupancy and dead-end timers, and the pickup and checkpoint cells that shape
// movement cost.
package world

import (
	"math"
	"sort"

	"github.com/Jvsin/tank-agent-ai/geometry"
	"github.com/Jvsin/tank-agent-ai/model"
)

// Cell addresses a CellSize x CellSize square of world space.
type Cell struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

// Neighbors4 returns the 4-connected neighbours in the fixed order
// east, west, south, north.
func (c Cell) Neighbors4() [4]Cell {
	return [4]Cell{
		{c.Col + 1, c.Row},
		{c.Col - 1, c.Row},
		{c.Col, c.Row + 1},
		{c.Col, c.Row - 1},
	}
}

// Manhattan returns the taxicab distance between a and b.
func Manhattan(a, b Cell) int {
	return abs(a.Col-b.Col) + abs(a.Row-b.Row)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// CellState is the accumulated belief about one cell. Safe, Danger and Blocked
// only ever grow; the TTL fields count down and clear their signal at zero.
type CellState struct {
	Safe    float64
	Danger  float64
	Blocked float64
	Visits  int

	DeadEndTTL int
	AllyTTL    int
	EnemyTTL   int
}

func (s *CellState) baseline() bool {
	return s.Safe == 0 && s.Danger == 0 && s.Blocked == 0 && s.Visits == 0 &&
		s.DeadEndTTL == 0 && s.AllyTTL == 0 && s.EnemyTTL == 0
}

// Cost shaping. Occupancy and blockage penalties are strictly ordered:
// enemy > ally > blocked > danger > discounts.
const (
	BaseCost       = 1.9
	MinCost        = 0.35
	checkpointMul  = 0.75
	powerupMul     = 0.92
	unknownPenalty = 2.8
	safeCredit     = 0.35
	safeCreditCap  = 3.0
	dangerWeight   = 4.8
	blockedWeight  = 7.2
	pressureWeight = 0.8
	visitWeight    = 0.12
	visitCap       = 12
	allyPenalty    = 8.0
	enemyPenalty   = 12.0
)

// Observation increments.
const (
	obstacleBlocked  = 1.5
	heavyDanger      = 3.0
	lightDanger      = 1.5
	heavyDamage      = 2.0
	safeTerrainBonus = 0.35
	hostileDanger    = 0.2
	hostileDangerCap = 0.6 // sightings alone stay below dangerThreshold
	ownCellSafe      = 0.35

	blockedThreshold = 1.0
	dangerThreshold  = 1.0
)

const (
	DefaultOccupancyTTL = 10
	DefaultPowerupTTL   = 300
	DefaultSweepEvery   = 200
)

// Model is the spatial world model owned by a single vehicle.
type Model struct {
	cellSize     float64
	occupancyTTL int
	powerupTTL   int
	sweepEvery   int

	cells       map[Cell]*CellState
	powerups    map[Cell]int
	checkpoints map[Cell]struct{}
	impassable  map[Cell]struct{}
	ticks       int
}

// New creates an empty model whose cells are cellSize world units wide.
func New(cellSize float64) *Model {
	if cellSize <= 0 {
		cellSize = 10
	}
	return &Model{
		cellSize:     cellSize,
		occupancyTTL: DefaultOccupancyTTL,
		powerupTTL:   DefaultPowerupTTL,
		sweepEvery:   DefaultSweepEvery,
		cells:        make(map[Cell]*CellState),
		powerups:     make(map[Cell]int),
		checkpoints:  make(map[Cell]struct{}),
		impassable:   make(map[Cell]struct{}),
	}
}

// CellSize returns the world-space width of one cell.
func (m *Model) CellSize() float64 { return m.cellSize }

// CellAt maps a world position to the cell containing it.
func (m *Model) CellAt(p geometry.Point) Cell {
	return Cell{
		Col: int(math.Floor(p.X / m.cellSize)),
		Row: int(math.Floor(p.Y / m.cellSize)),
	}
}

// Center returns the world position of the centre of c.
func (m *Model) Center(c Cell) geometry.Point {
	return geometry.Point{
		X: (float64(c.Col) + 0.5) * m.cellSize,
		Y: (float64(c.Row) + 0.5) * m.cellSize,
	}
}

// touch returns the state for c, creating it on first write.
func (m *Model) touch(c Cell) *CellState {
	st, ok := m.cells[c]
	if !ok {
		st = &CellState{}
		m.cells[c] = st
	}
	return st
}

// State returns a copy of the belief about c and whether c has ever been
// observed. Reading never creates a cell.
func (m *Model) State(c Cell) (CellState, bool) {
	st, ok := m.cells[c]
	if !ok {
		return CellState{}, false
	}
	return *st, true
}

// Known reports whether c has ever been written to.
func (m *Model) Known(c Cell) bool {
	_, ok := m.cells[c]
	return ok
}

// Len returns the number of tracked cells.
func (m *Model) Len() int { return len(m.cells) }

// SeedTerrain marks the cells covering impassable tiles of the bootstrap grid.
func (m *Model) SeedTerrain(grid *model.TerrainGrid) {
	if grid == nil {
		return
	}
	for row := 0; row < grid.Rows; row++ {
		for col := 0; col < grid.Cols; col++ {
			if grid.At(col, row).Impassable() {
				m.impassable[m.CellAt(grid.CellCenter(col, row))] = struct{}{}
			}
		}
	}
}

// SetCheckpoints records the corridor waypoints as preferred cells.
func (m *Model) SetCheckpoints(points []geometry.Point) {
	clear(m.checkpoints)
	for _, p := range points {
		m.checkpoints[m.CellAt(p)] = struct{}{}
	}
}

// Decay ages every timer by one tick. A timer reaching zero clears only its own
// signal. Baseline cells are swept periodically to bound memory.
func (m *Model) Decay() {
	m.ticks++
	for _, st := range m.cells {
		if st.DeadEndTTL > 0 {
			st.DeadEndTTL--
		}
		if st.AllyTTL > 0 {
			st.AllyTTL--
		}
		if st.EnemyTTL > 0 {
			st.EnemyTTL--
		}
	}
	for c, ttl := range m.powerups {
		if ttl <= 1 {
			delete(m.powerups, c)
			continue
		}
		m.powerups[c] = ttl - 1
	}
	if m.sweepEvery > 0 && m.ticks%m.sweepEvery == 0 {
		m.Sweep()
	}
}

// Sweep drops cells whose accumulators are all zero and whose timers are idle.
// It returns the number of cells removed.
func (m *Model) Sweep() int {
	n := 0
	for c, st := range m.cells {
		if st.baseline() {
			delete(m.cells, c)
			n++
		}
	}
	return n
}

// Observe ingests one tick of sensor data seen from own.
func (m *Model) Observe(s model.SensorSnapshot, own geometry.Point, team int) {
	me := m.CellAt(own)
	st := m.touch(me)
	st.Safe += ownCellSafe
	st.Visits++

	for _, o := range s.Obstacles {
		m.touch(m.CellAt(o.Position)).Blocked += obstacleBlocked
	}

	for _, t := range s.Terrains {
		cst := m.touch(m.CellAt(t.Position))
		switch {
		case t.Damage >= heavyDamage:
			cst.Danger += heavyDanger
		case t.Damage > 0:
			cst.Danger += lightDanger
		default:
			cst.Safe += safeTerrainBonus
		}
	}

	for _, t := range s.Tanks {
		c := m.CellAt(t.Position)
		cst := m.touch(c)
		if t.Team != 0 && t.Team == team {
			cst.AllyTTL = max(cst.AllyTTL, m.occupancyTTL)
			continue
		}
		cst.EnemyTTL = max(cst.EnemyTTL, m.occupancyTTL)
		if cst.Danger < hostileDangerCap {
			cst.Danger = math.Min(cst.Danger+hostileDanger, hostileDangerCap)
		}
	}

	seen := make(map[Cell]struct{}, len(s.Powerups))
	for _, p := range s.Powerups {
		c := m.CellAt(p.Position)
		seen[c] = struct{}{}
		m.powerups[c] = m.powerupTTL
	}
	// Standing on a remembered pickup that is no longer visible means it was taken.
	if _, ok := m.powerups[me]; ok {
		if _, visible := seen[me]; !visible {
			delete(m.powerups, me)
		}
	}
}

// MarkDeadEnd makes c impassable for ttl ticks. An existing longer timer is kept.
func (m *Model) MarkDeadEnd(c Cell, ttl int) {
	st := m.touch(c)
	st.DeadEndTTL = max(st.DeadEndTTL, ttl)
}

// AddDanger raises the accumulated danger of c.
func (m *Model) AddDanger(c Cell, amount float64) {
	m.touch(c).Danger += amount
}

// IsBlocked reports whether the planner must not enter c.
func (m *Model) IsBlocked(c Cell) bool {
	if _, ok := m.impassable[c]; ok {
		return true
	}
	st, ok := m.cells[c]
	if !ok {
		return false
	}
	return st.DeadEndTTL > 0 || st.Blocked >= blockedThreshold
}

// IsDangerous reports whether accumulated danger at c reached the threshold.
func (m *Model) IsDangerous(c Cell) bool {
	st, ok := m.cells[c]
	return ok && st.Danger >= dangerThreshold
}

// IsDeadEnd reports whether c carries an active dead-end timer.
func (m *Model) IsDeadEnd(c Cell) bool {
	st, ok := m.cells[c]
	return ok && st.DeadEndTTL > 0
}

// LocalPressure sums blockage and danger around c.
func (m *Model) LocalPressure(c Cell) float64 {
	pressure := 0.0
	for _, n := range c.Neighbors4() {
		st, ok := m.cells[n]
		if !ok {
			continue
		}
		if st.DeadEndTTL > 0 {
			pressure += 1.2
			continue
		}
		pressure += 0.45*st.Blocked + 0.25*st.Danger
	}
	return pressure
}

// MovementCost is the planner's edge cost for entering c. It is never below
// MinCost.
func (m *Model) MovementCost(c Cell) float64 {
	cost := BaseCost
	if _, ok := m.checkpoints[c]; ok {
		cost *= checkpointMul
	}
	if _, ok := m.powerups[c]; ok {
		cost *= powerupMul
	}

	st, ok := m.cells[c]
	if !ok {
		cost += unknownPenalty
		cost += pressureWeight * m.LocalPressure(c)
		return math.Max(MinCost, cost)
	}

	cost -= safeCredit * math.Min(st.Safe, safeCreditCap)
	cost += dangerWeight * st.Danger
	cost += blockedWeight * st.Blocked
	cost += pressureWeight * m.LocalPressure(c)
	cost += visitWeight * float64(min(st.Visits, visitCap))
	if st.AllyTTL > 0 {
		cost += allyPenalty
	}
	if st.EnemyTTL > 0 {
		cost += enemyPenalty
	}
	return math.Max(MinCost, cost)
}

// MinCost returns the lowest value MovementCost can produce.
func (m *Model) MinCost() float64 { return MinCost }

// Powerups returns the remembered pickup cells ordered by column then row.
func (m *Model) Powerups() []Cell {
	out := make([]Cell, 0, len(m.powerups))
	for c := range m.powerups {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Col != out[j].Col {
			return out[i].Col < out[j].Col
		}
		return out[i].Row < out[j].Row
	})
	return out
}

// HasPowerup reports whether c holds a remembered pickup.
func (m *Model) HasPowerup(c Cell) bool {
	_, ok := m.powerups[c]
	return ok
}

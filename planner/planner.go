// Package planner runs a bounded A* search over a vehicle's world model.
package planner

import (
	"container/heap"
	"math"

	"github.com/Jvsin/tank-agent-ai/world"
)

// CostMap is the view of the world the search needs.
type CostMap interface {
	MovementCost(c world.Cell) float64
	IsBlocked(c world.Cell) bool
	MinCost() float64
}

// StateMap exposes raw cell belief for risk scoring.
type StateMap interface {
	State(c world.Cell) (world.CellState, bool)
}

type pathNode struct {
	cell   world.Cell
	g, h   float64
	seq    int // insertion order, breaks f-score ties
	parent *pathNode
	index  int // heap index
}

type openList []*pathNode

func (ol openList) Len() int { return len(ol) }
func (ol openList) Less(i, j int) bool {
	fi, fj := ol[i].g+ol[i].h, ol[j].g+ol[j].h
	if fi != fj {
		return fi < fj
	}
	return ol[i].seq < ol[j].seq
}
func (ol openList) Swap(i, j int)       { ol[i], ol[j] = ol[j], ol[i]; ol[i].index = i; ol[j].index = j }
func (ol *openList) Push(x interface{}) { n := x.(*pathNode); n.index = len(*ol); *ol = append(*ol, n) }
func (ol *openList) Pop() interface{} {
	old := *ol
	n := old[len(old)-1]
	old[len(old)-1] = nil
	*ol = old[:len(old)-1]
	return n
}

// InRadius reports whether c lies inside the square search box of the given
// radius around start.
func InRadius(start, c world.Cell, radius int) bool {
	return abs(c.Col-start.Col) <= radius && abs(c.Row-start.Row) <= radius
}

// FindPath returns the cells from start to goal inclusive, or nil when the
// goal is blocked, outside the search box, or unreachable inside it. The start
// cell is always accepted so a vehicle standing on a blocked cell can leave it.
func FindPath(m CostMap, start, goal world.Cell, radius int) []world.Cell {
	if start == goal {
		return []world.Cell{start}
	}
	if radius < 1 || !InRadius(start, goal, radius) || m.IsBlocked(goal) {
		return nil
	}

	minCost := m.MinCost()
	heuristic := func(c world.Cell) float64 {
		return minCost * float64(world.Manhattan(c, goal))
	}

	seq := 0
	first := &pathNode{cell: start, h: heuristic(start)}
	ol := &openList{first}
	heap.Init(ol)

	closed := make(map[world.Cell]bool)
	best := map[world.Cell]*pathNode{start: first}

	for ol.Len() > 0 {
		cur := heap.Pop(ol).(*pathNode)
		if cur.cell == goal {
			return buildPath(cur)
		}
		if closed[cur.cell] {
			continue
		}
		closed[cur.cell] = true

		for _, n := range cur.cell.Neighbors4() {
			if closed[n] || !InRadius(start, n, radius) || m.IsBlocked(n) {
				continue
			}
			g := cur.g + m.MovementCost(n)
			if prev, ok := best[n]; ok && g >= prev.g {
				continue
			}
			seq++
			node := &pathNode{cell: n, g: g, h: heuristic(n), seq: seq, parent: cur}
			best[n] = node
			heap.Push(ol, node)
		}
	}
	return nil
}

func buildPath(end *pathNode) []world.Cell {
	var cells []world.Cell
	for n := end; n != nil; n = n.parent {
		cells = append(cells, n.cell)
	}
	for i, j := 0, len(cells)-1; i < j; i, j = i+1, j-1 {
		cells[i], cells[j] = cells[j], cells[i]
	}
	return cells
}

// Risk weights.
const (
	riskDanger  = 2.5
	riskBlocked = 3.0
	riskAlly    = 1.5
	riskEnemy   = 4.0
	riskSafe    = 0.2
)

// PathRisk scores a path by the mean of per-cell danger, blockage and
// occupancy, less a small credit for known-safe cells. An empty path has no
// risk.
func PathRisk(m StateMap, path []world.Cell) float64 {
	if len(path) == 0 {
		return 0
	}
	risk := 0.0
	for _, c := range path {
		st, ok := m.State(c)
		if !ok {
			continue
		}
		risk += riskDanger*st.Danger + riskBlocked*st.Blocked - riskSafe*math.Min(st.Safe, 3)
		if st.AllyTTL > 0 {
			risk += riskAlly
		}
		if st.EnemyTTL > 0 {
			risk += riskEnemy
		}
	}
	return risk / float64(len(path))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

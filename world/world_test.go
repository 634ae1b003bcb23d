package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jvsin/tank-agent-ai/geometry"
	"github.com/Jvsin/tank-agent-ai/model"
)

func TestCellMappingRoundTrip(t *testing.T) {
	m := New(10)
	c := m.CellAt(geometry.Point{X: 37.2, Y: 4.9})
	assert.Equal(t, Cell{Col: 3, Row: 0}, c)
	assert.Equal(t, c, m.CellAt(m.Center(c)))
	assert.Equal(t, Cell{Col: -1, Row: -1}, m.CellAt(geometry.Point{X: -0.5, Y: -3}))
}

func TestDecayClearsTimersExactlyAtZero(t *testing.T) {
	m := New(10)
	c := Cell{Col: 2, Row: 2}
	m.MarkDeadEnd(c, 3)
	m.Observe(model.SensorSnapshot{Tanks: []model.SeenTank{{Team: 2, Position: m.Center(c)}}}, geometry.Point{}, 1)

	st, _ := m.State(c)
	require.Equal(t, DefaultOccupancyTTL, st.EnemyTTL)
	danger := st.Danger

	prevDead, prevEnemy := st.DeadEndTTL, st.EnemyTTL
	for i := 1; i <= DefaultOccupancyTTL+2; i++ {
		m.Decay()
		st, _ = m.State(c)
		assert.LessOrEqual(t, st.DeadEndTTL, prevDead)
		assert.LessOrEqual(t, st.EnemyTTL, prevEnemy)
		assert.Equal(t, i < 3, m.IsDeadEnd(c), "dead end after %d decays", i)
		assert.Equal(t, i < DefaultOccupancyTTL, st.EnemyTTL > 0, "enemy occupancy after %d decays", i)
		prevDead, prevEnemy = st.DeadEndTTL, st.EnemyTTL
	}
	// Accumulated history survives the timers.
	assert.Equal(t, danger, st.Danger)
}

func TestMovementCostFloorAndOccupancyOrdering(t *testing.T) {
	m := New(10)
	plain := Cell{Col: 0, Row: 0}
	enemy := Cell{Col: 5, Row: 0}
	ally := Cell{Col: 10, Row: 0}

	// Make all three cells equally well known and very safe.
	for i := 0; i < 10; i++ {
		for _, c := range []Cell{plain, enemy, ally} {
			m.Observe(model.SensorSnapshot{}, m.Center(c), 1)
		}
	}
	assert.GreaterOrEqual(t, m.MovementCost(plain), MinCost)

	m.Observe(model.SensorSnapshot{Tanks: []model.SeenTank{
		{Team: 2, Position: m.Center(enemy)},
		{Team: 1, Position: m.Center(ally)},
	}}, geometry.Point{X: 500, Y: 500}, 1)

	// Strip the hostile-danger bump so only occupancy differs.
	m.cells[enemy].Danger = 0

	assert.Greater(t, m.MovementCost(enemy), m.MovementCost(ally))
	assert.Greater(t, m.MovementCost(ally), m.MovementCost(plain))
}

func TestMovementCostNeverBelowFloor(t *testing.T) {
	m := New(10)
	c := Cell{Col: 1, Row: 1}
	m.SetCheckpoints([]geometry.Point{m.Center(c)})
	m.cells[c] = &CellState{Safe: 100}
	m.powerups[c] = 10
	assert.GreaterOrEqual(t, m.MovementCost(c), MinCost)

	for _, probe := range []Cell{{0, 0}, {-4, 9}, c} {
		assert.GreaterOrEqual(t, m.MovementCost(probe), m.MinCost())
	}
}

func TestPenaltyOrdering(t *testing.T) {
	assert.Greater(t, enemyPenalty, allyPenalty)
	assert.Greater(t, allyPenalty, blockedWeight)
	assert.Greater(t, blockedWeight, dangerWeight)
}

func TestUnknownCellsCostMoreThanKnownSafe(t *testing.T) {
	m := New(10)
	known := Cell{Col: 0, Row: 0}
	m.Observe(model.SensorSnapshot{}, m.Center(known), 1)
	assert.Less(t, m.MovementCost(known), m.MovementCost(Cell{Col: 9, Row: 9}))
	assert.False(t, m.Known(Cell{Col: 9, Row: 9}), "reading cost must not create cells")
}

func TestObserveTerrainAndObstacles(t *testing.T) {
	m := New(10)
	s := model.SensorSnapshot{
		Obstacles: []model.SeenObstacle{{Position: geometry.Point{X: 15, Y: 5}}},
		Terrains: []model.SeenTerrain{
			{Position: geometry.Point{X: 25, Y: 5}, Damage: 5},
			{Position: geometry.Point{X: 35, Y: 5}, Damage: 1},
			{Position: geometry.Point{X: 45, Y: 5}},
		},
	}
	m.Observe(s, geometry.Point{X: 5, Y: 5}, 1)

	assert.True(t, m.IsBlocked(Cell{1, 0}))
	assert.True(t, m.IsDangerous(Cell{2, 0}))
	assert.True(t, m.IsDangerous(Cell{3, 0}))
	assert.False(t, m.IsDangerous(Cell{4, 0}))

	st, ok := m.State(Cell{0, 0})
	require.True(t, ok)
	assert.Equal(t, 1, st.Visits)
	assert.InDelta(t, ownCellSafe, st.Safe, 1e-9)
}

func TestHostileDangerIsCapped(t *testing.T) {
	m := New(10)
	enemy := model.SeenTank{Team: 2, Position: geometry.Point{X: 55, Y: 55}}
	for i := 0; i < 20; i++ {
		m.Observe(model.SensorSnapshot{Tanks: []model.SeenTank{enemy}}, geometry.Point{}, 1)
	}
	st, _ := m.State(Cell{5, 5})
	assert.InDelta(t, hostileDangerCap, st.Danger, 1e-9)
	assert.False(t, m.IsDangerous(Cell{5, 5}), "an enemy's trail is not hazardous ground")
}

func TestPowerupsExpireAndAreCollected(t *testing.T) {
	m := New(10)
	m.powerupTTL = 3
	pos := geometry.Point{X: 25, Y: 25}
	m.Observe(model.SensorSnapshot{Powerups: []model.SeenPowerup{{Position: pos, Kind: "medkit"}}}, geometry.Point{}, 1)
	assert.Equal(t, []Cell{{2, 2}}, m.Powerups())

	for i := 0; i < 3; i++ {
		m.Decay()
	}
	assert.Empty(t, m.Powerups())

	m.Observe(model.SensorSnapshot{Powerups: []model.SeenPowerup{{Position: pos}}}, geometry.Point{}, 1)
	require.True(t, m.HasPowerup(Cell{2, 2}))
	// Driving onto the cell and no longer seeing it means it was picked up.
	m.Observe(model.SensorSnapshot{}, pos, 1)
	assert.False(t, m.HasPowerup(Cell{2, 2}))
}

func TestSeedTerrainMarksImpassable(t *testing.T) {
	grid := &model.TerrainGrid{Cols: 2, Rows: 1, CellSize: 10, Grid: []model.TerrainType{model.Grass, model.Wall}}
	m := New(10)
	m.SeedTerrain(grid)
	assert.False(t, m.IsBlocked(Cell{0, 0}))
	assert.True(t, m.IsBlocked(Cell{1, 0}))
}

func TestLocalPressure(t *testing.T) {
	m := New(10)
	c := Cell{3, 3}
	m.MarkDeadEnd(Cell{4, 3}, 10)
	m.cells[Cell{2, 3}] = &CellState{Blocked: 2, Danger: 4}
	assert.InDelta(t, 1.2+0.9+1.0, m.LocalPressure(c), 1e-9)
}

func TestSweepRemovesBaselineCells(t *testing.T) {
	m := New(10)
	m.Observe(model.SensorSnapshot{Tanks: []model.SeenTank{{Team: 1, Position: geometry.Point{X: 95, Y: 95}}}}, geometry.Point{}, 1)
	require.Equal(t, 2, m.Len())
	for i := 0; i < DefaultOccupancyTTL; i++ {
		m.Decay()
	}
	assert.Equal(t, 1, m.Sweep())
	assert.True(t, m.Known(Cell{0, 0}))
}

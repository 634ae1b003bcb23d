package motion

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jvsin/tank-agent-ai/geometry"
	"github.com/Jvsin/tank-agent-ai/model"
	"github.com/Jvsin/tank-agent-ai/world"
)

func newController(seed int64) (*Controller, *world.Model) {
	w := world.New(10)
	return New(w, rand.New(rand.NewSource(seed))), w
}

func TestSteerBands(t *testing.T) {
	pos := geometry.Point{}
	tests := []struct {
		name      string
		heading   float64
		wantTurn  float64
		wantSpeed float64
	}{
		{"aligned", 0, 0, 3},
		{"slightly off", 3, 0, 3},
		{"medium left", 12, -10, 3},
		{"medium right", -12, 10, 3},
		{"wide", 40, -16, 3 * 0.76},
		{"large", 90, -22, 1.5},
		{"behind", 180, 22, 1.5},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out := Steer(geometry.Point{X: 10}, pos, tc.heading, 3)
			assert.InDelta(t, tc.wantTurn, out.Turn, 1e-9)
			assert.InDelta(t, tc.wantSpeed, out.Speed, 1e-9)
		})
	}
}

func TestPinnedVehicleTriggersOneEpisode(t *testing.T) {
	c, w := newController(7)
	pos := geometry.Point{X: 55, Y: 55}
	c.SetPath([]world.Cell{{Col: 6, Row: 5}, {Col: 7, Row: 5}})

	c.UpdateStuck(pos)
	triggers := 0
	for i := 0; i < StuckTicks; i++ {
		c.FollowWaypoint(geometry.Point{X: 100, Y: 55}, pos, 0, 3)
		if c.UpdateStuck(pos) {
			triggers++
			assert.Equal(t, StuckTicks-1, i, "triggered on the wrong tick")
		}
	}
	require.Equal(t, 1, triggers)
	assert.True(t, w.IsDeadEnd(w.CellAt(pos)))
	assert.False(t, c.HasPath())
	assert.True(t, c.Escaping())

	// Still pinned while escaping: no second episode.
	for i := 0; i < escapeMinTicks-1; i++ {
		c.EscapeDrive(0, 3)
		assert.False(t, c.UpdateStuck(pos))
	}
	assert.Equal(t, 1, triggers)
}

func TestMovementDecaysStuckCounter(t *testing.T) {
	c, _ := newController(1)
	pos := geometry.Point{}
	c.UpdateStuck(pos)
	for i := 0; i < 6; i++ {
		c.FollowWaypoint(geometry.Point{X: 100}, pos, 0, 3)
		c.UpdateStuck(pos)
	}
	require.Equal(t, 6, c.StuckCount())

	pos = pos.Add(2, 0)
	c.UpdateStuck(pos)
	assert.Equal(t, 5, c.StuckCount(), "a single move decays, it does not reset")
}

func TestIdleVehicleIsNotStuck(t *testing.T) {
	c, _ := newController(1)
	pos := geometry.Point{}
	for i := 0; i < 3*StuckTicks; i++ {
		c.Hold()
		assert.False(t, c.UpdateStuck(pos))
	}
}

func TestEscapeIsReplayableAndBounded(t *testing.T) {
	a, _ := newController(42)
	b, _ := newController(42)
	a.StartEscape()
	b.StartEscape()
	assert.Equal(t, a.EscapeHeading(), b.EscapeHeading())
	assert.GreaterOrEqual(t, a.EscapeHeading(), 0.0)
	assert.Less(t, a.EscapeHeading(), 360.0)

	ticks := 0
	for a.Escaping() {
		out := a.EscapeDrive(0, 3)
		assert.LessOrEqual(t, out.Turn, escapeMaxTurn)
		assert.GreaterOrEqual(t, out.Turn, -escapeMaxTurn)
		assert.Equal(t, 3.0, out.Speed)
		ticks++
		require.LessOrEqual(t, ticks, escapeMaxTicks)
	}
	assert.GreaterOrEqual(t, ticks, escapeMinTicks)
	assert.Equal(t, Driving, a.State())
}

func TestEscapeAvoidsBlockedCellAhead(t *testing.T) {
	center := geometry.Point{X: 5, Y: 5}

	open, _ := newController(7)
	open.UpdateStuck(center)
	open.StartEscape()
	first := open.EscapeHeading()

	c, w := newController(7)
	blocked := w.CellAt(geometry.Project(center, first, w.CellSize()))
	w.MarkDeadEnd(blocked, 100)
	c.UpdateStuck(center)
	c.StartEscape()

	assert.NotEqual(t, first, c.EscapeHeading())
	ahead := w.CellAt(geometry.Project(center, c.EscapeHeading(), w.CellSize()))
	assert.False(t, w.IsBlocked(ahead))
}

func TestFollowPathPopsReachedCells(t *testing.T) {
	c, w := newController(1)
	c.SetPath([]world.Cell{{Col: 0, Row: 0}, {Col: 1, Row: 0}, {Col: 2, Row: 0}})

	out, ok := c.FollowPath(w.Center(world.Cell{Col: 0, Row: 0}), 0, 3)
	require.True(t, ok)
	assert.Equal(t, []world.Cell{{Col: 1, Row: 0}, {Col: 2, Row: 0}}, c.Path())
	assert.Zero(t, out.Turn)

	_, ok = c.FollowPath(w.Center(world.Cell{Col: 1, Row: 0}), 0, 3)
	require.True(t, ok)
	assert.Equal(t, []world.Cell{{Col: 2, Row: 0}}, c.Path())

	_, ok = c.FollowPath(w.Center(world.Cell{Col: 2, Row: 0}), 0, 3)
	assert.False(t, ok)
	assert.False(t, c.HasPath())
}

func TestFollowPathDetoursAroundDanger(t *testing.T) {
	c, w := newController(1)
	here := world.Cell{Col: 5, Row: 5}
	danger := world.Cell{Col: 6, Row: 5}
	w.AddDanger(danger, 3)
	// A known-safe neighbour to the south.
	w.Observe(model.SensorSnapshot{}, w.Center(world.Cell{Col: 5, Row: 6}), 1)
	w.Observe(model.SensorSnapshot{}, w.Center(world.Cell{Col: 5, Row: 6}), 1)

	c.SetPath([]world.Cell{danger, {Col: 7, Row: 5}})
	pos := w.Center(here)
	out, ok := c.FollowPath(pos, 0, 3)
	require.True(t, ok)
	// Bearing to the south neighbour is 90 degrees, so the hull turns right.
	assert.InDelta(t, 22, out.Turn, 1e-9)
	assert.Equal(t, danger, c.Path()[0], "detour does not rewrite the path")
}

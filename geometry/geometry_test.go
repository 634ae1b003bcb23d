package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAngleDiff(t *testing.T) {
	tests := []struct {
		target, current, want float64
	}{
		{90, 0, 90},
		{0, 90, -90},
		{350, 10, -20},
		{10, 350, 20},
		{180, 0, 180},
		{0, 180, 180},
		{720, 0, 0},
		{-30, 30, -60},
	}
	for _, tc := range tests {
		assert.InDelta(t, tc.want, AngleDiff(tc.target, tc.current), 1e-9,
			"AngleDiff(%v, %v)", tc.target, tc.current)
	}
}

func TestBearing(t *testing.T) {
	origin := Point{}
	assert.InDelta(t, 0, Bearing(origin, Point{X: 5}), 1e-9)
	assert.InDelta(t, 90, Bearing(origin, Point{Y: 5}), 1e-9)
	assert.InDelta(t, 180, Bearing(origin, Point{X: -5}), 1e-9)
	assert.InDelta(t, 270, Bearing(origin, Point{Y: -5}), 1e-9)
}

func TestWrap360(t *testing.T) {
	assert.InDelta(t, 350, Wrap360(-10), 1e-9)
	assert.InDelta(t, 10, Wrap360(370), 1e-9)
	assert.InDelta(t, 0, Wrap360(360), 1e-9)
}

func TestProjectAndDistance(t *testing.T) {
	p := Project(Point{X: 1, Y: 1}, 90, 3)
	assert.InDelta(t, 1, p.X, 1e-9)
	assert.InDelta(t, 4, p.Y, 1e-9)
	assert.InDelta(t, 5, Distance(Point{}, Point{X: 3, Y: 4}), 1e-9)
}

func TestClampAndSign(t *testing.T) {
	assert.Equal(t, 2.0, Clamp(5, -2, 2))
	assert.Equal(t, -2.0, Clamp(-5, -2, 2))
	assert.Equal(t, 1.5, Clamp(1.5, -2, 2))
	assert.Equal(t, -1.0, Sign(-0.1))
	assert.Equal(t, 0.0, Sign(0))
	assert.Equal(t, 1.0, Sign(math.SmallestNonzeroFloat64))
}

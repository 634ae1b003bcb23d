// Package geometry holds the stateless angle and distance math shared by the
// rest of the controller. Angles are in degrees, measured with atan2 on the
// world axes and normalized to [0, 360) for bearings.
package geometry

import "math"

// Point is a position in world space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p translated by (dx, dy).
func (p Point) Add(dx, dy float64) Point {
	return Point{X: p.X + dx, Y: p.Y + dy}
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// Bearing returns the absolute angle from `from` towards `to`, in [0, 360).
func Bearing(from, to Point) float64 {
	deg := math.Atan2(to.Y-from.Y, to.X-from.X) * 180 / math.Pi
	return Wrap360(deg)
}

// Wrap360 maps any angle into [0, 360).
func Wrap360(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

// AngleDiff returns the signed shortest rotation from current to target,
// in (-180, 180].
func AngleDiff(target, current float64) float64 {
	diff := math.Mod(target-current, 360)
	if diff > 180 {
		diff -= 360
	} else if diff <= -180 {
		diff += 360
	}
	return diff
}

// Project returns the point `dist` units away from p along heading deg.
func Project(p Point, deg, dist float64) Point {
	rad := deg * math.Pi / 180
	return Point{X: p.X + math.Cos(rad)*dist, Y: p.Y + math.Sin(rad)*dist}
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}

// Sign returns -1, 0 or 1.
func Sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

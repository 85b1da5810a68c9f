// Package geom implements the path algebra used to describe track geometry:
// straight and circular segments, compound chains of them, and the queries
// needed to place objects on them and to edit them.
package geom

import (
	"math"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r2"
)

// Point is a point (or a vector) in the layout plane.
type Point = r2.Vec

// Position is a distance along a path, measured from its start.
type Position = float64

const (
	// PointTolerance is the largest distance between two path ends that are
	// still considered joined.
	PointTolerance = 0.01
	// OrientationTolerance is the largest orientation difference between two
	// joined path ends.
	OrientationTolerance Angle = 0.1 * math.Pi / 180

	// positionTolerance is used for positions along a path and degenerate
	// lengths.
	positionTolerance = 1e-6
)

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Distance returns the euclidean distance between p and q.
func Distance(p, q Point) float64 {
	return r2.Norm(r2.Sub(p, q))
}

// Near reports whether p and q are within PointTolerance of each other.
func Near(p, q Point) bool {
	return Distance(p, q) < PointTolerance
}

// left returns v rotated by 90° counter-clockwise.
func left(v Point) Point {
	return Point{X: -v.Y, Y: v.X}
}

func nearPosition(a, b Position) bool {
	return scalar.EqualWithinAbs(a, b, positionTolerance)
}

// clampPosition reports whether x lies on [0, length] (within tolerance) and
// returns it clamped onto that range.
func clampPosition(x Position, length float64) (Position, bool) {
	if x < -positionTolerance || x > length+positionTolerance {
		return 0, false
	}
	return math.Max(0, math.Min(length, x)), true
}

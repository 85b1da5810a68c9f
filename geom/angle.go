package geom

import (
	"fmt"
	"math"
)

// Angle is an unbounded angle in radians.
type Angle float64

// Degrees converts an angle in degrees to an Angle.
func Degrees(deg float64) Angle {
	return Angle(deg * math.Pi / 180)
}

// Degrees returns a in degrees.
func (a Angle) Degrees() float64 {
	return float64(a) * 180 / math.Pi
}

func (a Angle) String() string {
	return fmt.Sprintf("%.4f°", a.Degrees())
}

// circleAngleTolerance is the tolerance of CircleAngle.Equal (0.00001°).
const circleAngleTolerance = 0.00001 * math.Pi / 180

// CircleAngle is a bearing normalized to (-π, π].
// The zero value points along the positive X axis; angles grow
// counter-clockwise.
type CircleAngle float64

// NewCircleAngle normalizes a.
func NewCircleAngle(a Angle) CircleAngle {
	r := math.Mod(float64(a), 2*math.Pi)
	if r <= -math.Pi {
		r += 2 * math.Pi
	} else if r > math.Pi {
		r -= 2 * math.Pi
	}
	return CircleAngle(r)
}

// Bearing returns the direction from p to q.
func Bearing(p, q Point) CircleAngle {
	return CircleAngle(math.Atan2(q.Y-p.Y, q.X-p.X))
}

func (c CircleAngle) Angle() Angle {
	return Angle(c)
}

func (c CircleAngle) Degrees() float64 {
	return Angle(c).Degrees()
}

func (c CircleAngle) String() string {
	return Angle(c).String()
}

// Opposite returns the bearing pointing the other way.
func (c CircleAngle) Opposite() CircleAngle {
	return NewCircleAngle(Angle(c) + math.Pi)
}

// Add rotates c by a.
func (c CircleAngle) Add(a Angle) CircleAngle {
	return NewCircleAngle(Angle(c) + a)
}

// Sub returns the signed shortest rotation from d to c, in (-π, π].
func (c CircleAngle) Sub(d CircleAngle) Angle {
	return Angle(NewCircleAngle(Angle(c) - Angle(d)))
}

// Equal reports whether c and d are the same bearing within 0.00001°.
func (c CircleAngle) Equal(d CircleAngle) bool {
	return math.Abs(float64(c.Sub(d))) < circleAngleTolerance
}

// Within reports whether c and d differ by less than tol.
func (c CircleAngle) Within(d CircleAngle, tol Angle) bool {
	return math.Abs(float64(c.Sub(d))) < float64(tol)
}

// Vector returns the unit vector pointing along c.
func (c CircleAngle) Vector() Point {
	return Point{X: math.Cos(float64(c)), Y: math.Sin(float64(c))}
}

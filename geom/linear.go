package geom

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// LinearPath is a straight segment.
type LinearPath struct {
	start, end Point
}

// NewLinearPath returns the segment from start to end. It fails if the two
// points coincide.
func NewLinearPath(start, end Point) (LinearPath, bool) {
	if Distance(start, end) <= positionTolerance {
		return LinearPath{}, false
	}
	return LinearPath{start: start, end: end}, true
}

// NewLinearPathFrom returns the segment of the given length starting at start
// and heading along orientation.
func NewLinearPathFrom(start Point, orientation CircleAngle, length float64) (LinearPath, bool) {
	return NewLinearPath(start, r2.Add(start, r2.Scale(length, orientation.Vector())))
}

func (l LinearPath) finitePath()      {}
func (l LinearPath) atomicPath()      {}
func (l LinearPath) Kind() AtomicKind { return KindLinear }

func (l LinearPath) Start() Point { return l.start }
func (l LinearPath) End() Point   { return l.end }

func (l LinearPath) Length() float64 {
	return Distance(l.start, l.end)
}

// Direction is the bearing from start to end.
func (l LinearPath) Direction() CircleAngle {
	return Bearing(l.start, l.end)
}

func (l LinearPath) StartOrientation() CircleAngle { return l.Direction() }
func (l LinearPath) EndOrientation() CircleAngle   { return l.Direction() }

func (l LinearPath) unit() Point {
	return r2.Unit(r2.Sub(l.end, l.start))
}

func (l LinearPath) PointAt(x Position) (Point, bool) {
	x, ok := clampPosition(x, l.Length())
	if !ok {
		return Point{}, false
	}
	return r2.Add(l.start, r2.Scale(x, l.unit())), true
}

func (l LinearPath) OrientationAt(x Position) (CircleAngle, bool) {
	if _, ok := clampPosition(x, l.Length()); !ok {
		return 0, false
	}
	return l.Direction(), true
}

func (l LinearPath) ClosestPoint(target Point) ClosestPoint {
	length := l.Length()
	x := r2.Dot(r2.Sub(target, l.start), l.unit())
	x = math.Max(0, math.Min(length, x))
	p, _ := l.PointAt(x)
	return atomicClosest(KindLinear, Distance(p, target), x, length)
}

// PointsAtDistance solves |start + x·u - p| = d for x, a quadratic in x.
func (l LinearPath) PointsAtDistance(d float64, p Point) []Position {
	u := l.unit()
	s := r2.Sub(l.start, p)
	b := r2.Dot(u, s)
	c := r2.Norm2(s) - d*d
	disc := b*b - c
	if disc < -positionTolerance {
		return nil
	}
	var roots []Position
	if disc <= positionTolerance*positionTolerance {
		roots = []Position{-b}
	} else {
		sq := math.Sqrt(disc)
		roots = []Position{-b - sq, -b + sq}
	}
	length := l.Length()
	xs := make([]Position, 0, len(roots))
	for _, x := range roots {
		if x, ok := clampPosition(x, length); ok {
			xs = append(xs, x)
		}
	}
	return sortPositions(xs)
}

func (l LinearPath) Split(x Position) (head, tail LinearPath, ok bool) {
	if x <= positionTolerance || x >= l.Length()-positionTolerance {
		return LinearPath{}, LinearPath{}, false
	}
	p, _ := l.PointAt(x)
	return LinearPath{start: l.start, end: p}, LinearPath{start: p, end: l.end}, true
}

func (l LinearPath) Reverse() LinearPath {
	return LinearPath{start: l.end, end: l.start}
}

// Offset moves the segment sideways by d (positive is left).
func (l LinearPath) Offset(d float64) LinearPath {
	shift := r2.Scale(d, left(l.unit()))
	return LinearPath{start: r2.Add(l.start, shift), end: r2.Add(l.end, shift)}
}

func (l LinearPath) String() string {
	return fmt.Sprintf("linear(%.3f,%.3f→%.3f,%.3f)", l.start.X, l.start.Y, l.end.X, l.end.Y)
}

// combineLinear merges two collinear segments where b continues a.
func combineLinear(a, b LinearPath) (LinearPath, bool) {
	if !Near(a.end, b.start) || !a.Direction().Within(b.Direction(), OrientationTolerance) {
		return LinearPath{}, false
	}
	return NewLinearPath(a.start, b.end)
}

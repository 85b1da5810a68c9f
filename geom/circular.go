package geom

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

const (
	// MinRadius is the smallest radius a CircularPath may have.
	MinRadius = 0.001
	// MinAngle is the smallest sweep a CircularPath may have.
	MinAngle Angle = 1e-6
)

// CircularPath is an arc of a circle.
type CircularPath struct {
	center Point
	radius float64
	// startAngle is the bearing of the start point seen from center.
	startAngle CircleAngle
	// delta is the signed sweep; positive is counter-clockwise.
	delta Angle
}

// NewCircularPath returns the arc around center starting at startAngle and
// sweeping delta. It fails for radius < MinRadius, |delta| < MinAngle or a
// sweep of more than a full turn.
func NewCircularPath(center Point, radius float64, startAngle CircleAngle, delta Angle) (CircularPath, bool) {
	if radius < MinRadius || math.IsNaN(radius) {
		return CircularPath{}, false
	}
	if math.Abs(float64(delta)) < float64(MinAngle) || math.Abs(float64(delta)) > 2*math.Pi+float64(MinAngle) {
		return CircularPath{}, false
	}
	return CircularPath{center: center, radius: radius, startAngle: startAngle, delta: delta}, true
}

// NewCircularPathFrom returns the arc starting at start heading along
// orientation, turning left for positive delta and right for negative.
func NewCircularPathFrom(start Point, orientation CircleAngle, radius float64, delta Angle) (CircularPath, bool) {
	side := 1.0
	if delta < 0 {
		side = -1
	}
	center := r2.Add(start, r2.Scale(side*radius, left(orientation.Vector())))
	return NewCircularPath(center, radius, Bearing(center, start), delta)
}

// NewCircularPathTo returns the arc starting at start heading along
// orientation that passes through end. It fails when end lies straight ahead
// of (or behind) start.
func NewCircularPathTo(start Point, orientation CircleAngle, end Point) (CircularPath, bool) {
	chord := r2.Sub(end, start)
	n := left(orientation.Vector())
	h := r2.Dot(chord, n)
	if math.Abs(h) < positionTolerance {
		return CircularPath{}, false
	}
	// signed radius: positive puts the center on the left (counter-clockwise)
	signed := r2.Norm2(chord) / (2 * h)
	center := r2.Add(start, r2.Scale(signed, n))
	a0, a1 := Bearing(center, start), Bearing(center, end)
	sweep := float64(a1.Sub(a0))
	if signed > 0 && sweep < 0 {
		sweep += 2 * math.Pi
	} else if signed < 0 && sweep > 0 {
		sweep -= 2 * math.Pi
	}
	return NewCircularPath(center, math.Abs(signed), a0, Angle(sweep))
}

func (c CircularPath) finitePath()      {}
func (c CircularPath) atomicPath()      {}
func (c CircularPath) Kind() AtomicKind { return KindCircular }

func (c CircularPath) Center() Point { return c.center }

func (c CircularPath) Radius() float64 { return c.radius }

func (c CircularPath) StartAngle() CircleAngle { return c.startAngle }

func (c CircularPath) Delta() Angle { return c.delta }

func (c CircularPath) Clockwise() bool { return c.delta < 0 }

func (c CircularPath) EndAngle() CircleAngle { return c.startAngle.Add(c.delta) }

func (c CircularPath) Length() float64 { return c.radius * math.Abs(float64(c.delta)) }

func (c CircularPath) Start() Point { return c.pointAtAngle(c.startAngle) }

func (c CircularPath) End() Point { return c.pointAtAngle(c.EndAngle()) }

func (c CircularPath) StartOrientation() CircleAngle { return c.tangent(c.startAngle) }

func (c CircularPath) EndOrientation() CircleAngle { return c.tangent(c.EndAngle()) }

func (c CircularPath) sign() float64 {
	if c.delta < 0 {
		return -1
	}
	return 1
}

func (c CircularPath) angleAt(x Position) CircleAngle {
	return c.startAngle.Add(Angle(c.sign() * x / c.radius))
}

func (c CircularPath) pointAtAngle(a CircleAngle) Point {
	return r2.Add(c.center, r2.Scale(c.radius, a.Vector()))
}

func (c CircularPath) tangent(a CircleAngle) CircleAngle {
	return a.Add(Angle(c.sign() * math.Pi / 2))
}

func (c CircularPath) PointAt(x Position) (Point, bool) {
	x, ok := clampPosition(x, c.Length())
	if !ok {
		return Point{}, false
	}
	return c.pointAtAngle(c.angleAt(x)), true
}

func (c CircularPath) OrientationAt(x Position) (CircleAngle, bool) {
	x, ok := clampPosition(x, c.Length())
	if !ok {
		return 0, false
	}
	return c.tangent(c.angleAt(x)), true
}

// relative returns how far along the sweep direction a lies from the start
// angle, in [0, 2π).
func (c CircularPath) relative(a CircleAngle) float64 {
	rel := math.Mod(c.sign()*float64(a.Sub(c.startAngle))+2*math.Pi, 2*math.Pi)
	if rel >= 2*math.Pi-positionTolerance/c.radius {
		rel = 0
	}
	return rel
}

func (c CircularPath) ClosestPoint(target Point) ClosestPoint {
	length := c.Length()
	v := r2.Sub(target, c.center)
	dist := r2.Norm(v)
	if dist < positionTolerance {
		// every point is equally close; report the start
		return atomicClosest(KindCircular, c.radius, 0, length)
	}
	rel := c.relative(Bearing(c.center, target))
	if rel <= math.Abs(float64(c.delta)) {
		return atomicClosest(KindCircular, math.Abs(dist-c.radius), rel*c.radius, length)
	}
	ds, de := Distance(target, c.Start()), Distance(target, c.End())
	if ds <= de {
		return atomicClosest(KindCircular, ds, 0, length)
	}
	return atomicClosest(KindCircular, de, length, length)
}

// PointsAtDistance uses the law of cosines: a point q on the circle is d away
// from p when the angle between (p-center) and (q-center) is φ with
// d² = r² + D² - 2rD·cos φ.
func (c CircularPath) PointsAtDistance(d float64, p Point) []Position {
	big := Distance(p, c.center)
	if big < positionTolerance {
		return nil
	}
	cos := (c.radius*c.radius + big*big - d*d) / (2 * c.radius * big)
	if cos > 1+positionTolerance || cos < -1-positionTolerance {
		return nil
	}
	phi := math.Acos(math.Max(-1, math.Min(1, cos)))
	base := Bearing(c.center, p)
	candidates := []CircleAngle{base.Add(Angle(-phi))}
	if phi > positionTolerance {
		candidates = append(candidates, base.Add(Angle(phi)))
	}
	length := c.Length()
	xs := make([]Position, 0, len(candidates))
	for _, a := range candidates {
		x := c.relative(a) * c.radius
		if x, ok := clampPosition(x, length); ok {
			xs = append(xs, x)
		}
	}
	return sortPositions(xs)
}

func (c CircularPath) Split(x Position) (head, tail CircularPath, ok bool) {
	if x <= positionTolerance || x >= c.Length()-positionTolerance {
		return CircularPath{}, CircularPath{}, false
	}
	sweep := Angle(c.sign() * x / c.radius)
	head = CircularPath{center: c.center, radius: c.radius, startAngle: c.startAngle, delta: sweep}
	tail = CircularPath{center: c.center, radius: c.radius, startAngle: c.angleAt(x), delta: c.delta - sweep}
	return head, tail, true
}

func (c CircularPath) Reverse() CircularPath {
	return CircularPath{center: c.center, radius: c.radius, startAngle: c.EndAngle(), delta: -c.delta}
}

// Offset returns the concentric arc d to the left (right if negative).
func (c CircularPath) Offset(d float64) (CircularPath, bool) {
	return NewCircularPath(c.center, c.radius-c.sign()*d, c.startAngle, c.delta)
}

func (c CircularPath) String() string {
	return fmt.Sprintf("circular(c%.3f,%.3f r%.3f from %s by %s)", c.center.X, c.center.Y, c.radius, c.startAngle, c.delta)
}

// combineCircular merges two arcs of the same circle where b continues a.
func combineCircular(a, b CircularPath) (CircularPath, bool) {
	if !Near(a.center, b.center) || math.Abs(a.radius-b.radius) >= PointTolerance {
		return CircularPath{}, false
	}
	if (a.delta < 0) != (b.delta < 0) || !Near(a.End(), b.Start()) {
		return CircularPath{}, false
	}
	return NewCircularPath(a.center, a.radius, a.startAngle, a.delta+b.delta)
}

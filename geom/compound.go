package geom

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/exp/slices"
)

// CompoundPath is a chain of at least two atomic paths, each starting where
// the previous one ends and facing the same way.
type CompoundPath struct {
	components []AtomicPath
	// offsets[i] is the global position where components[i] starts.
	offsets []float64
	length  float64
}

// NewCompoundPath chains components. It fails for fewer than two components
// or if any component does not continue its predecessor.
func NewCompoundPath(components ...AtomicPath) (CompoundPath, bool) {
	if len(components) < 2 {
		return CompoundPath{}, false
	}
	for i := 1; i < len(components); i++ {
		if !Joins(components[i-1], components[i]) {
			return CompoundPath{}, false
		}
	}
	return newCompoundPath(components), true
}

func newCompoundPath(components []AtomicPath) CompoundPath {
	if len(components) < 2 {
		panic(fmt.Sprintf("compound path with %d components", len(components)))
	}
	c := CompoundPath{
		components: slices.Clone(components),
		offsets:    make([]float64, len(components)),
	}
	for i, comp := range c.components {
		c.offsets[i] = c.length
		c.length += comp.Length()
	}
	return c
}

func (c CompoundPath) finitePath() {}

// Components returns a copy of the component list.
func (c CompoundPath) Components() []AtomicPath {
	return slices.Clone(c.components)
}

func (c CompoundPath) Start() Point                  { return c.components[0].Start() }
func (c CompoundPath) End() Point                    { return c.components[len(c.components)-1].End() }
func (c CompoundPath) StartOrientation() CircleAngle { return c.components[0].StartOrientation() }
func (c CompoundPath) EndOrientation() CircleAngle   { return c.components[len(c.components)-1].EndOrientation() }
func (c CompoundPath) Length() float64               { return c.length }

// locate returns the component containing x and x in its local coordinates.
func (c CompoundPath) locate(x Position) (i int, local Position, ok bool) {
	x, ok = clampPosition(x, c.length)
	if !ok {
		return 0, 0, false
	}
	last := len(c.components) - 1
	for i = 0; i < last; i++ {
		if x < c.offsets[i+1] {
			break
		}
	}
	local = math.Max(0, math.Min(c.components[i].Length(), x-c.offsets[i]))
	return i, local, true
}

func (c CompoundPath) PointAt(x Position) (Point, bool) {
	i, local, ok := c.locate(x)
	if !ok {
		return Point{}, false
	}
	return c.components[i].PointAt(local)
}

func (c CompoundPath) OrientationAt(x Position) (CircleAngle, bool) {
	i, local, ok := c.locate(x)
	if !ok {
		return 0, false
	}
	return c.components[i].OrientationAt(local)
}

func (c CompoundPath) ClosestPoint(target Point) ClosestPoint {
	best := -1
	var cp ClosestPoint
	for i, comp := range c.components {
		got := comp.ClosestPoint(target)
		if best == -1 || got.Distance < cp.Distance {
			best, cp = i, got
		}
	}
	last := len(c.components) - 1
	switch {
	case cp.Kind == ClosestEnd && best < last:
		cp.Kind = ClosestJoint
		cp.After = c.components[best+1].Kind()
	case cp.Kind == ClosestStart && best > 0:
		cp.Kind = ClosestJoint
		cp.Before = c.components[best-1].Kind()
	}
	cp.Position += c.offsets[best]
	return cp
}

func (c CompoundPath) PointsAtDistance(d float64, p Point) []Position {
	var xs []Position
	for i, comp := range c.components {
		for _, x := range comp.PointsAtDistance(d, p) {
			xs = append(xs, c.offsets[i]+x)
		}
	}
	return sortPositions(xs)
}

// Split cuts the path at x. A cut on a component boundary divides the
// component list there; a side left with one component becomes that atomic
// path.
func (c CompoundPath) Split(x Position) (head, tail FinitePath, ok bool) {
	if x <= positionTolerance || x >= c.length-positionTolerance {
		return nil, nil, false
	}
	for i := 1; i < len(c.components); i++ {
		if nearPosition(x, c.offsets[i]) {
			return fromComponents(slices.Clone(c.components[:i])), fromComponents(slices.Clone(c.components[i:])), true
		}
	}
	i, local, _ := c.locate(x)
	h, t, ok := Split(c.components[i], local)
	if !ok {
		// local is within tolerance of a component end
		if local < c.components[i].Length()/2 {
			return fromComponents(slices.Clone(c.components[:i])), fromComponents(slices.Clone(c.components[i:])), true
		}
		return fromComponents(slices.Clone(c.components[:i+1])), fromComponents(slices.Clone(c.components[i+1:])), true
	}
	heads := append(slices.Clone(c.components[:i]), h.(AtomicPath))
	tails := append([]AtomicPath{t.(AtomicPath)}, c.components[i+1:]...)
	return fromComponents(heads), fromComponents(tails), true
}

func (c CompoundPath) Reverse() CompoundPath {
	list := make([]AtomicPath, len(c.components))
	for i, comp := range c.components {
		list[len(list)-1-i] = Reverse(comp).(AtomicPath)
	}
	return newCompoundPath(list)
}

// Offset offsets every component by d.
func (c CompoundPath) Offset(d float64) (CompoundPath, bool) {
	list := make([]AtomicPath, len(c.components))
	for i, comp := range c.components {
		o, ok := Offset(comp, d)
		if !ok {
			return CompoundPath{}, false
		}
		list[i] = o.(AtomicPath)
	}
	return newCompoundPath(list), true
}

func (c CompoundPath) String() string {
	b := new(strings.Builder)
	b.WriteString("compound(")
	for i, comp := range c.components {
		if i > 0 {
			b.WriteString(" ")
		}
		fmt.Fprint(b, comp)
	}
	b.WriteString(")")
	return b.String()
}

package geom

import (
	"fmt"
	"math"

	"golang.org/x/exp/slices"
)

// AtomicKind identifies the kind of an AtomicPath.
type AtomicKind int

const (
	KindLinear AtomicKind = iota + 1
	KindCircular
)

func (k AtomicKind) String() string {
	switch k {
	case 0:
		return "none"
	case KindLinear:
		return "linear"
	case KindCircular:
		return "circular"
	default:
		return fmt.Sprint(int(k))
	}
}

// FinitePath is one of LinearPath, CircularPath or CompoundPath.
type FinitePath interface {
	Start() Point
	End() Point
	StartOrientation() CircleAngle
	EndOrientation() CircleAngle
	Length() float64

	// PointAt returns the point at x. It returns false if x is outside
	// [0, Length()].
	PointAt(x Position) (Point, bool)
	// OrientationAt returns the direction of travel at x. It returns false if
	// x is outside [0, Length()].
	OrientationAt(x Position) (CircleAngle, bool)
	// ClosestPoint returns the point on the path nearest to target.
	ClosestPoint(target Point) ClosestPoint
	// PointsAtDistance returns, in ascending order, every position on the
	// path whose point is exactly d away from p.
	PointsAtDistance(d float64, p Point) []Position

	finitePath()
}

// AtomicPath is one of LinearPath or CircularPath.
type AtomicPath interface {
	FinitePath
	Kind() AtomicKind
	atomicPath()
}

// ClosestKind classifies where on a path a closest point lies.
type ClosestKind int

const (
	// ClosestInterior is strictly inside a segment.
	ClosestInterior ClosestKind = iota
	// ClosestStart is the start of the path.
	ClosestStart
	// ClosestEnd is the end of the path.
	ClosestEnd
	// ClosestJoint is a joint between two components of a CompoundPath.
	ClosestJoint
)

func (k ClosestKind) String() string {
	switch k {
	case ClosestInterior:
		return "interior"
	case ClosestStart:
		return "start"
	case ClosestEnd:
		return "end"
	case ClosestJoint:
		return "joint"
	default:
		return fmt.Sprint(int(k))
	}
}

// ClosestPoint is the result of FinitePath.ClosestPoint.
type ClosestPoint struct {
	Distance float64
	Position Position
	Kind     ClosestKind
	// Before and After are the kinds of the atomic paths on either side of
	// the closest point. Before is zero at the start of a path and After is
	// zero at its end.
	Before, After AtomicKind
}

func atomicClosest(kind AtomicKind, distance float64, x Position, length float64) ClosestPoint {
	switch {
	case x <= positionTolerance:
		return ClosestPoint{Distance: distance, Position: 0, Kind: ClosestStart, After: kind}
	case x >= length-positionTolerance:
		return ClosestPoint{Distance: distance, Position: length, Kind: ClosestEnd, Before: kind}
	default:
		return ClosestPoint{Distance: distance, Position: x, Kind: ClosestInterior, Before: kind, After: kind}
	}
}

// Joins reports whether b can follow a: a ends where b starts, facing the
// same way.
func Joins(a, b FinitePath) bool {
	return Near(a.End(), b.Start()) && a.EndOrientation().Within(b.StartOrientation(), OrientationTolerance)
}

// Reverse returns p traversed from end to start.
func Reverse(p FinitePath) FinitePath {
	switch p := p.(type) {
	case LinearPath:
		return p.Reverse()
	case CircularPath:
		return p.Reverse()
	case CompoundPath:
		return p.Reverse()
	default:
		panic(fmt.Sprintf("unknown path type %T", p))
	}
}

// Offset returns the path running parallel to p at distance d to its left
// (right if d is negative). It fails if a circular component would shrink
// below MinRadius.
func Offset(p FinitePath, d float64) (FinitePath, bool) {
	switch p := p.(type) {
	case LinearPath:
		return p.Offset(d), true
	case CircularPath:
		o, ok := p.Offset(d)
		if !ok {
			return nil, false
		}
		return o, true
	case CompoundPath:
		o, ok := p.Offset(d)
		if !ok {
			return nil, false
		}
		return o, true
	default:
		panic(fmt.Sprintf("unknown path type %T", p))
	}
}

// Split cuts p at x into a head [0, x] and a tail [x, length]. x must lie
// strictly inside the path.
func Split(p FinitePath, x Position) (head, tail FinitePath, ok bool) {
	switch p := p.(type) {
	case LinearPath:
		h, t, ok := p.Split(x)
		if !ok {
			return nil, nil, false
		}
		return h, t, true
	case CircularPath:
		h, t, ok := p.Split(x)
		if !ok {
			return nil, nil, false
		}
		return h, t, true
	case CompoundPath:
		return p.Split(x)
	default:
		panic(fmt.Sprintf("unknown path type %T", p))
	}
}

// Slice returns the part of p between from and to.
func Slice(p FinitePath, from, to Position) (FinitePath, bool) {
	length := p.Length()
	if from < -positionTolerance || to > length+positionTolerance || to-from <= positionTolerance {
		return nil, false
	}
	if from > positionTolerance {
		var ok bool
		_, p, ok = Split(p, from)
		if !ok {
			return nil, false
		}
		to -= from
	}
	if to < p.Length()-positionTolerance {
		var ok bool
		p, _, ok = Split(p, to)
		if !ok {
			return nil, false
		}
	}
	return p, true
}

// Components returns the atomic paths making up p.
func Components(p FinitePath) []AtomicPath {
	switch p := p.(type) {
	case LinearPath:
		return []AtomicPath{p}
	case CircularPath:
		return []AtomicPath{p}
	case CompoundPath:
		return p.Components()
	default:
		panic(fmt.Sprintf("unknown path type %T", p))
	}
}

// Combine joins b onto the end of a. It fails unless Joins(a, b).
//
// Two atomic paths of the same kind that continue each other (collinear
// lines, or arcs on the same circle) become a single atomic path; otherwise
// the result is a CompoundPath.
func Combine(a, b FinitePath) (FinitePath, bool) {
	if !Joins(a, b) {
		return nil, false
	}
	as, bs := Components(a), Components(b)
	list := make([]AtomicPath, 0, len(as)+len(bs))
	list = append(list, as[:len(as)-1]...)
	if m, ok := combineAtomic(as[len(as)-1], bs[0]); ok {
		list = append(list, m)
	} else {
		list = append(list, as[len(as)-1], bs[0])
	}
	list = append(list, bs[1:]...)
	return fromComponents(list), true
}

func combineAtomic(a, b AtomicPath) (AtomicPath, bool) {
	switch a := a.(type) {
	case LinearPath:
		if b, ok := b.(LinearPath); ok {
			l, ok := combineLinear(a, b)
			return l, ok
		}
	case CircularPath:
		if b, ok := b.(CircularPath); ok {
			c, ok := combineCircular(a, b)
			return c, ok
		}
	default:
		panic(fmt.Sprintf("unknown path type %T", a))
	}
	return nil, false
}

// fromComponents builds a path from already-continuous components. A single
// component is returned as is.
func fromComponents(list []AtomicPath) FinitePath {
	switch len(list) {
	case 0:
		panic("no components")
	case 1:
		return list[0]
	default:
		return newCompoundPath(list)
	}
}

// FirstPointAfter returns the smallest position after bound that is d away
// from p.
func FirstPointAfter(path FinitePath, d float64, p Point, bound Position) (Position, bool) {
	for _, x := range path.PointsAtDistance(d, p) {
		if x > bound {
			return x, true
		}
	}
	return 0, false
}

// LastPointBefore returns the largest position before bound that is d away
// from p.
func LastPointBefore(path FinitePath, d float64, p Point, bound Position) (Position, bool) {
	xs := path.PointsAtDistance(d, p)
	for i := len(xs) - 1; i >= 0; i-- {
		if xs[i] < bound {
			return xs[i], true
		}
	}
	return 0, false
}

// sortPositions sorts xs and drops positions closer than the tolerance to
// their predecessor.
func sortPositions(xs []Position) []Position {
	slices.Sort(xs)
	out := xs[:0]
	for i, x := range xs {
		if i > 0 && math.Abs(x-out[len(out)-1]) < positionTolerance*10 {
			continue
		}
		out = append(out, x)
	}
	return out
}

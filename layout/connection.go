package layout

import (
	"fmt"

	"golang.org/x/exp/slices"
	"nyiyui.ca/hato/senro/geom"
	"nyiyui.ca/hato/senro/notify"
)

// SwitchDuration is how long a switch takes to throw over.
const SwitchDuration = 5.0

type SwitchKind int

const (
	// SwitchAbsent means the direction has no tracks.
	SwitchAbsent SwitchKind = iota
	SwitchFixed
	SwitchChanging
)

func (k SwitchKind) String() string {
	switch k {
	case SwitchAbsent:
		return "absent"
	case SwitchFixed:
		return "fixed"
	case SwitchChanging:
		return "changing"
	default:
		return fmt.Sprint(int(k))
	}
}

// SwitchState is the state of one direction of a connection.
type SwitchState struct {
	Kind SwitchKind

	// Track is the route set when Kind is SwitchFixed.
	Track TrackID

	// Previous, Next and Progress describe a change in progress when Kind is
	// SwitchChanging. Progress is in [0, 1).
	Previous TrackID
	Next     TrackID
	Progress float64
}

func Fixed(t TrackID) SwitchState {
	return SwitchState{Kind: SwitchFixed, Track: t}
}

func Changing(previous, next TrackID, progress float64) SwitchState {
	return SwitchState{Kind: SwitchChanging, Previous: previous, Next: next, Progress: progress}
}

// Active returns the route the direction is set to or is being set to.
func (s SwitchState) Active() (TrackID, bool) {
	switch s.Kind {
	case SwitchFixed:
		return s.Track, true
	case SwitchChanging:
		return s.Next, true
	default:
		return 0, false
	}
}

func (s SwitchState) String() string {
	switch s.Kind {
	case SwitchFixed:
		return fmt.Sprintf("fixed(%s)", s.Track)
	case SwitchChanging:
		return fmt.Sprintf("changing(%s, %s, %.3f)", s.Previous, s.Next, s.Progress)
	default:
		return s.Kind.String()
	}
}

// Connection joins track extremities at a point. The bearing DirectionA
// splits the plane in two: tracks leaving the point along DirectionA are
// listed under DirectionA, the rest under DirectionB. Each direction has its
// own switch.
type Connection struct {
	id         ConnectionID
	point      geom.Point
	directionA geom.CircleAngle
	tracks     [2][]TrackID
	switches   [2]SwitchState
	observers  notify.Registry[ConnectionObserver]
	owner      *Map
}

func newConnection(id ConnectionID, point geom.Point, directionA geom.CircleAngle, owner *Map) *Connection {
	return &Connection{id: id, point: point, directionA: directionA, owner: owner}
}

func (c *Connection) String() string {
	return fmt.Sprintf("%s@(%.3f, %.3f)", c.id, c.point.X, c.point.Y)
}

func (c *Connection) ID() ConnectionID { return c.id }

func (c *Connection) Point() geom.Point { return c.point }

func (c *Connection) DirectionA() geom.CircleAngle { return c.directionA }

func (c *Connection) DirectionB() geom.CircleAngle { return c.directionA.Opposite() }

// Bearing returns the bearing of direction d.
func (c *Connection) Bearing(d Direction) geom.CircleAngle {
	if d == DirectionA {
		return c.directionA
	}
	return c.directionA.Opposite()
}

// Tracks returns the members listed under d, in insertion order. The first
// is the default route.
func (c *Connection) Tracks(d Direction) []TrackID {
	return slices.Clone(c.tracks[d])
}

// Len returns the number of member slots in both directions.
func (c *Connection) Len() int {
	return len(c.tracks[DirectionA]) + len(c.tracks[DirectionB])
}

// Has reports whether t is a member, and under which direction.
func (c *Connection) Has(t TrackID) (Direction, bool) {
	for _, d := range []Direction{DirectionA, DirectionB} {
		if slices.Contains(c.tracks[d], t) {
			return d, true
		}
	}
	return 0, false
}

func (c *Connection) State(d Direction) SwitchState { return c.switches[d] }

// Observe subscribes o to changes of c.
func (c *Connection) Observe(comment string, o ConnectionObserver) notify.Handle {
	return c.observers.Subscribe(comment, o)
}

func (c *Connection) Unobserve(h notify.Handle) {
	c.observers.Unsubscribe(h)
}

// direction returns the direction whose bearing matches b.
func (c *Connection) direction(b geom.CircleAngle) (Direction, bool) {
	switch {
	case b.Within(c.directionA, geom.OrientationTolerance):
		return DirectionA, true
	case b.Within(c.directionA.Opposite(), geom.OrientationTolerance):
		return DirectionB, true
	default:
		return 0, false
	}
}

// SwitchDirection sets the route of d to target, which must be listed under
// d. Switching to the route already set (or being set) does nothing.
func (c *Connection) SwitchDirection(d Direction, target TrackID) {
	if c.owner != nil {
		c.owner.begin()
		defer c.owner.end()
	}
	c.switchDirection(d, target)
}

func (c *Connection) SwitchDirectionA(target TrackID) { c.SwitchDirection(DirectionA, target) }

func (c *Connection) SwitchDirectionB(target TrackID) { c.SwitchDirection(DirectionB, target) }

func (c *Connection) switchDirection(d Direction, target TrackID) {
	if !slices.Contains(c.tracks[d], target) {
		panic(fmt.Sprintf("%s: switch %s to non-member %s", c.id, d, target))
	}
	s := c.switches[d]
	switch s.Kind {
	case SwitchFixed:
		if s.Track == target {
			return
		}
		c.switches[d] = Changing(s.Track, target, 0)
	case SwitchChanging:
		if s.Next == target {
			return
		}
		c.switches[d] = Changing(s.Previous, target, 0)
	default:
		panic(fmt.Sprintf("%s: direction %s has members but no switch state", c.id, d))
	}
	c.observers.Each(func(o ConnectionObserver) { o.SwitchStarted(c, d) })
}

func (c *Connection) tick(dt float64) {
	for _, d := range []Direction{DirectionA, DirectionB} {
		s := c.switches[d]
		if s.Kind != SwitchChanging {
			continue
		}
		s.Progress += dt / SwitchDuration
		if s.Progress >= 1 {
			c.switches[d] = Fixed(s.Next)
			c.observers.Each(func(o ConnectionObserver) { o.SwitchStopped(c, d) })
			continue
		}
		c.switches[d] = s
		progress := s.Progress
		c.observers.Each(func(o ConnectionObserver) { o.SwitchProgressed(c, d, progress) })
	}
}

func (c *Connection) addTrack(t TrackID, d Direction) {
	c.tracks[d] = append(c.tracks[d], t)
	if c.switches[d].Kind == SwitchAbsent {
		c.switches[d] = Fixed(t)
	}
	c.observers.Each(func(o ConnectionObserver) { o.TrackAdded(c, t, d) })
}

// replaceTrack rewrites the first occurrence of old under d.
func (c *Connection) replaceTrack(d Direction, old, new TrackID) {
	i := slices.Index(c.tracks[d], old)
	if i == -1 {
		panic(fmt.Sprintf("%s: replace non-member %s under %s", c.id, old, d))
	}
	c.tracks[d][i] = new
	s := &c.switches[d]
	if s.Track == old {
		s.Track = new
	}
	if s.Previous == old {
		s.Previous = new
	}
	if s.Next == old {
		s.Next = new
	}
	c.observers.Each(func(o ConnectionObserver) { o.TrackReplaced(c, old, new, d) })
}

// detach removes the first occurrence of t under d, repairing the switch.
func (c *Connection) detach(d Direction, t TrackID) {
	i := slices.Index(c.tracks[d], t)
	if i == -1 {
		panic(fmt.Sprintf("%s: detach non-member %s under %s", c.id, t, d))
	}
	c.tracks[d] = slices.Delete(c.tracks[d], i, i+1)
	if !slices.Contains(c.tracks[d], t) {
		c.repairSwitch(d, t)
	}
	c.observers.Each(func(o ConnectionObserver) { o.TrackRemoved(c, t) })
}

// removeTrack removes every occurrence of t.
func (c *Connection) removeTrack(t TrackID) {
	for _, d := range []Direction{DirectionA, DirectionB} {
		for slices.Contains(c.tracks[d], t) {
			c.detach(d, t)
		}
	}
}

// repairSwitch moves direction d off removed. Any change of the switch state,
// fixed or changing, ends with SwitchStopped.
func (c *Connection) repairSwitch(d Direction, removed TrackID) {
	s := c.switches[d]
	fallback := func() SwitchState {
		if len(c.tracks[d]) == 0 {
			return SwitchState{}
		}
		return Fixed(c.tracks[d][0])
	}
	switch s.Kind {
	case SwitchFixed:
		if s.Track != removed {
			return
		}
		c.switches[d] = fallback()
	case SwitchChanging:
		switch {
		case s.Previous == removed && s.Next == removed:
			c.switches[d] = fallback()
		case s.Previous == removed:
			c.switches[d] = Fixed(s.Next)
		case s.Next == removed:
			c.switches[d] = Fixed(s.Previous)
		default:
			return
		}
	default:
		return
	}
	c.observers.Each(func(o ConnectionObserver) { o.SwitchStopped(c, d) })
}

func (c *Connection) removed() {
	c.observers.Each(func(o ConnectionObserver) { o.Removed(c) })
	c.observers.Clear()
}

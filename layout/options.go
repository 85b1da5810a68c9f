package layout

import (
	"errors"
	"fmt"

	"nyiyui.ca/hato/senro/geom"
)

var (
	// ErrMisaligned is returned when a new track extremity does not meet its
	// target at the same point and bearing.
	ErrMisaligned = errors.New("extremity not aligned with target")
	// ErrConnected is returned when joining onto a track extremity that
	// already has a connection.
	ErrConnected = errors.New("track extremity already connected")
	// ErrSelfJoin is returned when both extremities of a new track would be
	// joined onto the same track, or when the far extremity of an extended
	// track would split the track being extended.
	ErrSelfJoin = errors.New("track joined to itself")
	// ErrStaleCommand is returned by Command.Apply when the map no longer
	// holds what the command refers to.
	ErrStaleCommand = errors.New("command refers to missing objects")
)

// ConnectionOption says what to join an extremity of a new track to. It is
// one of NoConnection, ToTrackEnd, ToConnection or SplitTrack.
type ConnectionOption interface {
	connectionOption()
}

// NoConnection leaves the extremity bare.
type NoConnection struct{}

// ToTrackEnd joins onto a bare extremity of an existing track, making the new
// path part of that track.
type ToTrackEnd struct {
	Track TrackID
	End   Extremity
}

// ToConnection joins an existing connection.
type ToConnection struct {
	Connection ConnectionID
}

// SplitTrack joins a new connection placed at Position on Track. An interior
// position splits the track in two; a position at either extremity reuses
// (or creates) the connection there.
type SplitTrack struct {
	Track    TrackID
	Position geom.Position
}

func (NoConnection) connectionOption() {}
func (ToTrackEnd) connectionOption()   {}
func (ToConnection) connectionOption() {}
func (SplitTrack) connectionOption()   {}

func (o ToTrackEnd) String() string   { return fmt.Sprintf("%s:%s", o.Track, o.End) }
func (o ToConnection) String() string { return o.Connection.String() }
func (o SplitTrack) String() string   { return fmt.Sprintf("%s@%.3f", o.Track, o.Position) }

// extremityTolerance is how close to an extremity a split position snaps to
// it.
const extremityTolerance = geom.PointTolerance

// resolveOption rewrites opt to refer to what has taken the place of the
// objects it names. It fails if any of them is gone for good.
func (m *Map) resolveOption(opt ConnectionOption) (ConnectionOption, bool) {
	switch o := opt.(type) {
	case nil, NoConnection:
		return NoConnection{}, true
	case ToTrackEnd:
		id, e, ok := m.resolveEnd(o.Track, o.End)
		return ToTrackEnd{Track: id, End: e}, ok
	case ToConnection:
		if m.connections.has(o.Connection) {
			return o, true
		}
		fate, ok := m.connectionFates[o.Connection]
		if !ok {
			return nil, false
		}
		return m.resolveOption(m.restore(fate))
	case SplitTrack:
		id, x := m.resolve(o.Track, o.Position)
		t, ok := m.tracks.get(id)
		if !ok {
			return nil, false
		}
		if _, ok := m.splitPosition(t, x); !ok {
			return nil, false
		}
		return SplitTrack{Track: id, Position: x}, true
	default:
		panic(fmt.Sprintf("unknown connection option %T", opt))
	}
}

// checkOption verifies that extremity e of path can be joined as opt says.
func (m *Map) checkOption(path geom.FinitePath, e Extremity, opt ConnectionOption) error {
	point := extremityPoint(path, e)
	bearing := outward(path, e)
	switch o := opt.(type) {
	case nil, NoConnection:
		return nil
	case ToTrackEnd:
		t := m.mustTrack(o.Track)
		if t.Connection(o.End) != 0 {
			return fmt.Errorf("%s %s: %w", t.id, o.End, ErrConnected)
		}
		if !geom.Near(point, t.Point(o.End)) || !bearing.Within(outward(t.path, o.End).Opposite(), geom.OrientationTolerance) {
			return fmt.Errorf("%s %s: %w", t.id, o.End, ErrMisaligned)
		}
		return nil
	case ToConnection:
		c := m.mustConnection(o.Connection)
		if _, ok := c.direction(bearing); !ok || !geom.Near(point, c.point) {
			return fmt.Errorf("%s: %w", c.id, ErrMisaligned)
		}
		return nil
	case SplitTrack:
		t := m.mustTrack(o.Track)
		x, ok := m.splitPosition(t, o.Position)
		if !ok {
			panic(fmt.Sprintf("layout: split %s outside [0, %f] at %f", t.id, t.Length(), o.Position))
		}
		at, _ := t.path.PointAt(x)
		orientation, _ := t.path.OrientationAt(x)
		aligned := bearing.Within(orientation, geom.OrientationTolerance) || bearing.Within(orientation.Opposite(), geom.OrientationTolerance)
		if !aligned || !geom.Near(point, at) {
			return fmt.Errorf("%s: %w", o, ErrMisaligned)
		}
		return nil
	default:
		panic(fmt.Sprintf("unknown connection option %T", opt))
	}
}

// splitPosition snaps x onto the extremities of t.
func (m *Map) splitPosition(t *Track, x geom.Position) (geom.Position, bool) {
	length := t.Length()
	switch {
	case x < -extremityTolerance || x > length+extremityTolerance:
		return 0, false
	case x <= extremityTolerance:
		return 0, true
	case x >= length-extremityTolerance:
		return length, true
	default:
		return x, true
	}
}

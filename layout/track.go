package layout

import (
	"fmt"

	"nyiyui.ca/hato/senro/geom"
	"nyiyui.ca/hato/senro/notify"
)

const (
	// StandardGauge is the distance between the inner faces of the rails.
	StandardGauge = 1.435
	// StandardRailTopWidth is the width of a rail head.
	StandardRailTopWidth = 0.0725

	// MinTrackRadius is the smallest radius a circular part of a track may
	// have.
	MinTrackRadius = 100
	// MinTrackLength is the smallest length a circular part of a track may
	// have.
	MinTrackLength = 5
)

// ValidTrackPath reports whether p can be laid as track: every circular
// component must be wide and long enough.
func ValidTrackPath(p geom.FinitePath) bool {
	for _, c := range geom.Components(p) {
		if c, ok := c.(geom.CircularPath); ok {
			if c.Radius() < MinTrackRadius || c.Length() < MinTrackLength {
				return false
			}
		}
	}
	return true
}

// Track is a piece of track with a single continuous path. Tracks are created
// and destroyed only by their Map.
type Track struct {
	id         TrackID
	path       geom.FinitePath
	railOffset float64
	leftRail   geom.FinitePath
	rightRail  geom.FinitePath
	start, end ConnectionID
	observers  notify.Registry[TrackObserver]
}

func newTrack(id TrackID, path geom.FinitePath, railOffset float64) *Track {
	t := &Track{id: id, railOffset: railOffset}
	t.derive(path)
	return t
}

func (t *Track) String() string {
	return fmt.Sprintf("%s%s", t.id, t.path)
}

func (t *Track) ID() TrackID { return t.id }

func (t *Track) Path() geom.FinitePath { return t.path }

func (t *Track) Length() float64 { return t.path.Length() }

// LeftRail returns the path of the rail to the left of the direction of
// travel. It is nil if the path curves too tightly for the rail to be offset.
func (t *Track) LeftRail() geom.FinitePath { return t.leftRail }

// RightRail is the counterpart of LeftRail.
func (t *Track) RightRail() geom.FinitePath { return t.rightRail }

// StartConnection returns the connection at the start of the track, or 0.
func (t *Track) StartConnection() ConnectionID { return t.start }

// EndConnection returns the connection at the end of the track, or 0.
func (t *Track) EndConnection() ConnectionID { return t.end }

// Connection returns the connection at extremity e, or 0.
func (t *Track) Connection(e Extremity) ConnectionID {
	if e == ExtremityStart {
		return t.start
	}
	return t.end
}

// Point returns the point at extremity e.
func (t *Track) Point(e Extremity) geom.Point {
	return extremityPoint(t.path, e)
}

// Observe subscribes o to changes of t.
func (t *Track) Observe(comment string, o TrackObserver) notify.Handle {
	return t.observers.Subscribe(comment, o)
}

func (t *Track) Unobserve(h notify.Handle) {
	t.observers.Unsubscribe(h)
}

func (t *Track) derive(path geom.FinitePath) {
	t.path = path
	t.leftRail, _ = geom.Offset(path, t.railOffset)
	t.rightRail, _ = geom.Offset(path, -t.railOffset)
}

func (t *Track) setPath(path geom.FinitePath, remap Remap) {
	t.derive(path)
	t.observers.Each(func(o TrackObserver) { o.PathChanged(t, remap) })
}

func (t *Track) setConnection(e Extremity, c ConnectionID) {
	if e == ExtremityStart {
		old := t.start
		if old == c {
			return
		}
		t.start = c
		t.observers.Each(func(o TrackObserver) { o.StartConnectionChanged(t, old) })
	} else {
		old := t.end
		if old == c {
			return
		}
		t.end = c
		t.observers.Each(func(o TrackObserver) { o.EndConnectionChanged(t, old) })
	}
}

func (t *Track) replaced(replacements []TrackID, remap TrackRemap) {
	t.observers.Each(func(o TrackObserver) { o.Replaced(t, replacements, remap) })
	t.observers.Clear()
}

func (t *Track) removed() {
	t.observers.Each(func(o TrackObserver) { o.Removed(t) })
	t.observers.Clear()
}

// outward returns the bearing of travel when leaving extremity e onto the
// path.
func outward(p geom.FinitePath, e Extremity) geom.CircleAngle {
	if e == ExtremityStart {
		return p.StartOrientation()
	}
	return p.EndOrientation().Opposite()
}

func extremityPoint(p geom.FinitePath, e Extremity) geom.Point {
	if e == ExtremityStart {
		return p.Start()
	}
	return p.End()
}

func extremityPosition(p geom.FinitePath, e Extremity) geom.Position {
	if e == ExtremityStart {
		return 0
	}
	return p.Length()
}

package layout

import (
	"fmt"

	"go.uber.org/zap"
	"nyiyui.ca/hato/senro/geom"
)

// AddTrack lays path as track, joining its extremities as start and end say,
// and returns the track holding path along with the command undoing the
// edit.
//
// Joining one extremity onto a bare track extremity (ToTrackEnd) extends that
// track instead of creating a new one; joining both merges the two tracks
// through path. Alignment errors are returned before anything changes.
func (m *Map) AddTrack(path geom.FinitePath, start, end ConnectionOption) (*Track, Command, error) {
	m.begin()
	defer m.end()
	if start == nil {
		start = NoConnection{}
	}
	if end == nil {
		end = NoConnection{}
	}
	if err := m.checkOption(path, ExtremityStart, start); err != nil {
		return nil, nil, fmt.Errorf("start: %w", err)
	}
	if err := m.checkOption(path, ExtremityEnd, end); err != nil {
		return nil, nil, fmt.Errorf("end: %w", err)
	}
	js, joinStart := start.(ToTrackEnd)
	je, joinEnd := end.(ToTrackEnd)
	switch {
	case joinStart && joinEnd:
		if js.Track == je.Track {
			return nil, nil, fmt.Errorf("%s: %w", js.Track, ErrSelfJoin)
		}
		return m.merge(js, path, je)
	case joinStart:
		if splitsTrack(end, js.Track) {
			return nil, nil, fmt.Errorf("%s: %w", js.Track, ErrSelfJoin)
		}
		return m.extend(js, path, ExtremityStart, end)
	case joinEnd:
		if splitsTrack(start, je.Track) {
			return nil, nil, fmt.Errorf("%s: %w", je.Track, ErrSelfJoin)
		}
		return m.extend(je, path, ExtremityEnd, start)
	}
	t := m.newTrack(path)
	zap.S().Debugw("add track", "track", t.id, "start", start, "end", end)
	m.applyOption(t, ExtremityStart, start)
	m.applyOption(t, ExtremityEnd, m.rebase(end))
	m.announceTrack(t)
	return t, RemoveTrackCommand{Track: t.id}, nil
}

func splitsTrack(opt ConnectionOption, t TrackID) bool {
	o, ok := opt.(SplitTrack)
	return ok && o.Track == t
}

// rebase rewrites opt to refer to the tracks that replaced the ones it named
// during the current edit.
func (m *Map) rebase(opt ConnectionOption) ConnectionOption {
	switch o := opt.(type) {
	case SplitTrack:
		id, x := m.resolve(o.Track, o.Position)
		return SplitTrack{Track: id, Position: x}
	default:
		return opt
	}
}

func (m *Map) applyOption(t *Track, e Extremity, opt ConnectionOption) {
	switch o := opt.(type) {
	case nil, NoConnection:
	case ToConnection:
		m.attach(t, e, m.mustConnection(o.Connection))
	case SplitTrack:
		c, fresh := m.splitConnection(o)
		m.attach(t, e, c)
		if fresh {
			m.announceConnection(c)
		}
	default:
		panic(fmt.Sprintf("layout: cannot apply %T to %s", opt, t.id))
	}
}

// attach makes extremity e of t a member of c.
func (m *Map) attach(t *Track, e Extremity, c *Connection) {
	d, ok := c.direction(outward(t.path, e))
	if !ok {
		panic(fmt.Sprintf("layout: %s %s not aligned with %s", t.id, e, c.id))
	}
	c.addTrack(t.id, d)
	t.setConnection(e, c.id)
}

// rehome moves the membership of extremity oe of old onto extremity ne of
// new, which must lie at the same point facing the same way.
func (m *Map) rehome(old *Track, oe Extremity, new *Track, ne Extremity) {
	id := old.Connection(oe)
	if id == 0 {
		return
	}
	c := m.mustConnection(id)
	d, ok := c.direction(outward(old.path, oe))
	if !ok {
		panic(fmt.Sprintf("layout: %s %s not aligned with %s", old.id, oe, c.id))
	}
	c.replaceTrack(d, old.id, new.id)
	new.setConnection(ne, id)
}

// splitConnection returns the connection at the position o names, creating
// it (and splitting the track) if needed. fresh is true if the connection is
// new and not yet announced.
func (m *Map) splitConnection(o SplitTrack) (c *Connection, fresh bool) {
	t := m.mustTrack(o.Track)
	x, ok := m.splitPosition(t, o.Position)
	if !ok {
		panic(fmt.Sprintf("layout: split %s outside [0, %f] at %f", t.id, t.Length(), o.Position))
	}
	switch x {
	case 0:
		return m.extremityConnection(t, ExtremityStart)
	case t.Length():
		return m.extremityConnection(t, ExtremityEnd)
	default:
		return m.split(t, x), true
	}
}

func (m *Map) extremityConnection(t *Track, e Extremity) (*Connection, bool) {
	if id := t.Connection(e); id != 0 {
		return m.mustConnection(id), false
	}
	c := m.newConnection(t.Point(e), outward(t.path, e))
	zap.S().Debugw("connect track extremity", "track", t.id, "extremity", e, "connection", c.id)
	m.attach(t, e, c)
	return c, true
}

// split cuts t at x into two new tracks joined by a new connection, which is
// returned unannounced.
func (m *Map) split(t *Track, x geom.Position) *Connection {
	point, _ := t.path.PointAt(x)
	orientation, _ := t.path.OrientationAt(x)
	head, tail, ok := geom.Split(t.path, x)
	if !ok {
		panic(fmt.Sprintf("layout: cannot split %s at %f", t.id, x))
	}
	p1, p2 := m.newTrack(head), m.newTrack(tail)
	m.rehome(t, ExtremityStart, p1, ExtremityStart)
	m.rehome(t, ExtremityEnd, p2, ExtremityEnd)
	c := m.newConnection(point, orientation)
	m.attach(p1, ExtremityEnd, c)
	m.attach(p2, ExtremityStart, c)
	zap.S().Debugw("split track", "track", t.id, "position", x, "head", p1.id, "tail", p2.id, "connection", c.id)
	id1, id2 := p1.id, p2.id
	m.replaceTrack(t, func(y geom.Position) (TrackID, geom.Position) {
		if y < x {
			return id1, y
		}
		return id2, y - x
	}, p1, p2)
	m.watch(p1)
	m.watch(p2)
	return c
}

// extend lengthens the track j names with path, whose extremity joined meets
// it, and joins the other extremity of path as other says.
func (m *Map) extend(j ToTrackEnd, path geom.FinitePath, joined Extremity, other ConnectionOption) (*Track, Command, error) {
	t := m.mustTrack(j.Track)
	oldLength, length := t.Length(), path.Length()
	var whole geom.FinitePath
	var ok bool
	// free is the extremity of the extended track where other applies.
	var free Extremity
	switch {
	case joined == ExtremityStart && j.End == ExtremityEnd:
		whole, ok = geom.Combine(t.path, path)
		free = ExtremityEnd
	case joined == ExtremityEnd && j.End == ExtremityStart:
		whole, ok = geom.Combine(path, t.path)
		free = ExtremityStart
	case joined == ExtremityStart && j.End == ExtremityStart:
		whole, ok = geom.Combine(geom.Reverse(path), t.path)
		free = ExtremityStart
	default:
		whole, ok = geom.Combine(t.path, geom.Reverse(path))
		free = ExtremityEnd
	}
	if !ok {
		return nil, nil, fmt.Errorf("%s %s: %w", t.id, j.End, ErrMisaligned)
	}
	zap.S().Debugw("extend track", "track", t.id, "extremity", j.End, "length", length)
	remap := identityRemap
	var undo Command = RemoveSectionCommand{Track: t.id, Start: oldLength, End: oldLength + length}
	if free == ExtremityStart {
		remap = func(x geom.Position) geom.Position { return x + length }
		undo = RemoveSectionCommand{Track: t.id, Start: 0, End: length}
	}
	t.setPath(whole, remap)
	m.applyOption(t, free, other)
	return t, undo, nil
}

// merge joins the tracks a and b name through path into a new track.
func (m *Map) merge(a ToTrackEnd, path geom.FinitePath, b ToTrackEnd) (*Track, Command, error) {
	ta, tb := m.mustTrack(a.Track), m.mustTrack(b.Track)
	head := ta.path
	if a.End == ExtremityStart {
		head = geom.Reverse(head)
	}
	tail := tb.path
	if b.End == ExtremityEnd {
		tail = geom.Reverse(tail)
	}
	whole, ok := geom.Combine(head, path)
	if ok {
		whole, ok = geom.Combine(whole, tail)
	}
	if !ok {
		return nil, nil, fmt.Errorf("%s and %s: %w", ta.id, tb.id, ErrMisaligned)
	}
	n := m.newTrack(whole)
	m.rehome(ta, a.End.Other(), n, ExtremityStart)
	m.rehome(tb, b.End.Other(), n, ExtremityEnd)
	zap.S().Debugw("merge tracks", "a", ta.id, "b", tb.id, "track", n.id)
	id := n.id
	lenA, lenP, lenB := ta.Length(), path.Length(), tb.Length()
	m.replaceTrack(ta, func(y geom.Position) (TrackID, geom.Position) {
		if a.End == ExtremityEnd {
			return id, y
		}
		return id, lenA - y
	}, n)
	m.replaceTrack(tb, func(y geom.Position) (TrackID, geom.Position) {
		if b.End == ExtremityStart {
			return id, lenA + lenP + y
		}
		return id, lenA + lenP + lenB - y
	}, n)
	m.watch(n)
	return n, RemoveSectionCommand{Track: id, Start: lenA, End: lenA + lenP}, nil
}

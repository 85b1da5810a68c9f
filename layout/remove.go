package layout

import (
	"fmt"
	"math"

	"go.uber.org/zap"
	"nyiyui.ca/hato/senro/geom"
)

// repair records what became of a connection after one of its tracks left.
// Exactly one of connection (kept) and track (removed, with the spot it was
// at) is set, or neither if the connection disappeared without a trace.
type repair struct {
	connection ConnectionID
	track      TrackID
	position   geom.Position
}

// RemoveTrack removes the track id and returns the command that lays it
// again. Connections left with a single track are removed; connections left
// with one track on each side are simplified into a single track.
func (m *Map) RemoveTrack(id TrackID) Command {
	m.begin()
	defer m.end()
	t := m.mustTrack(id)
	start, end := m.removeTrack(t)
	return AddTrackCommand{Path: t.path, Start: m.restore(start), End: m.restore(end), Replaces: t.id}
}

func (m *Map) removeTrack(t *Track) (start, end repair) {
	zap.S().Debugw("remove track", "track", t.id)
	cs, ce := t.start, t.end
	if cs != 0 {
		m.mustConnection(cs).removeTrack(t.id)
	}
	if ce != 0 && ce != cs {
		m.mustConnection(ce).removeTrack(t.id)
	}
	m.tracks.remove(t.id)
	t.removed()
	m.observers.Each(func(o MapObserver) { o.TrackRemoved(m, t) })
	start = m.repairConnection(cs)
	if ce == cs {
		end = start
	} else {
		end = m.repairConnection(ce)
	}
	return start, end
}

// restore returns the option joining a new extremity to where r says the old
// one was.
func (m *Map) restore(r repair) ConnectionOption {
	switch {
	case r.connection != 0 && m.connections.has(r.connection):
		return ToConnection{Connection: r.connection}
	case r.track != 0:
		id, x := m.resolve(r.track, r.position)
		return SplitTrack{Track: id, Position: x}
	default:
		return NoConnection{}
	}
}

// memberExtremity returns the extremity of t listed under d of c.
func (m *Map) memberExtremity(c *Connection, d Direction, t *Track) Extremity {
	for _, e := range []Extremity{ExtremityStart, ExtremityEnd} {
		if t.Connection(e) != c.id {
			continue
		}
		if d2, ok := c.direction(outward(t.path, e)); ok && d2 == d {
			return e
		}
	}
	panic(fmt.Sprintf("layout: %s listed under %s of %s but not connected to it", t.id, d, c.id))
}

// repairConnection removes or simplifies the connection id after a track has
// left it.
func (m *Map) repairConnection(id ConnectionID) repair {
	if id == 0 {
		return repair{}
	}
	c, ok := m.connections.get(id)
	if !ok {
		return repair{}
	}
	nA, nB := len(c.tracks[DirectionA]), len(c.tracks[DirectionB])
	switch {
	case nA+nB == 0:
		m.removeConnection(c, repair{})
		return repair{}
	case nA+nB == 1:
		d := DirectionA
		if nB == 1 {
			d = DirectionB
		}
		r := m.mustTrack(c.tracks[d][0])
		e := m.memberExtremity(c, d, r)
		c.detach(d, r.id)
		r.setConnection(e, 0)
		fate := repair{track: r.id, position: extremityPosition(r.path, e)}
		m.removeConnection(c, fate)
		return fate
	case nA == 1 && nB == 1:
		return m.simplify(c)
	default:
		return repair{connection: c.id}
	}
}

// simplify replaces c, which has one track on each side, and its two tracks
// with a single track.
func (m *Map) simplify(c *Connection) repair {
	ta := m.mustTrack(c.tracks[DirectionA][0])
	tb := m.mustTrack(c.tracks[DirectionB][0])
	if ta == tb {
		c.removeTrack(ta.id)
		ta.setConnection(ExtremityStart, 0)
		ta.setConnection(ExtremityEnd, 0)
		fate := repair{track: ta.id, position: 0}
		m.removeConnection(c, fate)
		return fate
	}
	ea := m.memberExtremity(c, DirectionA, ta)
	eb := m.memberExtremity(c, DirectionB, tb)
	// head ends at c, tail starts at c
	head := tb.path
	if eb == ExtremityStart {
		head = geom.Reverse(head)
	}
	tail := ta.path
	if ea == ExtremityEnd {
		tail = geom.Reverse(tail)
	}
	whole, ok := geom.Combine(head, tail)
	if !ok {
		zap.S().Warnw("connection not simplified: paths do not combine", "connection", c.id, "a", ta.id, "b", tb.id)
		return repair{connection: c.id}
	}
	n := m.newTrack(whole)
	m.rehome(tb, eb.Other(), n, ExtremityStart)
	m.rehome(ta, ea.Other(), n, ExtremityEnd)
	zap.S().Debugw("simplify connection", "connection", c.id, "a", ta.id, "b", tb.id, "track", n.id)
	id := n.id
	lenA, lenB := ta.Length(), tb.Length()
	c.tracks = [2][]TrackID{}
	c.switches = [2]SwitchState{}
	m.replaceTrack(tb, func(y geom.Position) (TrackID, geom.Position) {
		if eb == ExtremityEnd {
			return id, y
		}
		return id, lenB - y
	}, n)
	m.replaceTrack(ta, func(y geom.Position) (TrackID, geom.Position) {
		if ea == ExtremityStart {
			return id, lenB + y
		}
		return id, lenB + lenA - y
	}, n)
	fate := repair{track: id, position: lenB}
	m.removeConnection(c, fate)
	m.watch(n)
	return fate
}

// RemoveSection removes the part of track id between from and to.
//
// Trimming either end keeps the track (returned as first) and drops the
// connection at the trimmed end. Removing an interior section replaces the
// track with two new ones, without a connection across the gap. Removing
// the whole track removes it, and both returned tracks are nil.
func (m *Map) RemoveSection(id TrackID, from, to geom.Position) (first, second *Track, undo Command) {
	m.begin()
	defer m.end()
	t := m.mustTrack(id)
	length := t.Length()
	if from < -extremityTolerance || to > length+extremityTolerance || to-from < extremityTolerance {
		panic(fmt.Sprintf("layout: invalid section [%f, %f) of %s (length %f)", from, to, t.id, length))
	}
	from, to = math.Max(from, 0), math.Min(to, length)
	atStart, atEnd := from <= extremityTolerance, to >= length-extremityTolerance
	zap.S().Debugw("remove section", "track", t.id, "from", from, "to", to)
	switch {
	case atStart && atEnd:
		s, e := m.removeTrack(t)
		return nil, nil, AddTrackCommand{Path: t.path, Start: m.restore(s), End: m.restore(e), Replaces: t.id}
	case atStart:
		removed := mustSlice(t.path, 0, to)
		c := m.trim(t, ExtremityStart, mustSlice(t.path, to, length), func(y geom.Position) geom.Position {
			return math.Max(0, y-to)
		})
		r := m.repairConnection(c)
		joined := m.trackEnd(t.id, 0)
		undo = AddTrackCommand{Path: removed, Start: m.restore(r), End: joined}
		return m.mustTrack(joined.Track), nil, undo
	case atEnd:
		removed := mustSlice(t.path, from, length)
		c := m.trim(t, ExtremityEnd, mustSlice(t.path, 0, from), func(y geom.Position) geom.Position {
			return math.Min(y, from)
		})
		r := m.repairConnection(c)
		joined := m.trackEnd(t.id, from)
		undo = AddTrackCommand{Path: removed, Start: joined, End: m.restore(r)}
		return m.mustTrack(joined.Track), nil, undo
	}
	p1 := m.newTrack(mustSlice(t.path, 0, from))
	p2 := m.newTrack(mustSlice(t.path, to, length))
	m.rehome(t, ExtremityStart, p1, ExtremityStart)
	m.rehome(t, ExtremityEnd, p2, ExtremityEnd)
	id1, id2 := p1.id, p2.id
	mid := (from + to) / 2
	m.replaceTrack(t, func(y geom.Position) (TrackID, geom.Position) {
		switch {
		case y < from:
			return id1, y
		case y >= to:
			return id2, y - to
		case y < mid:
			return id1, from
		default:
			return id2, 0
		}
	}, p1, p2)
	m.watch(p1)
	m.watch(p2)
	return p1, p2, AddTrackCommand{
		Path:  mustSlice(t.path, from, to),
		Start: ToTrackEnd{Track: id1, End: ExtremityEnd},
		End:   ToTrackEnd{Track: id2, End: ExtremityStart},
	}
}

// trim detaches extremity e of t from its connection and gives t the
// shortened path. It returns the detached connection, which needs repair.
func (m *Map) trim(t *Track, e Extremity, rest geom.FinitePath, remap Remap) ConnectionID {
	id := t.Connection(e)
	if id != 0 {
		c := m.mustConnection(id)
		d, ok := c.direction(outward(t.path, e))
		if !ok {
			panic(fmt.Sprintf("layout: %s %s not aligned with %s", t.id, e, c.id))
		}
		c.detach(d, t.id)
		t.setConnection(e, 0)
	}
	t.setPath(rest, remap)
	return id
}

// trackEnd returns the extremity at position x of track id, following
// replacements.
func (m *Map) trackEnd(id TrackID, x geom.Position) ToTrackEnd {
	id, x = m.resolve(id, x)
	t := m.mustTrack(id)
	if x < t.Length()/2 {
		return ToTrackEnd{Track: id, End: ExtremityStart}
	}
	return ToTrackEnd{Track: id, End: ExtremityEnd}
}

func mustSlice(p geom.FinitePath, from, to geom.Position) geom.FinitePath {
	s, ok := geom.Slice(p, from, to)
	if !ok {
		panic(fmt.Sprintf("layout: cannot slice %s to [%f, %f]", p, from, to))
	}
	return s
}

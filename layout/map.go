package layout

import (
	"fmt"

	"go.uber.org/zap"
	"nyiyui.ca/hato/senro/geom"
	"nyiyui.ca/hato/senro/notify"
)

// Map owns the tracks, connections and signals of a layout.
type Map struct {
	tracks      orderedSet[TrackID, *Track]
	connections orderedSet[ConnectionID, *Connection]
	signals     orderedSet[SignalID, *Signal]

	// last issued identities
	lastTrack      TrackID
	lastConnection ConnectionID
	lastSignal     SignalID

	gauge        float64
	railTopWidth float64

	observers notify.Registry[MapObserver]

	mutating bool

	// Identities that left the map, and what took their place. Commands
	// naming them are resolved through these.
	trackFates      map[TrackID]trackFate
	connectionFates map[ConnectionID]repair
	signalFates     map[SignalID]SignalID
}

type trackFate struct {
	remap  TrackRemap
	length float64
}

type Option func(m *Map)

// WithGauge sets the gauge and rail head width used to derive rails.
func WithGauge(gauge, railTopWidth float64) Option {
	return func(m *Map) {
		m.gauge = gauge
		m.railTopWidth = railTopWidth
	}
}

func NewMap(opts ...Option) *Map {
	m := &Map{
		gauge:        StandardGauge,
		railTopWidth: StandardRailTopWidth,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RailOffset is the distance between a track's path and each of its rails.
func (m *Map) RailOffset() float64 {
	return m.gauge/2 + m.railTopWidth/2
}

// Observe subscribes o to map-level changes.
func (m *Map) Observe(comment string, o MapObserver) notify.Handle {
	return m.observers.Subscribe(comment, o)
}

func (m *Map) Unobserve(h notify.Handle) {
	m.observers.Unsubscribe(h)
}

func (m *Map) begin() {
	if m.mutating {
		panic("layout: map mutated from within an observer callback")
	}
	m.mutating = true
}

func (m *Map) end() {
	m.mutating = false
}

func (m *Map) Track(id TrackID) (*Track, bool) {
	return m.tracks.get(id)
}

func (m *Map) Connection(id ConnectionID) (*Connection, bool) {
	return m.connections.get(id)
}

func (m *Map) Signal(id SignalID) (*Signal, bool) {
	return m.signals.get(id)
}

// Tracks returns every track in insertion order.
func (m *Map) Tracks() []*Track { return m.tracks.list() }

// Connections returns every connection in insertion order.
func (m *Map) Connections() []*Connection { return m.connections.list() }

// Signals returns every signal in insertion order.
func (m *Map) Signals() []*Signal { return m.signals.list() }

func (m *Map) mustTrack(id TrackID) *Track {
	t, ok := m.tracks.get(id)
	if !ok {
		panic(fmt.Sprintf("layout: no track %s", id))
	}
	return t
}

func (m *Map) mustConnection(id ConnectionID) *Connection {
	c, ok := m.connections.get(id)
	if !ok {
		panic(fmt.Sprintf("layout: no connection %s", id))
	}
	return c
}

func (m *Map) mustSignal(id SignalID) *Signal {
	s, ok := m.signals.get(id)
	if !ok {
		panic(fmt.Sprintf("layout: no signal %s", id))
	}
	return s
}

// ClosestTrack returns the track passing nearest to p, and where on it.
func (m *Map) ClosestTrack(p geom.Point) (*Track, geom.ClosestPoint, bool) {
	var best *Track
	var bestCP geom.ClosestPoint
	for _, t := range m.tracks.list() {
		cp := t.path.ClosestPoint(p)
		if best == nil || cp.Distance < bestCP.Distance {
			best, bestCP = t, cp
		}
	}
	return best, bestCP, best != nil
}

// ConnectionAt returns the connection at p.
func (m *Map) ConnectionAt(p geom.Point) (*Connection, bool) {
	for _, c := range m.connections.list() {
		if geom.Near(c.point, p) {
			return c, true
		}
	}
	return nil, false
}

// Tick advances every switch and signal change by dt.
func (m *Map) Tick(dt float64) {
	if dt <= 0 {
		return
	}
	m.begin()
	defer m.end()
	for _, c := range m.connections.list() {
		c.tick(dt)
	}
	for _, s := range m.signals.list() {
		s.tick(dt)
	}
}

// Switch sets the route of direction d of connection c to t, returning the
// command that sets it back.
func (m *Map) Switch(c ConnectionID, d Direction, t TrackID) Command {
	m.begin()
	defer m.end()
	conn := m.mustConnection(c)
	previous, _ := conn.switches[d].Active()
	conn.switchDirection(d, t)
	return SwitchCommand{Connection: c, Direction: d, Track: previous}
}

// AddSignal places a new signal showing blocked.
func (m *Map) AddSignal(pos SignalPosition, kind SignalKind) (*Signal, Command) {
	m.begin()
	defer m.end()
	s := m.addSignal(pos, kind, SignalState{Aspect: AspectBlocked})
	return s, RemoveSignalCommand{Signal: s.id}
}

func (m *Map) addSignal(pos SignalPosition, kind SignalKind, state SignalState) *Signal {
	m.lastSignal++
	s := &Signal{id: m.lastSignal, position: pos, kind: kind, state: state, owner: m}
	m.signals.add(s.id, s)
	m.observers.Each(func(o MapObserver) { o.SignalAdded(m, s) })
	return s
}

// RemoveSignal removes the signal id, returning the command that places it
// back.
func (m *Map) RemoveSignal(id SignalID) Command {
	m.begin()
	defer m.end()
	s := m.mustSignal(id)
	m.signals.remove(id)
	s.removed()
	m.observers.Each(func(o MapObserver) { o.SignalRemoved(m, s) })
	return AddSignalCommand{Position: s.position, Kind: s.kind, State: s.state, Replaces: s.id}
}

// newTrack adds a track to the set without announcing it.
func (m *Map) newTrack(path geom.FinitePath) *Track {
	m.lastTrack++
	t := newTrack(m.lastTrack, path, m.RailOffset())
	m.tracks.add(t.id, t)
	return t
}

// newConnection adds a connection to the set without announcing it.
func (m *Map) newConnection(point geom.Point, directionA geom.CircleAngle) *Connection {
	m.lastConnection++
	c := newConnection(m.lastConnection, point, directionA, m)
	m.connections.add(c.id, c)
	return c
}

// watch makes map-level notifications follow the changes of t.
func (m *Map) watch(t *Track) {
	t.observers.Subscribe("map", trackForwarder{m})
}

func (m *Map) watchConnection(c *Connection) {
	c.observers.Subscribe("map", connectionForwarder{m})
}

func (m *Map) announceTrack(t *Track) {
	m.observers.Each(func(o MapObserver) { o.TrackAdded(m, t) })
	m.watch(t)
}

func (m *Map) announceConnection(c *Connection) {
	m.observers.Each(func(o MapObserver) { o.ConnectionAdded(m, c) })
	m.watchConnection(c)
}

// replaceTrack removes old in favour of replacements, which must already be
// in the set.
func (m *Map) replaceTrack(old *Track, remap TrackRemap, replacements ...*Track) {
	ids := make([]TrackID, len(replacements))
	for i, t := range replacements {
		ids[i] = t.id
	}
	zap.S().Debugw("replace track", "old", old.id, "new", ids)
	m.tracks.remove(old.id)
	m.succeed(old.id, trackFate{remap: remap, length: old.Length()})
	old.replaced(ids, remap)
	m.observers.Each(func(o MapObserver) { o.TrackReplaced(m, old, replacements) })
}

func (m *Map) succeed(id TrackID, fate trackFate) {
	if m.trackFates == nil {
		m.trackFates = map[TrackID]trackFate{}
	}
	m.trackFates[id] = fate
}

// resolve follows replacements of track id until it reaches a track in the
// map (or one that was removed without a successor).
func (m *Map) resolve(id TrackID, x geom.Position) (TrackID, geom.Position) {
	for !m.tracks.has(id) {
		fate, ok := m.trackFates[id]
		if !ok {
			break
		}
		id, x = fate.remap(x)
	}
	return id, x
}

// resolveEnd is resolve for an extremity. It fails if the extremity is no
// longer one.
func (m *Map) resolveEnd(id TrackID, e Extremity) (TrackID, Extremity, bool) {
	if m.tracks.has(id) {
		return id, e, true
	}
	fate, ok := m.trackFates[id]
	if !ok {
		return 0, 0, false
	}
	x := 0.0
	if e == ExtremityEnd {
		x = fate.length
	}
	id, x = m.resolve(id, x)
	t, ok := m.tracks.get(id)
	switch {
	case !ok:
		return 0, 0, false
	case x <= extremityTolerance:
		return id, ExtremityStart, true
	case x >= t.Length()-extremityTolerance:
		return id, ExtremityEnd, true
	default:
		return 0, 0, false
	}
}

// resolveSignal follows restorations of signal id.
func (m *Map) resolveSignal(id SignalID) SignalID {
	for !m.signals.has(id) {
		next, ok := m.signalFates[id]
		if !ok {
			break
		}
		id = next
	}
	return id
}

// removeConnection removes c, remembering where its spot went.
func (m *Map) removeConnection(c *Connection, fate repair) {
	zap.S().Debugw("remove connection", "connection", c.id)
	if m.connectionFates == nil {
		m.connectionFates = map[ConnectionID]repair{}
	}
	m.connectionFates[c.id] = fate
	m.connections.remove(c.id)
	c.removed()
	m.observers.Each(func(o MapObserver) { o.ConnectionRemoved(m, c) })
}

type trackForwarder struct {
	m *Map
}

func (f trackForwarder) changed(t *Track) {
	f.m.observers.Each(func(o MapObserver) { o.TrackChanged(f.m, t) })
}

func (f trackForwarder) PathChanged(t *Track, _ Remap)                   { f.changed(t) }
func (f trackForwarder) StartConnectionChanged(t *Track, _ ConnectionID) { f.changed(t) }
func (f trackForwarder) EndConnectionChanged(t *Track, _ ConnectionID)   { f.changed(t) }
func (f trackForwarder) Replaced(*Track, []TrackID, TrackRemap)          {}
func (f trackForwarder) Removed(*Track)                                  {}

type connectionForwarder struct {
	m *Map
}

func (f connectionForwarder) changed(c *Connection) {
	f.m.observers.Each(func(o MapObserver) { o.ConnectionChanged(f.m, c) })
}

func (f connectionForwarder) TrackAdded(c *Connection, _ TrackID, _ Direction)       { f.changed(c) }
func (f connectionForwarder) TrackReplaced(c *Connection, _, _ TrackID, _ Direction) { f.changed(c) }
func (f connectionForwarder) TrackRemoved(c *Connection, _ TrackID)                  { f.changed(c) }
func (f connectionForwarder) SwitchStarted(c *Connection, _ Direction)               { f.changed(c) }
func (f connectionForwarder) SwitchProgressed(c *Connection, _ Direction, _ float64) { f.changed(c) }
func (f connectionForwarder) SwitchStopped(c *Connection, _ Direction)               { f.changed(c) }
func (f connectionForwarder) Removed(*Connection)                                    {}

package layout

import (
	"fmt"

	"golang.org/x/exp/slices"
	"nyiyui.ca/hato/senro/geom"
)

// Command is a reversible edit of a Map. Every edit returns the Command that
// reverses it; applying that returns the Command redoing the edit.
//
// Commands name objects by identity and are resolved when applied. Objects
// laid again by a command get new identities, but the map remembers which
// identity they stand in for (as it does for tracks replaced by splits and
// merges), so older commands naming the old identity still apply.
type Command interface {
	// Apply performs the command on m and returns its inverse. It returns
	// ErrStaleCommand if m no longer holds the objects the command refers to.
	Apply(m *Map) (Command, error)
}

type AddTrackCommand struct {
	Path  geom.FinitePath
	Start ConnectionOption
	End   ConnectionOption
	// Replaces is the identity of the removed track this lays again, if any.
	Replaces TrackID
}

func (c AddTrackCommand) Apply(m *Map) (Command, error) {
	start, ok := m.resolveOption(c.Start)
	if !ok {
		return nil, fmt.Errorf("add track %s: start %v: %w", c.Path, c.Start, ErrStaleCommand)
	}
	end, ok := m.resolveOption(c.End)
	if !ok {
		return nil, fmt.Errorf("add track %s: end %v: %w", c.Path, c.End, ErrStaleCommand)
	}
	t, undo, err := m.AddTrack(c.Path, start, end)
	if err != nil {
		return nil, err
	}
	if _, laid := undo.(RemoveTrackCommand); laid && c.Replaces != 0 {
		id := t.id
		m.succeed(c.Replaces, trackFate{
			remap:  func(x geom.Position) (TrackID, geom.Position) { return id, x },
			length: t.Length(),
		})
	}
	return undo, nil
}

type RemoveTrackCommand struct {
	Track TrackID
}

func (c RemoveTrackCommand) Apply(m *Map) (Command, error) {
	id, _ := m.resolve(c.Track, 0)
	if !m.tracks.has(id) {
		return nil, fmt.Errorf("remove %s: %w", c.Track, ErrStaleCommand)
	}
	return m.RemoveTrack(id), nil
}

type RemoveSectionCommand struct {
	Track      TrackID
	Start, End geom.Position
}

func (c RemoveSectionCommand) Apply(m *Map) (Command, error) {
	id, from := m.resolve(c.Track, c.Start)
	id2, to := m.resolve(c.Track, c.End)
	t, ok := m.tracks.get(id)
	if !ok || id2 != id || to > t.Length()+extremityTolerance || to-from < extremityTolerance {
		return nil, fmt.Errorf("remove section of %s: %w", c.Track, ErrStaleCommand)
	}
	_, _, undo := m.RemoveSection(id, from, to)
	return undo, nil
}

type AddSignalCommand struct {
	Position SignalPosition
	Kind     SignalKind
	State    SignalState
	// Replaces is the identity of the removed signal this places again, if
	// any.
	Replaces SignalID
}

func (c AddSignalCommand) Apply(m *Map) (Command, error) {
	m.begin()
	defer m.end()
	s := m.addSignal(c.Position, c.Kind, c.State)
	if c.Replaces != 0 {
		if m.signalFates == nil {
			m.signalFates = map[SignalID]SignalID{}
		}
		m.signalFates[c.Replaces] = s.id
	}
	return RemoveSignalCommand{Signal: s.id}, nil
}

type RemoveSignalCommand struct {
	Signal SignalID
}

func (c RemoveSignalCommand) Apply(m *Map) (Command, error) {
	id := m.resolveSignal(c.Signal)
	if !m.signals.has(id) {
		return nil, fmt.Errorf("remove %s: %w", c.Signal, ErrStaleCommand)
	}
	return m.RemoveSignal(id), nil
}

// SwitchCommand sets the route of one direction of a connection.
type SwitchCommand struct {
	Connection ConnectionID
	Direction  Direction
	Track      TrackID
}

func (c SwitchCommand) Apply(m *Map) (Command, error) {
	conn, ok := m.connections.get(c.Connection)
	if !ok {
		return nil, fmt.Errorf("switch %s: %w", c.Connection, ErrStaleCommand)
	}
	t, _ := m.resolve(c.Track, 0)
	if !slices.Contains(conn.tracks[c.Direction], t) {
		return nil, fmt.Errorf("switch %s %s to %s: %w", c.Connection, c.Direction, c.Track, ErrStaleCommand)
	}
	return m.Switch(c.Connection, c.Direction, t), nil
}

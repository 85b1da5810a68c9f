package layout

import (
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/exp/slices"
	"nyiyui.ca/hato/senro/geom"
)

var (
	ErrInvalidID          = errors.New("invalid id")
	ErrDuplicateID        = errors.New("duplicate id")
	ErrDanglingReference  = errors.New("dangling reference")
	ErrNotMember          = errors.New("not a member")
	ErrInvalidSwitchState = errors.New("invalid switch state")
)

// DecodeError is returned when a snapshot does not describe a consistent map.
type DecodeError struct {
	// Kind is "track", "connection", "signal" or "map".
	Kind string
	ID   int
	Err  error
}

func (e *DecodeError) Error() string {
	if e.ID == 0 {
		return fmt.Sprintf("decode %s: %s", e.Kind, e.Err)
	}
	return fmt.Sprintf("decode %s %d: %s", e.Kind, e.ID, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Snapshot is the structure of a Map, with cross-references by identity.
type Snapshot struct {
	Tracks      []TrackRecord      `json:"tracks"`
	Connections []ConnectionRecord `json:"connections"`
	Signals     []SignalRecord     `json:"signals"`

	// identities the map will issue next
	NextTrack      TrackID      `json:"next-track"`
	NextConnection ConnectionID `json:"next-connection"`
	NextSignal     SignalID     `json:"next-signal"`
}

type TrackRecord struct {
	ID    TrackID       `json:"id"`
	Path  geom.PathJSON `json:"path"`
	Start ConnectionID  `json:"start,omitempty"`
	End   ConnectionID  `json:"end,omitempty"`
}

type ConnectionRecord struct {
	ID         ConnectionID  `json:"id"`
	Point      [2]float64    `json:"point"`
	DirectionA float64       `json:"direction-a"`
	TracksA    []TrackID     `json:"tracks-a"`
	TracksB    []TrackID     `json:"tracks-b"`
	SwitchA    *SwitchRecord `json:"switch-a,omitempty"`
	SwitchB    *SwitchRecord `json:"switch-b,omitempty"`
}

// SwitchRecord has exactly one of Fixed and Changing set.
type SwitchRecord struct {
	Fixed    TrackID         `json:"fixed,omitempty"`
	Changing *ChangingRecord `json:"changing,omitempty"`
}

type ChangingRecord struct {
	Previous TrackID `json:"previous"`
	Next     TrackID `json:"next"`
	Progress float64 `json:"progress"`
}

type SignalRecord struct {
	ID          SignalID          `json:"id"`
	Point       [2]float64        `json:"point"`
	Orientation float64           `json:"orientation"`
	Kind        SignalKind        `json:"kind"`
	State       SignalStateRecord `json:"state"`
}

// SignalStateRecord has exactly one of Fixed and Changing set.
type SignalStateRecord struct {
	Fixed    *Aspect               `json:"fixed,omitempty"`
	Changing *AspectChangingRecord `json:"changing,omitempty"`
}

type AspectChangingRecord struct {
	Previous Aspect  `json:"previous"`
	Next     Aspect  `json:"next"`
	Progress float64 `json:"progress"`
}

// Snapshot returns the structure of m.
func (m *Map) Snapshot() Snapshot {
	s := Snapshot{
		Tracks:         make([]TrackRecord, 0, m.tracks.len()),
		Connections:    make([]ConnectionRecord, 0, m.connections.len()),
		Signals:        make([]SignalRecord, 0, m.signals.len()),
		NextTrack:      m.lastTrack + 1,
		NextConnection: m.lastConnection + 1,
		NextSignal:     m.lastSignal + 1,
	}
	for _, t := range m.tracks.list() {
		s.Tracks = append(s.Tracks, TrackRecord{
			ID:    t.id,
			Path:  geom.PathJSON{Path: t.path},
			Start: t.start,
			End:   t.end,
		})
	}
	for _, c := range m.connections.list() {
		s.Connections = append(s.Connections, ConnectionRecord{
			ID:         c.id,
			Point:      [2]float64{c.point.X, c.point.Y},
			DirectionA: float64(c.directionA),
			TracksA:    slices.Clone(c.tracks[DirectionA]),
			TracksB:    slices.Clone(c.tracks[DirectionB]),
			SwitchA:    encodeSwitch(c.switches[DirectionA]),
			SwitchB:    encodeSwitch(c.switches[DirectionB]),
		})
	}
	for _, sig := range m.signals.list() {
		r := SignalRecord{
			ID:          sig.id,
			Point:       [2]float64{sig.position.Point.X, sig.position.Point.Y},
			Orientation: float64(sig.position.Orientation),
			Kind:        sig.kind,
		}
		if sig.state.Changing {
			r.State.Changing = &AspectChangingRecord{Previous: sig.state.Previous, Next: sig.state.Next, Progress: sig.state.Progress}
		} else {
			a := sig.state.Aspect
			r.State.Fixed = &a
		}
		s.Signals = append(s.Signals, r)
	}
	return s
}

func encodeSwitch(s SwitchState) *SwitchRecord {
	switch s.Kind {
	case SwitchFixed:
		return &SwitchRecord{Fixed: s.Track}
	case SwitchChanging:
		return &SwitchRecord{Changing: &ChangingRecord{Previous: s.Previous, Next: s.Next, Progress: s.Progress}}
	default:
		return nil
	}
}

func decodeSwitch(r *SwitchRecord, members []TrackID) (SwitchState, error) {
	if r == nil {
		if len(members) != 0 {
			return SwitchState{}, fmt.Errorf("members without a switch: %w", ErrInvalidSwitchState)
		}
		return SwitchState{}, nil
	}
	member := func(t TrackID) error {
		if !slices.Contains(members, t) {
			return fmt.Errorf("switch set to %s: %w", t, ErrNotMember)
		}
		return nil
	}
	switch {
	case r.Fixed != 0 && r.Changing == nil:
		if err := member(r.Fixed); err != nil {
			return SwitchState{}, err
		}
		return Fixed(r.Fixed), nil
	case r.Fixed == 0 && r.Changing != nil:
		ch := r.Changing
		if err := member(ch.Previous); err != nil {
			return SwitchState{}, err
		}
		if err := member(ch.Next); err != nil {
			return SwitchState{}, err
		}
		if ch.Progress < 0 || ch.Progress >= 1 {
			return SwitchState{}, fmt.Errorf("progress %f: %w", ch.Progress, ErrInvalidSwitchState)
		}
		return Changing(ch.Previous, ch.Next, ch.Progress), nil
	default:
		return SwitchState{}, fmt.Errorf("need exactly one of fixed and changing: %w", ErrInvalidSwitchState)
	}
}

// FromSnapshot builds a Map from s. Identities are kept, and the map will
// not issue any identity used in s.
func FromSnapshot(s Snapshot, opts ...Option) (*Map, error) {
	m := NewMap(opts...)
	for _, r := range s.Tracks {
		derr := func(err error) error { return &DecodeError{Kind: "track", ID: int(r.ID), Err: err} }
		switch {
		case r.ID <= 0:
			return nil, derr(ErrInvalidID)
		case m.tracks.has(r.ID):
			return nil, derr(ErrDuplicateID)
		case r.Path.Path == nil:
			return nil, derr(geom.ErrInvalidPath)
		}
		m.tracks.add(r.ID, newTrack(r.ID, r.Path.Path, m.RailOffset()))
		m.lastTrack = max(m.lastTrack, r.ID)
	}
	for _, r := range s.Connections {
		derr := func(err error) error { return &DecodeError{Kind: "connection", ID: int(r.ID), Err: err} }
		switch {
		case r.ID <= 0:
			return nil, derr(ErrInvalidID)
		case m.connections.has(r.ID):
			return nil, derr(ErrDuplicateID)
		}
		c := newConnection(r.ID, geom.Pt(r.Point[0], r.Point[1]), geom.NewCircleAngle(geom.Angle(r.DirectionA)), m)
		for d, list := range [2][]TrackID{r.TracksA, r.TracksB} {
			for _, id := range list {
				if !m.tracks.has(id) {
					return nil, derr(fmt.Errorf("member %s: %w", id, ErrDanglingReference))
				}
			}
			c.tracks[d] = slices.Clone(list)
		}
		for d, sr := range [2]*SwitchRecord{r.SwitchA, r.SwitchB} {
			state, err := decodeSwitch(sr, c.tracks[d])
			if err != nil {
				return nil, derr(fmt.Errorf("direction %s: %w", Direction(d), err))
			}
			c.switches[d] = state
		}
		m.connections.add(r.ID, c)
		m.lastConnection = max(m.lastConnection, r.ID)
	}
	for _, r := range s.Tracks {
		t := m.mustTrack(r.ID)
		for _, e := range []Extremity{ExtremityStart, ExtremityEnd} {
			id := r.Start
			if e == ExtremityEnd {
				id = r.End
			}
			if id == 0 {
				continue
			}
			c, ok := m.connections.get(id)
			if !ok {
				return nil, &DecodeError{Kind: "track", ID: int(r.ID), Err: fmt.Errorf("%s %s: %w", e, id, ErrDanglingReference)}
			}
			if _, ok := c.Has(t.id); !ok {
				return nil, &DecodeError{Kind: "track", ID: int(r.ID), Err: fmt.Errorf("%s %s: %w", e, id, ErrNotMember)}
			}
			if e == ExtremityStart {
				t.start = id
			} else {
				t.end = id
			}
		}
	}
	for _, c := range m.connections.list() {
		for _, d := range []Direction{DirectionA, DirectionB} {
			for _, id := range c.tracks[d] {
				t := m.mustTrack(id)
				if t.start != c.id && t.end != c.id {
					return nil, &DecodeError{Kind: "connection", ID: int(c.id), Err: fmt.Errorf("%s does not refer back: %w", id, ErrDanglingReference)}
				}
			}
		}
	}
	for _, r := range s.Signals {
		derr := func(err error) error { return &DecodeError{Kind: "signal", ID: int(r.ID), Err: err} }
		switch {
		case r.ID <= 0:
			return nil, derr(ErrInvalidID)
		case m.signals.has(r.ID):
			return nil, derr(ErrDuplicateID)
		}
		var state SignalState
		switch st := r.State; {
		case st.Fixed != nil && st.Changing == nil:
			state = SignalState{Aspect: *st.Fixed}
		case st.Fixed == nil && st.Changing != nil:
			if st.Changing.Progress < 0 || st.Changing.Progress >= 1 {
				return nil, derr(fmt.Errorf("progress %f: %w", st.Changing.Progress, ErrInvalidSwitchState))
			}
			state = SignalState{Changing: true, Previous: st.Changing.Previous, Next: st.Changing.Next, Progress: st.Changing.Progress}
		default:
			return nil, derr(fmt.Errorf("need exactly one of fixed and changing: %w", ErrInvalidSwitchState))
		}
		pos := SignalPosition{
			Point:       geom.Pt(r.Point[0], r.Point[1]),
			Orientation: geom.NewCircleAngle(geom.Angle(r.Orientation)),
		}
		m.signals.add(r.ID, &Signal{id: r.ID, position: pos, kind: r.Kind, state: state, owner: m})
		m.lastSignal = max(m.lastSignal, r.ID)
	}
	m.lastTrack = max(m.lastTrack, s.NextTrack-1)
	m.lastConnection = max(m.lastConnection, s.NextConnection-1)
	m.lastSignal = max(m.lastSignal, s.NextSignal-1)
	for _, t := range m.tracks.list() {
		m.watch(t)
	}
	for _, c := range m.connections.list() {
		m.watchConnection(c)
	}
	return m, nil
}

// Encode returns the JSON form of the snapshot of m.
func Encode(m *Map) ([]byte, error) {
	return json.Marshal(m.Snapshot())
}

// Decode builds a Map from the JSON form of a snapshot. All errors are
// *DecodeError.
func Decode(data []byte, opts ...Option) (*Map, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, &DecodeError{Kind: "map", Err: err}
	}
	return FromSnapshot(s, opts...)
}

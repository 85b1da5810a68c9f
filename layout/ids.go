// Package layout models a rail network: tracks with continuous geometry
// joined at switchable connections, plus signals, owned by a Map that
// provides the structural edits (split, extend, merge, removal,
// simplification) and the tick that animates switches and signals.
//
// A Map is not safe for concurrent use. All edits, ticks and observer
// callbacks run synchronously on the caller's goroutine, and observers must
// not edit the Map (or switch its connections) from within a callback; doing
// so panics.
package layout

import "fmt"

// TrackID identifies a Track within a Map. IDs are never reused; 0 means no
// track.
type TrackID int

func (id TrackID) String() string {
	return fmt.Sprintf("<t:%x>", int(id))
}

// ConnectionID identifies a Connection within a Map. 0 means no connection.
type ConnectionID int

func (id ConnectionID) String() string {
	return fmt.Sprintf("<c:%x>", int(id))
}

// SignalID identifies a Signal within a Map. 0 means no signal.
type SignalID int

func (id SignalID) String() string {
	return fmt.Sprintf("<s:%x>", int(id))
}

// Direction is one of the two halves of the plane around a connection.
type Direction int

const (
	DirectionA Direction = iota
	DirectionB
)

func (d Direction) Opposite() Direction {
	return 1 - d
}

func (d Direction) String() string {
	switch d {
	case DirectionA:
		return "A"
	case DirectionB:
		return "B"
	default:
		return fmt.Sprint(int(d))
	}
}

// Extremity is one end of a track.
type Extremity int

const (
	ExtremityStart Extremity = iota
	ExtremityEnd
)

func (e Extremity) Other() Extremity {
	return 1 - e
}

func (e Extremity) String() string {
	switch e {
	case ExtremityStart:
		return "start"
	case ExtremityEnd:
		return "end"
	default:
		return fmt.Sprint(int(e))
	}
}

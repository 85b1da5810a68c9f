package kujo

import (
	"nyiyui.ca/hato/senro/layout"
)

// Event is a map-level change. Seq increases by one per event, and events
// reach clients in Seq order.
type Event struct {
	Seq          uint64              `json:"seq"`
	Type         string              `json:"type"`
	Track        layout.TrackID      `json:"track,omitempty"`
	Replacements []layout.TrackID    `json:"replacements,omitempty"`
	Connection   layout.ConnectionID `json:"connection,omitempty"`

	// Switches holds the switch states of directions A and B.
	Switches []string        `json:"switches,omitempty"`
	Signal   layout.SignalID `json:"signal,omitempty"`
}

type mapObserver struct {
	s *Server
}

func (o mapObserver) TrackAdded(_ *layout.Map, t *layout.Track) {
	o.s.publish(Event{Type: "track-added", Track: t.ID()})
}

func (o mapObserver) TrackReplaced(_ *layout.Map, old *layout.Track, replacements []*layout.Track) {
	ids := make([]layout.TrackID, len(replacements))
	for i, t := range replacements {
		ids[i] = t.ID()
	}
	o.s.publish(Event{Type: "track-replaced", Track: old.ID(), Replacements: ids})
}

func (o mapObserver) TrackRemoved(_ *layout.Map, t *layout.Track) {
	o.s.publish(Event{Type: "track-removed", Track: t.ID()})
}

func (o mapObserver) TrackChanged(_ *layout.Map, t *layout.Track) {
	o.s.publish(Event{Type: "track-changed", Track: t.ID()})
}

func (o mapObserver) ConnectionAdded(_ *layout.Map, c *layout.Connection) {
	o.s.publish(Event{Type: "connection-added", Connection: c.ID()})
}

func (o mapObserver) ConnectionRemoved(_ *layout.Map, c *layout.Connection) {
	o.s.publish(Event{Type: "connection-removed", Connection: c.ID()})
}

func (o mapObserver) ConnectionChanged(_ *layout.Map, c *layout.Connection) {
	o.s.publish(Event{
		Type:       "connection-changed",
		Connection: c.ID(),
		Switches:   []string{c.State(layout.DirectionA).String(), c.State(layout.DirectionB).String()},
	})
}

func (o mapObserver) SignalAdded(_ *layout.Map, sig *layout.Signal) {
	o.s.publish(Event{Type: "signal-added", Signal: sig.ID()})
}

func (o mapObserver) SignalRemoved(_ *layout.Map, sig *layout.Signal) {
	o.s.publish(Event{Type: "signal-removed", Signal: sig.ID()})
}

package layout

import "nyiyui.ca/hato/senro/geom"

// Remap translates a position on a track from before an edit to after it.
type Remap func(geom.Position) geom.Position

// TrackRemap translates a position on a replaced track to the track (and
// position on it) that now holds that spot.
type TrackRemap func(geom.Position) (TrackID, geom.Position)

func identityRemap(x geom.Position) geom.Position { return x }

// TrackObserver is notified of changes to a single track. Consumers holding
// positions on a track must re-anchor them with the remap functions.
type TrackObserver interface {
	PathChanged(t *Track, remap Remap)
	StartConnectionChanged(t *Track, old ConnectionID)
	EndConnectionChanged(t *Track, old ConnectionID)
	// Replaced is called when t has been superseded by other tracks (split,
	// merge, section removal). t is no longer part of the map.
	Replaced(t *Track, replacements []TrackID, remap TrackRemap)
	Removed(t *Track)
}

// ConnectionObserver is notified of changes to a single connection.
type ConnectionObserver interface {
	TrackAdded(c *Connection, t TrackID, d Direction)
	TrackReplaced(c *Connection, old, new TrackID, d Direction)
	TrackRemoved(c *Connection, t TrackID)
	SwitchStarted(c *Connection, d Direction)
	SwitchProgressed(c *Connection, d Direction, progress float64)
	SwitchStopped(c *Connection, d Direction)
	Removed(c *Connection)
}

// SignalObserver is notified of changes to a single signal.
type SignalObserver interface {
	StartedChanging(s *Signal)
	ProgressedChanging(s *Signal, progress float64)
	StoppedChanging(s *Signal)
	Removed(s *Signal)
}

// MapObserver is notified of changes anywhere in a Map. Map-level
// notifications follow the track- and connection-level ones that caused
// them.
type MapObserver interface {
	TrackAdded(m *Map, t *Track)
	// TrackReplaced is called after old has been removed in favour of
	// replacements. The remap is delivered to the old track's observers.
	TrackReplaced(m *Map, old *Track, replacements []*Track)
	TrackRemoved(m *Map, t *Track)
	TrackChanged(m *Map, t *Track)
	ConnectionAdded(m *Map, c *Connection)
	ConnectionRemoved(m *Map, c *Connection)
	ConnectionChanged(m *Map, c *Connection)
	SignalAdded(m *Map, s *Signal)
	SignalRemoved(m *Map, s *Signal)
}

// NopTrackObserver can be embedded to implement only some of TrackObserver.
type NopTrackObserver struct{}

func (NopTrackObserver) PathChanged(*Track, Remap)                   {}
func (NopTrackObserver) StartConnectionChanged(*Track, ConnectionID) {}
func (NopTrackObserver) EndConnectionChanged(*Track, ConnectionID)   {}
func (NopTrackObserver) Replaced(*Track, []TrackID, TrackRemap)      {}
func (NopTrackObserver) Removed(*Track)                              {}

// NopConnectionObserver can be embedded to implement only some of
// ConnectionObserver.
type NopConnectionObserver struct{}

func (NopConnectionObserver) TrackAdded(*Connection, TrackID, Direction)             {}
func (NopConnectionObserver) TrackReplaced(*Connection, TrackID, TrackID, Direction) {}
func (NopConnectionObserver) TrackRemoved(*Connection, TrackID)                      {}
func (NopConnectionObserver) SwitchStarted(*Connection, Direction)                   {}
func (NopConnectionObserver) SwitchProgressed(*Connection, Direction, float64)       {}
func (NopConnectionObserver) SwitchStopped(*Connection, Direction)                   {}
func (NopConnectionObserver) Removed(*Connection)                                    {}

// NopSignalObserver can be embedded to implement only some of SignalObserver.
type NopSignalObserver struct{}

func (NopSignalObserver) StartedChanging(*Signal)             {}
func (NopSignalObserver) ProgressedChanging(*Signal, float64) {}
func (NopSignalObserver) StoppedChanging(*Signal)             {}
func (NopSignalObserver) Removed(*Signal)                     {}

// NopMapObserver can be embedded to implement only some of MapObserver.
type NopMapObserver struct{}

func (NopMapObserver) TrackAdded(*Map, *Track)              {}
func (NopMapObserver) TrackReplaced(*Map, *Track, []*Track) {}
func (NopMapObserver) TrackRemoved(*Map, *Track)            {}
func (NopMapObserver) TrackChanged(*Map, *Track)            {}
func (NopMapObserver) ConnectionAdded(*Map, *Connection)    {}
func (NopMapObserver) ConnectionRemoved(*Map, *Connection)  {}
func (NopMapObserver) ConnectionChanged(*Map, *Connection)  {}
func (NopMapObserver) SignalAdded(*Map, *Signal)            {}
func (NopMapObserver) SignalRemoved(*Map, *Signal)          {}

package store

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
	"nyiyui.ca/hato/senro/layout"
	"nyiyui.ca/hato/senro/notify"
)

// Autosaver writes a map to a Store after it changes. Snapshots are taken on
// the map's goroutine by Sync and written by a background goroutine; a
// snapshot not yet written is replaced by a newer one.
//
// Signal aspect changes do not mark the map as changed; they are saved with
// the next structural or switch change.
type Autosaver struct {
	s       *Store
	id      uuid.UUID
	m       *layout.Map
	handle  notify.Handle
	dirty   bool
	syncReq chan layout.Snapshot
	done    chan struct{}
}

// NewAutosaver starts saving m under id. m must not be mutated concurrently
// with calls to Sync or Close.
func NewAutosaver(s *Store, id uuid.UUID, m *layout.Map) *Autosaver {
	a := &Autosaver{
		s:       s,
		id:      id,
		m:       m,
		syncReq: make(chan layout.Snapshot, 1),
		done:    make(chan struct{}),
	}
	a.handle = m.Observe("autosave", a)
	go a.write()
	return a
}

func (a *Autosaver) write() {
	defer close(a.done)
	for snap := range a.syncReq {
		err := a.s.SaveSnapshot(a.id, snap)
		if err != nil {
			zap.S().Errorw("autosave failed", "map", a.id, "err", err)
		}
	}
}

// Sync queues a snapshot of the map if it changed since the last Sync, and
// returns it.
func (a *Autosaver) Sync() (layout.Snapshot, bool) {
	if !a.dirty {
		return layout.Snapshot{}, false
	}
	a.dirty = false
	snap := a.m.Snapshot()
	for {
		select {
		case a.syncReq <- snap:
			return snap, true
		default:
		}
		select {
		case <-a.syncReq:
			zap.S().Debugw("autosave: dropped stale snapshot", "map", a.id)
		default:
		}
	}
}

// Close queues a final snapshot, stops observing the map and waits for the
// pending write.
func (a *Autosaver) Close() {
	a.m.Unobserve(a.handle)
	a.dirty = true
	a.Sync()
	close(a.syncReq)
	<-a.done
}

func (a *Autosaver) TrackAdded(*layout.Map, *layout.Track)                     { a.dirty = true }
func (a *Autosaver) TrackReplaced(*layout.Map, *layout.Track, []*layout.Track) { a.dirty = true }
func (a *Autosaver) TrackRemoved(*layout.Map, *layout.Track)                   { a.dirty = true }
func (a *Autosaver) TrackChanged(*layout.Map, *layout.Track)                   { a.dirty = true }
func (a *Autosaver) ConnectionAdded(*layout.Map, *layout.Connection)           { a.dirty = true }
func (a *Autosaver) ConnectionRemoved(*layout.Map, *layout.Connection)         { a.dirty = true }
func (a *Autosaver) ConnectionChanged(*layout.Map, *layout.Connection)         { a.dirty = true }
func (a *Autosaver) SignalAdded(*layout.Map, *layout.Signal)                   { a.dirty = true }
func (a *Autosaver) SignalRemoved(*layout.Map, *layout.Signal)                 { a.dirty = true }

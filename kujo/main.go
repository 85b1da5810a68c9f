// Package kujo publishes map events and snapshots to web clients.
//
// Events are streamed with server-sent events on /events?stream=events; the
// latest snapshot is served as JSON on /snapshot and streamed on
// /events?stream=snapshot.
package kujo

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/r3labs/sse/v2"
	"go.uber.org/zap"
	"nyiyui.ca/hato/senro/layout"
	"nyiyui.ca/hato/senro/notify"
)

type Server struct {
	s *sse.Server

	eventSender *notify.MultiplexerSender[Event]
	events      *notify.Multiplexer[Event]
	snapSender  *notify.MultiplexerSender[layout.Snapshot]
	snaps       *notify.Multiplexer[layout.Snapshot]

	seq uint64

	latestLock sync.RWMutex
	latest     []byte

	quit chan struct{}
	wg   sync.WaitGroup
}

func NewServer() *Server {
	s := &Server{
		s:    sse.New(),
		quit: make(chan struct{}),
	}
	s.s.AutoReplay = false
	s.eventSender, s.events = notify.NewMultiplexerSender[Event]("kujo events")
	s.snapSender, s.snaps = notify.NewMultiplexerSender[layout.Snapshot]("kujo snapshots")
	s.s.CreateStream("events")
	s.s.CreateStream("snapshot")
	// subscribe before returning so nothing published after NewServer is missed
	events := make(chan Event)
	s.events.Subscribe("kujo", events)
	snaps := make(chan layout.Snapshot)
	s.snaps.Subscribe("kujo", snaps)
	s.wg.Add(2)
	go s.forwardEvents(events)
	go s.forwardSnapshots(snaps)
	return s
}

func (s *Server) forwardEvents(ch chan Event) {
	defer s.wg.Done()
	defer s.s.RemoveStream("events")
	defer s.events.Unsubscribe(ch)
	for {
		select {
		case e := <-ch:
			data, err := json.Marshal(e)
			if err != nil {
				zap.S().Errorw("kujo: marshal event", "event", e, "err", err)
				continue
			}
			s.s.TryPublish("events", &sse.Event{Event: []byte(e.Type), Data: data})
		case <-s.quit:
			return
		}
	}
}

func (s *Server) forwardSnapshots(ch chan layout.Snapshot) {
	defer s.wg.Done()
	defer s.s.RemoveStream("snapshot")
	defer s.snaps.Unsubscribe(ch)
	for {
		select {
		case snap := <-ch:
			data, err := json.Marshal(snap)
			if err != nil {
				zap.S().Errorw("kujo: marshal snapshot", "err", err)
				continue
			}
			s.latestLock.Lock()
			s.latest = data
			s.latestLock.Unlock()
			s.s.TryPublish("snapshot", &sse.Event{Data: data})
		case <-s.quit:
			return
		}
	}
}

// Attach publishes the map-level events of m. It must be called on the
// goroutine that mutates m.
func (s *Server) Attach(m *layout.Map) notify.Handle {
	return m.Observe("kujo", mapObserver{s})
}

// PublishSnapshot publishes snap to clients, replacing the one served on
// /snapshot. Snapshots are forwarded in the order they were published.
func (s *Server) PublishSnapshot(snap layout.Snapshot) {
	s.snapSender.Send(snap)
}

func (s *Server) publish(e Event) {
	s.seq++
	e.Seq = s.seq
	s.eventSender.Send(e)
}

func (s *Server) serveSnapshot(w http.ResponseWriter, r *http.Request) {
	s.latestLock.RLock()
	data := s.latest
	s.latestLock.RUnlock()
	if data == nil {
		http.Error(w, "no snapshot yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/events", s.s)
	mux.HandleFunc("/snapshot", s.serveSnapshot)
	return mux
}

// Close forwards what is still queued, then stops forwarding and disconnects
// clients.
func (s *Server) Close() {
	s.eventSender.Close()
	s.snapSender.Close()
	close(s.quit)
	s.wg.Wait()
	s.s.Close()
}

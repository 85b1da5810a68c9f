package kujo

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"nyiyui.ca/hato/senro/geom"
	"nyiyui.ca/hato/senro/layout"
	"nyiyui.ca/hato/senro/notify"
)

func line(t *testing.T, x0, x1 float64) geom.LinearPath {
	t.Helper()
	l, ok := geom.NewLinearPath(geom.Pt(x0, 0), geom.Pt(x1, 0))
	if !ok {
		t.Fatalf("degenerate line")
	}
	return l
}

func TestEvents(t *testing.T) {
	s := NewServer()
	defer s.Close()
	ch := make(chan Event, 64)
	s.events.Subscribe("test", ch)
	defer s.events.Unsubscribe(ch)

	m := layout.NewMap()
	s.Attach(m)
	if _, _, err := m.AddTrack(line(t, 0, 100), nil, nil); err != nil {
		t.Fatal(err)
	}
	if _, _, err := m.AddTrack(line(t, 100, 200), layout.SplitTrack{Track: 1, Position: 100}, nil); err != nil {
		t.Fatal(err)
	}

	seen := map[string]int{}
	var last uint64
	deadline := time.After(2 * time.Second)
	for seen["track-added"] < 2 || seen["connection-added"] < 1 {
		select {
		case e := <-ch:
			t.Logf("event %#v", e)
			if e.Seq != last+1 {
				t.Fatalf("seq %d after %d", e.Seq, last)
			}
			last = e.Seq
			seen[e.Type]++
		case <-deadline:
			t.Fatalf("timed out; seen %v", seen)
		}
	}
}

func TestSwitchEvent(t *testing.T) {
	m := layout.NewMap()
	if _, _, err := m.AddTrack(line(t, 0, 100), nil, nil); err != nil {
		t.Fatal(err)
	}
	if _, _, err := m.AddTrack(line(t, 100, 200), layout.SplitTrack{Track: 1, Position: 100}, nil); err != nil {
		t.Fatal(err)
	}
	curve, ok := geom.NewCircularPathFrom(geom.Pt(100, 0), 0, 200, geom.Degrees(10))
	if !ok {
		t.Fatal("invalid curve")
	}
	if _, _, err := m.AddTrack(curve, layout.SplitTrack{Track: 2, Position: 0}, nil); err != nil {
		t.Fatal(err)
	}
	c, ok := m.ConnectionAt(geom.Pt(100, 0))
	if !ok {
		t.Fatal("no connection")
	}

	s := &Server{}
	s.eventSender, s.events = notify.NewMultiplexerSender[Event]("test")
	defer s.eventSender.Close()
	ch := make(chan Event, 8)
	s.events.Subscribe("test", ch)
	s.Attach(m)
	m.Switch(c.ID(), layout.DirectionB, 3)

	want := Event{
		Seq:        1,
		Type:       "connection-changed",
		Connection: c.ID(),
		Switches:   []string{c.State(layout.DirectionA).String(), c.State(layout.DirectionB).String()},
	}
	select {
	case got := <-ch:
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("event (-want +got):\n%s", diff)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out")
	}
}

func TestSnapshot(t *testing.T) {
	s := NewServer()
	defer s.Close()
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/snapshot")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status %d before any snapshot", resp.StatusCode)
	}

	m := layout.NewMap()
	if _, _, err := m.AddTrack(line(t, 0, 100), nil, nil); err != nil {
		t.Fatal(err)
	}
	want := m.Snapshot()
	s.PublishSnapshot(want)

	deadline := time.Now().Add(2 * time.Second)
	for {
		resp, err := http.Get(srv.URL + "/snapshot")
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode == http.StatusOK {
			var got layout.Snapshot
			err = json.NewDecoder(resp.Body).Decode(&got)
			resp.Body.Close()
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(len(want.Tracks), len(got.Tracks)); diff != "" {
				t.Fatalf("tracks (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(want.NextTrack, got.NextTrack); diff != "" {
				t.Fatalf("next track (-want +got):\n%s", diff)
			}
			return
		}
		resp.Body.Close()
		if time.Now().After(deadline) {
			t.Fatalf("snapshot not served; last status %d", resp.StatusCode)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func getSnapshot(t *testing.T, url string) (layout.Snapshot, bool) {
	t.Helper()
	resp, err := http.Get(url + "/snapshot")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return layout.Snapshot{}, false
	}
	var snap layout.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatal(err)
	}
	return snap, true
}

func TestSnapshotLatest(t *testing.T) {
	s := NewServer()
	defer s.Close()
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	const n = 20
	for i := 1; i <= n; i++ {
		s.PublishSnapshot(layout.Snapshot{NextTrack: layout.TrackID(i)})
	}
	deadline := time.Now().Add(2 * time.Second)
	for {
		snap, ok := getSnapshot(t, srv.URL)
		if ok && snap.NextTrack == n {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("latest snapshot not served; got %v (%t)", snap.NextTrack, ok)
		}
		time.Sleep(10 * time.Millisecond)
	}
	time.Sleep(100 * time.Millisecond)
	snap, ok := getSnapshot(t, srv.URL)
	if !ok || snap.NextTrack != n {
		t.Fatalf("snapshot replaced by an older one: next track %v (%t)", snap.NextTrack, ok)
	}
}

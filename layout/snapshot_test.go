package layout

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"nyiyui.ca/hato/senro/geom"
)

func TestSnapshotRoundTrip(t *testing.T) {
	m, c := junction(t)
	// curve onto the bare start of track 2 so it becomes compound
	addTrack(t, m, arc(t, -100, 0, 180, 200, 15), ToTrackEnd{Track: 2, End: ExtremityStart}, nil)
	if _, ok := m.tracks.values[2].path.(geom.CompoundPath); !ok {
		t.Fatalf("track 2 is not compound: %s", m.tracks.values[2].path)
	}
	addTrack(t, m, arc(t, 100, 0, 0, 200, 15), SplitTrack{Track: 1, Position: 100}, nil)
	c.SwitchDirectionA(3)
	m.Tick(2)
	m.RemoveTrack(4)
	s, _ := m.AddSignal(SignalPosition{Point: geom.Pt(10, -3), Orientation: 0}, SignalMain)
	s.Set(AspectGo)
	m.AddSignal(SignalPosition{Point: geom.Pt(-10, 3), Orientation: geom.NewCircleAngle(geom.Degrees(180))}, SignalSection)

	data, err := Encode(m)
	if err != nil {
		t.Fatalf("Encode: %s", err)
	}
	t.Logf("encoded: %s", data)
	m2, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %s", err)
	}
	mustInvariants(t, m2)
	data2, err := Encode(m2)
	if err != nil {
		t.Fatalf("Encode: %s", err)
	}
	if diff := cmp.Diff(string(data), string(data2)); diff != "" {
		t.Fatalf("round trip (-first +second):\n%s", diff)
	}

	c2, ok := m2.Connection(c.ID())
	if !ok {
		t.Fatalf("connection %s lost", c.ID())
	}
	if diff := cmp.Diff(Changing(1, 3, 0.4), c2.State(DirectionA), approx); diff != "" {
		t.Fatalf("switch state (-want +got):\n%s", diff)
	}
	s2, _ := m2.Signal(s.ID())
	if diff := cmp.Diff(SignalState{Changing: true, Previous: AspectBlocked, Next: AspectGo}, s2.State()); diff != "" {
		t.Fatalf("signal state (-want +got):\n%s", diff)
	}

	// identities are not reused, even those of removed tracks
	tr := addTrack(t, m2, line(t, 500, 0, 600, 0), nil, nil)
	if tr.ID() <= 4 {
		t.Fatalf("reused identity %s", tr.ID())
	}

	// the decoded map is live
	m2.Tick(4)
	if diff := cmp.Diff(Fixed(3), c2.State(DirectionA)); diff != "" {
		t.Fatalf("after tick (-want +got):\n%s", diff)
	}
}

func TestDecodeErrors(t *testing.T) {
	base := func(t *testing.T) Snapshot {
		m, c := junction(t)
		c.SwitchDirectionA(3)
		return m.Snapshot()
	}
	cases := []struct {
		name   string
		modify func(s *Snapshot)
		kind   string
		want   error
	}{
		{"dangling member", func(s *Snapshot) { s.Connections[0].TracksB = append(s.Connections[0].TracksB, 9) }, "connection", ErrDanglingReference},
		{"duplicate track", func(s *Snapshot) { s.Tracks = append(s.Tracks, s.Tracks[0]) }, "track", ErrDuplicateID},
		{"zero id", func(s *Snapshot) { s.Tracks[0].ID = 0 }, "track", ErrInvalidID},
		{"missing connection", func(s *Snapshot) { s.Tracks[1].End = 7 }, "track", ErrDanglingReference},
		{"duplicate connection", func(s *Snapshot) { s.Connections = append(s.Connections, s.Connections[0]) }, "connection", ErrDuplicateID},
		{"member not connected", func(s *Snapshot) { s.Tracks[2].Start = 0 }, "connection", ErrDanglingReference},
		{"switch to non-member", func(s *Snapshot) { s.Connections[0].SwitchB = &SwitchRecord{Fixed: 1} }, "connection", ErrNotMember},
		{"changing to non-member", func(s *Snapshot) { s.Connections[0].SwitchA.Changing.Next = 2 }, "connection", ErrNotMember},
		{"progress out of range", func(s *Snapshot) { s.Connections[0].SwitchA.Changing.Progress = 1.5 }, "connection", ErrInvalidSwitchState},
		{"missing switch", func(s *Snapshot) { s.Connections[0].SwitchB = nil }, "connection", ErrInvalidSwitchState},
		{"missing path", func(s *Snapshot) { s.Tracks[0].Path = geom.PathJSON{} }, "track", geom.ErrInvalidPath},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			s := base(t)
			tc.modify(&s)
			_, err := FromSnapshot(s)
			var derr *DecodeError
			if !errors.As(err, &derr) {
				t.Fatalf("got error %v, want a *DecodeError", err)
			}
			if derr.Kind != tc.kind || !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %s error wrapping %v", err, tc.kind, tc.want)
			}
		})
	}
}

func TestDecodeMalformed(t *testing.T) {
	for _, data := range []string{
		`{"tracks": [`,
		`{"tracks": [{"id": 1, "path": {"kind": "spiral"}}]}`,
		`{"signals": [{"id": 1, "kind": "distant", "state": {"fixed": "go"}}]}`,
	} {
		_, err := Decode([]byte(data))
		var derr *DecodeError
		if !errors.As(err, &derr) {
			t.Fatalf("%s: got error %v, want a *DecodeError", data, err)
		}
	}
}

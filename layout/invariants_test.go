package layout

import (
	"fmt"
	"testing"

	"golang.org/x/exp/slices"
	"nyiyui.ca/hato/senro/geom"
)

// checkInvariants verifies that the tracks and connections of m agree with
// each other.
func checkInvariants(m *Map) error {
	for _, t := range m.tracks.list() {
		for _, e := range []Extremity{ExtremityStart, ExtremityEnd} {
			id := t.Connection(e)
			if id == 0 {
				continue
			}
			c, ok := m.connections.get(id)
			if !ok {
				return fmt.Errorf("%s %s: no connection %s", t.id, e, id)
			}
			if !geom.Near(c.point, t.Point(e)) {
				return fmt.Errorf("%s %s: at %v, %s at %v", t.id, e, t.Point(e), c.id, c.point)
			}
			d, ok := c.direction(outward(t.path, e))
			if !ok {
				return fmt.Errorf("%s %s: bearing %s does not match %s (A %s)", t.id, e, outward(t.path, e), c.id, c.directionA)
			}
			if !slices.Contains(c.tracks[d], t.id) {
				return fmt.Errorf("%s %s: not listed under %s of %s", t.id, e, d, c.id)
			}
		}
	}
	for _, c := range m.connections.list() {
		if c.Len() < 2 {
			return fmt.Errorf("%s: only %d members", c.id, c.Len())
		}
		for _, d := range []Direction{DirectionA, DirectionB} {
			for _, id := range c.tracks[d] {
				t, ok := m.tracks.get(id)
				if !ok {
					return fmt.Errorf("%s %s: no track %s", c.id, d, id)
				}
				if t.start != c.id && t.end != c.id {
					return fmt.Errorf("%s %s: %s does not refer back", c.id, d, id)
				}
			}
			s := c.switches[d]
			switch s.Kind {
			case SwitchAbsent:
				if len(c.tracks[d]) != 0 {
					return fmt.Errorf("%s %s: members but no switch", c.id, d)
				}
			case SwitchFixed:
				if !slices.Contains(c.tracks[d], s.Track) {
					return fmt.Errorf("%s %s: %s set to non-member", c.id, d, s)
				}
			case SwitchChanging:
				if !slices.Contains(c.tracks[d], s.Previous) || !slices.Contains(c.tracks[d], s.Next) {
					return fmt.Errorf("%s %s: %s between non-members", c.id, d, s)
				}
			}
		}
	}
	return nil
}

func mustInvariants(t *testing.T, m *Map) {
	t.Helper()
	if err := checkInvariants(m); err != nil {
		t.Fatalf("invariants: %s", err)
	}
}

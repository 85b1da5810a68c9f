package kato

import (
	"fmt"

	"go.uber.org/zap"
	"nyiyui.ca/hato/senro/geom"
	"nyiyui.ca/hato/senro/layout"
)

const ovalStraights = 6

// Oval lays a demo layout on m: an oval of R481 curves with a passing siding
// on the outside of its bottom straight, and a main signal protecting the
// siding's entry.
func Oval(m *layout.Map) error {
	pieces := append(Repeat(ovalStraights, S248), Repeat(12, R481_15)...)
	pieces = append(pieces, Repeat(ovalStraights, S248)...)
	main, err := Path(geom.Pt(0, 0), 0, pieces...)
	if err != nil {
		return fmt.Errorf("main line: %w", err)
	}
	loop, _, err := m.AddTrack(main, nil, nil)
	if err != nil {
		return fmt.Errorf("main line: %w", err)
	}
	closing, err := Path(main.End(), main.EndOrientation(), Repeat(12, R481_15)...)
	if err != nil {
		return fmt.Errorf("closing curve: %w", err)
	}
	_, _, err = m.AddTrack(closing,
		layout.SplitTrack{Track: loop.ID(), Position: main.Length()},
		layout.SplitTrack{Track: loop.ID(), Position: 0},
	)
	if err != nil {
		return fmt.Errorf("closing curve: %w", err)
	}

	const entry = 248
	siding, err := Path(geom.Pt(entry, 0), 0,
		R481_15.Right(), R481_15, S248, S248, R481_15, R481_15.Right())
	if err != nil {
		return fmt.Errorf("siding: %w", err)
	}
	_, _, err = m.AddTrack(siding,
		layout.SplitTrack{Track: loop.ID(), Position: entry},
		layout.SplitTrack{Track: loop.ID(), Position: siding.End().X},
	)
	if err != nil {
		return fmt.Errorf("siding: %w", err)
	}

	m.AddSignal(layout.SignalPosition{Point: geom.Pt(entry-S64.Length, 0), Orientation: 0}, layout.SignalMain)
	zap.S().Debugw("laid oval", "tracks", len(m.Tracks()), "connections", len(m.Connections()))
	return nil
}

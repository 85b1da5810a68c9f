package main

import (
	"fmt"
	"strings"

	"github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"
	"nyiyui.ca/hato/senro/layout"
)

// route is one direction of a connection with more than one track, i.e. a
// switch.
type route struct {
	c layout.ConnectionID
	d layout.Direction
}

// monitor lists the switches of a map. Up and down select a switch, enter
// throws it to its next track and q quits.
type monitor struct {
	m        *layout.Map
	table    *widgets.Table
	help     *widgets.Paragraph
	routes   []route
	selected int
}

func newMonitor(m *layout.Map) (*monitor, error) {
	err := termui.Init()
	if err != nil {
		return nil, fmt.Errorf("termui init: %s", err)
	}
	mon := &monitor{
		m:     m,
		table: widgets.NewTable(),
		help:  widgets.NewParagraph(),
	}
	mon.table.Title = "switches"
	mon.table.TextStyle = termui.NewStyle(termui.ColorWhite)
	mon.table.RowSeparator = false
	mon.help.Text = "↑/↓ select  ⏎ throw  q quit"
	return mon, nil
}

func (mon *monitor) close() {
	termui.Close()
}

func (mon *monitor) collect() {
	mon.routes = mon.routes[:0]
	for _, c := range mon.m.Connections() {
		for _, d := range []layout.Direction{layout.DirectionA, layout.DirectionB} {
			if len(c.Tracks(d)) > 1 {
				mon.routes = append(mon.routes, route{c: c.ID(), d: d})
			}
		}
	}
	if mon.selected >= len(mon.routes) {
		mon.selected = max(0, len(mon.routes)-1)
	}
}

func (mon *monitor) render() {
	mon.collect()
	rows := [][]string{{"connection", "point", "dir", "tracks", "state"}}
	for _, r := range mon.routes {
		c, _ := mon.m.Connection(r.c)
		ids := make([]string, 0, c.Len())
		for _, t := range c.Tracks(r.d) {
			ids = append(ids, t.String())
		}
		rows = append(rows, []string{
			r.c.String(),
			fmt.Sprintf("%.1f, %.1f", c.Point().X, c.Point().Y),
			r.d.String(),
			strings.Join(ids, " "),
			c.State(r.d).String(),
		})
	}
	mon.table.Rows = rows
	mon.table.RowStyles = map[int]termui.Style{
		0: termui.NewStyle(termui.ColorWhite, termui.ColorClear, termui.ModifierBold),
	}
	if len(mon.routes) > 0 {
		mon.table.RowStyles[mon.selected+1] = termui.NewStyle(termui.ColorBlack, termui.ColorYellow)
	}
	w, h := termui.TerminalDimensions()
	mon.table.SetRect(0, 0, w, h-3)
	mon.help.SetRect(0, h-3, w, h)
	termui.Render(mon.table, mon.help)
}

// handle reacts to e and reports whether to quit.
func (mon *monitor) handle(e termui.Event) bool {
	switch e.ID {
	case "q", "<C-c>":
		return true
	case "<Up>", "k":
		if mon.selected > 0 {
			mon.selected--
		}
	case "<Down>", "j":
		if mon.selected < len(mon.routes)-1 {
			mon.selected++
		}
	case "<Enter>":
		mon.throw()
	}
	return false
}

func (mon *monitor) throw() {
	if len(mon.routes) == 0 {
		return
	}
	r := mon.routes[mon.selected]
	c, ok := mon.m.Connection(r.c)
	if !ok {
		return
	}
	tracks := c.Tracks(r.d)
	active, _ := c.State(r.d).Active()
	next := tracks[(slices.Index(tracks, active)+1)%len(tracks)]
	zap.S().Infow("throw switch", "connection", r.c, "direction", r.d, "track", next)
	mon.m.Switch(r.c, r.d, next)
}

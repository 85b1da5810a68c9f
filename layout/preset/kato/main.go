// Package kato contains preset geometry for the KATO Unitrack series of model
// railroad tracks. Lengths are in millimetres.
package kato

import (
	"fmt"

	"nyiyui.ca/hato/senro/geom"
	"nyiyui.ca/hato/senro/layout"
)

const (
	// Gauge is N gauge.
	Gauge = 9.0
	// RailTopWidth is the width of the head of code 80 rail.
	RailTopWidth = 0.6
)

// Piece is a single sectional track: a straight of Length, or a curve of
// Radius sweeping Angle degrees (positive turns left).
type Piece struct {
	Name   string
	Length float64
	Radius float64
	Angle  float64
}

var (
	S248 = Piece{Name: "S248", Length: 248}
	S186 = Piece{Name: "S186", Length: 186}
	S124 = Piece{Name: "S124", Length: 124}
	S64  = Piece{Name: "S64", Length: 64}
	S62  = Piece{Name: "S62", Length: 62}
	// S62F is the common feeder track (product #20-041).
	S62F = Piece{Name: "S62F", Length: 62}
	// S60 is commonly found in EP481 sets.
	S60 = Piece{Name: "S60", Length: 60}

	R718_15 = Piece{Name: "R718-15", Radius: 718, Angle: 15}
	R481_15 = Piece{Name: "R481-15", Radius: 481, Angle: 15}
	R315_45 = Piece{Name: "R315-45", Radius: 315, Angle: 45}
	R282_45 = Piece{Name: "R282-45", Radius: 282, Angle: 45}
)

// Right returns the piece turning the other way.
func (p Piece) Right() Piece {
	p.Angle = -p.Angle
	return p
}

func (p Piece) String() string {
	if p.Angle < 0 {
		return p.Name + "R"
	}
	return p.Name
}

// Repeat returns n copies of p.
func Repeat(n int, p Piece) []Piece {
	ps := make([]Piece, n)
	for i := range ps {
		ps[i] = p
	}
	return ps
}

func (p Piece) path(start geom.Point, orientation geom.CircleAngle) (geom.FinitePath, bool) {
	if p.Angle == 0 {
		return geom.NewLinearPathFrom(start, orientation, p.Length)
	}
	return geom.NewCircularPathFrom(start, orientation, p.Radius, geom.Degrees(p.Angle))
}

// Path lays pieces end to end from start, heading along orientation.
func Path(start geom.Point, orientation geom.CircleAngle, pieces ...Piece) (geom.FinitePath, error) {
	var path geom.FinitePath
	for i, piece := range pieces {
		next, ok := piece.path(start, orientation)
		if !ok {
			return nil, fmt.Errorf("piece %d (%s): invalid geometry", i, piece)
		}
		if path == nil {
			path = next
		} else {
			path, ok = geom.Combine(path, next)
			if !ok {
				return nil, fmt.Errorf("piece %d (%s): does not join", i, piece)
			}
		}
		start, orientation = path.End(), path.EndOrientation()
	}
	if path == nil {
		return nil, fmt.Errorf("no pieces")
	}
	return path, nil
}

// Scale returns the map option for Unitrack rails.
func Scale() layout.Option {
	return layout.WithGauge(Gauge, RailTopWidth)
}

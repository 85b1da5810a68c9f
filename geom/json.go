package geom

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidPath is returned when decoding a path that cannot be constructed.
var ErrInvalidPath = errors.New("invalid path")

// PathJSON wraps a FinitePath for JSON encoding. The encoding is tagged by
// "kind":
//
//	{"kind":"linear","start":[x,y],"end":[x,y]}
//	{"kind":"circular","center":[x,y],"radius":r,"start-angle":a,"delta":d}
//	{"kind":"compound","components":[...]}
//
// Angles are in radians.
type PathJSON struct {
	Path FinitePath
}

type pathJSON struct {
	Kind       string      `json:"kind"`
	Start      *[2]float64 `json:"start,omitempty"`
	End        *[2]float64 `json:"end,omitempty"`
	Center     *[2]float64 `json:"center,omitempty"`
	Radius     float64     `json:"radius,omitempty"`
	StartAngle float64     `json:"start-angle,omitempty"`
	Delta      float64     `json:"delta,omitempty"`
	Components []pathJSON  `json:"components,omitempty"`
}

func pointJSON(p Point) *[2]float64 {
	return &[2]float64{p.X, p.Y}
}

func encodePath(p FinitePath) pathJSON {
	switch p := p.(type) {
	case LinearPath:
		return pathJSON{Kind: "linear", Start: pointJSON(p.start), End: pointJSON(p.end)}
	case CircularPath:
		return pathJSON{
			Kind:       "circular",
			Center:     pointJSON(p.center),
			Radius:     p.radius,
			StartAngle: float64(p.startAngle),
			Delta:      float64(p.delta),
		}
	case CompoundPath:
		pj := pathJSON{Kind: "compound", Components: make([]pathJSON, len(p.components))}
		for i, comp := range p.components {
			pj.Components[i] = encodePath(comp)
		}
		return pj
	default:
		panic(fmt.Sprintf("unknown path type %T", p))
	}
}

func decodePath(pj pathJSON) (FinitePath, error) {
	switch pj.Kind {
	case "linear":
		if pj.Start == nil || pj.End == nil {
			return nil, fmt.Errorf("linear: missing start or end: %w", ErrInvalidPath)
		}
		l, ok := NewLinearPath(Pt(pj.Start[0], pj.Start[1]), Pt(pj.End[0], pj.End[1]))
		if !ok {
			return nil, fmt.Errorf("linear: degenerate: %w", ErrInvalidPath)
		}
		return l, nil
	case "circular":
		if pj.Center == nil {
			return nil, fmt.Errorf("circular: missing center: %w", ErrInvalidPath)
		}
		c, ok := NewCircularPath(Pt(pj.Center[0], pj.Center[1]), pj.Radius, NewCircleAngle(Angle(pj.StartAngle)), Angle(pj.Delta))
		if !ok {
			return nil, fmt.Errorf("circular: radius %g delta %g: %w", pj.Radius, pj.Delta, ErrInvalidPath)
		}
		return c, nil
	case "compound":
		list := make([]AtomicPath, len(pj.Components))
		for i, cj := range pj.Components {
			comp, err := decodePath(cj)
			if err != nil {
				return nil, fmt.Errorf("component %d: %w", i, err)
			}
			atomic, ok := comp.(AtomicPath)
			if !ok {
				return nil, fmt.Errorf("component %d: nested compound: %w", i, ErrInvalidPath)
			}
			list[i] = atomic
		}
		c, ok := NewCompoundPath(list...)
		if !ok {
			return nil, fmt.Errorf("compound: discontinuous or too short: %w", ErrInvalidPath)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown kind %q: %w", pj.Kind, ErrInvalidPath)
	}
}

func (p PathJSON) MarshalJSON() ([]byte, error) {
	if p.Path == nil {
		return []byte("null"), nil
	}
	return json.Marshal(encodePath(p.Path))
}

func (p *PathJSON) UnmarshalJSON(data []byte) error {
	var pj pathJSON
	err := json.Unmarshal(data, &pj)
	if err != nil {
		return err
	}
	path, err := decodePath(pj)
	if err != nil {
		return err
	}
	p.Path = path
	return nil
}

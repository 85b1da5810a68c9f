package layout

import (
	"fmt"

	"nyiyui.ca/hato/senro/geom"
	"nyiyui.ca/hato/senro/notify"
)

// SignalDuration is how long a signal takes to change aspect.
const SignalDuration = 1.0

type SignalKind int

const (
	SignalSection SignalKind = iota
	SignalMain
)

func (k SignalKind) String() string {
	switch k {
	case SignalSection:
		return "section"
	case SignalMain:
		return "main"
	default:
		return fmt.Sprint(int(k))
	}
}

func (k SignalKind) MarshalText() ([]byte, error) {
	switch k {
	case SignalSection, SignalMain:
		return []byte(k.String()), nil
	default:
		return nil, fmt.Errorf("invalid signal kind %d", int(k))
	}
}

func (k *SignalKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "section":
		*k = SignalSection
	case "main":
		*k = SignalMain
	default:
		return fmt.Errorf("invalid signal kind %q", text)
	}
	return nil
}

type Aspect int

const (
	AspectBlocked Aspect = iota
	AspectGo
)

func (a Aspect) String() string {
	switch a {
	case AspectBlocked:
		return "blocked"
	case AspectGo:
		return "go"
	default:
		return fmt.Sprint(int(a))
	}
}

func (a Aspect) MarshalText() ([]byte, error) {
	switch a {
	case AspectBlocked, AspectGo:
		return []byte(a.String()), nil
	default:
		return nil, fmt.Errorf("invalid aspect %d", int(a))
	}
}

func (a *Aspect) UnmarshalText(text []byte) error {
	switch string(text) {
	case "blocked":
		*a = AspectBlocked
	case "go":
		*a = AspectGo
	default:
		return fmt.Errorf("invalid aspect %q", text)
	}
	return nil
}

// SignalState is either a fixed aspect or a change between two aspects.
type SignalState struct {
	Changing bool

	// Aspect is the shown aspect when not Changing.
	Aspect Aspect

	Previous Aspect
	Next     Aspect
	Progress float64
}

func (s SignalState) String() string {
	if s.Changing {
		return fmt.Sprintf("changing(%s, %s, %.3f)", s.Previous, s.Next, s.Progress)
	}
	return fmt.Sprintf("fixed(%s)", s.Aspect)
}

// Active returns the aspect shown or being changed to.
func (s SignalState) Active() Aspect {
	if s.Changing {
		return s.Next
	}
	return s.Aspect
}

// SignalPosition places a signal in the plane, facing Orientation.
type SignalPosition struct {
	Point       geom.Point
	Orientation geom.CircleAngle
}

type Signal struct {
	id        SignalID
	position  SignalPosition
	kind      SignalKind
	state     SignalState
	observers notify.Registry[SignalObserver]
	owner     *Map
}

func (s *Signal) String() string {
	return fmt.Sprintf("%s(%s %s)", s.id, s.kind, s.state)
}

func (s *Signal) ID() SignalID { return s.id }

func (s *Signal) Position() SignalPosition { return s.position }

func (s *Signal) Kind() SignalKind { return s.kind }

func (s *Signal) State() SignalState { return s.state }

func (s *Signal) Observe(comment string, o SignalObserver) notify.Handle {
	return s.observers.Subscribe(comment, o)
}

func (s *Signal) Unobserve(h notify.Handle) {
	s.observers.Unsubscribe(h)
}

// Set starts changing the signal to a. Setting the aspect already shown (or
// being changed to) does nothing.
func (s *Signal) Set(a Aspect) {
	if s.owner != nil {
		s.owner.begin()
		defer s.owner.end()
	}
	s.set(a)
}

func (s *Signal) set(a Aspect) {
	if s.state.Active() == a {
		return
	}
	previous := s.state.Aspect
	if s.state.Changing {
		previous = s.state.Previous
	}
	s.state = SignalState{Changing: true, Previous: previous, Next: a}
	s.observers.Each(func(o SignalObserver) { o.StartedChanging(s) })
}

func (s *Signal) tick(dt float64) {
	if !s.state.Changing {
		return
	}
	s.state.Progress += dt / SignalDuration
	if s.state.Progress >= 1 {
		s.state = SignalState{Aspect: s.state.Next}
		s.observers.Each(func(o SignalObserver) { o.StoppedChanging(s) })
		return
	}
	progress := s.state.Progress
	s.observers.Each(func(o SignalObserver) { o.ProgressedChanging(s, progress) })
}

func (s *Signal) removed() {
	s.observers.Each(func(o SignalObserver) { o.Removed(s) })
	s.observers.Clear()
}

package fsmodel

import (
	"fmt"

	"github.com/enetx/g"
)

type (
	// IoKind is the direction of a Signal.
	IoKind int
	// IoType is the value type of a Signal.
	IoType int
)

const (
	Input IoKind = iota
	Output
	Shared
)

const (
	Event IoType = iota
	Int
	Bool
)

// Signal is a typed input, output or shared variable declaration.
// Automaton-local variables are Signals of kind Shared.
type Signal struct {
	Name g.String
	Kind IoKind
	Type IoType
	Stim Stimulus
}

func (k IoKind) String() string {
	switch k {
	case Input:
		return "input"
	case Output:
		return "output"
	default:
		return "shared"
	}
}

// rfsm returns the parameter direction keyword used in RFSM model headers.
func (k IoKind) rfsm() string {
	switch k {
	case Input:
		return "in"
	case Output:
		return "out"
	default:
		return "inout"
	}
}

func (t IoType) String() string {
	switch t {
	case Int:
		return "int"
	case Bool:
		return "bool"
	default:
		return "event"
	}
}

// ParseIoKind parses the persisted name of an IoKind.
func ParseIoKind(s string) (IoKind, error) {
	switch s {
	case "input":
		return Input, nil
	case "output":
		return Output, nil
	case "shared":
		return Shared, nil
	}
	return 0, fmt.Errorf("unknown io kind %q", s)
}

// ParseIoType parses the persisted name of an IoType.
func ParseIoType(s string) (IoType, error) {
	switch s {
	case "event":
		return Event, nil
	case "int":
		return Int, nil
	case "bool":
		return Bool, nil
	}
	return 0, fmt.Errorf("unknown io type %q", s)
}

// IsInputEvent reports whether s is an input of type event.
func (s *Signal) IsInputEvent() bool { return s.Kind == Input && s.Type == Event }

// IsSharedEvent reports whether s is a shared variable of type event.
func (s *Signal) IsSharedEvent() bool { return s.Kind == Shared && s.Type == Event }

// Clone returns a deep copy of s.
func (s *Signal) Clone() *Signal {
	c := *s
	c.Stim = s.Stim.Clone()
	return &c
}

// String renders the declaration as "kind name: type".
func (s *Signal) String() string {
	return s.Kind.String() + " " + string(s.Name) + ": " + s.Type.String()
}

// signalList renders a caption listing one declaration per line, with
// DOT-escaped line breaks.
func signalList(sigs g.Slice[*Signal]) g.String {
	lines := g.NewSlice[g.String]()
	for _, s := range sigs {
		lines.Push(g.String(s.String()))
	}
	return lines.Join("\\n")
}

func findSignal(sigs g.Slice[*Signal], name g.String) int {
	for i, s := range sigs {
		if s.Name == name {
			return i
		}
	}
	return -1
}

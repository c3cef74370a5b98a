package fsmodel

import "github.com/enetx/g"

type (
	// StateRef is a stable handle to a state inside its owning Automaton.
	// Handles are never reused within an automaton.
	StateRef int
	// TransitionRef is a stable handle to a transition inside its owning Automaton.
	TransitionRef int

	// Point is a canvas position. It is carried through persistence but
	// has no meaning for validation or export.
	Point struct {
		X, Y float64
	}

	// Location is the placement hint of a self-loop transition.
	Location int

	// StateKind distinguishes normal states from the pseudo-state.
	StateKind int

	// FragmentKind identifies the syntactic class of a fragment handed to a FragmentChecker.
	FragmentKind int

	// ModifiedHook is called after a structural change to an automaton.
	ModifiedHook func(a *Automaton)
)

const (
	LocNone Location = iota
	LocNorth
	LocSouth
	LocEast
	LocWest
)

const (
	Normal StateKind = iota
	Pseudo
)

const (
	Guard FragmentKind = iota
	Action
	StateValuation
)

// PseudoStateID is the reserved identifier under which the pseudo-state is
// persisted. User state ids may not take this value.
const PseudoStateID g.String = "_init"

// locationOf maps a wire integer to a Location, defaulting unknown values to LocNone.
func locationOf(n int) Location {
	switch l := Location(n); l {
	case LocNorth, LocSouth, LocEast, LocWest:
		return l
	default:
		return LocNone
	}
}

func (l Location) String() string {
	switch l {
	case LocNorth:
		return "north"
	case LocSouth:
		return "south"
	case LocEast:
		return "east"
	case LocWest:
		return "west"
	default:
		return "none"
	}
}

func (k FragmentKind) String() string {
	switch k {
	case Guard:
		return "guard"
	case Action:
		return "action"
	case StateValuation:
		return "sval"
	default:
		return "unknown"
	}
}

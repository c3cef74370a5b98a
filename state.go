package fsmodel

import "github.com/enetx/g"

// State is a node of an automaton graph. It is either a normal state,
// carrying an id and an attribute list, or the pseudo-state standing for
// "outside the automaton", which is the source of the initial transition.
//
// States are owned by an Automaton and addressed through a StateRef.
type State struct {
	kind  StateKind
	id    g.String
	attrs g.Slice[g.String]
	Pos   Point

	// incident holds every transition touching this state; a self-loop
	// appears once.
	incident map[TransitionRef]struct{}
}

func newState(kind StateKind, id g.String, attrs g.Slice[g.String], pos Point) *State {
	return &State{
		kind:     kind,
		id:       id,
		attrs:    attrs,
		Pos:      pos,
		incident: make(map[TransitionRef]struct{}),
	}
}

// Kind returns whether s is a normal state or the pseudo-state.
func (s *State) Kind() StateKind { return s.kind }

// IsPseudo reports whether s is the pseudo-state.
func (s *State) IsPseudo() bool { return s.kind == Pseudo }

// ID returns the state identifier. The pseudo-state answers PseudoStateID.
func (s *State) ID() g.String {
	if s.IsPseudo() {
		return PseudoStateID
	}
	return s.id
}

// Attrs returns a copy of the state attributes (output valuations).
// The pseudo-state has none.
func (s *State) Attrs() g.Slice[g.String] {
	if s.IsPseudo() || s.attrs == nil {
		return nil
	}
	return s.attrs.Clone()
}

// SetAttrs replaces the attribute list of a normal state. It is a no-op on
// the pseudo-state.
func (s *State) SetAttrs(attrs ...g.String) {
	if s.IsPseudo() {
		return
	}
	s.attrs = normalizeFragments(attrs)
}

func (s *State) clone() *State {
	return newState(s.kind, s.id, s.Attrs(), s.Pos)
}

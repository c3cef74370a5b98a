package fsmodel

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/enetx/g"
)

// Automaton is one finite-state-machine graph of a Model: a set of states,
// a set of guarded transitions between them and a list of local variables.
//
// States and transitions live in an arena addressed by StateRef and
// TransitionRef handles. A state keeps the set of its incident transition
// handles; transitions refer to their endpoints by handle. Removing a state
// first destroys every transition incident to it.
type Automaton struct {
	name g.String
	vars g.Slice[*Signal]

	states      map[StateRef]*State
	stateOrder  []StateRef
	transitions map[TransitionRef]*Transition
	transOrder  []TransitionRef
	nextState   StateRef
	nextTrans   TransitionRef

	onModified g.Slice[ModifiedHook]
	logger     *slog.Logger
}

// NewAutomaton creates an empty automaton. An empty name is replaced by
// Model.AddAutomaton with an automatically generated one.
func NewAutomaton(name g.String) *Automaton {
	return &Automaton{
		name:        name,
		states:      make(map[StateRef]*State),
		transitions: make(map[TransitionRef]*Transition),
		logger:      slog.Default(),
	}
}

// Name returns the automaton name.
func (a *Automaton) Name() g.String { return a.name }

// SetName renames the automaton. Uniqueness within a Model is checked by
// Model.AddAutomaton, not here.
func (a *Automaton) SetName(name g.String) { a.name = name }

// OnModified registers a hook called after each structural change.
func (a *Automaton) OnModified(hook ModifiedHook) *Automaton {
	a.onModified.Push(hook)
	return a
}

func (a *Automaton) modified() {
	for _, hook := range a.onModified {
		hook(a)
	}
}

// AddVar declares a local variable. Local variables are always Shared and
// carry no stimulus. Empty names are accepted (they are dropped on save);
// a non-empty name must be unique among the automaton variables.
func (a *Automaton) AddVar(name g.String, typ IoType) (*Signal, error) {
	if name != "" && findSignal(a.vars, name) >= 0 {
		return nil, fmt.Errorf("fsmodel: var %q of automaton %q: %w", string(name), string(a.name), ErrDuplicateName)
	}

	v := &Signal{Name: name, Kind: Shared, Type: typ}
	a.vars.Push(v)
	a.logger.Debug("automaton var added", "automaton", a.name, "var", name, "type", typ.String())

	return v, nil
}

// RemoveVar removes the local variable with the given name, reporting
// whether it existed.
func (a *Automaton) RemoveVar(name g.String) bool {
	i := findSignal(a.vars, name)
	if i < 0 {
		return false
	}
	a.vars = slices.Delete(a.vars, i, i+1)
	return true
}

// Vars returns the local variables in declaration order.
func (a *Automaton) Vars() g.Slice[*Signal] { return slices.Clone(a.vars) }

// AddState inserts a normal state. Ids must be unique within the
// automaton and distinct from PseudoStateID.
func (a *Automaton) AddState(id g.String, attrs g.Slice[g.String], pos Point) (StateRef, error) {
	if id == "" {
		return 0, &GraphError{Automaton: a.name, Err: ErrEmptyName}
	}

	if id == PseudoStateID {
		return 0, &GraphError{Automaton: a.name, State: id, Err: ErrReservedStateID}
	}

	if a.StateByID(id).IsSome() {
		return 0, &GraphError{Automaton: a.name, State: id, Err: ErrDuplicateStateID}
	}

	ref := a.insertState(newState(Normal, id, normalizeFragments(attrs), pos))
	a.logger.Debug("state added", "automaton", a.name, "state", id)
	a.modified()

	return ref, nil
}

// AddPseudoState inserts a pseudo-state. A second pseudo-state is not
// refused here; it is reported by Validate, Check and the exporters.
func (a *Automaton) AddPseudoState(pos Point) StateRef {
	ref := a.insertState(newState(Pseudo, "", nil, pos))
	a.logger.Debug("pseudo-state added", "automaton", a.name)
	a.modified()
	return ref
}

func (a *Automaton) insertState(s *State) StateRef {
	ref := a.nextState
	a.nextState++
	a.states[ref] = s
	a.stateOrder = append(a.stateOrder, ref)
	return ref
}

// RemoveState destroys every transition incident to the state, then the
// state itself.
func (a *Automaton) RemoveState(ref StateRef) error {
	s, ok := a.states[ref]
	if !ok {
		return &GraphError{Automaton: a.name, Err: ErrStateNotFound}
	}

	for tref := range s.incident {
		a.destroyTransition(tref)
	}

	delete(a.states, ref)
	a.stateOrder = deleteRef(a.stateOrder, ref)

	a.logger.Debug("state removed", "automaton", a.name, "state", s.ID())
	a.modified()

	return nil
}

// AddTransition inserts a transition between two member states. Several
// transitions may join the same pair of states on the same event.
func (a *Automaton) AddTransition(
	src, dst StateRef,
	event g.String,
	guards, actions g.Slice[g.String],
	loc Location,
) (TransitionRef, error) {
	for _, ref := range []StateRef{src, dst} {
		if _, ok := a.states[ref]; !ok {
			return 0, &GraphError{Automaton: a.name, Err: ErrStateNotFound}
		}
	}

	t := &Transition{
		src:      src,
		dst:      dst,
		Event:    event,
		Guards:   normalizeFragments(guards),
		Actions:  normalizeFragments(actions),
		Location: loc,
	}

	ref := a.insertTransition(t)
	a.logger.Debug("transition added", "automaton", a.name, "transition", a.describe(t))
	a.modified()

	return ref, nil
}

func (a *Automaton) insertTransition(t *Transition) TransitionRef {
	ref := a.nextTrans
	a.nextTrans++
	a.transitions[ref] = t
	a.transOrder = append(a.transOrder, ref)

	a.link(ref, t)

	return ref
}

// RemoveTransition removes a transition. Removing the initial transition
// removes its pseudo-state as well, since a disconnected pseudo-state has
// no meaning.
func (a *Automaton) RemoveTransition(ref TransitionRef) error {
	t, ok := a.transitions[ref]
	if !ok {
		return &GraphError{Automaton: a.name, Err: ErrTransitionNotFound}
	}

	a.logger.Debug("transition removed", "automaton", a.name, "transition", a.describe(t))

	if a.isInitial(t) {
		return a.RemoveState(t.src)
	}

	a.destroyTransition(ref)
	a.modified()

	return nil
}

// Retarget moves the endpoints of a transition to other member states,
// keeping the incident sets of the old and new endpoints in step.
func (a *Automaton) Retarget(ref TransitionRef, src, dst StateRef) error {
	t, ok := a.transitions[ref]
	if !ok {
		return &GraphError{Automaton: a.name, Err: ErrTransitionNotFound}
	}

	for _, sref := range []StateRef{src, dst} {
		if _, ok := a.states[sref]; !ok {
			return &GraphError{Automaton: a.name, Transition: a.describe(t), Err: ErrStateNotFound}
		}
	}

	a.unlink(ref, t)
	t.src, t.dst = src, dst
	a.link(ref, t)

	a.logger.Debug("transition retargeted", "automaton", a.name, "transition", a.describe(t))
	a.modified()

	return nil
}

func (a *Automaton) link(ref TransitionRef, t *Transition) {
	a.states[t.src].incident[ref] = struct{}{}
	a.states[t.dst].incident[ref] = struct{}{}
}

func (a *Automaton) unlink(ref TransitionRef, t *Transition) {
	if s, ok := a.states[t.src]; ok {
		delete(s.incident, ref)
	}
	if s, ok := a.states[t.dst]; ok {
		delete(s.incident, ref)
	}
}

func (a *Automaton) destroyTransition(ref TransitionRef) {
	t, ok := a.transitions[ref]
	if !ok {
		return
	}

	a.unlink(ref, t)
	delete(a.transitions, ref)
	a.transOrder = deleteRef(a.transOrder, ref)
}

// State returns the state behind ref.
func (a *Automaton) State(ref StateRef) g.Option[*State] {
	if s, ok := a.states[ref]; ok {
		return g.Some(s)
	}
	return g.None[*State]()
}

// StateByID looks a state up by id. PseudoStateID finds the first pseudo-state.
func (a *Automaton) StateByID(id g.String) g.Option[StateRef] {
	for _, ref := range a.stateOrder {
		if a.states[ref].ID() == id {
			return g.Some(ref)
		}
	}
	return g.None[StateRef]()
}

// States returns the state handles in insertion order.
func (a *Automaton) States() g.Slice[StateRef] { return slices.Clone(a.stateOrder) }

// Transition returns the transition behind ref.
func (a *Automaton) Transition(ref TransitionRef) g.Option[*Transition] {
	if t, ok := a.transitions[ref]; ok {
		return g.Some(t)
	}
	return g.None[*Transition]()
}

// Transitions returns the transition handles in insertion order.
func (a *Automaton) Transitions() g.Slice[TransitionRef] { return slices.Clone(a.transOrder) }

// Incident returns the handles of the transitions touching a state, in
// insertion order. A self-loop is listed once.
func (a *Automaton) Incident(ref StateRef) g.Slice[TransitionRef] {
	s, ok := a.states[ref]
	if !ok {
		return nil
	}

	var out g.Slice[TransitionRef]
	for _, tref := range a.transOrder {
		if _, ok := s.incident[tref]; ok {
			out.Push(tref)
		}
	}

	return out
}

// HasPseudoState reports whether the automaton holds at least one pseudo-state.
func (a *Automaton) HasPseudoState() bool { return a.pseudoCount() > 0 }

func (a *Automaton) pseudoCount() int {
	n := 0
	for _, s := range a.states {
		if s.IsPseudo() {
			n++
		}
	}
	return n
}

func (a *Automaton) isInitial(t *Transition) bool {
	s, ok := a.states[t.src]
	return ok && s.IsPseudo()
}

// IsInitial reports whether the transition behind ref leaves a pseudo-state.
func (a *Automaton) IsInitial(ref TransitionRef) bool {
	t, ok := a.transitions[ref]
	return ok && a.isInitial(t)
}

// InitTransition returns the unique transition leaving a pseudo-state. It
// is None when there is no such transition or more than one.
func (a *Automaton) InitTransition() g.Option[TransitionRef] {
	found := g.None[TransitionRef]()

	for _, ref := range a.transOrder {
		if !a.isInitial(a.transitions[ref]) {
			continue
		}
		if found.IsSome() {
			return g.None[TransitionRef]()
		}
		found = g.Some(ref)
	}

	return found
}

// InitState returns the destination of the initial transition.
func (a *Automaton) InitState() g.Option[StateRef] {
	it := a.InitTransition()
	if it.IsNone() {
		return g.None[StateRef]()
	}

	dst := a.transitions[it.Some()].dst
	if _, ok := a.states[dst]; !ok {
		return g.None[StateRef]()
	}

	return g.Some(dst)
}

// Validate checks the structural invariants of the graph: every transition
// endpoint is a member state, there is at most one pseudo-state and exactly
// one initial transition.
func (a *Automaton) Validate() error {
	if err := a.checkEndpoints(); err != nil {
		return err
	}

	if a.pseudoCount() > 1 {
		return &GraphError{Automaton: a.name, Err: ErrMultiplePseudoStates}
	}

	initials := 0
	for _, ref := range a.transOrder {
		if a.isInitial(a.transitions[ref]) {
			initials++
		}
	}

	switch {
	case initials == 0:
		return &GraphError{Automaton: a.name, Err: ErrNoInitialTransition}
	case initials > 1:
		return &GraphError{Automaton: a.name, Err: ErrMultipleInitialTransitions}
	}

	return nil
}

// checkEndpoints reports the first transition whose source or destination
// is not a member state.
func (a *Automaton) checkEndpoints() error {
	for _, ref := range a.transOrder {
		t := a.transitions[ref]
		_, srcOK := a.states[t.src]
		_, dstOK := a.states[t.dst]
		if !srcOK || !dstOK {
			return &GraphError{Automaton: a.name, Transition: a.describe(t), Err: ErrDanglingState}
		}
	}
	return nil
}

// Duplicate returns an independent deep copy of the automaton: states
// (kind and position included), transitions remapped onto the copied
// states, and local variables. The copy keeps the same name; rename it
// before adding it to the model holding the original. Hooks are not copied.
func (a *Automaton) Duplicate() *Automaton {
	c := NewAutomaton(a.name)
	c.logger = a.logger

	remap := make(map[StateRef]StateRef, len(a.states))
	for _, ref := range a.stateOrder {
		remap[ref] = c.insertState(a.states[ref].clone())
	}

	for _, ref := range a.transOrder {
		t := a.transitions[ref].clone()
		src, srcOK := remap[t.src]
		dst, dstOK := remap[t.dst]
		if !srcOK || !dstOK {
			continue
		}
		t.src, t.dst = src, dst
		c.insertTransition(t)
	}

	for _, v := range a.vars {
		c.vars.Push(v.Clone())
	}

	a.logger.Debug("automaton duplicated", "automaton", a.name)

	return c
}

// Clear removes every state, transition and variable and resets the name.
func (a *Automaton) Clear() {
	a.name = ""
	a.vars = nil
	a.states = make(map[StateRef]*State)
	a.stateOrder = nil
	a.transitions = make(map[TransitionRef]*Transition)
	a.transOrder = nil
	a.nextState = 0
	a.nextTrans = 0
	a.modified()
}

// describe renders a transition as "src->dst [label]" for messages.
func (a *Automaton) describe(t *Transition) g.String {
	return g.Format("{}->{} [{}]", a.stateID(t.src), a.stateID(t.dst), t.Label())
}

func (a *Automaton) stateID(ref StateRef) g.String {
	if s, ok := a.states[ref]; ok {
		return s.ID()
	}
	return g.String(fmt.Sprintf("?%d", ref))
}

func deleteRef[T comparable](refs []T, ref T) []T {
	if i := slices.Index(refs, ref); i >= 0 {
		return slices.Delete(refs, i, i+1)
	}
	return refs
}

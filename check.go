package fsmodel

import (
	"context"
	"errors"

	"github.com/enetx/g"
)

// Check validates the automaton against the global signals of its model.
//
// It fails, in this order, on an empty name, on any structural defect
// reported by Validate, on a non-initial transition whose event is neither
// an input event nor a shared event of the model, on the first guard or
// action the checker rejects and then on the first state attribute it
// rejects as a state valuation. Guards and actions of the initial
// transition are not submitted to the checker.
func (a *Automaton) Check(ctx context.Context, checker FragmentChecker, globals g.Slice[*Signal]) error {
	if a.name == "" {
		return &ValidationError{Err: ErrEmptyName, Subject: "automaton"}
	}

	if err := a.Validate(); err != nil {
		return err
	}

	events := g.NewSet[g.String]()
	for _, s := range globals {
		if s.IsInputEvent() || s.IsSharedEvent() {
			events.Insert(s.Name)
		}
	}

	if checker == nil {
		checker = AcceptAll
	}

	scope := newScope(a, globals)

	for _, ref := range a.transOrder {
		t := a.transitions[ref]
		if a.isInitial(t) {
			continue
		}

		if !events.Contains(t.Event) {
			return &ValidationError{
				Automaton:  a.name,
				Transition: a.describe(t),
				Subject:    t.Event,
				Err:        ErrUnknownEvent,
			}
		}

		at := &ValidationError{Automaton: a.name, Transition: a.describe(t)}

		if err := checkFragments(ctx, checker, scope, at, Guard, t.Guards); err != nil {
			return err
		}

		if err := checkFragments(ctx, checker, scope, at, Action, t.Actions); err != nil {
			return err
		}
	}

	for _, ref := range a.stateOrder {
		s := a.states[ref]
		if s.IsPseudo() {
			continue
		}

		at := &ValidationError{Automaton: a.name, State: s.id}
		if err := checkFragments(ctx, checker, scope, at, StateValuation, s.attrs); err != nil {
			return err
		}
	}

	return nil
}

// checkFragments submits each fragment in turn. A rejection is reported as
// ErrIllegalFragment with the context carried by at.
func checkFragments(
	ctx context.Context,
	checker FragmentChecker,
	scope *Scope,
	at *ValidationError,
	kind FragmentKind,
	fragments g.Slice[g.String],
) error {
	for _, text := range fragments {
		err := checker.CheckFragment(ctx, kind, text, scope)
		if err == nil {
			continue
		}

		var rej *Rejection
		if !errors.As(err, &rej) {
			return err
		}

		return &ValidationError{
			Automaton:   at.Automaton,
			State:       at.State,
			Transition:  at.Transition,
			Fragment:    text,
			Kind:        kind,
			Diagnostics: rej.Diagnostics,
			Err:         ErrIllegalFragment,
		}
	}

	return nil
}

// Check validates the whole model. It fails on an empty model name, on the
// absence of any input event and, when withStimuli is set, on any input
// without a stimulus. It then checks each automaton in turn and returns the
// first failure. Check does not modify the model.
func (m *Model) Check(ctx context.Context, withStimuli bool) error {
	if m.name == "" {
		return &ValidationError{Err: ErrEmptyName, Subject: "model"}
	}

	if m.InputEvents().Empty() {
		return &ValidationError{Err: ErrNoInputEvent}
	}

	if withStimuli {
		for _, io := range m.ios {
			if io.Kind == Input && io.Stim.IsNone() {
				return &ValidationError{Subject: io.Name, Err: ErrMissingStimulus}
			}
		}
	}

	for _, a := range m.automatons {
		if err := a.Check(ctx, m.checker, m.ios); err != nil {
			m.log().Debug("model check failed", "model", m.name, "automaton", a.name, "error", err)
			return err
		}
	}

	return nil
}

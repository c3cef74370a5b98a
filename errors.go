package fsmodel

import (
	"errors"
	"fmt"
	"strings"

	"github.com/enetx/g"
)

// Sentinel causes. Every error returned by this package wraps one of these,
// so callers can branch with errors.Is and recover context with errors.As on
// the family types below.
var (
	ErrStateNotFound              = errors.New("state not found")
	ErrTransitionNotFound         = errors.New("transition not found")
	ErrDanglingState              = errors.New("transition endpoint is not a state of the automaton")
	ErrDuplicateStateID           = errors.New("duplicate state id")
	ErrReservedStateID            = errors.New("reserved state id")
	ErrMultiplePseudoStates       = errors.New("more than one pseudo-state")
	ErrNoInitialTransition        = errors.New("no initial transition")
	ErrMultipleInitialTransitions = errors.New("more than one initial transition")
	ErrNoInitialState             = errors.New("no initial state")

	ErrEmptyName         = errors.New("no name specified")
	ErrDuplicateName     = errors.New("name already in use")
	ErrNoInputEvent      = errors.New("there should be at least one input with type event")
	ErrMissingStimulus   = errors.New("no stimulus for input")
	ErrUnknownEvent      = errors.New("triggering event is not part of the enclosing model")
	ErrIllegalFragment   = errors.New("illegal fragment")
	ErrUnknownStateID    = errors.New("unknown state id")
	ErrMalformedDocument = errors.New("malformed document")
)

// GraphError reports structural misuse of an automaton graph: dangling
// references, missing or duplicated pseudo-states and initial transitions.
type GraphError struct {
	// Automaton is the name of the automaton involved, if known.
	Automaton g.String
	// State is the id of the state involved, if any.
	State g.String
	// Transition is the description of the transition involved, if any.
	Transition g.String
	// Err is the underlying sentinel.
	Err error
}

func (e *GraphError) Error() string {
	msg := "fsmodel: " + e.Err.Error()
	msg += where(e.Automaton, e.State, e.Transition)
	return msg
}

func (e *GraphError) Unwrap() error { return e.Err }

// ValidationError reports a semantic rule violation found by Check.
type ValidationError struct {
	Automaton  g.String
	State      g.String
	Transition g.String
	// Subject names the offending entity (signal name, model name, ...).
	Subject g.String
	// Fragment is the rejected guard, action or state valuation text for
	// ErrIllegalFragment.
	Fragment g.String
	// Kind is the class of Fragment.
	Kind FragmentKind
	// Diagnostics are the messages returned by the fragment checker.
	Diagnostics g.Slice[g.String]
	Err         error
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("fsmodel: ")

	if errors.Is(e.Err, ErrIllegalFragment) {
		fmt.Fprintf(&b, "illegal %s %q", e.Kind.String(), string(e.Fragment))
	} else {
		b.WriteString(e.Err.Error())
	}

	if e.Subject != "" {
		fmt.Fprintf(&b, " %q", string(e.Subject))
	}

	b.WriteString(where(e.Automaton, e.State, e.Transition))

	for _, d := range e.Diagnostics {
		b.WriteString("\n  ")
		b.WriteString(string(d))
	}

	return b.String()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// DecodeError reports a malformed or inconsistent model document.
type DecodeError struct {
	// Path locates the offending element, e.g. "automatons[0].transitions[2]".
	Path string
	// Detail is a free-form description.
	Detail string
	Err    error
}

func (e *DecodeError) Error() string {
	msg := "fsmodel: decode: " + e.Err.Error()
	if e.Path != "" {
		msg += " at " + e.Path
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ExportError reports a precondition failure at export time.
type ExportError struct {
	Format    string
	Automaton g.String
	Subject   g.String
	Err       error
}

func (e *ExportError) Error() string {
	msg := fmt.Sprintf("fsmodel: %s export: %v", e.Format, e.Err)
	if e.Subject != "" {
		msg += fmt.Sprintf(" %q", string(e.Subject))
	}
	return msg + where(e.Automaton, "", "")
}

func (e *ExportError) Unwrap() error { return e.Err }

func where(automaton, state, transition g.String) string {
	var parts []string
	if automaton != "" {
		parts = append(parts, fmt.Sprintf("automaton %q", string(automaton)))
	}
	if state != "" {
		parts = append(parts, fmt.Sprintf("state %q", string(state)))
	}
	if transition != "" {
		parts = append(parts, "transition "+string(transition))
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, ", ") + ")"
}

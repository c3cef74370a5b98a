// Package fsmodel is the model, validation and export core of an editor
// for hierarchical finite state machines. It is built with types and
// utilities from the github.com/enetx/g library.
//
// A Model owns global I/O declarations and a list of automatons; each
// Automaton is a graph of states and guarded transitions. Models are
// validated with Check, persisted as JSON and exported to DOT or to the
// RFSM description language.
package fsmodel

import (
	"fmt"
	"log/slog"
	"slices"
	"strconv"

	"github.com/enetx/g"
)

// automatonPrefix is the stem of automatically generated automaton names.
const automatonPrefix = "A"

// Model is the top-level container of global signals and automatons.
//
// A Model is not safe for concurrent use; wrap it in a SyncModel when it
// is shared between goroutines.
type Model struct {
	name       g.String
	ios        g.Slice[*Signal]
	automatons g.Slice[*Automaton]
	counter    int

	checker FragmentChecker
	logger  *slog.Logger
}

// Option configures a Model.
type Option func(*Model)

// WithChecker sets the fragment checker used by Check. The default accepts
// every fragment.
func WithChecker(c FragmentChecker) Option { return func(m *Model) { m.checker = c } }

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option { return func(m *Model) { m.logger = l } }

// New creates an empty model.
func New(name g.String, opts ...Option) *Model {
	m := &Model{
		name:    name,
		checker: AcceptAll,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Name returns the model name.
func (m *Model) Name() g.String { return m.name }

// SetName renames the model.
func (m *Model) SetName(name g.String) { m.name = name }

// Checker returns the fragment checker used by Check.
func (m *Model) Checker() FragmentChecker { return m.checker }

// AddIO declares a global signal. Non-empty names must be unique; empty
// names are accepted and dropped on save. Output and shared signals never
// carry a stimulus.
func (m *Model) AddIO(name g.String, kind IoKind, typ IoType, stim Stimulus) (*Signal, error) {
	if name != "" && findSignal(m.ios, name) >= 0 {
		return nil, fmt.Errorf("fsmodel: io %q: %w", string(name), ErrDuplicateName)
	}

	if kind != Input {
		stim = NoStimulus
	}

	io := &Signal{Name: name, Kind: kind, Type: typ, Stim: stim}
	m.ios.Push(io)
	m.log().Debug("io added", "model", m.name, "io", io.String(), "stim", stim.String())

	return io, nil
}

// RemoveIO removes a global signal by name, reporting whether it existed.
func (m *Model) RemoveIO(name g.String) bool {
	i := findSignal(m.ios, name)
	if i < 0 {
		return false
	}
	m.ios = slices.Delete(m.ios, i, i+1)
	return true
}

// IO returns the global signal with the given name.
func (m *Model) IO(name g.String) g.Option[*Signal] {
	if i := findSignal(m.ios, name); i >= 0 {
		return g.Some(m.ios[i])
	}
	return g.None[*Signal]()
}

// IOs returns the global signals in declaration order.
func (m *Model) IOs() g.Slice[*Signal] { return slices.Clone(m.ios) }

func (m *Model) names(keep func(*Signal) bool) g.Slice[g.String] {
	out := g.NewSlice[g.String]()
	for _, io := range m.ios {
		if keep(io) {
			out.Push(io.Name)
		}
	}
	return out
}

// Inputs returns the names of all inputs.
func (m *Model) Inputs() g.Slice[g.String] {
	return m.names(func(s *Signal) bool { return s.Kind == Input })
}

// Outputs returns the names of all outputs.
func (m *Model) Outputs() g.Slice[g.String] {
	return m.names(func(s *Signal) bool { return s.Kind == Output })
}

// Shared returns the names of all shared variables.
func (m *Model) Shared() g.Slice[g.String] {
	return m.names(func(s *Signal) bool { return s.Kind == Shared })
}

// InputEvents returns the names of inputs of type event.
func (m *Model) InputEvents() g.Slice[g.String] { return m.names((*Signal).IsInputEvent) }

// SharedEvents returns the names of shared variables of type event.
func (m *Model) SharedEvents() g.Slice[g.String] { return m.names((*Signal).IsSharedEvent) }

// AddAutomaton appends an automaton. An unnamed automaton is named "A"
// followed by a counter that counts additions since the last Clear and
// skips names already in use, so generated names are not reused after a
// removal. A named automaton whose name is taken is refused and left
// unchanged.
func (m *Model) AddAutomaton(a *Automaton) error {
	name := a.name
	if name == "" {
		name = m.nextAutomatonName()
	}

	if m.Automaton(name).IsSome() {
		return fmt.Errorf("fsmodel: automaton %q: %w", string(name), ErrDuplicateName)
	}

	a.name = name
	m.counter++
	a.logger = m.log()
	m.automatons.Push(a)
	m.log().Debug("automaton added", "model", m.name, "automaton", a.name)

	return nil
}

func (m *Model) nextAutomatonName() g.String {
	for {
		name := g.String(automatonPrefix + strconv.Itoa(m.counter))
		if m.Automaton(name).IsNone() {
			return name
		}
		m.counter++
	}
}

// RemoveAutomaton removes an automaton, reporting whether it was part of the model.
func (m *Model) RemoveAutomaton(a *Automaton) bool {
	i := slices.Index(m.automatons, a)
	if i < 0 {
		return false
	}

	m.automatons = slices.Delete(m.automatons, i, i+1)
	m.log().Debug("automaton removed", "model", m.name, "automaton", a.name)

	return true
}

// Automaton looks an automaton up by name.
func (m *Model) Automaton(name g.String) g.Option[*Automaton] {
	for _, a := range m.automatons {
		if a.name == name {
			return g.Some(a)
		}
	}
	return g.None[*Automaton]()
}

// Automatons returns the automatons in insertion order.
func (m *Model) Automatons() g.Slice[*Automaton] { return slices.Clone(m.automatons) }

// Clear empties the model and resets automatic automaton naming. The
// checker and logger are kept.
func (m *Model) Clear() {
	m.name = ""
	m.ios = nil
	for _, a := range m.automatons {
		a.Clear()
	}
	m.automatons = nil
	m.counter = 0
}

// replace swaps in content decoded into a scratch model.
func (m *Model) replace(src *Model) {
	m.Clear()
	m.name = src.name
	m.ios = src.ios
	m.automatons = src.automatons
	m.counter = src.counter

	for _, a := range m.automatons {
		a.logger = m.log()
	}
}

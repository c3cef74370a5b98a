package fsmodel

import (
	"strings"

	"github.com/enetx/g"
)

// Scope is the set of declarations visible to the guards and actions of an
// automaton: the global signals of the enclosing model followed by the
// automaton's local variables.
type Scope struct {
	Automaton g.String
	Globals   g.Slice[*Signal]
	Locals    g.Slice[*Signal]
}

func newScope(a *Automaton, globals g.Slice[*Signal]) *Scope {
	return &Scope{
		Automaton: a.name,
		Globals:   globals,
		Locals:    a.vars,
	}
}

// Signals returns globals then locals.
func (sc *Scope) Signals() g.Slice[*Signal] {
	out := make(g.Slice[*Signal], 0, len(sc.Globals)+len(sc.Locals))
	out = append(out, sc.Globals...)
	return append(out, sc.Locals...)
}

// Lookup finds a declaration by name, locals shadowing globals.
func (sc *Scope) Lookup(name g.String) g.Option[*Signal] {
	if i := findSignal(sc.Locals, name); i >= 0 {
		return g.Some(sc.Locals[i])
	}
	if i := findSignal(sc.Globals, name); i >= 0 {
		return g.Some(sc.Globals[i])
	}
	return g.None[*Signal]()
}

// Declarations renders the scope in the "-- context" syntax understood by
// the RFSM compiler's fragment checking mode, one "kind name: type;" line
// per declaration.
func (sc *Scope) Declarations() string {
	var b strings.Builder
	for _, s := range sc.Signals() {
		b.WriteString(s.String())
		b.WriteString(";\n")
	}
	return b.String()
}

// key identifies the scope content for memoisation.
func (sc *Scope) key() string {
	return string(sc.Automaton) + "\x00" + sc.Declarations()
}

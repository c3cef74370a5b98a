package fsmodel

import (
	"strings"

	"github.com/enetx/g"
)

// Transition is a directed edge between two states of the same automaton.
// It holds non-owning references to its endpoints, which only the owning
// Automaton may change (see Automaton.Retarget).
//
// Event is empty only for the initial transition. Guards are conjoined;
// actions run in order. Location only matters for a self-loop.
type Transition struct {
	src      StateRef
	dst      StateRef
	Event    g.String
	Guards   g.Slice[g.String]
	Actions  g.Slice[g.String]
	Location Location
}

// Src returns the source state handle.
func (t *Transition) Src() StateRef { return t.src }

// Dst returns the destination state handle.
func (t *Transition) Dst() StateRef { return t.dst }

// IsLoop reports whether t starts and ends on the same state.
func (t *Transition) IsLoop() bool { return t.src == t.dst }

// Label renders the transition as "event.guard1.guard2/action1;action2".
func (t *Transition) Label() g.String {
	b := g.NewBuilder()
	b.WriteString(t.Event)

	if t.Guards.NotEmpty() {
		b.WriteByte('.')
		b.WriteString(t.Guards.Join("."))
	}

	if t.Actions.NotEmpty() {
		b.WriteByte('/')
		b.WriteString(t.Actions.Join(";"))
	}

	return b.String()
}

func (t *Transition) clone() *Transition {
	c := *t
	c.Guards = cloneStrings(t.Guards)
	c.Actions = cloneStrings(t.Actions)
	return &c
}

// splitList splits a comma-joined list, trimming blanks and dropping empty parts.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// splitFragments is splitList over g.String, as used for the guard,
// action and attribute fields of a model file.
func splitFragments(s string) g.Slice[g.String] {
	parts := splitList(s)
	if len(parts) == 0 {
		return nil
	}
	out := make(g.Slice[g.String], 0, len(parts))
	for _, p := range parts {
		out = append(out, g.String(p))
	}
	return out
}

// normalizeFragments treats fragments given through the API the way the
// model file reader does: each one is split on commas and trimmed, and
// blank parts are dropped. It returns nil for an empty result.
func normalizeFragments(ss []g.String) g.Slice[g.String] {
	var out g.Slice[g.String]
	for _, s := range ss {
		out = append(out, splitFragments(string(s))...)
	}
	return out
}

func cloneStrings(ss g.Slice[g.String]) g.Slice[g.String] {
	if ss == nil {
		return nil
	}
	return ss.Clone()
}

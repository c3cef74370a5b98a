package fsmodel

import (
	"strings"
	"unicode/utf8"

	"github.com/enetx/g"
)

// DOTOption configures DOT generation.
type DOTOption func(*dotConfig)

type dotConfig struct {
	captions bool
}

// WithoutCaptions omits the rectangles listing global signals and local
// variables.
func WithoutCaptions() DOTOption { return func(c *dotConfig) { c.captions = false } }

func newDOTConfig(opts []DOTOption) dotConfig {
	cfg := dotConfig{captions: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// ToDOT generates a single DOT document holding every automaton of the
// model, each in its own cluster. Node names are qualified by automaton
// name so that automatons cannot collide. ToDOT never fails and never
// modifies the model.
func (m *Model) ToDOT(opts ...DOTOption) g.String {
	cfg := newDOTConfig(opts)

	name := m.name
	if name == "" {
		name = "main"
	}

	b := g.NewBuilder()
	writeDOTHeader(b, name)

	if cfg.captions {
		b.WriteString(g.Format("_ios [label=\"{}\", shape=rect, style=solid]\n", signalList(m.ios)))
	}

	for _, a := range m.automatons {
		b.WriteString(g.Format("subgraph cluster_{} {\n", a.name))
		b.WriteString(g.Format("label = {}\n", a.name))
		a.writeDOT(b, cfg)
		b.WriteString("}\n")
	}

	b.WriteString("}\n")

	return b.String()
}

// DOTFile is one document produced by ToDOTFiles.
type DOTFile struct {
	// Name is the automaton name, usable as a file stem.
	Name g.String
	Text g.String
}

// ToDOTFiles generates one standalone DOT document per automaton.
func (m *Model) ToDOTFiles(opts ...DOTOption) g.Slice[DOTFile] {
	cfg := newDOTConfig(opts)
	files := g.NewSlice[DOTFile]()

	for _, a := range m.automatons {
		b := g.NewBuilder()
		writeDOTHeader(b, a.name)

		if cfg.captions && m.ios.NotEmpty() {
			b.WriteString(g.Format("_ios [label=\"{}\", shape=rect, style=solid]\n", signalList(m.ios)))
		}

		a.writeDOT(b, cfg)
		b.WriteString("}\n")

		files.Push(DOTFile{Name: a.name, Text: b.String()})
	}

	return files
}

// ToDOT generates a standalone DOT document for the automaton alone.
func (a *Automaton) ToDOT(opts ...DOTOption) g.String {
	b := g.NewBuilder()
	writeDOTHeader(b, a.name)
	a.writeDOT(b, newDOTConfig(opts))
	b.WriteString("}\n")
	return b.String()
}

func writeDOTHeader(b *g.Builder, name g.String) {
	b.WriteString(g.Format("digraph {} {\n", name))
	b.WriteString("layout = dot\n")
	b.WriteString("rankdir = UD\n")
	b.WriteString("size = \"8.5,11\"\n")
	b.WriteString("center = 1\n")
	b.WriteString("nodesep = \"0.350000\"\n")
	b.WriteString("ranksep = \"0.400000\"\n")
	b.WriteString("fontsize = 14\n")
	b.WriteString("mindist=1.0\n")
}

func (a *Automaton) writeDOT(b *g.Builder, cfg dotConfig) {
	if cfg.captions && a.vars.NotEmpty() {
		b.WriteString(g.Format("{} [label=\"{}\", shape=rect, style=rounded]\n", a.qualify("_vars"), signalList(a.vars)))
	}

	for _, ref := range a.stateOrder {
		s := a.states[ref]
		if s.IsPseudo() {
			b.WriteString(g.Format("{} [shape=point]\n", a.qualify(s.ID())))
			continue
		}

		label := s.id
		for _, attr := range s.attrs {
			label += "\\n" + attr
		}

		b.WriteString(g.Format("{} [label=\"{}\", shape=circle, style=solid]\n", a.qualify(s.id), label))
	}

	for _, ref := range a.transOrder {
		t := a.transitions[ref]
		b.WriteString(g.Format("{} -> {} [label=\"{}\"]\n",
			a.qualify(a.stateID(t.src)),
			a.qualify(a.stateID(t.dst)),
			dotLabel(t.Label()),
		))
	}
}

// qualify suffixes a node name with the automaton name.
func (a *Automaton) qualify(id g.String) g.String { return id + "_" + a.name }

// dotLabel lays an "event.guards/actions" label out on two lines separated
// by an underline rule as wide as the longer line. Labels that do not split
// into exactly two non-empty parts around "/" are returned unchanged.
func dotLabel(label g.String) g.String {
	var parts []string
	for _, p := range strings.Split(string(label), "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}

	if len(parts) != 2 {
		return label
	}

	n := max(utf8.RuneCountInString(parts[0]), utf8.RuneCountInString(parts[1]))

	return g.String(parts[0] + "\\n" + strings.Repeat("_", n) + "\\n" + parts[1])
}

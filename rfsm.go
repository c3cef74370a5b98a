package fsmodel

import (
	"regexp"

	"github.com/enetx/g"
)

// RFSMOption configures RFSM generation.
type RFSMOption func(*rfsmConfig)

type rfsmConfig struct {
	testbench bool
	usedOnly  bool
}

// WithTestbench appends one instance line per automaton, binding it to
// its parameters.
func WithTestbench() RFSMOption { return func(c *rfsmConfig) { c.testbench = true } }

// WithUsedSignalsOnly restricts the parameter list of each automaton to the
// global signals it mentions in events, guards, actions and state
// attributes. By default every automaton takes every global signal.
func WithUsedSignalsOnly() RFSMOption { return func(c *rfsmConfig) { c.usedOnly = true } }

const indent = "  "

// ToRFSM generates the RFSM description of the model: one "fsm model"
// block per automaton, then the global input, output and shared
// declarations with their stimuli, then, with WithTestbench, the instance
// lines.
//
// Nothing is returned if any automaton lacks a unique pseudo-state and
// initial transition, or if an input event has no stimulus.
func (m *Model) ToRFSM(opts ...RFSMOption) (g.String, error) {
	var cfg rfsmConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	for _, a := range m.automatons {
		if err := a.rfsmReady(); err != nil {
			return "", err
		}
	}

	for _, io := range m.ios {
		if io.IsInputEvent() && io.Stim.IsNone() {
			return "", &ExportError{Format: "rfsm", Subject: io.Name, Err: ErrMissingStimulus}
		}
	}

	params := make(map[*Automaton]g.Slice[*Signal], len(m.automatons))
	for _, a := range m.automatons {
		if cfg.usedOnly {
			params[a] = a.usedSignals(m.ios)
		} else {
			params[a] = m.ios
		}
	}

	b := g.NewBuilder()

	for _, a := range m.automatons {
		a.writeRFSMModel(b, params[a])
		b.WriteByte('\n')
	}

	for _, io := range m.ios {
		switch io.Kind {
		case Input:
			b.WriteString(g.Format("input {} : {}", io.Name, g.String(io.Type.String())))
			if !io.Stim.IsNone() {
				b.WriteString(g.Format(" = {}", io.Stim.RFSM()))
			}
		case Output:
			b.WriteString(g.Format("output {} : {}", io.Name, g.String(io.Type.String())))
		case Shared:
			b.WriteString(g.Format("shared {} : {}", io.Name, g.String(io.Type.String())))
		}
		b.WriteByte('\n')
	}

	b.WriteByte('\n')

	if cfg.testbench {
		b.WriteString("\n\n")
		for _, a := range m.automatons {
			args := g.NewSlice[g.String]()
			for _, io := range params[a] {
				args.Push(io.Name)
			}
			b.WriteString(g.Format("fsm {} = {}({})\n", a.name, a.name, args.Join(", ")))
		}
	}

	m.log().Debug("rfsm generated", "model", m.name, "automatons", len(m.automatons), "testbench", cfg.testbench)

	return b.String(), nil
}

// rfsmReady checks the export preconditions of an automaton.
func (a *Automaton) rfsmReady() error {
	if err := a.checkEndpoints(); err != nil {
		return &ExportError{Format: "rfsm", Automaton: a.name, Err: err}
	}

	if a.pseudoCount() > 1 {
		return &ExportError{Format: "rfsm", Automaton: a.name, Err: ErrMultiplePseudoStates}
	}

	if a.InitState().IsNone() {
		return &ExportError{Format: "rfsm", Automaton: a.name, Err: ErrNoInitialState}
	}

	if a.InitTransition().IsNone() {
		return &ExportError{Format: "rfsm", Automaton: a.name, Err: ErrNoInitialTransition}
	}

	return nil
}

func (a *Automaton) writeRFSMModel(b *g.Builder, params g.Slice[*Signal]) {
	b.WriteString(g.Format("fsm model {}(", a.name))

	if params.NotEmpty() {
		b.WriteByte('\n')
		for i, io := range params {
			if i > 0 {
				b.WriteString(",\n")
			}
			b.WriteString(g.Format("{}{} {}: {}", g.String(indent), g.String(io.Kind.rfsm()), io.Name, g.String(io.Type.String())))
		}
		b.WriteString("\n" + indent + ")\n")
	} else {
		b.WriteString(")\n")
	}

	b.WriteString("{\n")

	states := g.NewSlice[g.String]()
	for _, ref := range a.stateOrder {
		if s := a.states[ref]; !s.IsPseudo() {
			states.Push(rfsmState(s))
		}
	}

	b.WriteString(g.Format("{}states: {};\n", g.String(indent), states.Join(", ")))

	if a.vars.NotEmpty() {
		vars := g.NewSlice[g.String]()
		for _, v := range a.vars {
			vars.Push(g.Format("{}: {}", v.Name, g.String(v.Type.String())))
		}
		b.WriteString(g.Format("{}vars: {};\n", g.String(indent), vars.Join(", ")))
	}

	b.WriteString(indent + "trans:")
	for _, ref := range a.transOrder {
		t := a.transitions[ref]
		if a.isInitial(t) {
			continue
		}
		b.WriteString(g.Format("\n{}| {}", g.String(indent), a.rfsmTransition(t)))
	}
	b.WriteString(";\n")

	it := a.transitions[a.InitTransition().Some()]
	b.WriteString(indent + "itrans:\n")
	b.WriteString(g.Format("{}| -> {}", g.String(indent), a.stateID(it.dst)))
	if it.Actions.NotEmpty() {
		b.WriteString(g.Format(" with {}", it.Actions.Join(",")))
	}
	b.WriteString(";\n")

	b.WriteString("}\n")
}

// rfsmState renders "id where attr1 and attr2".
func rfsmState(s *State) g.String {
	if s.attrs.Empty() {
		return s.id
	}
	return s.id + " where " + s.attrs.Join(" and ")
}

// rfsmTransition renders "src -> dst on event when g1.g2 with a1,a2".
// Guards are parenthesised when there is more than one.
func (a *Automaton) rfsmTransition(t *Transition) g.String {
	out := a.stateID(t.src) + " -> " + a.stateID(t.dst)

	if t.Event != "" {
		out += " on " + t.Event
	}

	if t.Guards.NotEmpty() {
		guards := t.Guards
		if len(guards) > 1 {
			guards = g.NewSlice[g.String]()
			for _, gd := range t.Guards {
				guards.Push("(" + gd + ")")
			}
		}
		out += " when " + guards.Join(".")
	}

	if t.Actions.NotEmpty() {
		out += " with " + t.Actions.Join(",")
	}

	return out
}

var identifier = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

// usedSignals returns the globals mentioned by the automaton, in global
// declaration order. Locals shadow globals of the same name.
func (a *Automaton) usedSignals(globals g.Slice[*Signal]) g.Slice[*Signal] {
	names := g.NewSet[g.String]()
	scan := func(text g.String) {
		for _, id := range identifier.FindAllString(string(text), -1) {
			names.Insert(g.String(id))
		}
	}

	for _, ref := range a.stateOrder {
		for _, attr := range a.states[ref].attrs {
			scan(attr)
		}
	}

	for _, ref := range a.transOrder {
		t := a.transitions[ref]
		scan(t.Event)
		for _, gd := range t.Guards {
			scan(gd)
		}
		for _, ac := range t.Actions {
			scan(ac)
		}
	}

	used := g.NewSlice[*Signal]()
	for _, io := range globals {
		if names.Contains(io.Name) && findSignal(a.vars, io.Name) < 0 {
			used.Push(io)
		}
	}

	return used
}

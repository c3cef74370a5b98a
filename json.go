package fsmodel

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/enetx/g"
)

type (
	// modelDoc is the persisted form of a Model. Pointer fields let the
	// decoder tell a missing field from a zero value.
	modelDoc struct {
		Name       *string        `json:"name"`
		IOs        []ioDoc        `json:"ios"`
		Automatons []automatonDoc `json:"automatons"`
	}

	ioDoc struct {
		Name *string `json:"name"`
		Kind *string `json:"kind"`
		Type *string `json:"type"`
		Stim *string `json:"stim"`
	}

	varDoc struct {
		Name *string `json:"name"`
		Type *string `json:"type"`
	}

	automatonDoc struct {
		Name        *string         `json:"name"`
		Vars        []varDoc        `json:"vars"`
		States      []stateDoc      `json:"states"`
		Transitions []transitionDoc `json:"transitions"`
	}

	stateDoc struct {
		ID   *string  `json:"id"`
		Attr *string  `json:"attr"`
		X    *float64 `json:"x"`
		Y    *float64 `json:"y"`
	}

	transitionDoc struct {
		Src      *string `json:"src_state"`
		Dst      *string `json:"dst_state"`
		Event    *string `json:"event"`
		Guard    *string `json:"guard"`
		Actions  *string `json:"actions"`
		Location *int    `json:"location"`
	}
)

// MarshalJSON implements the json.Marshaler interface.
//
// Encoding never fails on model content: signals and variables with an
// empty name, and transitions whose endpoints are not states of their
// automaton, are skipped with a warning.
func (m *Model) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.document())
}

// Encode writes the model as an indented JSON document.
func (m *Model) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(m.document())
}

func (m *Model) document() modelDoc {
	doc := modelDoc{
		Name:       ref(string(m.name)),
		IOs:        []ioDoc{},
		Automatons: []automatonDoc{},
	}

	for i, io := range m.ios {
		if io.Name == "" {
			m.log().Warn("io has no name, ignoring it", "model", m.name, "index", i+1)
			continue
		}

		doc.IOs = append(doc.IOs, ioDoc{
			Name: ref(string(io.Name)),
			Kind: ref(io.Kind.String()),
			Type: ref(io.Type.String()),
			Stim: ref(io.Stim.String()),
		})
	}

	for _, a := range m.automatons {
		doc.Automatons = append(doc.Automatons, a.document(m.log()))
	}

	return doc
}

func (a *Automaton) document(logger *slog.Logger) automatonDoc {
	doc := automatonDoc{
		Name:        ref(string(a.name)),
		Vars:        []varDoc{},
		States:      []stateDoc{},
		Transitions: []transitionDoc{},
	}

	for i, v := range a.vars {
		if v.Name == "" {
			logger.Warn("var has no name, ignoring it", "automaton", a.name, "index", i+1)
			continue
		}

		doc.Vars = append(doc.Vars, varDoc{
			Name: ref(string(v.Name)),
			Type: ref(v.Type.String()),
		})
	}

	for _, sref := range a.stateOrder {
		s := a.states[sref]
		doc.States = append(doc.States, stateDoc{
			ID:   ref(string(s.ID())),
			Attr: ref(string(s.attrs.Join(","))),
			X:    ref(s.Pos.X),
			Y:    ref(s.Pos.Y),
		})
	}

	for _, tref := range a.transOrder {
		t := a.transitions[tref]
		src, srcOK := a.states[t.src]
		dst, dstOK := a.states[t.dst]
		if !srcOK || !dstOK {
			logger.Warn("dangling transition, ignoring it", "automaton", a.name, "transition", a.describe(t))
			continue
		}

		doc.Transitions = append(doc.Transitions, transitionDoc{
			Src:      ref(string(src.ID())),
			Dst:      ref(string(dst.ID())),
			Event:    ref(string(t.Event)),
			Guard:    ref(string(t.Guards.Join(","))),
			Actions:  ref(string(t.Actions.Join(","))),
			Location: ref(int(t.Location)),
		})
	}

	return doc
}

// UnmarshalJSON implements the json.Unmarshaler interface.
//
// Decoding is all-or-nothing: the whole document is parsed into fresh
// signals and automatons first, and the model content is replaced only if
// every element is well formed. On error the model is left untouched.
// The model checker and logger are kept.
func (m *Model) UnmarshalJSON(data []byte) error {
	var doc modelDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return &DecodeError{Detail: err.Error(), Err: ErrMalformedDocument}
	}

	decoded, err := decodeModel(doc)
	if err != nil {
		return err
	}

	if m.logger == nil {
		m.logger = slog.Default()
	}

	if m.checker == nil {
		m.checker = AcceptAll
	}

	m.replace(decoded)

	m.log().Debug("model decoded", "model", m.name, "ios", len(m.ios), "automatons", len(m.automatons))

	return nil
}

// Decode reads a JSON document from r into the model, with the same
// all-or-nothing semantics as UnmarshalJSON.
func (m *Model) Decode(r io.Reader) error {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return fmt.Errorf("fsmodel: decode: %w", err)
	}
	return m.UnmarshalJSON(buf.Bytes())
}

// decodeModel builds the document content into a scratch model, so that
// automaton naming follows AddAutomaton exactly and the final swap cannot
// fail.
func decodeModel(doc modelDoc) (*Model, error) {
	if doc.Name == nil {
		return nil, missing("", "name")
	}

	if doc.IOs == nil {
		return nil, missing("", "ios")
	}

	if doc.Automatons == nil {
		return nil, missing("", "automatons")
	}

	scratch := &Model{
		name:   g.String(*doc.Name),
		ios:    make(g.Slice[*Signal], 0, len(doc.IOs)),
		logger: slog.New(slog.DiscardHandler),
	}

	for i, d := range doc.IOs {
		path := "ios[" + strconv.Itoa(i) + "]"

		io, err := decodeIO(path, d)
		if err != nil {
			return nil, err
		}

		if io.Name != "" && findSignal(scratch.ios, io.Name) >= 0 {
			return nil, &DecodeError{Path: path, Detail: "duplicate io " + string(io.Name), Err: ErrMalformedDocument}
		}

		scratch.ios = append(scratch.ios, io)
	}

	for i, d := range doc.Automatons {
		path := "automatons[" + strconv.Itoa(i) + "]"

		a, err := decodeAutomaton(path, d)
		if err != nil {
			return nil, err
		}

		if err := scratch.AddAutomaton(a); err != nil {
			return nil, &DecodeError{Path: path, Detail: "duplicate automaton " + string(a.name), Err: ErrMalformedDocument}
		}
	}

	return scratch, nil
}

func decodeIO(path string, d ioDoc) (*Signal, error) {
	switch {
	case d.Name == nil:
		return nil, missing(path, "name")
	case d.Kind == nil:
		return nil, missing(path, "kind")
	case d.Type == nil:
		return nil, missing(path, "type")
	case d.Stim == nil:
		return nil, missing(path, "stim")
	}

	kind, err := ParseIoKind(*d.Kind)
	if err != nil {
		return nil, &DecodeError{Path: path, Detail: err.Error(), Err: ErrMalformedDocument}
	}

	typ, err := ParseIoType(*d.Type)
	if err != nil {
		return nil, &DecodeError{Path: path, Detail: err.Error(), Err: ErrMalformedDocument}
	}

	stim, err := ParseStimulus(*d.Stim)
	if err != nil {
		return nil, &DecodeError{Path: path, Detail: err.Error(), Err: ErrMalformedDocument}
	}

	if kind != Input {
		stim = NoStimulus
	}

	return &Signal{Name: g.String(*d.Name), Kind: kind, Type: typ, Stim: stim}, nil
}

func decodeAutomaton(path string, d automatonDoc) (*Automaton, error) {
	switch {
	case d.Name == nil:
		return nil, missing(path, "name")
	case d.Vars == nil:
		return nil, missing(path, "vars")
	case d.States == nil:
		return nil, missing(path, "states")
	case d.Transitions == nil:
		return nil, missing(path, "transitions")
	}

	a := NewAutomaton(g.String(*d.Name))

	for i, vd := range d.Vars {
		vpath := path + ".vars[" + strconv.Itoa(i) + "]"

		switch {
		case vd.Name == nil:
			return nil, missing(vpath, "name")
		case vd.Type == nil:
			return nil, missing(vpath, "type")
		}

		typ, err := ParseIoType(*vd.Type)
		if err != nil {
			return nil, &DecodeError{Path: vpath, Detail: err.Error(), Err: ErrMalformedDocument}
		}

		if _, err := a.AddVar(g.String(*vd.Name), typ); err != nil {
			return nil, &DecodeError{Path: vpath, Detail: err.Error(), Err: ErrMalformedDocument}
		}
	}

	ids := make(map[string]StateRef, len(d.States))

	for i, sd := range d.States {
		spath := path + ".states[" + strconv.Itoa(i) + "]"

		switch {
		case sd.ID == nil:
			return nil, missing(spath, "id")
		case sd.Attr == nil:
			return nil, missing(spath, "attr")
		case sd.X == nil:
			return nil, missing(spath, "x")
		case sd.Y == nil:
			return nil, missing(spath, "y")
		}

		id := *sd.ID
		if _, dup := ids[id]; dup || id == "" {
			return nil, &DecodeError{Path: spath, Detail: fmt.Sprintf("invalid or duplicate state id %q", id), Err: ErrMalformedDocument}
		}

		pos := Point{X: *sd.X, Y: *sd.Y}

		var s *State
		if g.String(id) == PseudoStateID {
			s = newState(Pseudo, "", nil, pos)
		} else {
			s = newState(Normal, g.String(id), splitFragments(*sd.Attr), pos)
		}

		ids[id] = a.insertState(s)
	}

	for i, td := range d.Transitions {
		tpath := path + ".transitions[" + strconv.Itoa(i) + "]"

		switch {
		case td.Src == nil:
			return nil, missing(tpath, "src_state")
		case td.Dst == nil:
			return nil, missing(tpath, "dst_state")
		case td.Event == nil:
			return nil, missing(tpath, "event")
		case td.Guard == nil:
			return nil, missing(tpath, "guard")
		case td.Actions == nil:
			return nil, missing(tpath, "actions")
		case td.Location == nil:
			return nil, missing(tpath, "location")
		}

		src, ok := ids[*td.Src]
		if !ok {
			return nil, &DecodeError{Path: tpath, Detail: *td.Src, Err: ErrUnknownStateID}
		}

		dst, ok := ids[*td.Dst]
		if !ok {
			return nil, &DecodeError{Path: tpath, Detail: *td.Dst, Err: ErrUnknownStateID}
		}

		a.insertTransition(&Transition{
			src:      src,
			dst:      dst,
			Event:    g.String(*td.Event),
			Guards:   splitFragments(*td.Guard),
			Actions:  splitFragments(*td.Actions),
			Location: locationOf(*td.Location),
		})
	}

	return a, nil
}

func missing(path, field string) error {
	return &DecodeError{Path: path, Detail: "missing field " + strconv.Quote(field), Err: ErrMalformedDocument}
}

func ref[T any](v T) *T { return &v }

func (m *Model) log() *slog.Logger {
	if m.logger == nil {
		return slog.Default()
	}
	return m.logger
}

package fsmodel_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/enetx/fsmodel"
	"github.com/enetx/g"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func richModel(t *testing.T) *fsmodel.Model {
	t.Helper()

	m, _ := counterModel(t)

	_, err := m.AddIO("level", fsmodel.Input, fsmodel.Int,
		fsmodel.ValueChanges(fsmodel.ValueChange{Time: 0, Value: 1}, fsmodel.ValueChange{Time: 25, Value: 3}))
	require.NoError(t, err)
	_, err = m.AddIO("reset", fsmodel.Input, fsmodel.Event, fsmodel.Sporadic(5, 50))
	require.NoError(t, err)
	_, err = m.AddIO("led", fsmodel.Output, fsmodel.Bool, fsmodel.NoStimulus)
	require.NoError(t, err)

	b := fsmodel.NewAutomaton("blink")
	_, err = b.AddVar("k", fsmodel.Int)
	require.NoError(t, err)
	init := b.AddPseudoState(fsmodel.Point{X: 5, Y: 5})
	off, err := b.AddState("Off", strs("led=0"), fsmodel.Point{X: 40.5, Y: 20})
	require.NoError(t, err)
	on, err := b.AddState("On", strs("led=1"), fsmodel.Point{X: 80, Y: 20.25})
	require.NoError(t, err)

	_, err = b.AddTransition(init, off, "", nil, strs("k:=0"), fsmodel.LocNone)
	require.NoError(t, err)
	_, err = b.AddTransition(off, on, "tick", strs("level>1", "k<3"), strs("k:=k+1"), fsmodel.LocNone)
	require.NoError(t, err)
	_, err = b.AddTransition(on, off, "reset", nil, nil, fsmodel.LocNone)
	require.NoError(t, err)
	_, err = b.AddTransition(on, on, "tick", nil, nil, fsmodel.LocSouth)
	require.NoError(t, err)

	require.NoError(t, m.AddAutomaton(b))

	return m
}

func TestJSON_RoundTrip(t *testing.T) {
	m := richModel(t)

	first, err := json.Marshal(m)
	require.NoError(t, err)

	decoded := fsmodel.New("")
	require.NoError(t, json.Unmarshal(first, decoded))

	second, err := json.Marshal(decoded)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))

	assert.Equal(t, g.String("counter"), decoded.Name())
	assert.Equal(t, strs("tick", "level", "reset"), decoded.Inputs())
	assert.Equal(t, fsmodel.ValueChanges(
		fsmodel.ValueChange{Time: 0, Value: 1},
		fsmodel.ValueChange{Time: 25, Value: 3},
	), decoded.IO("level").Some().Stim)

	b := decoded.Automaton("blink").Some()
	assert.Len(t, b.States(), 3)
	assert.Len(t, b.Transitions(), 4)

	off := mustState(t, b, "Off")
	assert.Equal(t, off, b.InitState().Some())
	assert.Equal(t, strs("led=0"), b.State(off).Some().Attrs())
	assert.Equal(t, fsmodel.Point{X: 40.5, Y: 20}, b.State(off).Some().Pos)

	var loop *fsmodel.Transition
	for _, ref := range b.Transitions() {
		if tr := b.Transition(ref).Some(); tr.IsLoop() {
			loop = tr
		}
	}
	require.NotNil(t, loop)
	assert.Equal(t, fsmodel.LocSouth, loop.Location)

	guarded := b.Transition(b.Transitions()[1]).Some()
	assert.Equal(t, strs("level>1", "k<3"), guarded.Guards)
	assert.Equal(t, strs("k:=k+1"), guarded.Actions)
}

func TestJSON_EncodeDocumentShape(t *testing.T) {
	m, _ := counterModel(t)

	var buf bytes.Buffer
	require.NoError(t, m.Encode(&buf))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, "counter", doc["name"])

	ios := doc["ios"].([]any)
	require.Len(t, ios, 1)
	assert.Equal(t, map[string]any{
		"name": "tick",
		"kind": "input",
		"type": "event",
		"stim": "Periodic(10,0,100)",
	}, ios[0])

	a := doc["automatons"].([]any)[0].(map[string]any)
	states := a["states"].([]any)
	assert.Equal(t, "_init", states[0].(map[string]any)["id"])

	trans := a["transitions"].([]any)
	assert.Equal(t, map[string]any{
		"src_state": "S0",
		"dst_state": "S0",
		"event":     "tick",
		"guard":     "x<5",
		"actions":   "x:=x+1",
		"location":  float64(fsmodel.LocEast),
	}, trans[1])

	assert.True(t, strings.HasPrefix(buf.String(), "{\n  \"name\""))
}

func TestJSON_UnknownStateLeavesModelUnchanged(t *testing.T) {
	m, _ := counterModel(t)
	before, err := json.Marshal(m)
	require.NoError(t, err)

	doc := `{
	  "name": "bad",
	  "ios": [],
	  "automatons": [{
	    "name": "A0",
	    "vars": [],
	    "states": [{"id": "S0", "attr": "", "x": 0, "y": 0}],
	    "transitions": [{
	      "src_state": "S0", "dst_state": "S9", "event": "e",
	      "guard": "", "actions": "", "location": 0
	    }]
	  }]
	}`

	err = m.UnmarshalJSON([]byte(doc))
	require.ErrorIs(t, err, fsmodel.ErrUnknownStateID)

	var de *fsmodel.DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "automatons[0].transitions[0]", de.Path)
	assert.Equal(t, "S9", de.Detail)

	after, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestJSON_DecodeNamesUnnamedAutomatonsPastTakenNames(t *testing.T) {
	doc := `{"name": "m", "ios": [], "automatons": [
	  {"name": "A1", "vars": [], "states": [], "transitions": []},
	  {"name": "", "vars": [], "states": [], "transitions": []}
	]}`

	m := fsmodel.New("")
	require.NoError(t, m.UnmarshalJSON([]byte(doc)))
	assert.True(t, m.Automaton("A1").IsSome())
	assert.True(t, m.Automaton("A2").IsSome())

	next := fsmodel.NewAutomaton("")
	require.NoError(t, m.AddAutomaton(next))
	assert.Equal(t, g.String("A3"), next.Name())
}

func TestJSON_RoundTripKeepsAPIFragments(t *testing.T) {
	m, a := counterModel(t)
	s0 := mustState(t, a, "S0")
	_, err := a.AddTransition(s0, s0, "tick", strs(" x < 5 "), strs(" x:=1, y:=2"), fsmodel.LocWest)
	require.NoError(t, err)
	a.State(s0).Some().SetAttrs(" o=1 ")

	data, err := m.MarshalJSON()
	require.NoError(t, err)

	decoded := fsmodel.New("")
	require.NoError(t, decoded.UnmarshalJSON(data))

	b := decoded.Automaton("A0").Some()
	refs := b.Transitions()
	last := b.Transition(refs[len(refs)-1]).Some()
	assert.Equal(t, strs("x < 5"), last.Guards)
	assert.Equal(t, strs("x:=1", "y:=2"), last.Actions)
	assert.Equal(t, strs("o=1"), b.State(mustState(t, b, "S0")).Some().Attrs())

	again, err := decoded.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, string(data), string(again))
}

func TestJSON_MalformedDocuments(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		path string
	}{
		{"syntax", `{"name": `, ""},
		{"no name", `{"ios": [], "automatons": []}`, ""},
		{"no automatons", `{"name": "m", "ios": []}`, ""},
		{"io without stim", `{"name": "m", "ios": [{"name": "a", "kind": "input", "type": "event"}], "automatons": []}`, "ios[0]"},
		{"bad kind", `{"name": "m", "ios": [{"name": "a", "kind": "in", "type": "event", "stim": ""}], "automatons": []}`, "ios[0]"},
		{"bad stim", `{"name": "m", "ios": [{"name": "a", "kind": "input", "type": "event", "stim": "Burst(1)"}], "automatons": []}`, "ios[0]"},
		{
			"duplicate io",
			`{"name": "m", "ios": [
			  {"name": "a", "kind": "input", "type": "event", "stim": ""},
			  {"name": "a", "kind": "output", "type": "bool", "stim": ""}
			], "automatons": []}`,
			"ios[1]",
		},
		{
			"state without y",
			`{"name": "m", "ios": [], "automatons": [{"name": "A", "vars": [], "states": [{"id": "S", "attr": "", "x": 1}], "transitions": []}]}`,
			"automatons[0].states[0]",
		},
		{
			"duplicate state",
			`{"name": "m", "ios": [], "automatons": [{"name": "A", "vars": [], "states": [
			  {"id": "S", "attr": "", "x": 1, "y": 1},
			  {"id": "S", "attr": "", "x": 1, "y": 1}
			], "transitions": []}]}`,
			"automatons[0].states[1]",
		},
		{
			"duplicate automaton",
			`{"name": "m", "ios": [], "automatons": [
			  {"name": "A", "vars": [], "states": [], "transitions": []},
			  {"name": "A", "vars": [], "states": [], "transitions": []}
			]}`,
			"automatons[1]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := counterModel(t)

			err := m.UnmarshalJSON([]byte(tt.doc))
			require.ErrorIs(t, err, fsmodel.ErrMalformedDocument)

			var de *fsmodel.DecodeError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tt.path, de.Path)

			assert.Equal(t, g.String("counter"), m.Name())
			assert.Len(t, m.Automatons(), 1)
		})
	}
}

func TestJSON_DecodeNormalisesFields(t *testing.T) {
	doc := `{
	  "name": "m",
	  "ios": [
	    {"name": "tick", "kind": "input", "type": "event", "stim": "None"},
	    {"name": "led", "kind": "output", "type": "bool", "stim": "Periodic(1,2,3)"}
	  ],
	  "automatons": [{
	    "name": "",
	    "vars": [],
	    "states": [
	      {"id": "S0", "attr": " a=1 ,, b=2,", "x": 0, "y": 0},
	      {"id": "S1", "attr": "", "x": 0, "y": 0}
	    ],
	    "transitions": [
	      {"src_state": "S0", "dst_state": "S1", "event": "tick", "guard": "x>0,,y>0", "actions": "", "location": 9},
	      {"src_state": "S1", "dst_state": "S1", "event": "tick", "guard": "", "actions": "a:=1, b:=2", "location": 4}
	    ]
	  }]
	}`

	m := fsmodel.New("")
	require.NoError(t, m.Decode(strings.NewReader(doc)))

	assert.True(t, m.IO("tick").Some().Stim.IsNone())
	assert.True(t, m.IO("led").Some().Stim.IsNone(), "outputs never keep a stimulus")

	a := m.Automaton("A0").Some()
	assert.Equal(t, strs("a=1", "b=2"), a.State(mustState(t, a, "S0")).Some().Attrs())
	assert.Empty(t, a.State(mustState(t, a, "S1")).Some().Attrs())

	trs := a.Transitions()
	first := a.Transition(trs[0]).Some()
	assert.Equal(t, strs("x>0", "y>0"), first.Guards)
	assert.Empty(t, first.Actions)
	assert.Equal(t, fsmodel.LocNone, first.Location)

	second := a.Transition(trs[1]).Some()
	assert.Equal(t, strs("a:=1", "b:=2"), second.Actions)
	assert.Equal(t, fsmodel.LocWest, second.Location)
}

func TestJSON_EncodeSkipsUnnamedSignals(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	m, a := counterModel(t, fsmodel.WithLogger(logger))
	_, err := m.AddIO("", fsmodel.Output, fsmodel.Int, fsmodel.NoStimulus)
	require.NoError(t, err)
	_, err = a.AddVar("", fsmodel.Bool)
	require.NoError(t, err)

	data, err := json.Marshal(m)
	require.NoError(t, err)

	decoded := fsmodel.New("")
	require.NoError(t, decoded.UnmarshalJSON(data))

	assert.Len(t, decoded.IOs(), 1)
	assert.Len(t, decoded.Automaton("A0").Some().Vars(), 1)
	assert.Contains(t, logs.String(), "io has no name")
	assert.Contains(t, logs.String(), "var has no name")
}

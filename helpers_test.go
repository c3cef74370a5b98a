package fsmodel_test

import (
	"testing"

	"github.com/enetx/fsmodel"
	"github.com/enetx/g"
	"github.com/stretchr/testify/require"
)

// counterModel builds the reference model: one periodic input event "tick"
// and an automaton A0 counting ticks in a local variable.
//
//	_init -> S0 / x:=0
//	S0 -> S0 on tick when x<5 / x:=x+1
func counterModel(t *testing.T, opts ...fsmodel.Option) (*fsmodel.Model, *fsmodel.Automaton) {
	t.Helper()

	m := fsmodel.New("counter", opts...)
	_, err := m.AddIO("tick", fsmodel.Input, fsmodel.Event, fsmodel.Periodic(10, 0, 100))
	require.NoError(t, err)

	a := fsmodel.NewAutomaton("")
	_, err = a.AddVar("x", fsmodel.Int)
	require.NoError(t, err)

	init := a.AddPseudoState(fsmodel.Point{X: 10, Y: 10})
	s0, err := a.AddState("S0", nil, fsmodel.Point{X: 100, Y: 100})
	require.NoError(t, err)

	_, err = a.AddTransition(init, s0, "", nil, strs("x:=0"), fsmodel.LocNone)
	require.NoError(t, err)
	_, err = a.AddTransition(s0, s0, "tick", strs("x<5"), strs("x:=x+1"), fsmodel.LocEast)
	require.NoError(t, err)

	require.NoError(t, m.AddAutomaton(a))
	require.Equal(t, g.String("A0"), a.Name())

	return m, a
}

func strs(ss ...string) g.Slice[g.String] {
	out := make(g.Slice[g.String], 0, len(ss))
	for _, s := range ss {
		out = append(out, g.String(s))
	}
	return out
}

func mustState(t *testing.T, a *fsmodel.Automaton, id string) fsmodel.StateRef {
	t.Helper()

	ref := a.StateByID(g.String(id))
	require.True(t, ref.IsSome(), "state %s not found", id)

	return ref.Some()
}

package fsmodel_test

import (
	"testing"

	"github.com/enetx/fsmodel"
	"github.com/enetx/g"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStimulus_Format(t *testing.T) {
	tests := []struct {
		stim fsmodel.Stimulus
		wire string
		rfsm g.String
	}{
		{fsmodel.NoStimulus, "", ""},
		{fsmodel.Periodic(10, 0, 100), "Periodic(10,0,100)", "periodic(10,0,100)"},
		{fsmodel.Sporadic(5, 12, 40), "Sporadic(5,12,40)", "sporadic(5,12,40)"},
		{
			fsmodel.ValueChanges(fsmodel.ValueChange{Time: 0, Value: 1}, fsmodel.ValueChange{Time: 15, Value: -2}),
			"ValueChanges(0:1,15:-2)",
			"value_changes(0:1,15:-2)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.wire, func(t *testing.T) {
			assert.Equal(t, tt.wire, tt.stim.String())
			assert.Equal(t, tt.rfsm, tt.stim.RFSM())

			parsed, err := fsmodel.ParseStimulus(tt.wire)
			require.NoError(t, err)
			assert.Equal(t, tt.stim.String(), parsed.String())
			assert.Equal(t, tt.stim.Kind, parsed.Kind)
		})
	}
}

func TestStimulus_ParseLenient(t *testing.T) {
	s, err := fsmodel.ParseStimulus("None")
	require.NoError(t, err)
	assert.True(t, s.IsNone())

	s, err = fsmodel.ParseStimulus(" Sporadic( 1, 2 ,3 ) ")
	require.NoError(t, err)
	assert.Equal(t, g.SliceOf(1, 2, 3), s.Dates)

	s, err = fsmodel.ParseStimulus("Sporadic()")
	require.NoError(t, err)
	assert.Equal(t, fsmodel.StimSporadic, s.Kind)
	assert.Empty(t, s.Dates)
}

func TestStimulus_ParseErrors(t *testing.T) {
	for _, text := range []string{
		"Periodic",
		"Periodic(1,2)",
		"Periodic(1,x,3)",
		"Sporadic(1;2)",
		"ValueChanges(1=2)",
		"Random(1)",
	} {
		_, err := fsmodel.ParseStimulus(text)
		assert.Error(t, err, text)
	}
}

func TestStimulus_CloneIsIndependent(t *testing.T) {
	s := fsmodel.Sporadic(1, 2)
	c := s.Clone()
	c.Dates[0] = 99

	assert.Equal(t, 1, s.Dates[0])
}

func TestSignal_Strings(t *testing.T) {
	sig := &fsmodel.Signal{Name: "go", Kind: fsmodel.Shared, Type: fsmodel.Event}
	assert.Equal(t, "shared go: event", sig.String())
	assert.True(t, sig.IsSharedEvent())
	assert.False(t, sig.IsInputEvent())

	kind, err := fsmodel.ParseIoKind("output")
	require.NoError(t, err)
	assert.Equal(t, fsmodel.Output, kind)

	typ, err := fsmodel.ParseIoType("bool")
	require.NoError(t, err)
	assert.Equal(t, fsmodel.Bool, typ)

	_, err = fsmodel.ParseIoKind("inout")
	assert.Error(t, err)
	_, err = fsmodel.ParseIoType("float")
	assert.Error(t, err)
}

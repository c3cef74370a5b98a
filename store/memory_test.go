package store

import (
	"context"
	"testing"
	"time"

	"github.com/enetx/fsmodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_RecordsAreCopies(t *testing.T) {
	s := NewMemoryStore()
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	m := fsmodel.New("m")
	_, err := m.AddIO("tick", fsmodel.Input, fsmodel.Event, fsmodel.Periodic(1, 0, 10))
	require.NoError(t, err)

	rec, err := s.Save(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, fixed, rec.UpdatedAt)

	rec.Document[0] = 'X'

	stored, err := s.Get(context.Background(), "m")
	require.NoError(t, err)
	assert.Equal(t, byte('{'), stored.Document[0])
}

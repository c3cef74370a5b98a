package store_test

import (
	"context"
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/enetx/fsmodel"
	"github.com/enetx/fsmodel/store"
	"github.com/enetx/g"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// StoreTestSuite runs the Store contract against one implementation.
type StoreTestSuite struct {
	suite.Suite
	newStore func(t *testing.T) store.Store
	store    store.Store
	ctx      context.Context
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, &StoreTestSuite{
		newStore: func(*testing.T) store.Store { return store.NewMemoryStore() },
	})
}

func TestSQLiteStoreSuite(t *testing.T) {
	suite.Run(t, &StoreTestSuite{
		newStore: func(t *testing.T) store.Store { return newTestSQLiteStore(t) },
	})
}

func (s *StoreTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = s.newStore(s.T())
}

func newTestSQLiteStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)

	// Every connection to ":memory:" opens a distinct database.
	db.SetMaxOpenConns(1)

	t.Cleanup(func() {
		_ = db.Close()
	})

	st, err := store.NewSQLiteStore(db)
	require.NoError(t, err)

	return st
}

func (s *StoreTestSuite) sampleModel(name string) *fsmodel.Model {
	m := fsmodel.New(g.String(name))
	_, err := m.AddIO("tick", fsmodel.Input, fsmodel.Event, fsmodel.Periodic(10, 0, 50))
	s.Require().NoError(err)

	a := fsmodel.NewAutomaton("")
	init := a.AddPseudoState(fsmodel.Point{})
	s0, err := a.AddState("S0", nil, fsmodel.Point{X: 1, Y: 1})
	s.Require().NoError(err)
	_, err = a.AddTransition(init, s0, "", nil, nil, fsmodel.LocNone)
	s.Require().NoError(err)
	_, err = a.AddTransition(s0, s0, "tick", nil, nil, fsmodel.LocNorth)
	s.Require().NoError(err)
	s.Require().NoError(m.AddAutomaton(a))

	return m
}

func (s *StoreTestSuite) TestSaveLoad() {
	m := s.sampleModel("counter")

	rec, err := s.store.Save(s.ctx, m)
	s.Require().NoError(err)
	s.Equal("counter", rec.Name)
	s.Equal(1, rec.Revision)
	s.False(rec.UpdatedAt.IsZero())

	want, err := m.MarshalJSON()
	s.Require().NoError(err)
	s.JSONEq(string(want), string(rec.Document))

	loaded := fsmodel.New("")
	s.Require().NoError(s.store.Load(s.ctx, "counter", loaded))

	got, err := loaded.MarshalJSON()
	s.Require().NoError(err)
	s.JSONEq(string(want), string(got))
	s.NoError(loaded.Check(s.ctx, true))
}

func (s *StoreTestSuite) TestRevisions() {
	m := s.sampleModel("counter")

	_, err := s.store.Save(s.ctx, m)
	s.Require().NoError(err)

	_, err = m.AddIO("led", fsmodel.Output, fsmodel.Bool, fsmodel.NoStimulus)
	s.Require().NoError(err)

	rec, err := s.store.Save(s.ctx, m)
	s.Require().NoError(err)
	s.Equal(2, rec.Revision)

	loaded := fsmodel.New("")
	s.Require().NoError(s.store.Load(s.ctx, "counter", loaded))
	s.True(loaded.IO("led").IsSome())
}

func (s *StoreTestSuite) TestListDelete() {
	for _, name := range []string{"zeta", "alpha", "mid"} {
		_, err := s.store.Save(s.ctx, s.sampleModel(name))
		s.Require().NoError(err)
	}

	records, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(records, 3)

	names := make([]string, 0, len(records))
	for _, rec := range records {
		names = append(names, rec.Name)
		s.Empty(rec.Document)
		s.Equal(1, rec.Revision)
	}
	s.Equal([]string{"alpha", "mid", "zeta"}, names)

	s.Require().NoError(s.store.Delete(s.ctx, "mid"))
	s.ErrorIs(s.store.Delete(s.ctx, "mid"), store.ErrModelNotFound)

	records, err = s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Len(records, 2)
}

func (s *StoreTestSuite) TestErrors() {
	_, err := s.store.Get(s.ctx, "missing")
	s.ErrorIs(err, store.ErrModelNotFound)

	m := s.sampleModel("keep")
	s.ErrorIs(s.store.Load(s.ctx, "missing", m), store.ErrModelNotFound)
	s.Equal(g.String("keep"), m.Name())

	_, err = s.store.Save(s.ctx, fsmodel.New(""))
	s.ErrorIs(err, fsmodel.ErrEmptyName)

	records, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Empty(records)
}

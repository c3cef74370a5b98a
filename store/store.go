// Package store keeps a library of named FSM models in memory, SQLite,
// PostgreSQL, Redis or MongoDB.
//
// Models are stored as their JSON document, keyed by model name, with a
// revision counter bumped on every save.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/enetx/fsmodel"
)

// ErrModelNotFound is returned when no model is stored under a name.
var ErrModelNotFound = errors.New("model not found")

// Record describes a stored model.
type Record struct {
	Name      string
	Revision  int
	UpdatedAt time.Time
	// Document is the JSON encoding of the model. List leaves it empty.
	Document []byte
}

// Store handles storage of models.
type Store interface {
	// Save stores the model under its name, replacing any previous version.
	Save(ctx context.Context, m *fsmodel.Model) (Record, error)
	// Load decodes the stored model into m. On error m is left unchanged.
	Load(ctx context.Context, name string, m *fsmodel.Model) error
	// Get returns the stored record, document included.
	Get(ctx context.Context, name string) (Record, error)
	// List returns the stored models ordered by name, without documents.
	List(ctx context.Context) ([]Record, error)
	// Delete removes a stored model.
	Delete(ctx context.Context, name string) error
}

func encode(m *fsmodel.Model) (string, []byte, error) {
	name := string(m.Name())
	if name == "" {
		return "", nil, &fsmodel.ValidationError{Subject: "model", Err: fsmodel.ErrEmptyName}
	}

	doc, err := m.MarshalJSON()
	if err != nil {
		return "", nil, err
	}

	return name, doc, nil
}

func load(ctx context.Context, s Store, name string, m *fsmodel.Model) error {
	rec, err := s.Get(ctx, name)
	if err != nil {
		return err
	}
	return m.UnmarshalJSON(rec.Document)
}

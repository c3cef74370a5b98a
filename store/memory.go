package store

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/enetx/fsmodel"
)

// MemoryStore is an in-memory Store, mostly useful for tests and for
// editors that do not persist a library.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
	now     func() time.Time
}

// Ensure MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record), now: time.Now}
}

func (s *MemoryStore) Save(_ context.Context, m *fsmodel.Model) (Record, error) {
	name, doc, err := encode(m)
	if err != nil {
		return Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.records[name]
	rec.Name = name
	rec.Revision++
	rec.UpdatedAt = s.now().UTC()
	rec.Document = doc
	s.records[name] = rec

	return copyRecord(rec), nil
}

func (s *MemoryStore) Load(ctx context.Context, name string, m *fsmodel.Model) error {
	return load(ctx, s, name, m)
}

func (s *MemoryStore) Get(_ context.Context, name string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[name]
	if !ok {
		return Record{}, ErrModelNotFound
	}

	return copyRecord(rec), nil
}

func (s *MemoryStore) List(_ context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		rec.Document = nil
		records = append(records, rec)
	}

	slices.SortFunc(records, func(a, b Record) int { return strings.Compare(a.Name, b.Name) })

	return records, nil
}

func (s *MemoryStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[name]; !ok {
		return ErrModelNotFound
	}

	delete(s.records, name)

	return nil
}

func copyRecord(rec Record) Record {
	rec.Document = slices.Clone(rec.Document)
	return rec
}

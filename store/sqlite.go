package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/enetx/fsmodel"
)

// SQLiteStore is a Store backed by SQLite.
//
// It expects an *sql.DB that uses a SQLite driver (for example,
// "modernc.org/sqlite"). The caller is responsible for importing
// the driver, e.g.:
//
//	import _ "modernc.org/sqlite"
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// Ensure SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore initializes the required schema in the given database and
// returns a new SQLiteStore.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db, now: time.Now}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS models (
			name TEXT PRIMARY KEY,
			revision INTEGER NOT NULL,
			updated_at INTEGER NOT NULL,
			document BLOB NOT NULL
		);`,
	)
	return err
}

func (s *SQLiteStore) Save(ctx context.Context, m *fsmodel.Model) (Record, error) {
	name, doc, err := encode(m)
	if err != nil {
		return Record{}, err
	}

	now := s.now().UTC()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO models (name, revision, updated_at, document)
		VALUES (?, 1, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			revision = models.revision + 1,
			updated_at = excluded.updated_at,
			document = excluded.document`,
		name,
		now.UnixNano(),
		doc,
	)
	if err != nil {
		return Record{}, err
	}

	return s.Get(ctx, name)
}

func (s *SQLiteStore) Load(ctx context.Context, name string, m *fsmodel.Model) error {
	return load(ctx, s, name, m)
}

func (s *SQLiteStore) Get(ctx context.Context, name string) (Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT name, revision, updated_at, document
		FROM models
		WHERE name = ?`,
		name,
	)

	var rec Record
	var updated int64

	if err := row.Scan(&rec.Name, &rec.Revision, &updated, &rec.Document); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrModelNotFound
		}
		return Record{}, err
	}

	rec.UpdatedAt = time.Unix(0, updated).UTC()

	return rec, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, revision, updated_at
		FROM models
		ORDER BY name`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record

	for rows.Next() {
		var rec Record
		var updated int64

		if err := rows.Scan(&rec.Name, &rec.Revision, &updated); err != nil {
			return nil, err
		}

		rec.UpdatedAt = time.Unix(0, updated).UTC()
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM models WHERE name = ?`, name)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrModelNotFound
	}

	return nil
}

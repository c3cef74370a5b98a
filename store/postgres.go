package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/enetx/fsmodel"
)

// PostgresStore is a Store backed by PostgreSQL.
//
// It expects an *sql.DB that uses a PostgreSQL driver, for example pgx:
//
//	import _ "github.com/jackc/pgx/v5/stdlib"
//
//	db, err := sql.Open("pgx", dsn)
type PostgresStore struct {
	db  *sql.DB
	now func() time.Time
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates the models table if needed and returns a new
// PostgresStore.
func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	s := &PostgresStore{db: db, now: time.Now}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS models (
			name TEXT PRIMARY KEY,
			revision INTEGER NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			document BYTEA NOT NULL
		);`,
	)
	return err
}

func (s *PostgresStore) Save(ctx context.Context, m *fsmodel.Model) (Record, error) {
	name, doc, err := encode(m)
	if err != nil {
		return Record{}, err
	}

	// TIMESTAMPTZ keeps microseconds.
	now := s.now().UTC().Truncate(time.Microsecond)

	rec := Record{Name: name, Document: doc}

	err = s.db.QueryRowContext(ctx, `
		INSERT INTO models (name, revision, updated_at, document)
		VALUES ($1, 1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET
			revision = models.revision + 1,
			updated_at = EXCLUDED.updated_at,
			document = EXCLUDED.document
		RETURNING revision`,
		name,
		now,
		doc,
	).Scan(&rec.Revision)
	if err != nil {
		return Record{}, err
	}

	rec.UpdatedAt = now

	return rec, nil
}

func (s *PostgresStore) Load(ctx context.Context, name string, m *fsmodel.Model) error {
	return load(ctx, s, name, m)
}

func (s *PostgresStore) Get(ctx context.Context, name string) (Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT name, revision, updated_at, document
		FROM models
		WHERE name = $1`,
		name,
	)

	var rec Record
	if err := row.Scan(&rec.Name, &rec.Revision, &rec.UpdatedAt, &rec.Document); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrModelNotFound
		}
		return Record{}, err
	}

	rec.UpdatedAt = rec.UpdatedAt.UTC()

	return rec, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, revision, updated_at
		FROM models
		ORDER BY name COLLATE "C"`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record

	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.Name, &rec.Revision, &rec.UpdatedAt); err != nil {
			return nil, err
		}

		rec.UpdatedAt = rec.UpdatedAt.UTC()
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

func (s *PostgresStore) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM models WHERE name = $1`, name)
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


package persistence

import (
	"context"
	"database/sql"
	"errors"

	"github.com/petrijr/stepform/pkg/api"
)

// PostgresSnapshotStore is a SnapshotStore backed by PostgreSQL.
//
// It expects an *sql.DB that uses a PostgreSQL driver (for example,
// "github.com/jackc/pgx/v5/stdlib").
//
// The caller is responsible for:
//   - importing the driver for its side effects, e.g.:
//     _ "github.com/jackc/pgx/v5/stdlib"
//   - providing a DSN via sql.Open.
type PostgresSnapshotStore struct {
	db *sql.DB
}

// NewPostgresSnapshotStore initializes the required schema in the given
// database and returns a new PostgresSnapshotStore.
func NewPostgresSnapshotStore(db *sql.DB) (*PostgresSnapshotStore, error) {
	s := &PostgresSnapshotStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresSnapshotStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS wizard_snapshots (
			storage_key    TEXT PRIMARY KEY,
			cursor_index   INTEGER NOT NULL,
			furthest_index INTEGER NOT NULL,
			form_state     BYTEA,
			saved_at       BIGINT NOT NULL
		);
	`)
	return err
}

func (s *PostgresSnapshotStore) Save(ctx context.Context, key string, snap api.Snapshot) error {
	state, err := EncodeFormState(snap.FormState)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO wizard_snapshots (storage_key, cursor_index, furthest_index, form_state, saved_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (storage_key) DO UPDATE SET
		    cursor_index   = EXCLUDED.cursor_index,
		    furthest_index = EXCLUDED.furthest_index,
		    form_state     = EXCLUDED.form_state,
		    saved_at       = EXCLUDED.saved_at
	`,
		key,
		snap.CursorIndex,
		snap.FurthestIndex,
		state,
		timeNanos(snap.SavedAt),
	)
	return err
}

func (s *PostgresSnapshotStore) Load(ctx context.Context, key string) (api.Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT storage_key, cursor_index, furthest_index, form_state, saved_at
		FROM wizard_snapshots
		WHERE storage_key = $1
	`,
		key,
	)

	var snap api.Snapshot
	var state []byte
	var savedAt int64

	if err := row.Scan(&snap.StorageKey, &snap.CursorIndex, &snap.FurthestIndex, &state, &savedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return api.Snapshot{}, ErrSnapshotNotFound
		}
		return api.Snapshot{}, err
	}

	decoded, err := DecodeFormState(state)
	if err != nil {
		return api.Snapshot{}, err
	}
	snap.FormState = decoded
	snap.SavedAt = unixNanos(savedAt)

	return snap, nil
}

func (s *PostgresSnapshotStore) Clear(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM wizard_snapshots WHERE storage_key = $1`, key)
	return err
}

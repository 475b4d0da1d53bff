package persistence

import (
	"context"
	"database/sql"
	"errors"

	"github.com/petrijr/stepform/pkg/api"
)

// SQLiteSnapshotStore is a SnapshotStore backed by SQLite.
//
// It expects an *sql.DB that uses a SQLite driver (for example,
// "modernc.org/sqlite"). The caller is responsible for importing
// the driver, e.g.:
//
//	import _ "modernc.org/sqlite"
type SQLiteSnapshotStore struct {
	db *sql.DB
}

// NewSQLiteSnapshotStore initializes the required schema in the given
// database and returns a new SQLiteSnapshotStore.
func NewSQLiteSnapshotStore(db *sql.DB) (*SQLiteSnapshotStore, error) {
	s := &SQLiteSnapshotStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteSnapshotStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS wizard_snapshots (
			storage_key TEXT PRIMARY KEY,
			cursor_index INTEGER NOT NULL,
			furthest_index INTEGER NOT NULL,
			form_state BLOB,
			saved_at INTEGER NOT NULL
		);`,
	)
	return err
}

func (s *SQLiteSnapshotStore) Save(ctx context.Context, key string, snap api.Snapshot) error {
	state, err := EncodeFormState(snap.FormState)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO wizard_snapshots (storage_key, cursor_index, furthest_index, form_state, saved_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(storage_key) DO UPDATE SET
			cursor_index = excluded.cursor_index,
			furthest_index = excluded.furthest_index,
			form_state = excluded.form_state,
			saved_at = excluded.saved_at`,
		key,
		snap.CursorIndex,
		snap.FurthestIndex,
		state,
		timeNanos(snap.SavedAt),
	)
	return err
}

func (s *SQLiteSnapshotStore) Load(ctx context.Context, key string) (api.Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT storage_key, cursor_index, furthest_index, form_state, saved_at
		FROM wizard_snapshots
		WHERE storage_key = ?`,
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

func (s *SQLiteSnapshotStore) Clear(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM wizard_snapshots WHERE storage_key = ?`, key)
	return err
}

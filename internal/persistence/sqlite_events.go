package persistence

import (
	"context"
	"database/sql"
	"time"

	"github.com/petrijr/stepform/pkg/api"
)

// SQLiteEventStore stores wizard events in SQLite.
type SQLiteEventStore struct {
	db *sql.DB
}

func NewSQLiteEventStore(db *sql.DB) (*SQLiteEventStore, error) {
	s := &SQLiteEventStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteEventStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS wizard_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			wizard_id TEXT NOT NULL,
			storage_key TEXT NOT NULL DEFAULT '',
			at INTEGER NOT NULL,
			type TEXT NOT NULL,
			step INTEGER NOT NULL DEFAULT -1,
			detail TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_wizard_events_wizard_id ON wizard_events(wizard_id, id);
	`)
	return err
}

func (s *SQLiteEventStore) AppendEvent(ctx context.Context, ev api.WizardEvent) error {
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO wizard_events (wizard_id, storage_key, at, type, step, detail)
		VALUES (?, ?, ?, ?, ?, ?)`,
		ev.WizardID,
		ev.StorageKey,
		at.UnixNano(),
		string(ev.Type),
		ev.Step,
		ev.Detail,
	)
	return err
}

func (s *SQLiteEventStore) ListEvents(ctx context.Context, wizardID string) ([]api.WizardEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT wizard_id, storage_key, at, type, step, detail
		FROM wizard_events
		WHERE wizard_id = ?
		ORDER BY id ASC`, wizardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []api.WizardEvent
	for rows.Next() {
		var (
			id     string
			key    string
			atN    int64
			typ    string
			step   int
			detail string
		)
		if err := rows.Scan(&id, &key, &atN, &typ, &step, &detail); err != nil {
			return nil, err
		}
		out = append(out, api.WizardEvent{
			WizardID:   id,
			StorageKey: key,
			At:         time.Unix(0, atN),
			Type:       api.EventType(typ),
			Step:       step,
			Detail:     detail,
		})
	}
	return out, rows.Err()
}

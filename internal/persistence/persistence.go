package persistence

import (
	"database/sql"

	"github.com/petrijr/stepform/pkg/api"
)

// Persistence bundles the snapshot and history stores so callers can wire
// a backend with a single value.
type Persistence struct {
	Snapshots api.SnapshotStore
	Events    api.EventStore
}

// NewInMemoryPersistence returns non-durable stores, best for tests.
func NewInMemoryPersistence() Persistence {
	return Persistence{
		Snapshots: NewInMemoryStore(),
		Events:    NewInMemoryEventStore(),
	}
}

// NewSQLitePersistence initializes both schemas in db.
func NewSQLitePersistence(db *sql.DB) (Persistence, error) {
	snaps, err := NewSQLiteSnapshotStore(db)
	if err != nil {
		return Persistence{}, err
	}
	events, err := NewSQLiteEventStore(db)
	if err != nil {
		return Persistence{}, err
	}
	return Persistence{Snapshots: snaps, Events: events}, nil
}

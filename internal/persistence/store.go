package persistence

import (
	"github.com/petrijr/stepform/pkg/api"
)

// ErrSnapshotNotFound is returned when no snapshot exists for a key.
var ErrSnapshotNotFound = api.ErrSnapshotNotFound

// Ensure every backend implements the store contracts.
var (
	_ api.SnapshotStore = (*InMemoryStore)(nil)
	_ api.SnapshotStore = (*SQLiteSnapshotStore)(nil)
	_ api.SnapshotStore = (*PostgresSnapshotStore)(nil)
	_ api.SnapshotStore = (*RedisSnapshotStore)(nil)
	_ api.SnapshotStore = (*MongoSnapshotStore)(nil)

	_ api.EventStore = NoopEventStore{}
	_ api.EventStore = (*InMemoryEventStore)(nil)
	_ api.EventStore = (*SQLiteEventStore)(nil)
)

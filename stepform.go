package stepform

import (
	"context"
	"database/sql"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/petrijr/stepform/internal/engine"
	"github.com/petrijr/stepform/internal/persistence"
	"github.com/petrijr/stepform/pkg/api"
)

// Re-export key types so users don't need to dig into pkg/api.

type (
	Wizard               = api.Wizard
	Config               = api.Config
	StepDefinition       = api.StepDefinition
	FormState            = api.FormState
	FieldErrors          = api.FieldErrors
	Validator            = api.Validator
	CompleteFunc         = api.CompleteFunc
	SubmissionStatus     = api.SubmissionStatus
	Snapshot             = api.Snapshot
	SnapshotStore        = api.SnapshotStore
	EventStore           = api.EventStore
	WizardEvent          = api.WizardEvent
	EventType            = api.EventType
	RetryPolicy          = api.RetryPolicy
	Observer             = api.Observer
	WizardInfo           = api.WizardInfo
	LoggingObserver      = api.LoggingObserver
	BasicMetrics         = api.BasicMetrics
	BasicMetricsSnapshot = api.BasicMetricsSnapshot
	CompositeObserver    = api.CompositeObserver
	NoopObserver         = api.NoopObserver

	ValidationError    = api.ValidationError
	SubmissionError    = api.SubmissionError
	PersistenceError   = api.PersistenceError
	ConfigurationError = api.ConfigurationError
)

// Re-export common observer helpers.

var (
	NewLoggingObserver   = api.NewLoggingObserver
	NewCompositeObserver = api.NewCompositeObserver
)

// Re-export submission states for convenience.

const (
	StatusIdle       = api.StatusIdle
	StatusSubmitting = api.StatusSubmitting
	StatusSuccess    = api.StatusSuccess
	StatusError      = api.StatusError
)

// Re-export the error sentinels callers match with errors.Is.

var (
	ErrInvalidConfiguration = api.ErrInvalidConfiguration
	ErrValidationFailed     = api.ErrValidationFailed
	ErrStepInvalid          = api.ErrStepInvalid
	ErrSubmissionFailed     = api.ErrSubmissionFailed
	ErrSnapshotNotFound     = api.ErrSnapshotNotFound
	ErrStepOutOfRange       = api.ErrStepOutOfRange
	ErrAtLastStep           = api.ErrAtLastStep
	ErrNotOnLastStep        = api.ErrNotOnLastStep
	ErrStepNotReached       = api.ErrStepNotReached
	ErrTransitionInFlight   = api.ErrTransitionInFlight
	ErrAlreadySubmitted     = api.ErrAlreadySubmitted
	ErrClosed               = api.ErrClosed
)

// NewWizard builds a wizard from cfg. When cfg.PersistState is set, the
// wizard is hydrated from cfg.Store before NewWizard returns.
func NewWizard(ctx context.Context, cfg Config) (Wizard, error) {
	return engine.NewWizard(ctx, cfg)
}

// Store constructors
// These wrap the internal/persistence package so external callers
// never need to import internal packages.

// NewInMemoryStore returns a non-durable SnapshotStore, best for tests.
func NewInMemoryStore() SnapshotStore {
	return persistence.NewInMemoryStore()
}

// NewSQLiteStore returns a SnapshotStore that keeps snapshots in a SQLite
// database. The schema is created if missing.
func NewSQLiteStore(db *sql.DB) (SnapshotStore, error) {
	return persistence.NewSQLiteSnapshotStore(db)
}

// NewPostgresStore returns a SnapshotStore backed by PostgreSQL.
// db must be opened with a Postgres driver such as pgx's stdlib driver.
func NewPostgresStore(db *sql.DB) (SnapshotStore, error) {
	return persistence.NewPostgresSnapshotStore(db)
}

// NewRedisStore returns a Redis-backed SnapshotStore. ttl > 0 makes
// abandoned snapshots expire.
func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) SnapshotStore {
	return persistence.NewRedisSnapshotStore(client, prefix, ttl)
}

// NewMongoStore returns a SnapshotStore backed by MongoDB.
func NewMongoStore(client *mongo.Client, dbName, collName string) SnapshotStore {
	return persistence.NewMongoSnapshotStore(client, dbName, collName)
}

// NewInMemoryEventStore returns a non-durable wizard history.
func NewInMemoryEventStore() EventStore {
	return persistence.NewInMemoryEventStore()
}

// NewSQLiteEventStore returns a wizard history stored in SQLite.
func NewSQLiteEventStore(db *sql.DB) (EventStore, error) {
	return persistence.NewSQLiteEventStore(db)
}

package api

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ErrSnapshotNotFound is returned by SnapshotStore.Load when no snapshot
// exists for the key.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotStore is the pluggable bridge to durable storage used for
// resumable wizards.
type SnapshotStore interface {
	// Save stores snap under key, replacing any previous snapshot.
	Save(ctx context.Context, key string, snap Snapshot) error

	// Load returns the snapshot for key, or ErrSnapshotNotFound.
	Load(ctx context.Context, key string) (Snapshot, error)

	// Clear removes the snapshot for key. Clearing a missing key is not
	// an error.
	Clear(ctx context.Context, key string) error
}

// EventStore is an append-only history of wizard events.
type EventStore interface {
	AppendEvent(ctx context.Context, ev WizardEvent) error
	ListEvents(ctx context.Context, wizardID string) ([]WizardEvent, error)
}

// RetryPolicy controls how a failed snapshot save is retried before it is
// given up on. MaxAttempts includes the first attempt:
//
//	MaxAttempts = 1 => no retries (just the initial call)
//	MaxAttempts = 3 => initial call + up to 2 retries
//
// InitialBackoff is the delay before the first retry. Each subsequent delay
// is multiplied by BackoffMultiplier (2.0 when <= 0) and capped at
// MaxBackoff when MaxBackoff > 0.
type RetryPolicy struct {
	MaxAttempts       int
	InitialBackoff    time.Duration
	BackoffMultiplier float64
	MaxBackoff        time.Duration
}

// Config describes a wizard. Everything is instance scoped; two wizards
// never share state unless they are explicitly given the same Store and
// StorageKey.
type Config struct {
	// Steps is the ordered, non-empty list of steps. It is copied at
	// construction and immutable afterwards.
	Steps []StepDefinition

	// DefaultValues seeds the FormState.
	DefaultValues FormState

	// OnComplete receives the full FormState on submission.
	OnComplete CompleteFunc

	// PersistState enables snapshot persistence through Store.
	PersistState bool

	// StorageKey identifies this wizard's snapshot in Store. Callers must
	// keep keys unique across wizards that are open at the same time; the
	// engine cannot detect two live wizards sharing a key.
	StorageKey string

	// Store is required when PersistState is true.
	Store SnapshotStore

	// Events, if set, receives an append-only history of the wizard.
	Events EventStore

	// Observer receives lifecycle callbacks. Defaults to NoopObserver.
	Observer Observer

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// SaveDebounce delays snapshot writes triggered by field edits.
	// Zero selects DefaultSaveDebounce; negative disables edit-triggered
	// saves entirely.
	SaveDebounce time.Duration

	// SaveRetry applies to snapshot saves. The zero value makes a single
	// attempt.
	SaveRetry RetryPolicy

	// Now overrides the clock used for snapshot and event timestamps.
	Now func() time.Time
}

// DefaultSaveDebounce is the delay applied to edit-triggered saves when
// Config.SaveDebounce is zero.
const DefaultSaveDebounce = 300 * time.Millisecond

// Wizard is the engine surface consumed by a UI layer.
//
// Navigation and submission calls are serialized: while one NextStep,
// GoToStep or SubmitForm call is waiting on a validator, the store or the
// completion callback, any other such call returns ErrTransitionInFlight
// immediately instead of being queued.
type Wizard interface {
	// ID is a unique identifier for this wizard instance.
	ID() string
	StorageKey() string

	Steps() []StepDefinition
	CurrentStepIndex() int
	CurrentStep() StepDefinition
	FurthestStepIndex() int
	IsFirstStep() bool
	IsLastStep() bool

	// State returns a copy of the current FormState.
	State() FormState
	Field(key string) (any, bool)
	SetField(key string, value any)
	SetFields(values FormState)
	FieldErrors() FieldErrors

	// NextStep validates the current step and advances one step.
	NextStep(ctx context.Context) error

	// PrevStep moves back one step without validation. It reports whether
	// the cursor moved.
	PrevStep(ctx context.Context) bool

	// GoToStep jumps to any step at or before the furthest reached one.
	GoToStep(ctx context.Context, index int) error

	// SubmitForm validates the last step and calls the completion callback.
	SubmitForm(ctx context.Context) error
	SubmissionStatus() SubmissionStatus
	LastSubmissionError() error

	// Reset restores the default values, returns to the first step and
	// clears any persisted snapshot.
	Reset(ctx context.Context) error

	// Close flushes pending saves and detaches the wizard. Transitions that
	// complete after Close discard their result and return ErrClosed.
	Close(ctx context.Context) error
}

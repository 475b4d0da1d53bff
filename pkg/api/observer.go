package api

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// WizardInfo is a point-in-time description of a wizard passed to
// Observer callbacks.
type WizardInfo struct {
	ID         string
	StorageKey string
	StepCount  int
	Cursor     int
	StepID     string
	Status     SubmissionStatus
}

// Observer receives callbacks from the wizard engine for logging and metrics.
//
// Implementations should be fast and non-blocking; heavy work should be done
// asynchronously so as not to delay the user-facing flow.
type Observer interface {
	// OnWizardStart is called once after construction and hydration.
	// resumed reports whether a persisted snapshot was applied.
	OnWizardStart(ctx context.Context, info WizardInfo, resumed bool)

	// OnStepChanged is called after the cursor moved from one index to another.
	OnStepChanged(ctx context.Context, info WizardInfo, from, to int)

	// OnValidationFailed is called when a step's validator blocked a transition.
	OnValidationFailed(ctx context.Context, info WizardInfo, err *ValidationError)

	// OnSubmissionStarted is called when the wizard enters StatusSubmitting.
	OnSubmissionStarted(ctx context.Context, info WizardInfo)

	// OnSubmissionCompleted is called after the completion callback returns,
	// for both successes and failures (err != nil).
	OnSubmissionCompleted(ctx context.Context, info WizardInfo, err error, duration time.Duration)

	// OnPersistenceError is called for every store failure the engine
	// swallowed.
	OnPersistenceError(ctx context.Context, info WizardInfo, err *PersistenceError)
}

// NoopObserver is an Observer that does nothing.
// It is used as the default when no observer is configured.
type NoopObserver struct{}

func (NoopObserver) OnWizardStart(ctx context.Context, info WizardInfo, resumed bool) {}
func (NoopObserver) OnStepChanged(ctx context.Context, info WizardInfo, from, to int) {}
func (NoopObserver) OnValidationFailed(ctx context.Context, info WizardInfo, err *ValidationError) {
}
func (NoopObserver) OnSubmissionStarted(ctx context.Context, info WizardInfo) {}
func (NoopObserver) OnSubmissionCompleted(ctx context.Context, info WizardInfo, err error, d time.Duration) {
}
func (NoopObserver) OnPersistenceError(ctx context.Context, info WizardInfo, err *PersistenceError) {
}

// CompositeObserver fans out events to multiple observers.
type CompositeObserver struct {
	observers []Observer
}

// NewCompositeObserver creates an Observer that forwards events to each
// non-nil observer in obs.
func NewCompositeObserver(obs ...Observer) Observer {
	filtered := make([]Observer, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	if len(filtered) == 0 {
		return NoopObserver{}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &CompositeObserver{observers: filtered}
}

func (c *CompositeObserver) OnWizardStart(ctx context.Context, info WizardInfo, resumed bool) {
	for _, o := range c.observers {
		o.OnWizardStart(ctx, info, resumed)
	}
}

func (c *CompositeObserver) OnStepChanged(ctx context.Context, info WizardInfo, from, to int) {
	for _, o := range c.observers {
		o.OnStepChanged(ctx, info, from, to)
	}
}

func (c *CompositeObserver) OnValidationFailed(ctx context.Context, info WizardInfo, err *ValidationError) {
	for _, o := range c.observers {
		o.OnValidationFailed(ctx, info, err)
	}
}

func (c *CompositeObserver) OnSubmissionStarted(ctx context.Context, info WizardInfo) {
	for _, o := range c.observers {
		o.OnSubmissionStarted(ctx, info)
	}
}

func (c *CompositeObserver) OnSubmissionCompleted(ctx context.Context, info WizardInfo, err error, d time.Duration) {
	for _, o := range c.observers {
		o.OnSubmissionCompleted(ctx, info, err, d)
	}
}

func (c *CompositeObserver) OnPersistenceError(ctx context.Context, info WizardInfo, err *PersistenceError) {
	for _, o := range c.observers {
		o.OnPersistenceError(ctx, info, err)
	}
}

// LoggingObserver writes structured logs using log/slog.
type LoggingObserver struct {
	Logger *slog.Logger
}

// NewLoggingObserver creates an Observer that logs wizard lifecycle events
// using the provided slog.Logger. If logger is nil, slog.Default() is used.
func NewLoggingObserver(logger *slog.Logger) Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{Logger: logger}
}

func (o *LoggingObserver) OnWizardStart(ctx context.Context, info WizardInfo, resumed bool) {
	o.Logger.InfoContext(ctx, "wizard_start",
		slog.String("wizard_id", info.ID),
		slog.String("storage_key", info.StorageKey),
		slog.Int("step_index", info.Cursor),
		slog.Bool("resumed", resumed),
	)
}

func (o *LoggingObserver) OnStepChanged(ctx context.Context, info WizardInfo, from, to int) {
	o.Logger.DebugContext(ctx, "step_changed",
		slog.String("wizard_id", info.ID),
		slog.String("step", info.StepID),
		slog.Int("from", from),
		slog.Int("to", to),
	)
}

func (o *LoggingObserver) OnValidationFailed(ctx context.Context, info WizardInfo, err *ValidationError) {
	o.Logger.InfoContext(ctx, "validation_failed",
		slog.String("wizard_id", info.ID),
		slog.String("step", err.StepID),
		slog.Int("step_index", err.StepIndex),
		slog.Any("error", err),
	)
}

func (o *LoggingObserver) OnSubmissionStarted(ctx context.Context, info WizardInfo) {
	o.Logger.InfoContext(ctx, "submission_started",
		slog.String("wizard_id", info.ID),
		slog.String("storage_key", info.StorageKey),
	)
}

func (o *LoggingObserver) OnSubmissionCompleted(ctx context.Context, info WizardInfo, err error, d time.Duration) {
	level := slog.LevelInfo
	msg := "submission_succeeded"
	if err != nil {
		level = slog.LevelError
		msg = "submission_failed"
	}
	o.Logger.Log(ctx, level, msg,
		slog.String("wizard_id", info.ID),
		slog.String("storage_key", info.StorageKey),
		slog.Duration("duration", d),
		slog.Any("error", err),
	)
}

func (o *LoggingObserver) OnPersistenceError(ctx context.Context, info WizardInfo, err *PersistenceError) {
	o.Logger.WarnContext(ctx, "persistence_error",
		slog.String("wizard_id", info.ID),
		slog.String("op", err.Op),
		slog.String("storage_key", err.Key),
		slog.Any("error", err.Err),
	)
}

// BasicMetrics collects simple counters and aggregate submission durations.
// It implements Observer, and can be combined with LoggingObserver via
// NewCompositeObserver.
type BasicMetrics struct {
	NoopObserver

	wizardsStarted       atomic.Int64
	wizardsResumed       atomic.Int64
	stepTransitions      atomic.Int64
	validationFailures   atomic.Int64
	submissionsSucceeded atomic.Int64
	submissionsFailed    atomic.Int64
	persistenceErrors    atomic.Int64
	totalSubmitDuration  atomic.Int64 // nanoseconds
}

// BasicMetricsSnapshot is an immutable snapshot of BasicMetrics.
type BasicMetricsSnapshot struct {
	WizardsStarted       int64
	WizardsResumed       int64
	StepTransitions      int64
	ValidationFailures   int64
	SubmissionsSucceeded int64
	SubmissionsFailed    int64
	PersistenceErrors    int64

	AvgSubmitDuration time.Duration
}

func (m *BasicMetrics) OnWizardStart(ctx context.Context, info WizardInfo, resumed bool) {
	m.wizardsStarted.Add(1)
	if resumed {
		m.wizardsResumed.Add(1)
	}
}

func (m *BasicMetrics) OnStepChanged(ctx context.Context, info WizardInfo, from, to int) {
	m.stepTransitions.Add(1)
}

func (m *BasicMetrics) OnValidationFailed(ctx context.Context, info WizardInfo, err *ValidationError) {
	m.validationFailures.Add(1)
}

func (m *BasicMetrics) OnSubmissionCompleted(ctx context.Context, info WizardInfo, err error, d time.Duration) {
	if err != nil {
		m.submissionsFailed.Add(1)
	} else {
		m.submissionsSucceeded.Add(1)
	}
	m.totalSubmitDuration.Add(d.Nanoseconds())
}

func (m *BasicMetrics) OnPersistenceError(ctx context.Context, info WizardInfo, err *PersistenceError) {
	m.persistenceErrors.Add(1)
}

// Snapshot returns a snapshot of the current metrics.
func (m *BasicMetrics) Snapshot() BasicMetricsSnapshot {
	ok := m.submissionsSucceeded.Load()
	failed := m.submissionsFailed.Load()
	totalNs := m.totalSubmitDuration.Load()

	var avg time.Duration
	if n := ok + failed; n > 0 {
		avg = time.Duration(totalNs / n)
	}

	return BasicMetricsSnapshot{
		WizardsStarted:       m.wizardsStarted.Load(),
		WizardsResumed:       m.wizardsResumed.Load(),
		StepTransitions:      m.stepTransitions.Load(),
		ValidationFailures:   m.validationFailures.Load(),
		SubmissionsSucceeded: ok,
		SubmissionsFailed:    failed,
		PersistenceErrors:    m.persistenceErrors.Load(),
		AvgSubmitDuration:    avg,
	}
}

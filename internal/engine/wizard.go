package engine

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/petrijr/stepform/pkg/api"
)

// wizard is the in-process implementation of api.Wizard.
//
// Lock order: busy (transition guard) -> persister.writeMu -> mu.
// mu is never held across a validator, store or completion call.
type wizard struct {
	id         string
	storageKey string
	steps      *stepRegistry
	defaults   api.FormState
	onComplete api.CompleteFunc

	observer api.Observer
	logger   *slog.Logger
	events   api.EventStore
	now      func() time.Time

	// persist is nil when persistence is disabled.
	persist *persister

	// busy guards the single in-flight transition.
	busy atomic.Bool

	mu            sync.RWMutex
	state         api.FormState
	cursor        int
	furthest      int
	fieldErrors   api.FieldErrors
	status        api.SubmissionStatus
	lastSubmitErr error
	closed        bool
}

// NewWizard validates cfg, builds a wizard and, when persistence is enabled,
// hydrates it from the stored snapshot before returning.
func NewWizard(ctx context.Context, cfg api.Config) (api.Wizard, error) {
	if cfg.OnComplete == nil {
		return nil, api.NewConfigurationError(api.ErrMissingOnComplete, "")
	}
	if cfg.PersistState {
		if cfg.StorageKey == "" {
			return nil, api.NewConfigurationError(api.ErrMissingStorageKey, "")
		}
		if cfg.Store == nil {
			return nil, api.NewConfigurationError(api.ErrMissingStore, "storage key %q", cfg.StorageKey)
		}
	}

	steps, err := newStepRegistry(cfg.Steps)
	if err != nil {
		return nil, err
	}

	obs := cfg.Observer
	if obs == nil {
		obs = api.NoopObserver{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	w := &wizard{
		id:          uuid.NewString(),
		storageKey:  cfg.StorageKey,
		steps:       steps,
		defaults:    cfg.DefaultValues.Clone(),
		onComplete:  cfg.OnComplete,
		observer:    obs,
		logger:      logger.With(slog.String("component", "stepform")),
		events:      cfg.Events,
		now:         now,
		state:       cfg.DefaultValues.Clone(),
		fieldErrors: api.FieldErrors{},
		status:      api.StatusIdle,
	}

	if cfg.PersistState {
		debounce := cfg.SaveDebounce
		if debounce == 0 {
			debounce = api.DefaultSaveDebounce
		}
		w.persist = &persister{
			store:    cfg.Store,
			key:      cfg.StorageKey,
			retry:    cfg.SaveRetry,
			debounce: debounce,
			capture:  w.snapshot,
			report:   w.reportPersistenceError,
		}
	}

	resumed := w.hydrate(ctx)

	info := w.info()
	w.observer.OnWizardStart(ctx, info, resumed)
	if resumed {
		w.appendEvent(ctx, api.EventWizardResumed, info.Cursor, "")
	} else {
		w.appendEvent(ctx, api.EventWizardStarted, info.Cursor, "")
	}

	return w, nil
}

// hydrate applies the persisted snapshot, if any. A snapshot whose cursor
// does not fit the current step list is stale and ignored. Validation is
// not re-run on resume.
func (w *wizard) hydrate(ctx context.Context) bool {
	if w.persist == nil {
		return false
	}

	snap, ok := w.persist.load(ctx)
	if !ok {
		return false
	}

	if !w.steps.InRange(snap.CursorIndex) {
		w.logger.WarnContext(ctx, "snapshot_discarded",
			slog.String("storage_key", w.storageKey),
			slog.Int("cursor_index", snap.CursorIndex),
			slog.Int("step_count", w.steps.Len()),
		)
		return false
	}

	furthest := max(snap.CursorIndex, min(snap.FurthestIndex, w.steps.LastIndex()))

	w.mu.Lock()
	w.state = w.defaults.Merge(snap.FormState)
	w.cursor = snap.CursorIndex
	w.furthest = furthest
	w.mu.Unlock()

	return true
}

func (w *wizard) ID() string         { return w.id }
func (w *wizard) StorageKey() string { return w.storageKey }

func (w *wizard) Steps() []api.StepDefinition {
	return w.steps.All()
}

func (w *wizard) CurrentStepIndex() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.cursor
}

func (w *wizard) CurrentStep() api.StepDefinition {
	return w.steps.At(w.CurrentStepIndex())
}

func (w *wizard) FurthestStepIndex() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.furthest
}

func (w *wizard) IsFirstStep() bool {
	return w.CurrentStepIndex() == 0
}

func (w *wizard) IsLastStep() bool {
	return w.CurrentStepIndex() == w.steps.LastIndex()
}

func (w *wizard) State() api.FormState {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state.Clone()
}

func (w *wizard) Field(key string) (any, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state.Get(key)
}

// SetField writes a single value regardless of which step is active and
// clears any error shown for that field.
func (w *wizard) SetField(key string, value any) {
	w.SetFields(api.FormState{key: value})
}

func (w *wizard) SetFields(values api.FormState) {
	if len(values) == 0 {
		return
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	for k, v := range values {
		w.state[k] = v
		delete(w.fieldErrors, k)
	}
	w.mu.Unlock()

	if w.persist != nil {
		w.persist.schedule()
	}
}

func (w *wizard) FieldErrors() api.FieldErrors {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.fieldErrors.Clone()
}

func (w *wizard) SubmissionStatus() api.SubmissionStatus {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.status
}

func (w *wizard) LastSubmissionError() error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastSubmitErr
}

// Reset restores the defaults, returns to the first step and clears the
// persisted snapshot. A submitted wizard cannot be reset.
func (w *wizard) Reset(ctx context.Context) error {
	if err := w.begin(ctx, "reset"); err != nil {
		return err
	}
	defer w.end()

	w.mu.Lock()
	if w.status == api.StatusSuccess {
		w.mu.Unlock()
		return api.ErrAlreadySubmitted
	}
	w.state = w.defaults.Clone()
	w.cursor = 0
	w.furthest = 0
	w.fieldErrors = api.FieldErrors{}
	w.status = api.StatusIdle
	w.lastSubmitErr = nil
	w.mu.Unlock()

	if w.persist != nil {
		w.persist.clear(ctx, false)
	}

	w.appendEvent(ctx, api.EventWizardReset, 0, "")
	return nil
}

// Close detaches the wizard after flushing any pending edit save. It is
// idempotent.
func (w *wizard) Close(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	if w.persist != nil {
		w.persist.flush(ctx)
		w.persist.cancelPending()
	}
	return nil
}

// begin claims the transition guard. A call that arrives while another
// transition is pending is rejected, never queued.
func (w *wizard) begin(ctx context.Context, op string) error {
	if w.isClosed() {
		return api.ErrClosed
	}
	if !w.busy.CompareAndSwap(false, true) {
		w.logger.DebugContext(ctx, "transition_ignored",
			slog.String("wizard_id", w.id),
			slog.String("op", op),
		)
		return api.ErrTransitionInFlight
	}
	return nil
}

func (w *wizard) end() {
	w.busy.Store(false)
}

func (w *wizard) isClosed() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.closed
}

// snapshot captures the current state for persistence.
func (w *wizard) snapshot() api.Snapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return api.Snapshot{
		StorageKey:    w.storageKey,
		FormState:     w.state.Clone(),
		CursorIndex:   w.cursor,
		FurthestIndex: w.furthest,
		SavedAt:       w.now(),
	}
}

func (w *wizard) info() api.WizardInfo {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.infoLocked()
}

func (w *wizard) infoLocked() api.WizardInfo {
	return api.WizardInfo{
		ID:         w.id,
		StorageKey: w.storageKey,
		StepCount:  w.steps.Len(),
		Cursor:     w.cursor,
		StepID:     w.steps.steps[w.cursor].ID,
		Status:     w.status,
	}
}

func (w *wizard) reportPersistenceError(ctx context.Context, err *api.PersistenceError) {
	w.logger.WarnContext(ctx, "persistence_error",
		slog.String("wizard_id", w.id),
		slog.String("op", err.Op),
		slog.String("storage_key", err.Key),
		slog.Any("error", err.Err),
	)
	w.observer.OnPersistenceError(ctx, w.info(), err)
}

// appendEvent records history. Failures are logged and otherwise ignored.
func (w *wizard) appendEvent(ctx context.Context, typ api.EventType, step int, detail string) {
	if w.events == nil {
		return
	}
	ev := api.WizardEvent{
		WizardID:   w.id,
		StorageKey: w.storageKey,
		At:         w.now(),
		Type:       typ,
		Step:       step,
		Detail:     detail,
	}
	if err := w.events.AppendEvent(ctx, ev); err != nil {
		w.logger.WarnContext(ctx, "event_append_failed",
			slog.String("wizard_id", w.id),
			slog.String("type", string(typ)),
			slog.Any("error", err),
		)
	}
}

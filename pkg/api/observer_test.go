package api

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"
)

//
// Helpers
//

// testObserver counts callbacks to verify fan-out behavior.
type testObserver struct {
	mu sync.Mutex

	starts      int
	resumed     int
	moves       [][2]int
	rejections  int
	submitStart int
	submitEnds  []error
	persistErrs int
}

func (o *testObserver) OnWizardStart(ctx context.Context, info WizardInfo, resumed bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.starts++
	if resumed {
		o.resumed++
	}
}

func (o *testObserver) OnStepChanged(ctx context.Context, info WizardInfo, from, to int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.moves = append(o.moves, [2]int{from, to})
}

func (o *testObserver) OnValidationFailed(ctx context.Context, info WizardInfo, err *ValidationError) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.rejections++
}

func (o *testObserver) OnSubmissionStarted(ctx context.Context, info WizardInfo) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.submitStart++
}

func (o *testObserver) OnSubmissionCompleted(ctx context.Context, info WizardInfo, err error, d time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.submitEnds = append(o.submitEnds, err)
}

func (o *testObserver) OnPersistenceError(ctx context.Context, info WizardInfo, err *PersistenceError) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.persistErrs++
}

// recordingHandler is a slog.Handler that records all log records.
type recordingHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *recordingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return true
}

func (h *recordingHandler) Handle(ctx context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r.Clone())
	return nil
}

func (h *recordingHandler) WithAttrs(attrs []slog.Attr) slog.Handler { return h }
func (h *recordingHandler) WithGroup(name string) slog.Handler       { return h }

func attrsToMap(r slog.Record) map[string]any {
	m := make(map[string]any)
	r.Attrs(func(a slog.Attr) bool {
		m[a.Key] = a.Value.Any()
		return true
	})
	return m
}

func newTestInfo() WizardInfo {
	return WizardInfo{
		ID:         "wiz-123",
		StorageKey: "signup",
		StepCount:  3,
		Cursor:     1,
		StepID:     "profile",
		Status:     StatusIdle,
	}
}

//
// NoopObserver
//

func TestNoopObserver_DoesNotPanic(t *testing.T) {
	ctx := context.Background()
	info := newTestInfo()
	var o Observer = NoopObserver{}

	o.OnWizardStart(ctx, info, false)
	o.OnStepChanged(ctx, info, 0, 1)
	o.OnValidationFailed(ctx, info, &ValidationError{StepID: "profile"})
	o.OnSubmissionStarted(ctx, info)
	o.OnSubmissionCompleted(ctx, info, nil, time.Millisecond)
	o.OnPersistenceError(ctx, info, &PersistenceError{Op: "save", Err: errors.New("down")})
}

//
// CompositeObserver
//

func TestNewCompositeObserver_EmptyReturnsNoop(t *testing.T) {
	o := NewCompositeObserver(nil, nil)
	if _, ok := o.(NoopObserver); !ok {
		t.Fatalf("expected NoopObserver, got %T", o)
	}
}

func TestNewCompositeObserver_SingleReturnsThatObserver(t *testing.T) {
	single := &testObserver{}
	o := NewCompositeObserver(nil, single)
	if o != Observer(single) {
		t.Fatalf("expected the single observer itself, got %T", o)
	}
}

func TestNewCompositeObserver_MultipleReturnsComposite(t *testing.T) {
	o := NewCompositeObserver(&testObserver{}, &testObserver{})
	if _, ok := o.(*CompositeObserver); !ok {
		t.Fatalf("expected *CompositeObserver, got %T", o)
	}
}

func TestCompositeObserver_ForwardsAllEvents(t *testing.T) {
	ctx := context.Background()
	info := newTestInfo()
	a, b := &testObserver{}, &testObserver{}
	o := NewCompositeObserver(a, b)

	boom := errors.New("boom")
	o.OnWizardStart(ctx, info, true)
	o.OnStepChanged(ctx, info, 0, 1)
	o.OnValidationFailed(ctx, info, &ValidationError{StepID: "profile"})
	o.OnSubmissionStarted(ctx, info)
	o.OnSubmissionCompleted(ctx, info, boom, time.Second)
	o.OnPersistenceError(ctx, info, &PersistenceError{Op: "save", Err: boom})

	for name, obs := range map[string]*testObserver{"a": a, "b": b} {
		if obs.starts != 1 || obs.resumed != 1 {
			t.Fatalf("%s: expected 1 resumed start, got starts=%d resumed=%d", name, obs.starts, obs.resumed)
		}
		if len(obs.moves) != 1 || obs.moves[0] != [2]int{0, 1} {
			t.Fatalf("%s: unexpected moves %v", name, obs.moves)
		}
		if obs.rejections != 1 || obs.submitStart != 1 || obs.persistErrs != 1 {
			t.Fatalf("%s: unexpected counts %+v", name, obs)
		}
		if len(obs.submitEnds) != 1 || !errors.Is(obs.submitEnds[0], boom) {
			t.Fatalf("%s: expected submission failure to be forwarded, got %v", name, obs.submitEnds)
		}
	}
}

//
// LoggingObserver
//

func TestNewLoggingObserver_NilLoggerUsesDefault(t *testing.T) {
	o := NewLoggingObserver(nil)
	lo, ok := o.(*LoggingObserver)
	if !ok {
		t.Fatalf("expected *LoggingObserver, got %T", o)
	}
	if lo.Logger == nil {
		t.Fatalf("expected non-nil Logger when created with nil")
	}
}

func TestLoggingObserver_OnWizardStart_EmitsInfoLog(t *testing.T) {
	ctx := context.Background()
	info := newTestInfo()

	h := &recordingHandler{}
	o := NewLoggingObserver(slog.New(h))

	o.OnWizardStart(ctx, info, true)

	if len(h.records) != 1 {
		t.Fatalf("expected 1 log record, got %d", len(h.records))
	}
	rec := h.records[0]
	if rec.Level != slog.LevelInfo {
		t.Fatalf("expected LevelInfo, got %v", rec.Level)
	}
	if rec.Message != "wizard_start" {
		t.Fatalf("expected message wizard_start, got %q", rec.Message)
	}

	attrs := attrsToMap(rec)
	if attrs["wizard_id"] != info.ID {
		t.Fatalf("expected wizard_id=%q, got %v", info.ID, attrs["wizard_id"])
	}
	if attrs["storage_key"] != info.StorageKey {
		t.Fatalf("expected storage_key=%q, got %v", info.StorageKey, attrs["storage_key"])
	}
	if attrs["resumed"] != true {
		t.Fatalf("expected resumed=true, got %v", attrs["resumed"])
	}
}

func TestLoggingObserver_OnSubmissionCompleted_LevelDependsOnError(t *testing.T) {
	ctx := context.Background()
	info := newTestInfo()

	h := &recordingHandler{}
	o := NewLoggingObserver(slog.New(h))

	o.OnSubmissionCompleted(ctx, info, nil, time.Second)
	o.OnSubmissionCompleted(ctx, info, errors.New("boom"), 2*time.Second)

	if len(h.records) != 2 {
		t.Fatalf("expected 2 log records, got %d", len(h.records))
	}
	ok, failed := h.records[0], h.records[1]

	if ok.Level != slog.LevelInfo || ok.Message != "submission_succeeded" {
		t.Fatalf("unexpected success record %v %q", ok.Level, ok.Message)
	}
	if failed.Level != slog.LevelError || failed.Message != "submission_failed" {
		t.Fatalf("unexpected failure record %v %q", failed.Level, failed.Message)
	}
	if attrsToMap(failed)["error"] == nil {
		t.Fatalf("expected error attribute on failure record, got nil")
	}
}

func TestLoggingObserver_OnValidationFailed_NamesStep(t *testing.T) {
	ctx := context.Background()

	h := &recordingHandler{}
	o := NewLoggingObserver(slog.New(h))

	o.OnValidationFailed(ctx, newTestInfo(), &ValidationError{
		StepID:    "profile",
		StepIndex: 1,
		Fields:    FieldErrors{"name": "is required"},
	})

	if len(h.records) != 1 {
		t.Fatalf("expected 1 log record, got %d", len(h.records))
	}
	attrs := attrsToMap(h.records[0])
	if attrs["step"] != "profile" {
		t.Fatalf("expected step=profile, got %v", attrs["step"])
	}
	if attrs["step_index"] != int64(1) {
		t.Fatalf("expected step_index=1, got %v", attrs["step_index"])
	}
}

func TestLoggingObserver_OnPersistenceError_EmitsWarn(t *testing.T) {
	ctx := context.Background()

	h := &recordingHandler{}
	o := NewLoggingObserver(slog.New(h))

	o.OnPersistenceError(ctx, newTestInfo(), &PersistenceError{Op: "save", Key: "signup", Err: errors.New("disk full")})

	if len(h.records) != 1 {
		t.Fatalf("expected 1 log record, got %d", len(h.records))
	}
	rec := h.records[0]
	if rec.Level != slog.LevelWarn || rec.Message != "persistence_error" {
		t.Fatalf("unexpected record %v %q", rec.Level, rec.Message)
	}
	if attrsToMap(rec)["op"] != "save" {
		t.Fatalf("expected op=save, got %v", attrsToMap(rec)["op"])
	}
}

//
// BasicMetrics
//

func TestBasicMetrics_CountersAndSnapshot(t *testing.T) {
	ctx := context.Background()
	info := newTestInfo()
	m := &BasicMetrics{}

	m.OnWizardStart(ctx, info, false)
	m.OnWizardStart(ctx, info, true)
	m.OnStepChanged(ctx, info, 0, 1)
	m.OnStepChanged(ctx, info, 1, 2)
	m.OnStepChanged(ctx, info, 2, 1)
	m.OnValidationFailed(ctx, info, &ValidationError{})
	m.OnSubmissionStarted(ctx, info)
	m.OnSubmissionCompleted(ctx, info, errors.New("boom"), 1*time.Second)
	m.OnSubmissionCompleted(ctx, info, nil, 3*time.Second)
	m.OnPersistenceError(ctx, info, &PersistenceError{})

	s := m.Snapshot()
	if s.WizardsStarted != 2 || s.WizardsResumed != 1 {
		t.Fatalf("expected 2 started / 1 resumed, got %d / %d", s.WizardsStarted, s.WizardsResumed)
	}
	if s.StepTransitions != 3 {
		t.Fatalf("expected 3 transitions, got %d", s.StepTransitions)
	}
	if s.ValidationFailures != 1 || s.PersistenceErrors != 1 {
		t.Fatalf("unexpected failure counters %+v", s)
	}
	if s.SubmissionsSucceeded != 1 || s.SubmissionsFailed != 1 {
		t.Fatalf("expected 1 succeeded / 1 failed, got %d / %d", s.SubmissionsSucceeded, s.SubmissionsFailed)
	}
	if s.AvgSubmitDuration != 2*time.Second {
		t.Fatalf("expected average 2s, got %v", s.AvgSubmitDuration)
	}
}

func TestBasicMetrics_SnapshotWithoutSubmissionsHasZeroAverage(t *testing.T) {
	m := &BasicMetrics{}
	if avg := m.Snapshot().AvgSubmitDuration; avg != 0 {
		t.Fatalf("expected zero average, got %v", avg)
	}
}

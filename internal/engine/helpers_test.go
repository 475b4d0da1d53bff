package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/petrijr/stepform/internal/persistence"
	"github.com/petrijr/stepform/pkg/api"
)

// recordingObserver records every call from the wizard so tests can assert
// on them.
type recordingObserver struct {
	api.NoopObserver

	mu          sync.Mutex
	starts      []bool
	moves       [][2]int
	rejections  []*api.ValidationError
	submitStart int
	submitEnds  []error
	persistErrs []*api.PersistenceError
}

func (o *recordingObserver) OnWizardStart(ctx context.Context, info api.WizardInfo, resumed bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.starts = append(o.starts, resumed)
}

func (o *recordingObserver) OnStepChanged(ctx context.Context, info api.WizardInfo, from, to int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.moves = append(o.moves, [2]int{from, to})
}

func (o *recordingObserver) OnValidationFailed(ctx context.Context, info api.WizardInfo, err *api.ValidationError) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.rejections = append(o.rejections, err)
}

func (o *recordingObserver) OnSubmissionStarted(ctx context.Context, info api.WizardInfo) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.submitStart++
}

func (o *recordingObserver) OnSubmissionCompleted(ctx context.Context, info api.WizardInfo, err error, d time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.submitEnds = append(o.submitEnds, err)
}

func (o *recordingObserver) OnPersistenceError(ctx context.Context, info api.WizardInfo, err *api.PersistenceError) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.persistErrs = append(o.persistErrs, err)
}

func (o *recordingObserver) persistenceErrors() []*api.PersistenceError {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]*api.PersistenceError(nil), o.persistErrs...)
}

var errStoreDown = errors.New("store down")

// flakyStore wraps an InMemoryStore and fails the first failSaves saves
// (or every save when failSaves < 0). It counts calls per operation.
type flakyStore struct {
	*persistence.InMemoryStore

	mu        sync.Mutex
	failSaves int
	failLoad  bool
	failClear bool
	saves     int
	clears    int
}

func newFlakyStore() *flakyStore {
	return &flakyStore{InMemoryStore: persistence.NewInMemoryStore()}
}

func (s *flakyStore) Save(ctx context.Context, key string, snap api.Snapshot) error {
	s.mu.Lock()
	s.saves++
	fail := s.failSaves != 0
	if s.failSaves > 0 {
		s.failSaves--
	}
	s.mu.Unlock()

	if fail {
		return errStoreDown
	}
	return s.InMemoryStore.Save(ctx, key, snap)
}

func (s *flakyStore) Load(ctx context.Context, key string) (api.Snapshot, error) {
	if s.failLoad {
		return api.Snapshot{}, errStoreDown
	}
	return s.InMemoryStore.Load(ctx, key)
}

func (s *flakyStore) Clear(ctx context.Context, key string) error {
	s.mu.Lock()
	s.clears++
	s.mu.Unlock()

	if s.failClear {
		return errStoreDown
	}
	return s.InMemoryStore.Clear(ctx, key)
}

func (s *flakyStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// overlapStore holds every write for delay and records the highest number
// of writes that were in progress at the same time.
type overlapStore struct {
	*persistence.InMemoryStore

	delay     time.Duration
	active    atomic.Int32
	maxActive atomic.Int32
	writes    atomic.Int32
}

func newOverlapStore(delay time.Duration) *overlapStore {
	return &overlapStore{InMemoryStore: persistence.NewInMemoryStore(), delay: delay}
}

func (s *overlapStore) enter() {
	s.writes.Add(1)
	n := s.active.Add(1)
	for {
		peak := s.maxActive.Load()
		if n <= peak || s.maxActive.CompareAndSwap(peak, n) {
			break
		}
	}
	time.Sleep(s.delay)
}

func (s *overlapStore) Save(ctx context.Context, key string, snap api.Snapshot) error {
	s.enter()
	defer s.active.Add(-1)
	return s.InMemoryStore.Save(ctx, key, snap)
}

func (s *overlapStore) Clear(ctx context.Context, key string) error {
	s.enter()
	defer s.active.Add(-1)
	return s.InMemoryStore.Clear(ctx, key)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func okComplete(ctx context.Context, state api.FormState) error { return nil }

func requireNonEmpty(key string) api.Validator {
	return func(ctx context.Context, state api.FormState) (bool, error) {
		return state.String(key) != "", nil
	}
}

// twoStepConfig is the A(x) -> B(y) wizard used throughout the tests.
func twoStepConfig(validateA api.Validator, onComplete api.CompleteFunc) api.Config {
	if onComplete == nil {
		onComplete = okComplete
	}
	return api.Config{
		Steps: []api.StepDefinition{
			{ID: "A", FieldKeys: []string{"x"}, Validate: validateA},
			{ID: "B", FieldKeys: []string{"y"}},
		},
		DefaultValues: api.FormState{"x": "", "y": ""},
		OnComplete:    onComplete,
		Logger:        discardLogger(),
	}
}

// threeStepConfig has no validators and persists nothing.
func threeStepConfig() api.Config {
	return api.Config{
		Steps: []api.StepDefinition{
			{ID: "account", FieldKeys: []string{"email"}},
			{ID: "profile", FieldKeys: []string{"name"}},
			{ID: "confirm"},
		},
		OnComplete: okComplete,
		Logger:     discardLogger(),
	}
}

func withPersistence(cfg api.Config, store api.SnapshotStore, key string) api.Config {
	cfg.PersistState = true
	cfg.Store = store
	cfg.StorageKey = key
	cfg.SaveDebounce = -1
	return cfg
}

func newTestWizard(t *testing.T, cfg api.Config) api.Wizard {
	t.Helper()

	w, err := NewWizard(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close(context.Background()) })
	return w
}

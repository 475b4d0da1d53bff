package stepform

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// WizardBuilder provides a fluent API for defining wizards:
//
//	w, err := stepform.New().
//	    Step("account", "Account", []string{"email"}, stepform.Required("email")).
//	    Step("profile", "Profile", []string{"name"}, nil).
//	    Defaults(stepform.FormState{"email": "", "name": ""}).
//	    OnComplete(submit).
//	    Persist(store, "signup:"+userID).
//	    Build(ctx)
//
// Definition errors that can only be programmer mistakes (empty or
// duplicate step ids) panic, like registering a route twice.
type WizardBuilder struct {
	cfg Config
	ids map[string]struct{}
}

// New creates an empty wizard builder.
func New() *WizardBuilder {
	return &WizardBuilder{
		cfg: Config{
			Steps: make([]StepDefinition, 0),
		},
		ids: make(map[string]struct{}),
	}
}

// Step appends a step with the given fields and optional validator.
func (b *WizardBuilder) Step(id, title string, fields []string, validate Validator) *WizardBuilder {
	return b.StepDefinition(StepDefinition{
		ID:        id,
		Title:     title,
		FieldKeys: fields,
		Validate:  validate,
	})
}

// StepDefinition appends a fully specified step.
func (b *WizardBuilder) StepDefinition(def StepDefinition) *WizardBuilder {
	if def.ID == "" {
		panic("stepform: step id must not be empty")
	}
	if _, dup := b.ids[def.ID]; dup {
		panic(fmt.Sprintf("stepform: duplicate step id %q", def.ID))
	}
	b.ids[def.ID] = struct{}{}

	// Copy the field list so callers can reuse their slice.
	def.FieldKeys = append([]string(nil), def.FieldKeys...)

	b.cfg.Steps = append(b.cfg.Steps, def)
	return b
}

// Defaults sets the initial FormState.
func (b *WizardBuilder) Defaults(values FormState) *WizardBuilder {
	b.cfg.DefaultValues = values.Clone()
	return b
}

// OnComplete sets the completion callback.
func (b *WizardBuilder) OnComplete(fn CompleteFunc) *WizardBuilder {
	b.cfg.OnComplete = fn
	return b
}

// Persist enables snapshot persistence under key.
func (b *WizardBuilder) Persist(store SnapshotStore, key string) *WizardBuilder {
	b.cfg.PersistState = true
	b.cfg.Store = store
	b.cfg.StorageKey = key
	return b
}

// SaveDebounce overrides the delay applied to edit-triggered saves.
func (b *WizardBuilder) SaveDebounce(d time.Duration) *WizardBuilder {
	b.cfg.SaveDebounce = d
	return b
}

// SaveRetry applies a retry policy to snapshot writes:
//
//	New().Persist(store, key).SaveRetry(SaveAttempts(3).Backoff(50*time.Millisecond, time.Second))
func (b *WizardBuilder) SaveRetry(rb RetryBuilder) *WizardBuilder {
	b.cfg.SaveRetry = rb.Policy()
	return b
}

// RetryBuilder describes how a failed snapshot write is retried before the
// failure is reported. Start from SaveAttempts.
type RetryBuilder struct {
	policy RetryPolicy
}

// SaveAttempts allows n attempts per snapshot write, the first included.
// Without Backoff the retries follow each other immediately.
func SaveAttempts(n int) RetryBuilder {
	return RetryBuilder{policy: RetryPolicy{MaxAttempts: max(n, 1)}}
}

// Backoff waits initial before the first retry and doubles the wait up
// to limit. A limit <= 0 leaves the wait uncapped.
func (r RetryBuilder) Backoff(initial, limit time.Duration) RetryBuilder {
	r.policy.InitialBackoff = initial
	r.policy.BackoffMultiplier = 2
	r.policy.MaxBackoff = limit
	return r
}

// Growth replaces the factor applied to the wait after each retry.
// 1 keeps the wait constant.
func (r RetryBuilder) Growth(factor float64) RetryBuilder {
	if factor > 0 {
		r.policy.BackoffMultiplier = factor
	}
	return r
}

// Policy returns the accumulated RetryPolicy.
func (r RetryBuilder) Policy() RetryPolicy {
	return r.policy
}

// History records wizard events in store.
func (b *WizardBuilder) History(store EventStore) *WizardBuilder {
	b.cfg.Events = store
	return b
}

// Observe adds an observer. Multiple observers are combined.
func (b *WizardBuilder) Observe(obs Observer) *WizardBuilder {
	if b.cfg.Observer == nil {
		b.cfg.Observer = obs
		return b
	}
	b.cfg.Observer = NewCompositeObserver(b.cfg.Observer, obs)
	return b
}

// Logger sets the logger used for engine diagnostics.
func (b *WizardBuilder) Logger(logger *slog.Logger) *WizardBuilder {
	b.cfg.Logger = logger
	return b
}

// Config returns a copy of the accumulated configuration.
// Typically used when interacting with lower-level APIs.
func (b *WizardBuilder) Config() Config {
	cfg := b.cfg
	cfg.Steps = append([]StepDefinition(nil), b.cfg.Steps...)
	return cfg
}

// Build constructs the wizard.
func (b *WizardBuilder) Build(ctx context.Context) (Wizard, error) {
	return NewWizard(ctx, b.Config())
}

// MustBuild is like Build but panics on error.
// Useful for initialization in main().
func (b *WizardBuilder) MustBuild(ctx context.Context) Wizard {
	w, err := b.Build(ctx)
	if err != nil {
		panic(err)
	}
	return w
}

package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/petrijr/stepform/pkg/api"
)

// flushTimeout bounds saves that run outside a caller's context
// (debounced edit saves).
const flushTimeout = 5 * time.Second

// persister is the best-effort bridge between a wizard and its snapshot
// store.
//
// All store writes hold writeMu for their full duration, and the snapshot
// is captured only after writeMu is acquired, so a write never starts
// before the previous one finished and a later write always carries newer
// state than an earlier one.
type persister struct {
	store    api.SnapshotStore
	key      string
	retry    api.RetryPolicy
	debounce time.Duration

	// capture returns the wizard's current snapshot.
	capture func() api.Snapshot
	// report receives every swallowed failure.
	report func(ctx context.Context, err *api.PersistenceError)

	writeMu sync.Mutex

	mu      sync.Mutex
	timer   *time.Timer
	pending bool
	sealed  bool
}

// load reads the snapshot for the wizard's key. Missing snapshots and
// store failures both yield ok=false; failures are reported.
func (p *persister) load(ctx context.Context) (api.Snapshot, bool) {
	snap, err := p.store.Load(ctx, p.key)
	if err != nil {
		if !errors.Is(err, api.ErrSnapshotNotFound) {
			p.report(ctx, &api.PersistenceError{Op: "load", Key: p.key, Err: err})
		}
		return api.Snapshot{}, false
	}
	return snap, true
}

// save writes the current snapshot now, superseding any pending debounced
// save. Failures are retried per the retry policy, then reported.
func (p *persister) save(ctx context.Context) {
	p.cancelPending()

	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	if p.isSealed() {
		return
	}

	snap := p.capture()
	err := withRetry(ctx, p.retry, func(ctx context.Context) error {
		return p.store.Save(ctx, p.key, snap)
	})
	if err != nil {
		p.report(ctx, &api.PersistenceError{Op: "save", Key: p.key, Err: err})
	}
}

// schedule arranges for a save once edits have been quiet for the debounce
// interval.
func (p *persister) schedule() {
	if p.debounce < 0 {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.sealed {
		return
	}
	p.pending = true
	if p.timer == nil {
		p.timer = time.AfterFunc(p.debounce, p.flushPending)
		return
	}
	p.timer.Reset(p.debounce)
}

func (p *persister) flushPending() {
	p.mu.Lock()
	if !p.pending || p.sealed {
		p.mu.Unlock()
		return
	}
	p.pending = false
	p.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	p.save(ctx)
}

// flush runs a pending debounced save immediately.
func (p *persister) flush(ctx context.Context) {
	p.mu.Lock()
	pending := p.pending && !p.sealed
	p.mu.Unlock()

	if pending {
		p.save(ctx)
	}
}

func (p *persister) cancelPending() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.pending = false
	if p.timer != nil {
		p.timer.Stop()
	}
}

// clear removes the persisted snapshot. With seal set, no later save will
// ever write for this wizard again.
func (p *persister) clear(ctx context.Context, seal bool) {
	p.mu.Lock()
	p.pending = false
	if p.timer != nil {
		p.timer.Stop()
	}
	if seal {
		p.sealed = true
	}
	p.mu.Unlock()

	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	err := withRetry(ctx, p.retry, func(ctx context.Context) error {
		return p.store.Clear(ctx, p.key)
	})
	if err != nil {
		p.report(ctx, &api.PersistenceError{Op: "clear", Key: p.key, Err: err})
	}
}

func (p *persister) isSealed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sealed
}

// withRetry runs op until it succeeds or the policy's attempts are used up.
// Backoff starts at InitialBackoff and grows by BackoffMultiplier (2.0 when
// unset), capped at MaxBackoff.
func withRetry(ctx context.Context, policy api.RetryPolicy, op func(context.Context) error) error {
	maxAttempts := 1
	if policy.MaxAttempts > 0 {
		maxAttempts = policy.MaxAttempts
	}
	backoff := policy.InitialBackoff
	multiplier := policy.BackoffMultiplier
	if multiplier <= 0 {
		multiplier = 2.0
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return err
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt == maxAttempts {
			break
		}

		if backoff > 0 {
			delay := backoff
			if policy.MaxBackoff > 0 && delay > policy.MaxBackoff {
				delay = policy.MaxBackoff
			}

			select {
			case <-ctx.Done():
				return lastErr
			case <-time.After(delay):
			}

			next := time.Duration(float64(backoff) * multiplier)
			if policy.MaxBackoff > 0 && next > policy.MaxBackoff {
				next = policy.MaxBackoff
			}
			backoff = next
		}
	}

	return lastErr
}

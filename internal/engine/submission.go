package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/petrijr/stepform/pkg/api"
)

// SubmitForm runs the last step's validator, then hands the full FormState
// to the completion callback.
//
// It has no effect unless the cursor is on the last step. On callback
// success the wizard becomes StatusSuccess, the persisted snapshot is
// cleared and the FormState returns to its defaults. On callback failure
// the wizard becomes StatusError and the FormState and cursor are left
// exactly as they were, so the user can retry.
func (w *wizard) SubmitForm(ctx context.Context) error {
	if err := w.begin(ctx, "submit"); err != nil {
		return err
	}
	defer w.end()

	w.mu.RLock()
	cursor := w.cursor
	status := w.status
	state := w.state.Clone()
	w.mu.RUnlock()

	if status == api.StatusSuccess {
		return api.ErrAlreadySubmitted
	}
	if cursor != w.steps.LastIndex() {
		return api.ErrNotOnLastStep
	}

	if err := w.gate(ctx, cursor, state); err != nil {
		return err
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return api.ErrClosed
	}
	if !w.status.CanTransition(api.StatusSubmitting) {
		current := w.status
		w.mu.Unlock()
		return fmt.Errorf("cannot submit in status %s", current)
	}
	w.status = api.StatusSubmitting
	info := w.infoLocked()
	w.mu.Unlock()

	w.observer.OnSubmissionStarted(ctx, info)
	w.appendEvent(ctx, api.EventSubmissionStarted, cursor, "")

	start := time.Now()
	cbErr := invokeComplete(ctx, w.onComplete, state)
	duration := time.Since(start)

	if cbErr != nil {
		subErr := &api.SubmissionError{Err: cbErr}

		w.mu.Lock()
		if w.closed {
			w.mu.Unlock()
			return api.ErrClosed
		}
		w.status = api.StatusError
		w.lastSubmitErr = subErr
		info = w.infoLocked()
		w.mu.Unlock()

		w.observer.OnSubmissionCompleted(ctx, info, subErr, duration)
		w.appendEvent(ctx, api.EventSubmissionFailed, cursor, cbErr.Error())
		return subErr
	}

	// The data was accepted; never let a resume submit it twice, even if
	// the wizard was closed in the meantime.
	if w.persist != nil {
		w.persist.clear(ctx, true)
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return api.ErrClosed
	}
	w.status = api.StatusSuccess
	w.lastSubmitErr = nil
	w.state = w.defaults.Clone()
	w.fieldErrors = api.FieldErrors{}
	info = w.infoLocked()
	w.mu.Unlock()

	w.observer.OnSubmissionCompleted(ctx, info, nil, duration)
	w.appendEvent(ctx, api.EventSubmissionSucceeded, cursor, "")
	return nil
}

func invokeComplete(ctx context.Context, fn api.CompleteFunc, state api.FormState) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("completion callback panicked: %v", r)
		}
	}()
	return fn(ctx, state)
}

package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/petrijr/stepform/pkg/api"
)

// NextStep runs the current step's validator against the full FormState
// and, if it passes, advances the cursor by one and persists a snapshot.
// On failure the cursor is unchanged, field errors are populated and a
// *api.ValidationError is returned.
func (w *wizard) NextStep(ctx context.Context) error {
	if err := w.begin(ctx, "next"); err != nil {
		return err
	}
	defer w.end()

	w.mu.RLock()
	from := w.cursor
	status := w.status
	state := w.state.Clone()
	w.mu.RUnlock()

	if status == api.StatusSuccess {
		return api.ErrAlreadySubmitted
	}
	if from == w.steps.LastIndex() {
		return api.ErrAtLastStep
	}

	if err := w.gate(ctx, from, state); err != nil {
		return err
	}

	to := from + 1

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return api.ErrClosed
	}
	w.cursor = to
	w.furthest = max(w.furthest, to)
	w.fieldErrors = api.FieldErrors{}
	info := w.infoLocked()
	w.mu.Unlock()

	w.afterMove(ctx, info, from, to, api.EventStepAdvanced)
	return nil
}

// PrevStep moves back one step. It never validates and never touches the
// FormState. It reports false when the cursor did not move: on the first
// step, while another transition is in flight, after a successful
// submission or after Close.
func (w *wizard) PrevStep(ctx context.Context) bool {
	if err := w.begin(ctx, "prev"); err != nil {
		return false
	}
	defer w.end()

	w.mu.Lock()
	if w.status == api.StatusSuccess || w.cursor == 0 {
		w.mu.Unlock()
		return false
	}
	from := w.cursor
	w.cursor--
	w.fieldErrors = api.FieldErrors{}
	info := w.infoLocked()
	w.mu.Unlock()

	w.afterMove(ctx, info, from, info.Cursor, api.EventStepRetreated)
	return true
}

// GoToStep jumps directly to index. Only steps at or before the furthest
// step reached through validated transitions are allowed, so forward
// progress still requires validation.
func (w *wizard) GoToStep(ctx context.Context, index int) error {
	if !w.steps.InRange(index) {
		return api.NewConfigurationError(api.ErrStepOutOfRange, "index %d with %d steps", index, w.steps.Len())
	}
	if err := w.begin(ctx, "goto"); err != nil {
		return err
	}
	defer w.end()

	w.mu.Lock()
	if w.status == api.StatusSuccess {
		w.mu.Unlock()
		return api.ErrAlreadySubmitted
	}
	if index > w.furthest {
		furthest := w.furthest
		w.mu.Unlock()
		return fmt.Errorf("%w: index %d, furthest reached %d", api.ErrStepNotReached, index, furthest)
	}
	from := w.cursor
	if from == index {
		w.mu.Unlock()
		return nil
	}
	w.cursor = index
	w.fieldErrors = api.FieldErrors{}
	info := w.infoLocked()
	w.mu.Unlock()

	w.afterMove(ctx, info, from, index, api.EventStepJumped)
	return nil
}

// gate validates the step at index and applies the outcome to the field
// errors. The result is discarded if the wizard was closed meanwhile.
func (w *wizard) gate(ctx context.Context, index int, state api.FormState) error {
	step := w.steps.At(index)

	err := runGate(ctx, index, step, state)
	if err == nil {
		return nil
	}

	verr, ok := err.(*api.ValidationError)
	if !ok {
		// Context ended while the validator was running.
		return err
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return api.ErrClosed
	}
	w.fieldErrors = verr.Fields.Clone()
	info := w.infoLocked()
	w.mu.Unlock()

	w.logger.DebugContext(ctx, "step_rejected",
		slog.String("wizard_id", w.id),
		slog.String("step", step.ID),
		slog.Int("step_index", index),
	)
	w.observer.OnValidationFailed(ctx, info, verr)
	w.appendEvent(ctx, api.EventStepRejected, index, verr.Error())
	return verr
}

func (w *wizard) afterMove(ctx context.Context, info api.WizardInfo, from, to int, typ api.EventType) {
	if w.persist != nil {
		w.persist.save(ctx)
	}
	w.observer.OnStepChanged(ctx, info, from, to)
	w.appendEvent(ctx, typ, to, "")
}

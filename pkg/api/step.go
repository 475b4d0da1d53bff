package api

import (
	"context"
	"time"
)

// SubmissionStatus represents the lifecycle state of a wizard's final
// submission.
type SubmissionStatus string

const (
	StatusIdle       SubmissionStatus = "idle"
	StatusSubmitting SubmissionStatus = "submitting"
	StatusSuccess    SubmissionStatus = "success"
	StatusError      SubmissionStatus = "error"
)

// CanTransition reports whether the submission state machine allows
// moving from s to next.
//
//	idle       -> submitting
//	submitting -> success | error
//	error      -> submitting (retry)
//
// success is terminal.
func (s SubmissionStatus) CanTransition(next SubmissionStatus) bool {
	switch s {
	case StatusIdle, StatusError:
		return next == StatusSubmitting
	case StatusSubmitting:
		return next == StatusSuccess || next == StatusError
	default:
		return false
	}
}

// Validator is a step's asynchronous gate. It receives a copy of the
// entire FormState, not just the fields the step declares, because a
// step's rules may depend on data entered elsewhere.
//
// Semantics:
//   - (true, nil) lets the transition proceed.
//   - (false, nil) blocks it.
//   - a non-nil error blocks it as a rejection. If the error is or wraps
//     FieldErrors, its messages are surfaced as the wizard's field errors.
//
// Validators must be read-only and idempotent; they may be invoked more
// than once for the same data.
type Validator func(ctx context.Context, state FormState) (bool, error)

// CompleteFunc is invoked with the full FormState once the last step has
// been validated. It typically performs the network call that stores the
// result. Returning an error moves the wizard into StatusError.
type CompleteFunc func(ctx context.Context, state FormState) error

// StepDefinition describes one page of a wizard.
type StepDefinition struct {
	ID          string
	Title       string
	Description string

	// FieldKeys lists the fields rendered on this step. Field errors for
	// a validator that blocks without naming fields are attributed here.
	FieldKeys []string

	// Validate is optional. A nil validator always passes.
	Validate Validator

	// Component is an opaque reference to the rendering target for this
	// step. The engine never inspects it.
	Component any
}

// HasField reports whether key is one of the step's declared fields.
func (d StepDefinition) HasField(key string) bool {
	for _, k := range d.FieldKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Snapshot is the durable image of a wizard in progress.
type Snapshot struct {
	StorageKey  string
	FormState   FormState
	CursorIndex int

	// FurthestIndex is the highest step index the wizard has reached
	// through validated forward transitions.
	FurthestIndex int

	SavedAt time.Time
}

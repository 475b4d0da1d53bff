package api

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfiguration is matched by every *ConfigurationError.
	ErrInvalidConfiguration = errors.New("invalid wizard configuration")

	ErrNoSteps           = errors.New("wizard must have at least one step")
	ErrEmptyStepID       = errors.New("step id is required")
	ErrDuplicateStepID   = errors.New("duplicate step id")
	ErrMissingStorageKey = errors.New("storage key is required when persistence is enabled")
	ErrMissingStore      = errors.New("snapshot store is required when persistence is enabled")
	ErrMissingOnComplete = errors.New("completion callback is required")
	ErrStepOutOfRange    = errors.New("step index out of range")

	// ErrValidationFailed is matched by every *ValidationError.
	ErrValidationFailed = errors.New("step validation failed")

	// ErrStepInvalid blocks a step without naming fields. A validator
	// error wrapping it has every step field that carries no message of
	// its own marked invalid.
	ErrStepInvalid = errors.New("step is invalid")

	// ErrSubmissionFailed is matched by every *SubmissionError.
	ErrSubmissionFailed = errors.New("submission failed")

	ErrAtLastStep         = errors.New("already on the last step")
	ErrNotOnLastStep      = errors.New("submission is only allowed on the last step")
	ErrStepNotReached     = errors.New("step has not been reached yet")
	ErrTransitionInFlight = errors.New("another transition is in flight")
	ErrAlreadySubmitted   = errors.New("wizard has already been submitted")
	ErrClosed             = errors.New("wizard is closed")
)

// ConfigurationError reports an invalid setup. It is fatal for the call
// that produced it.
type ConfigurationError struct {
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Reason == "" {
		return "configuration: " + e.Err.Error()
	}
	return fmt.Sprintf("configuration: %v (%s)", e.Err, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrInvalidConfiguration
}

// NewConfigurationError wraps err as a *ConfigurationError.
func NewConfigurationError(err error, format string, args ...any) error {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...), Err: err}
}

// ValidationError reports that a step's validator blocked a transition.
// It is recoverable: the user corrects the input and tries again.
type ValidationError struct {
	StepID    string
	StepIndex int
	Fields    FieldErrors

	// Err is the validator's rejection, or nil when it simply returned false.
	Err error
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("step %q (index %d) failed validation", e.StepID, e.StepIndex)
	if len(e.Fields) > 0 {
		msg += ": " + e.Fields.Error()
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ValidationError) Unwrap() error { return e.Err }

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

// SubmissionError reports that the completion callback failed. The wizard's
// FormState and cursor are left exactly as they were before the attempt.
type SubmissionError struct {
	Err error
}

func (e *SubmissionError) Error() string {
	return "submission failed: " + e.Err.Error()
}

func (e *SubmissionError) Unwrap() error { return e.Err }

func (e *SubmissionError) Is(target error) bool {
	return target == ErrSubmissionFailed
}

// PersistenceError reports a failed snapshot store operation. The engine
// never returns it from a navigation call; it is logged and handed to the
// Observer while the wizard continues in memory.
type PersistenceError struct {
	Op  string
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

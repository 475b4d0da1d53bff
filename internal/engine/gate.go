package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/petrijr/stepform/pkg/api"
)

const invalidFieldMessage = "invalid value"

// runGate executes the validator of the step at index against a copy of
// the full FormState. It returns nil when the transition may proceed, the
// context error when ctx ended while validating, and a *api.ValidationError
// otherwise.
func runGate(ctx context.Context, index int, step api.StepDefinition, state api.FormState) error {
	if step.Validate == nil {
		return nil
	}

	ok, err := invokeValidator(ctx, step.Validate, state)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err == nil && ok {
		return nil
	}

	verr := &api.ValidationError{
		StepID:    step.ID,
		StepIndex: index,
		Err:       err,
	}

	verr.Fields = api.FieldErrors{}
	var fields api.FieldErrors
	if errors.As(err, &fields) {
		verr.Fields = fields.Clone()
	}

	// A bare false names no fields; attribute it to the step's own.
	if err == nil || errors.Is(err, api.ErrStepInvalid) {
		for _, k := range step.FieldKeys {
			if _, named := verr.Fields[k]; !named {
				verr.Fields[k] = invalidFieldMessage
			}
		}
	}

	return verr
}

func invokeValidator(ctx context.Context, fn api.Validator, state api.FormState) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			err = fmt.Errorf("validator panicked: %v", r)
		}
	}()
	return fn(ctx, state.Clone())
}

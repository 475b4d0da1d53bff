package stepform

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"
)

// Ready-made validators. Each reports field-level messages through
// FieldErrors so the wizard can show them next to the offending input.
// They pass when the field is absent or empty, except Required; combine
// with Required when a value must be present.

// Required fails for every listed key whose value is missing, nil, or a
// blank string.
func Required(keys ...string) Validator {
	return func(ctx context.Context, state FormState) (bool, error) {
		errs := FieldErrors{}
		for _, k := range keys {
			v, ok := state[k]
			if !ok || v == nil {
				errs[k] = "is required"
				continue
			}
			if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
				errs[k] = "is required"
			}
		}
		return result(errs)
	}
}

// MinLength requires the string form of key to have at least n characters.
func MinLength(key string, n int) Validator {
	return func(ctx context.Context, state FormState) (bool, error) {
		s := state.String(key)
		if s == "" {
			return true, nil
		}
		if utf8.RuneCountInString(s) < n {
			return result(FieldErrors{key: fmt.Sprintf("must be at least %d characters", n)})
		}
		return true, nil
	}
}

// MaxLength requires the string form of key to have at most n characters.
func MaxLength(key string, n int) Validator {
	return func(ctx context.Context, state FormState) (bool, error) {
		if utf8.RuneCountInString(state.String(key)) > n {
			return result(FieldErrors{key: fmt.Sprintf("must be at most %d characters", n)})
		}
		return true, nil
	}
}

// Matches requires the string form of key to match pattern. It panics if
// pattern does not compile.
func Matches(key, pattern string) Validator {
	re := regexp.MustCompile(pattern)
	return func(ctx context.Context, state FormState) (bool, error) {
		s := state.String(key)
		if s == "" || re.MatchString(s) {
			return true, nil
		}
		return result(FieldErrors{key: "has an invalid format"})
	}
}

// OneOf requires the string form of key to be one of allowed.
func OneOf(key string, allowed ...string) Validator {
	return func(ctx context.Context, state FormState) (bool, error) {
		s := state.String(key)
		if s == "" || slices.Contains(allowed, s) {
			return true, nil
		}
		return result(FieldErrors{key: "must be one of " + strings.Join(allowed, ", ")})
	}
}

// Predicate adapts a synchronous check on the whole state. msg is attached
// to key when fn returns false.
func Predicate(key, msg string, fn func(FormState) bool) Validator {
	return func(ctx context.Context, state FormState) (bool, error) {
		if fn(state) {
			return true, nil
		}
		return result(FieldErrors{key: msg})
	}
}

// All runs every validator and merges their field errors. The first
// message reported for a field wins. A non-FieldErrors error stops
// evaluation and is returned as is. When a validator blocks with a bare
// false next to others that named fields, the merged errors are joined
// with ErrStepInvalid so the step's unnamed fields are still marked.
func All(validators ...Validator) Validator {
	return func(ctx context.Context, state FormState) (bool, error) {
		merged := FieldErrors{}
		passed := true
		unnamed := false
		for _, v := range validators {
			if v == nil {
				continue
			}
			ok, err := v(ctx, state)
			if err != nil {
				var fe FieldErrors
				if !errors.As(err, &fe) {
					return false, err
				}
				for k, msg := range fe {
					if _, seen := merged[k]; !seen {
						merged[k] = msg
					}
				}
				passed = false
				continue
			}
			if !ok {
				passed = false
				unnamed = true
			}
		}
		if len(merged) > 0 && unnamed {
			return false, errors.Join(merged, ErrStepInvalid)
		}
		if len(merged) > 0 {
			return false, merged
		}
		return passed, nil
	}
}

func result(errs FieldErrors) (bool, error) {
	if len(errs) == 0 {
		return true, nil
	}
	return false, errs
}

package stepform

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func runValidator(t *testing.T, v Validator, state FormState) (bool, FieldErrors) {
	t.Helper()

	ok, err := v(context.Background(), state)
	if err == nil {
		return ok, nil
	}
	var fe FieldErrors
	require.ErrorAs(t, err, &fe)
	require.False(t, ok)
	return ok, fe
}

func TestRequired(t *testing.T) {
	v := Required("email", "name", "age")

	ok, fe := runValidator(t, v, FormState{"email": "  ", "name": nil})
	require.False(t, ok)
	require.Equal(t, FieldErrors{"email": "is required", "name": "is required", "age": "is required"}, fe)

	ok, fe = runValidator(t, v, FormState{"email": "a@b.co", "name": "Ada", "age": 0})
	require.True(t, ok)
	require.Nil(t, fe)
}

func TestLengthValidators(t *testing.T) {
	ok, fe := runValidator(t, MinLength("x", 3), FormState{"x": "v1"})
	require.False(t, ok)
	require.Contains(t, fe["x"], "at least 3")

	ok, _ = runValidator(t, MinLength("x", 3), FormState{"x": "äöü"})
	require.True(t, ok, "length counts characters, not bytes")

	ok, _ = runValidator(t, MinLength("x", 3), FormState{})
	require.True(t, ok, "absent fields are left to Required")

	ok, fe = runValidator(t, MaxLength("x", 2), FormState{"x": "abc"})
	require.False(t, ok)
	require.Contains(t, fe["x"], "at most 2")
}

func TestMatches(t *testing.T) {
	v := Matches("email", `^[^@\s]+@[^@\s]+$`)

	ok, fe := runValidator(t, v, FormState{"email": "not-an-email"})
	require.False(t, ok)
	require.Equal(t, FieldErrors{"email": "has an invalid format"}, fe)

	ok, _ = runValidator(t, v, FormState{"email": "a@b.co"})
	require.True(t, ok)

	require.Panics(t, func() { Matches("x", "(") })
}

func TestOneOf(t *testing.T) {
	v := OneOf("plan", "free", "pro")

	ok, _ := runValidator(t, v, FormState{"plan": "pro"})
	require.True(t, ok)

	ok, fe := runValidator(t, v, FormState{"plan": "enterprise"})
	require.False(t, ok)
	require.Equal(t, "must be one of free, pro", fe["plan"])
}

func TestPredicate(t *testing.T) {
	v := Predicate("confirm", "must match password", func(s FormState) bool {
		return s.String("password") == s.String("confirm")
	})

	ok, fe := runValidator(t, v, FormState{"password": "a", "confirm": "b"})
	require.False(t, ok)
	require.Equal(t, FieldErrors{"confirm": "must match password"}, fe)
}

func TestAll_MergesFieldErrors(t *testing.T) {
	v := All(
		Required("email", "name"),
		MinLength("name", 10),
		nil,
		MinLength("email", 10),
	)

	ok, fe := runValidator(t, v, FormState{"email": "", "name": "short"})
	require.False(t, ok)
	// First message per field wins.
	require.Equal(t, FieldErrors{"email": "is required", "name": "must be at least 10 characters"}, fe)
}

func TestAll_PlainFalseNextToFieldErrors(t *testing.T) {
	no := func(ctx context.Context, s FormState) (bool, error) { return false, nil }

	ok, err := All(no, Required("email"))(context.Background(), FormState{})
	require.False(t, ok)
	require.ErrorIs(t, err, ErrStepInvalid)

	var fe FieldErrors
	require.ErrorAs(t, err, &fe)
	require.Equal(t, FieldErrors{"email": "is required"}, fe)

	// Named failures alone stay plain FieldErrors.
	_, err = All(Required("email"))(context.Background(), FormState{})
	require.NotErrorIs(t, err, ErrStepInvalid)
}

func TestAll_PlainFalseAndErrors(t *testing.T) {
	no := func(ctx context.Context, s FormState) (bool, error) { return false, nil }
	ok, err := All(Required("x"), no)(context.Background(), FormState{"x": "y"})
	require.False(t, ok)
	require.NoError(t, err)

	boom := errors.New("lookup failed")
	failing := func(ctx context.Context, s FormState) (bool, error) { return false, boom }
	_, err = All(failing, Required("x"))(context.Background(), FormState{})
	require.ErrorIs(t, err, boom)

	ok, err = All()(context.Background(), FormState{})
	require.True(t, ok)
	require.NoError(t, err)
}

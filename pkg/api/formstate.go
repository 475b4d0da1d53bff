package api

import (
	"encoding/gob"
	"fmt"
	"maps"
	"reflect"
	"sort"
	"strings"
	"time"
)

func init() {
	gob.Register(FormState{})
	gob.Register(map[string]any{})
	gob.Register([]any{})
	gob.Register([]string{})
	gob.Register(time.Time{})
}

// FormState is the single cumulative data object spanning every step of a
// wizard. It maps field names to values and is never reset per step: fields
// written while a given step was active remain present after navigating
// away from it.
//
// Values should be gob-encodable if the wizard persists its state.
type FormState map[string]any

// Clone returns a shallow copy of the state. Nested maps and slices are
// shared; callers that store mutable containers as values must not mutate
// them in place.
func (s FormState) Clone() FormState {
	if s == nil {
		return FormState{}
	}
	return maps.Clone(s)
}

// Get returns the value for key and whether it was present.
func (s FormState) Get(key string) (any, bool) {
	v, ok := s[key]
	return v, ok
}

// String returns the value for key formatted as a string. Missing keys and
// nil values yield "".
func (s FormState) String(key string) string {
	v, ok := s[key]
	if !ok || v == nil {
		return ""
	}
	if str, ok := v.(string); ok {
		return str
	}
	return fmt.Sprint(v)
}

// Merge returns a new state with the entries of other layered over s.
func (s FormState) Merge(other FormState) FormState {
	out := s.Clone()
	for k, v := range other {
		out[k] = v
	}
	return out
}

// Equal reports whether both states hold deeply equal values for the same
// set of keys.
func (s FormState) Equal(other FormState) bool {
	if len(s) != len(other) {
		return false
	}
	for k, v := range s {
		ov, ok := other[k]
		if !ok || !reflect.DeepEqual(v, ov) {
			return false
		}
	}
	return true
}

// Keys returns the field names in sorted order.
func (s FormState) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FieldErrors maps field names to human-readable validation messages.
// It implements error so validators can return it directly:
//
//	return false, api.FieldErrors{"email": "is required"}
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	if len(fe) == 0 {
		return "no field errors"
	}
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fe[k])
	}
	return strings.Join(parts, "; ")
}

// Clone returns a copy of the field errors.
func (fe FieldErrors) Clone() FieldErrors {
	if fe == nil {
		return FieldErrors{}
	}
	return maps.Clone(fe)
}

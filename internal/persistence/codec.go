package persistence

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"time"

	"github.com/petrijr/stepform/pkg/api"
)

// EncodeFormState serializes a FormState using encoding/gob.
// Callers must ensure that every value is gob-encodable; non-builtin
// concrete types have to be registered with gob.Register.
func EncodeFormState(state api.FormState) ([]byte, error) {
	if state == nil {
		state = api.FormState{}
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(state); err != nil {
		return nil, fmt.Errorf("encode form state: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeFormState is the inverse of EncodeFormState. An empty payload
// decodes to an empty state.
func DecodeFormState(data []byte) (api.FormState, error) {
	state := api.FormState{}
	if len(data) == 0 {
		return state, nil
	}
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&state); err != nil {
		return nil, fmt.Errorf("decode form state: %w", err)
	}
	return state, nil
}

// snapshotPayload is the self-contained encoding used by key-value
// backends that store a snapshot as a single blob.
type snapshotPayload struct {
	StorageKey    string
	FormState     []byte
	CursorIndex   int
	FurthestIndex int
	SavedAtNanos  int64
}

func encodeSnapshot(snap api.Snapshot) ([]byte, error) {
	state, err := EncodeFormState(snap.FormState)
	if err != nil {
		return nil, err
	}

	payload := snapshotPayload{
		StorageKey:    snap.StorageKey,
		FormState:     state,
		CursorIndex:   snap.CursorIndex,
		FurthestIndex: snap.FurthestIndex,
		SavedAtNanos:  timeNanos(snap.SavedAt),
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&payload); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeSnapshot(data []byte) (api.Snapshot, error) {
	if len(data) == 0 {
		return api.Snapshot{}, api.ErrSnapshotNotFound
	}
	var payload snapshotPayload
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&payload); err != nil {
		return api.Snapshot{}, err
	}

	state, err := DecodeFormState(payload.FormState)
	if err != nil {
		return api.Snapshot{}, err
	}

	return api.Snapshot{
		StorageKey:    payload.StorageKey,
		FormState:     state,
		CursorIndex:   payload.CursorIndex,
		FurthestIndex: payload.FurthestIndex,
		SavedAt:       unixNanos(payload.SavedAtNanos),
	}, nil
}

func unixNanos(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

func timeNanos(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/petrijr/stepform/pkg/api"
)

// runSnapshotStoreContract exercises the behavior every SnapshotStore must
// share. Keys are prefixed with t.Name() so backends can be reused across
// subtests.
func runSnapshotStoreContract(t *testing.T, store api.SnapshotStore) {
	t.Helper()

	t.Run("load missing", func(t *testing.T) {
		_, err := store.Load(context.Background(), t.Name()+"/missing")
		require.ErrorIs(t, err, ErrSnapshotNotFound)
	})

	t.Run("save then load", func(t *testing.T) {
		ctx := context.Background()
		key := t.Name() + "/signup"
		savedAt := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)

		err := store.Save(ctx, key, api.Snapshot{
			FormState: api.FormState{
				"email": "a@b.co",
				"age":   42,
				"tags":  []string{"x", "y"},
			},
			CursorIndex:   1,
			FurthestIndex: 2,
			SavedAt:       savedAt,
		})
		require.NoError(t, err)

		snap, err := store.Load(ctx, key)
		require.NoError(t, err)
		require.Equal(t, key, snap.StorageKey)
		require.Equal(t, 1, snap.CursorIndex)
		require.Equal(t, 2, snap.FurthestIndex)
		require.Equal(t, "a@b.co", snap.FormState["email"])
		require.Equal(t, 42, snap.FormState["age"])
		require.Equal(t, []string{"x", "y"}, snap.FormState["tags"])
		require.True(t, savedAt.Equal(snap.SavedAt), "saved at %v, loaded %v", savedAt, snap.SavedAt)
	})

	t.Run("save overwrites", func(t *testing.T) {
		ctx := context.Background()
		key := t.Name() + "/overwrite"

		require.NoError(t, store.Save(ctx, key, api.Snapshot{
			FormState:   api.FormState{"name": "first"},
			CursorIndex: 0,
		}))
		require.NoError(t, store.Save(ctx, key, api.Snapshot{
			FormState:   api.FormState{"name": "second"},
			CursorIndex: 1,
		}))

		snap, err := store.Load(ctx, key)
		require.NoError(t, err)
		require.Equal(t, "second", snap.FormState["name"])
		require.Equal(t, 1, snap.CursorIndex)
	})

	t.Run("clear", func(t *testing.T) {
		ctx := context.Background()
		key := t.Name() + "/clear"

		require.NoError(t, store.Save(ctx, key, api.Snapshot{FormState: api.FormState{"a": "b"}}))
		require.NoError(t, store.Clear(ctx, key))

		_, err := store.Load(ctx, key)
		require.True(t, errors.Is(err, ErrSnapshotNotFound), "expected not found, got %v", err)

		// Clearing an absent key is not an error.
		require.NoError(t, store.Clear(ctx, key))
	})

	t.Run("keys are independent", func(t *testing.T) {
		ctx := context.Background()
		a, b := t.Name()+"/a", t.Name()+"/b"

		require.NoError(t, store.Save(ctx, a, api.Snapshot{FormState: api.FormState{"v": "a"}}))
		require.NoError(t, store.Save(ctx, b, api.Snapshot{FormState: api.FormState{"v": "b"}, CursorIndex: 3}))
		require.NoError(t, store.Clear(ctx, a))

		snap, err := store.Load(ctx, b)
		require.NoError(t, err)
		require.Equal(t, "b", snap.FormState["v"])
		require.Equal(t, 3, snap.CursorIndex)
	})
}

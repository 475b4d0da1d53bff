package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/petrijr/stepform/pkg/api"
)

// RedisSnapshotStore is a SnapshotStore backed by Redis.
// It uses a simple key structure:
//
//	<prefix>snap:<storage key>  => gob-encoded snapshotPayload
//	<prefix>idx:keys            => SET of all storage keys
//
// The index is best-effort; it is updated on Save/Clear and only used by Keys.
type RedisSnapshotStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisSnapshotStore creates a RedisSnapshotStore.
// prefix is optional but recommended (e.g. "stepform:").
// ttl > 0 makes abandoned snapshots expire; it is refreshed on every Save.
func NewRedisSnapshotStore(client *redis.Client, prefix string, ttl time.Duration) *RedisSnapshotStore {
	if prefix == "" {
		prefix = "stepform:"
	}
	return &RedisSnapshotStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *RedisSnapshotStore) keySnapshot(key string) string {
	return s.prefix + "snap:" + key
}

func (s *RedisSnapshotStore) keyIndex() string {
	return s.prefix + "idx:keys"
}

func (s *RedisSnapshotStore) Save(ctx context.Context, key string, snap api.Snapshot) error {
	snap.StorageKey = key
	data, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}

	if err := s.client.Set(ctx, s.keySnapshot(key), data, s.ttl).Err(); err != nil {
		return err
	}

	// Index updates are best-effort; we don't treat failures as fatal.
	_ = s.client.SAdd(ctx, s.keyIndex(), key).Err()
	return nil
}

func (s *RedisSnapshotStore) Load(ctx context.Context, key string) (api.Snapshot, error) {
	data, err := s.client.Get(ctx, s.keySnapshot(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return api.Snapshot{}, ErrSnapshotNotFound
		}
		return api.Snapshot{}, err
	}
	return decodeSnapshot(data)
}

func (s *RedisSnapshotStore) Clear(ctx context.Context, key string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.keySnapshot(key))
	pipe.SRem(ctx, s.keyIndex(), key)
	_, err := pipe.Exec(ctx)
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

// Keys returns the storage keys that still have a live snapshot.
// Index entries whose snapshot expired are pruned.
func (s *RedisSnapshotStore) Keys(ctx context.Context) ([]string, error) {
	keys, err := s.client.SMembers(ctx, s.keyIndex()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []string{}, nil
		}
		return nil, err
	}
	if len(keys) == 0 {
		return []string{}, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.IntCmd, len(keys))
	for i, k := range keys {
		cmds[i] = pipe.Exists(ctx, s.keySnapshot(k))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	live := make([]string, 0, len(keys))
	for i, cmd := range cmds {
		if cmd.Val() > 0 {
			live = append(live, keys[i])
			continue
		}
		_ = s.client.SRem(ctx, s.keyIndex(), keys[i]).Err()
	}
	return live, nil
}

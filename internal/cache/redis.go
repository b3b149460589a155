package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/exile-economy/market-data/internal/model"
)

// RedisStore keeps snapshots in Redis so multiple trackers can share one
// cache. Expiry is delegated to Redis key TTLs.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore wraps an existing Redis client. prefix namespaces the keys;
// a ttl of 0 keeps entries until they are overwritten.
func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "snapshots"
	}
	if ttl < 0 {
		ttl = 0
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) key(key string) string {
	return s.prefix + ":" + normalizeKey(key)
}

func (s *RedisStore) Get(ctx context.Context, key string) (*model.Snapshot, bool) {
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		return nil, false
	}
	var rec snapshotRecord
	if json.Unmarshal(data, &rec) != nil {
		return nil, false
	}
	return decodeSnapshot(rec), true
}

func (s *RedisStore) Set(ctx context.Context, key string, snap *model.Snapshot) error {
	data, err := json.Marshal(encodeSnapshot(snap))
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := s.client.Set(ctx, s.key(key), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %q: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Remove(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("cache remove %q: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Items(ctx context.Context) (map[string]*model.Snapshot, error) {
	items := make(map[string]*model.Snapshot)
	iter := s.client.Scan(ctx, 0, s.prefix+":*", 0).Iterator()
	for iter.Next(ctx) {
		full := iter.Val()
		data, err := s.client.Get(ctx, full).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return nil, fmt.Errorf("cache scan get %q: %w", full, err)
		}
		var rec snapshotRecord
		if json.Unmarshal(data, &rec) != nil {
			continue
		}
		items[full[len(s.prefix)+1:]] = decodeSnapshot(rec)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("cache scan: %w", err)
	}
	return items, nil
}

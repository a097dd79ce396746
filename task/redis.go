// ytparser/task/redis.go
package task

import (
	"context"
	"encoding/json"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"ytparser/config"
)

const redisKeyPrefix = "ytparser:task:"

// pingTimeout bounds the startup liveness probe in NewStore.
const pingTimeout = 3 * time.Second

// RedisStore persists each task as a JSON blob with a TTL that is refreshed
// on every write, so active tasks never expire mid-flight while abandoned
// ones are reclaimed after the TTL window.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (s *RedisStore) key(id string) string { return redisKeyPrefix + id }

func (s *RedisStore) set(ctx context.Context, t *Task) error {
	data, err := json.Marshal(t)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.key(t.ID), data, s.ttl).Err()
}

func (s *RedisStore) Create(ctx context.Context, kind Kind) (*Task, error) {
	t := &Task{
		ID:        shortuuid.New(),
		Kind:      kind,
		Status:    StatusPending,
		Progress:  0.0,
		CreatedAt: time.Now(),
	}
	if err := s.set(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Task, error) {
	data, err := s.rdb.Get(ctx, s.key(id)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var t Task
	if err := json.Unmarshal(data, &t); err != nil {
		// Undecodable records are indistinguishable from absent ones.
		return nil, ErrNotFound
	}
	return &t, nil
}

// Update merges fields via read-modify-write without optimistic locking.
// Concurrent updates to the same id can lose writes; the single-writer-per-
// task contract (only the owning runner updates a task) makes that benign.
func (s *RedisStore) Update(ctx context.Context, id string, u Update) error {
	t, err := s.Get(ctx, id)
	if err == ErrNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	u.apply(t)
	return s.set(ctx, t)
}

// NewStore selects the persistence backend once at startup: if a redis
// address is configured it is constructed and probed with a ping, and any
// failure falls back to the in-memory store. The returned name is for
// logging only.
func NewStore(cfg *config.Config, log *zap.Logger) (Store, string) {
	if cfg.RedisAddr == "" {
		return NewMemoryStore(), "memory"
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("redis unavailable, falling back to in-memory task store",
			zap.String("addr", cfg.RedisAddr), zap.Error(err))
		_ = rdb.Close()
		return NewMemoryStore(), "memory"
	}

	return NewRedisStore(rdb, cfg.TaskTTL), "redis"
}

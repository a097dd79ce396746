// ytparser/task/redis_test.go
package task

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ytparser/config"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisStore(rdb, time.Hour), mr
}

func TestRedisStore_CreateAndGet(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, KindAnalyze)
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	got, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, KindAnalyze, got.Kind)
	assert.Equal(t, StatusPending, got.Status)
	assert.Equal(t, 0.0, got.Progress)
	assert.Nil(t, got.Result)

	_, err = store.Get(ctx, "no-such-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_UpdateMergesFields(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, KindTranslate)
	require.NoError(t, err)

	processing := StatusProcessing
	half := 50.0
	require.NoError(t, store.Update(ctx, created.ID, Update{Status: &processing, Progress: &half}))

	completed := StatusCompleted
	result := &Result{Subtitle: &SubtitleArtifact{OutputName: "out.ass", Format: "ass"}}
	require.NoError(t, store.Update(ctx, created.ID, Update{Status: &completed, Result: result}))

	got, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	// Progress was not part of the second update and must survive the merge.
	assert.Equal(t, 50.0, got.Progress)
	require.NotNil(t, got.Result)
	assert.Equal(t, "out.ass", got.Result.Subtitle.OutputName)
}

func TestRedisStore_UpdateMissingIsNoOp(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	failed := StatusFailed
	require.NoError(t, store.Update(ctx, "no-such-id", Update{Status: &failed}))

	_, err := store.Get(ctx, "no-such-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_UndecodableRecordIsNotFound(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, mr.Set(redisKeyPrefix+"mangled", "{not json"))

	_, err := store.Get(ctx, "mangled")
	assert.ErrorIs(t, err, ErrNotFound)

	// Update must treat the mangled record like an absent one.
	full := 100.0
	assert.NoError(t, store.Update(ctx, "mangled", Update{Progress: &full}))
}

func TestRedisStore_TTLRefreshedOnEveryWrite(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, KindAnalyze)
	require.NoError(t, err)
	key := redisKeyPrefix + created.ID
	assert.Equal(t, time.Hour, mr.TTL(key))

	mr.FastForward(30 * time.Minute)
	assert.Equal(t, 30*time.Minute, mr.TTL(key))

	half := 50.0
	require.NoError(t, store.Update(ctx, created.ID, Update{Progress: &half}))
	assert.Equal(t, time.Hour, mr.TTL(key))
}

func TestNewStore_EmptyAddrUsesMemory(t *testing.T) {
	store, backend := NewStore(&config.Config{}, zap.NewNop())
	assert.Equal(t, "memory", backend)
	assert.IsType(t, &MemoryStore{}, store)
}

func TestNewStore_UnreachableRedisFallsBackToMemory(t *testing.T) {
	cfg := &config.Config{RedisAddr: "127.0.0.1:1", TaskTTL: time.Hour}
	store, backend := NewStore(cfg, zap.NewNop())
	assert.Equal(t, "memory", backend)
	assert.IsType(t, &MemoryStore{}, store)
}

func TestNewStore_HealthyRedisSelected(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &config.Config{RedisAddr: mr.Addr(), TaskTTL: time.Hour}

	store, backend := NewStore(cfg, zap.NewNop())
	assert.Equal(t, "redis", backend)
	assert.IsType(t, &RedisStore{}, store)

	// The selected backend must actually work against the probed server.
	created, err := store.Create(context.Background(), KindAnalyze)
	require.NoError(t, err)
	got, err := store.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/what-can-i-cook/config"
	apperrors "github.com/gcbaptista/what-can-i-cook/internal/errors"
	"github.com/gcbaptista/what-can-i-cook/model"
	"github.com/gcbaptista/what-can-i-cook/store"
)

// unreachable points at a port nothing listens on.
const unreachable = "127.0.0.1:1"

func TestNewRedisSnapshotCache_Unreachable(t *testing.T) {
	_, err := NewRedisSnapshotCache(config.RedisConfig{Addr: unreachable, Key: "k", TTL: time.Minute})
	require.Error(t, err)
	assert.Contains(t, err.Error(), unreachable)
}

func TestRedisSnapshotCache_ErrorsAreNotCacheMisses(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: unreachable, DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	c := NewRedisSnapshotCacheWithClient(client, "wcic:test", time.Minute)
	defer func() { _ = c.Close() }()

	_, err := c.Get(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperrors.ErrCacheMiss)

	err = c.Set(context.Background(), store.NewSnapshot([]model.Recipe{{ID: "r1"}}, "test"))
	assert.Error(t, err)

	assert.Error(t, c.Set(context.Background(), nil))
}

func newMiniredisCache(t *testing.T, ttl time.Duration) (*RedisSnapshotCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := NewRedisSnapshotCache(config.RedisConfig{Addr: mr.Addr(), Key: "wcic:test", TTL: ttl})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestRedisSnapshotCache_MissThenHit(t *testing.T) {
	c, mr := newMiniredisCache(t, time.Hour)
	ctx := context.Background()

	_, err := c.Get(ctx)
	assert.ErrorIs(t, err, apperrors.ErrCacheMiss)

	snap := store.NewSnapshot([]model.Recipe{
		{
			ID:          "52772",
			Name:        "Teriyaki Chicken Casserole",
			Category:    "Chicken",
			Tags:        []string{"Meat", "Casserole"},
			Ingredients: []model.Ingredient{{Name: "soy sauce", Measure: "3/4 cup"}, {Name: "water", Measure: "1/2 cup"}},
		},
		{
			ID:          "52771",
			Name:        "Spicy Arrabiata Penne",
			Ingredients: []model.Ingredient{{Name: "penne rigate"}, {Name: "olive oil"}},
		},
	}, "mealdb")
	require.NoError(t, c.Set(ctx, snap))
	assert.True(t, mr.Exists("wcic:test"))
	assert.Equal(t, time.Hour, mr.TTL("wcic:test"))

	got, err := c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap.Recipes, got.Recipes)
	assert.Equal(t, "mealdb", got.Source)
	assert.True(t, snap.FetchedAt.Equal(got.FetchedAt))
}

func TestRedisSnapshotCache_Expiry(t *testing.T) {
	c, mr := newMiniredisCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, store.NewSnapshot([]model.Recipe{{ID: "r1"}}, "test")))
	mr.FastForward(2 * time.Minute)

	_, err := c.Get(ctx)
	assert.ErrorIs(t, err, apperrors.ErrCacheMiss)
}

func TestRedisSnapshotCache_Invalidate(t *testing.T) {
	c, _ := newMiniredisCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, store.NewSnapshot([]model.Recipe{{ID: "r1"}}, "test")))
	require.NoError(t, c.Invalidate(ctx))

	_, err := c.Get(ctx)
	assert.ErrorIs(t, err, apperrors.ErrCacheMiss)

	require.NoError(t, c.Invalidate(ctx), "invalidating an empty cache is not an error")
}

func TestRedisSnapshotCache_CorruptValue(t *testing.T) {
	c, mr := newMiniredisCache(t, time.Minute)
	require.NoError(t, mr.Set("wcic:test", "not json"))

	_, err := c.Get(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperrors.ErrCacheMiss)
}

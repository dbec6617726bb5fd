package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/superdoll/tracker-api/internal/config"
	"go.uber.org/zap"
)

type summary struct {
	Name  string `json:"name"`
	Total int    `json:"total"`
}

func TestMemoryStore_SetGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Set(ctx, "k", summary{Name: "Tyre", Total: 4}, time.Minute))

	var got summary
	hit, err := store.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, summary{Name: "Tyre", Total: 4}, got)

	hit, err = store.Get(ctx, "missing", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Set(ctx, "short", 1, 30*time.Second))
	require.NoError(t, store.Set(ctx, "forever", 2, 0))

	now = now.Add(31 * time.Second)

	var v int
	hit, err := store.Get(ctx, "short", &v)
	require.NoError(t, err)
	assert.False(t, hit)

	hit, err = store.Get(ctx, "forever", &v)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStore_Invalidate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	for _, key := range InventoryKeys("Tyre", "Michelin") {
		require.NoError(t, store.Set(ctx, key, "x", time.Minute))
	}
	require.NoError(t, store.Set(ctx, InventoryBrandsKey("Battery"), "y", time.Minute))

	require.NoError(t, store.Invalidate(ctx, InventoryKeys("Tyre", "Michelin")...))
	assert.Equal(t, 1, store.Len())

	require.NoError(t, store.Set(ctx, RegistrationKey("a"), "draft", time.Minute))
	require.NoError(t, store.Set(ctx, RegistrationKey("b"), "draft", time.Minute))
	require.NoError(t, store.InvalidatePrefix(ctx, "registration:"))
	assert.Equal(t, 1, store.Len())
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "inventory:stock:Tyre:any", InventoryStockKey("Tyre", ""))
	assert.Equal(t, "inventory:stock:Tyre:Michelin", InventoryStockKey("Tyre", "Michelin"))
	assert.Equal(t, "inventory:brands:Tyre", InventoryBrandsKey("Tyre"))
	assert.Equal(t, "registration:draft:abc", RegistrationKey("abc"))

	keys := InventoryKeys("Tyre", "Michelin")
	assert.Contains(t, keys, KeyInventoryItems)
	assert.Contains(t, keys, KeyDashboard)
	assert.Contains(t, keys, InventoryStockKey("Tyre", ""))
}

func TestRemember(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	logger := zap.NewNop()
	calls := 0
	load := func() (summary, error) {
		calls++
		return summary{Name: "Oil", Total: calls}, nil
	}

	first, err := Remember(ctx, store, logger, "oil", time.Minute, load)
	require.NoError(t, err)
	second, err := Remember(ctx, store, logger, "oil", time.Minute, load)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)

	require.NoError(t, store.Invalidate(ctx, "oil"))
	third, err := Remember(ctx, store, logger, "oil", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 2, third.Total)
}

func TestRemember_LoadErrorNotCached(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	boom := errors.New("boom")

	_, err := Remember(ctx, store, zap.NewNop(), "k", time.Minute, func() (int, error) {
		return 0, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, store.Len())
}

func TestNewStore_Disabled(t *testing.T) {
	store, err := NewStore(context.Background(), &config.RedisConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)
}

func TestNewStore_Fallback(t *testing.T) {
	cfg := &config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1, AllowFallback: true}
	store, err := NewStore(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)
}

func TestNewStore_NoFallback(t *testing.T) {
	cfg := &config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1, AllowFallback: false}
	store, err := NewStore(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
	assert.Nil(t, store)
}

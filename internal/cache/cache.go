// Package cache is the read-model store: JSON values with a declared TTL and
// explicit invalidation. Redis backs it in production; an in-process map is
// used in tests and when Redis is unavailable.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Store keeps derived read-models
type Store interface {
	// Get decodes the value at key into dest and reports whether it was present
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	// Invalidate removes keys; missing keys are ignored
	Invalidate(ctx context.Context, keys ...string) error
	// InvalidatePrefix removes every key starting with prefix
	InvalidatePrefix(ctx context.Context, prefix string) error
}

// Read-model keys
const (
	KeyInventoryItems = "inventory:items"
	KeyDashboard      = "dashboard:metrics"
	KeyInquiryStats   = "inquiry:stats"

	prefixInventoryBrands = "inventory:brands:"
	prefixInventoryStock  = "inventory:stock:"
	prefixRegistration    = "registration:draft:"
)

// InventoryBrandsKey is the brand summary of one item name
func InventoryBrandsKey(name string) string {
	return prefixInventoryBrands + name
}

// InventoryStockKey is the availability of name for brand, or for all brands
// when brand is empty
func InventoryStockKey(name, brand string) string {
	if brand == "" {
		brand = "any"
	}
	return prefixInventoryStock + name + ":" + brand
}

// InventoryKeys lists every read-model derived from the (name, brand) row
func InventoryKeys(name, brand string) []string {
	return []string{
		KeyInventoryItems,
		KeyDashboard,
		InventoryBrandsKey(name),
		InventoryStockKey(name, brand),
		InventoryStockKey(name, ""),
	}
}

// RegistrationKey is the wizard draft stored under token
func RegistrationKey(token string) string {
	return prefixRegistration + token
}

// Remember returns the cached value at key, or calls load and caches its result.
// Store failures are logged and never fail the read.
func Remember[T any](ctx context.Context, store Store, logger *zap.Logger, key string, ttl time.Duration, load func() (T, error)) (T, error) {
	var cached T
	hit, err := store.Get(ctx, key, &cached)
	if err != nil {
		logger.Warn("read-model cache get failed", zap.String("key", key), zap.Error(err))
	} else if hit {
		return cached, nil
	}

	value, err := load()
	if err != nil {
		return value, err
	}
	if err := store.Set(ctx, key, value, ttl); err != nil {
		logger.Warn("read-model cache set failed", zap.String("key", key), zap.Error(err))
	}
	return value, nil
}

func encode(value interface{}) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cache value: %w", err)
	}
	return data, nil
}

func decode(data []byte, dest interface{}) error {
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to decode cache value: %w", err)
	}
	return nil
}

func hasPrefix(key, prefix string) bool {
	return strings.HasPrefix(key, prefix)
}

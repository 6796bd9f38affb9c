package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores JSON values under a key prefix. Every method is a no-op on a disabled client.
// ⭐ SSOT: 캐시 헬퍼는 여기서만
type Cache struct {
	client *Client
	prefix string
}

// NewCache creates a cache whose keys live under prefix
func NewCache(client *Client, prefix string) *Cache {
	return &Cache{client: client, prefix: prefix}
}

// TTLs by cached value
const (
	TTLSnapshot = 1 * time.Minute  // 장중 시세 스냅샷
	TTLAnalysis = 12 * time.Hour   // AI 분석 결과
	TTLCooldown = 10 * time.Minute // AI 재호출 쿨다운
)

// SnapshotKey keys a market snapshot by trade date and source
func SnapshotKey(tradeDate, source string) string {
	return "snapshot:" + tradeDate + ":" + source
}

// AnalysisKey keys an AI annotation by stock code and input hash
func AnalysisKey(code, dataHash string) string {
	return "llm:analysis:" + code + ":" + dataHash
}

// CooldownKey marks a stock whose annotation failed recently
func CooldownKey(code string) string {
	return "llm:cooldown:" + code
}

func (c *Cache) key(key string) string {
	return c.prefix + ":" + key
}

// Get decodes the cached value into dest and reports whether it was found.
// An undecodable entry is dropped and reported as a miss.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.client.Enabled() {
		return false, nil
	}

	data, err := c.client.Redis().Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		_ = c.Delete(ctx, key)
		return false, fmt.Errorf("cache decode %s: %w", key, err)
	}
	return true, nil
}

// Set stores value as JSON with ttl
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.client.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	return c.client.Redis().Set(ctx, c.key(key), data, ttl).Err()
}

// Delete removes a cached value
func (c *Cache) Delete(ctx context.Context, key string) error {
	if !c.client.Enabled() {
		return nil
	}
	return c.client.Redis().Del(ctx, c.key(key)).Err()
}

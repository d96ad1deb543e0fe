package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

// Cache stores msgpack-encoded values under a key prefix
// ⭐ SSOT: 캐시 헬퍼는 여기서만
// msgpack은 NaN(가격 공백)을 그대로 보존 (JSON은 불가)
type Cache struct {
	client *Client
	prefix string
}

// NewCache creates a new cache helper
func NewCache(client *Client, prefix string) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
	}
}

func (c *Cache) fullKey(key string) string {
	return fmt.Sprintf("%s:cache:%s", c.prefix, key)
}

// Get retrieves a cached value; a missing key is a miss, not an error
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.client.Enabled() {
		return false, nil
	}

	data, err := c.client.Redis().Get(ctx, c.fullKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get failed: %w", err)
	}

	if err := msgpack.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache decode failed: %w", err)
	}
	return true, nil
}

// Set stores a value in cache with TTL
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.client.Enabled() {
		return nil
	}

	data, err := msgpack.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode failed: %w", err)
	}
	return c.client.Redis().Set(ctx, c.fullKey(key), data, ttl).Err()
}

// Delete removes a cached value
func (c *Cache) Delete(ctx context.Context, key string) error {
	if !c.client.Enabled() {
		return nil
	}
	return c.client.Redis().Del(ctx, c.fullKey(key)).Err()
}

// Predefined TTLs
const (
	TTLLong  = 1 * time.Hour  // 종목 리스트
	TTLDaily = 24 * time.Hour // 일별 가격 패널
)

// PricePanelKey identifies an aligned price request.
// Symbol and field order matter: they fix the panel's column order.
func PricePanelKey(symbols []string, start, end time.Time, fields []string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%s",
		strings.Join(symbols, ","),
		start.Format("2006-01-02"),
		end.Format("2006-01-02"),
		strings.Join(fields, ","))
	return "prices:panel:" + hex.EncodeToString(h.Sum(nil))[:32]
}

// SymbolListKey identifies a named symbol list
func SymbolListKey(listName string) string {
	return "symbols:list:" + listName
}

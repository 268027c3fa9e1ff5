package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TTLDaily keeps daily bars until the next refresh window
const TTLDaily = 24 * time.Hour

// schemaVersion is bumped when the cached payload layout changes;
// older entries then miss instead of failing to decode
const schemaVersion = "v1"

// Cache stores JSON payloads under "<namespace>:<schema>:<key>"
// ⭐ SSOT: 캐시 키 규칙은 여기서만
type Cache struct {
	client    *Client
	namespace string
}

// entry wraps a payload with the time it was written
type entry struct {
	StoredAt time.Time       `json:"stored_at"`
	Payload  json.RawMessage `json:"payload"`
}

// NewCache creates a cache in namespace (e.g. "gem")
func NewCache(client *Client, namespace string) *Cache {
	return &Cache{client: client, namespace: namespace}
}

// SeriesKey is the cache key of an instrument's daily series
func SeriesKey(symbol string) string {
	return "series:daily:" + symbol
}

func (c *Cache) key(k string) string {
	return fmt.Sprintf("%s:%s:%s", c.namespace, schemaVersion, k)
}

// Get decodes a cached payload into dest and returns when it was stored.
// A miss, a disabled client or an entry from an older schema report found=false.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (storedAt time.Time, found bool, err error) {
	if !c.client.Enabled() {
		return time.Time{}, false, nil
	}

	data, err := c.client.Redis().Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("cache get %s: %w", key, err)
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return time.Time{}, false, fmt.Errorf("cache decode %s: %w", key, err)
	}
	if err := json.Unmarshal(e.Payload, dest); err != nil {
		return time.Time{}, false, fmt.Errorf("cache decode %s: %w", key, err)
	}

	return e.StoredAt, true, nil
}

// Set stores value for ttl
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.client.Enabled() {
		return nil
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	data, err := json.Marshal(entry{StoredAt: time.Now().UTC(), Payload: payload})
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}

	return c.client.Redis().Set(ctx, c.key(key), data, ttl).Err()
}

// Delete removes the given keys; missing keys are ignored
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if !c.client.Enabled() || len(keys) == 0 {
		return nil
	}

	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}
	return c.client.Redis().Del(ctx, full...).Err()
}

package cache

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto"
)

// MemoryCache keeps entries in process memory, bounded by entry count.
// When full, ristretto's admission policy decides which entries survive.
type MemoryCache struct {
	cache *ristretto.Cache
}

// NewMemoryCache creates an in-memory cache holding up to size entries.
func NewMemoryCache(size int64) (*MemoryCache, error) {
	if size <= 0 {
		size = 1 << 12
	}
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10 * size,
		MaxCost:     size,
		BufferItems: 64,
		// Cost counts entries, not bytes.
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}
	return &MemoryCache{cache: c}, nil
}

func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, ok := c.cache.Get(key)
	if !ok {
		return nil, false, nil
	}
	data, ok := v.([]byte)
	return data, ok, nil
}

// Set stores a copy of data. Writes are buffered by ristretto; Set waits
// for the buffer to drain so a following Get observes the value, unless the
// admission policy rejected it.
func (c *MemoryCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	v := append([]byte(nil), data...)
	if ttl > 0 {
		c.cache.SetWithTTL(key, v, 1, ttl)
	} else {
		c.cache.Set(key, v, 1)
	}
	c.cache.Wait()
	return nil
}

func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.cache.Del(key)
	return nil
}

func (c *MemoryCache) Close() error {
	c.cache.Close()
	return nil
}

var _ Cache = (*MemoryCache)(nil)

package cache

import (
	"context"
	"fmt"

	"github.com/matzehuels/stepflow/pkg/config"
)

// Open builds the backend selected by cfg, wrapped with [Observed].
func Open(ctx context.Context, cfg config.CacheConfig) (Cache, error) {
	var (
		c   Cache
		err error
	)
	switch cfg.Backend {
	case config.CacheNone, "":
		c = NewNullCache()
	case config.CacheFile:
		c, err = NewFileCache(cfg.Dir)
	case config.CacheMemory:
		c, err = NewMemoryCache(cfg.Size)
	case config.CacheRedis:
		c, err = NewRedisCache(ctx, RedisOptions{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s cache: %w", cfg.Backend, err)
	}
	return Observed(c), nil
}

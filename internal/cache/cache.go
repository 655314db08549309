// Package cache holds the backends of the derived link cache.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/tribuna/internal/config"
	"github.com/tribuna/internal/pdflink"
)

const (
	// KeyPrefix namespaces every entry, shared by all backends.
	KeyPrefix = "pdf_thumbnail_"
	// TTL 超过该时长的派生结果在读取时被视为过期并删除。
	TTL = 24 * time.Hour
)

// Key returns the namespaced key for a source URL.
func Key(sourceURL string) string {
	return KeyPrefix + sourceURL
}

func expired(computedAt, now time.Time) bool {
	return computedAt.IsZero() || now.Sub(computedAt) > TTL
}

var (
	_ pdflink.Cache = (*Memory)(nil)
	_ pdflink.Cache = (*Redis)(nil)
	_ pdflink.Cache = Noop{}
)

// New builds the backend named by cfg. A redis backend that cannot be reached
// is reported so callers can fall back.
func New(ctx context.Context, cfg config.CacheConfig) (pdflink.Cache, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemory(cfg.Size), nil
	case "redis":
		redisCache := NewRedis(NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB))
		if err := redisCache.Ping(ctx); err != nil {
			return nil, fmt.Errorf("redis cache unavailable: %w", err)
		}
		return redisCache, nil
	case "none", "noop":
		return Noop{}, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

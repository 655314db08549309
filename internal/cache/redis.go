package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/tribuna/internal/metrics"
	"github.com/tribuna/internal/pdflink"
)

const (
	redisBackend   = "redis"
	redisScanBatch = 100
	redisTimeout   = 2 * time.Second
)

// redisEntry 是写入 Redis 的序列化格式，timestamp 为毫秒级 Unix 时间。
type redisEntry struct {
	Timestamp int64          `json:"timestamp"`
	Data      pdflink.URLSet `json:"data"`
}

// Redis 把派生结果保存在共享的 Redis 实例中，任何后端错误都只记录日志并按未命中处理。
type Redis struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisClient builds a client with the pool settings used across services.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client, now: time.Now}
}

// WithClock overrides the clock used for timestamps and expiry checks.
func (r *Redis) WithClock(now func() time.Time) *Redis {
	if now != nil {
		r.now = now
	}
	return r
}

// Ping verifies the connection.
func (r *Redis) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Get(ctx context.Context, sourceURL string) (pdflink.URLSet, bool) {
	key := Key(sourceURL)

	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Str("key", key).Msg("link cache read failed")
		}
		metrics.CacheMiss(redisBackend)
		return pdflink.URLSet{}, false
	}

	var entry redisEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		log.Debug().Err(err).Str("key", key).Msg("dropping corrupt link cache entry")
		r.remove(ctx, key)
		metrics.CacheMiss(redisBackend)
		return pdflink.URLSet{}, false
	}

	if expired(time.UnixMilli(entry.Timestamp), r.now()) {
		r.remove(ctx, key)
		metrics.CacheMiss(redisBackend)
		return pdflink.URLSet{}, false
	}

	metrics.CacheHit(redisBackend)
	return entry.Data, true
}

func (r *Redis) Put(ctx context.Context, sourceURL string, set pdflink.URLSet) {
	stamp := set.ComputedAt
	if stamp.IsZero() {
		stamp = r.now()
	}
	payload, err := json.Marshal(redisEntry{Timestamp: stamp.UnixMilli(), Data: set})
	if err != nil {
		log.Warn().Err(err).Msg("link cache encode failed")
		return
	}
	// Redis 自身的过期时间只是兜底，真正的过期判断在 Get 中完成。
	if err := r.client.Set(ctx, Key(sourceURL), payload, TTL).Err(); err != nil {
		log.Warn().Err(err).Str("source", sourceURL).Msg("link cache write failed")
	}
}

// Clear removes every key under the cache prefix.
func (r *Redis) Clear(ctx context.Context) {
	var cursor uint64
	removed := 0
	for {
		keys, next, err := r.client.Scan(ctx, cursor, KeyPrefix+"*", redisScanBatch).Result()
		if err != nil {
			log.Warn().Err(err).Msg("link cache scan failed")
			return
		}
		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				log.Warn().Err(err).Msg("link cache clear failed")
				return
			}
			removed += len(keys)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	log.Info().Int("removed", removed).Msg("link cache cleared")
}

func (r *Redis) remove(ctx context.Context, key string) {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		log.Debug().Err(err).Str("key", key).Msg("link cache delete failed")
	}
}

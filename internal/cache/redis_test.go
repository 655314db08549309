package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/tribuna/internal/config"
	"github.com/tribuna/internal/pdflink"
)

func newTestRedis(t *testing.T, now time.Time) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	client := NewRedisClient(server.Addr(), "", 0)
	t.Cleanup(func() { client.Close() })
	return NewRedis(client).WithClock(func() time.Time { return now }), server
}

func TestRedisRoundTrip(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	rc, server := newTestRedis(t, now)

	set := sampleSet(now)
	rc.Put(ctx, set.SourceURL, set)

	if !server.Exists(KeyPrefix + set.SourceURL) {
		t.Fatal("expected entry under prefixed key")
	}

	got, ok := rc.Get(ctx, set.SourceURL)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if !got.SameURLs(set) || got.SourceURL != set.SourceURL {
		t.Fatalf("unexpected cached value: %+v", got)
	}
}

func TestRedisCorruptEntryIsDropped(t *testing.T) {
	ctx := context.Background()
	rc, server := newTestRedis(t, time.Now())

	key := KeyPrefix + "https://drive.google.com/file/d/broken/view"
	if err := server.Set(key, "{not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, ok := rc.Get(ctx, "https://drive.google.com/file/d/broken/view"); ok {
		t.Fatal("expected corrupt entry to miss")
	}
	if server.Exists(key) {
		t.Fatal("expected corrupt entry to be removed")
	}
}

func TestRedisStaleEntryIsDropped(t *testing.T) {
	ctx := context.Background()
	computed := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	rc, server := newTestRedis(t, computed.Add(25*time.Hour))

	set := sampleSet(computed)
	rc.Put(ctx, set.SourceURL, set)

	if _, ok := rc.Get(ctx, set.SourceURL); ok {
		t.Fatal("expected stale entry to miss")
	}
	if server.Exists(KeyPrefix + set.SourceURL) {
		t.Fatal("expected stale entry to be removed")
	}
}

func TestRedisClearOnlyTouchesPrefix(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	rc, server := newTestRedis(t, now)

	for _, src := range []string{"a", "b", "c"} {
		rc.Put(ctx, src, sampleSet(now))
	}
	if err := server.Set("session:other", "keep"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	rc.Clear(ctx)

	for _, src := range []string{"a", "b", "c"} {
		if server.Exists(KeyPrefix + src) {
			t.Fatalf("expected %s to be cleared", src)
		}
	}
	if !server.Exists("session:other") {
		t.Fatal("expected keys outside the prefix to survive")
	}
}

func TestRedisUnavailableBehavesAsEmpty(t *testing.T) {
	ctx := context.Background()
	rc, server := newTestRedis(t, time.Now())
	server.Close()

	set := sampleSet(time.Now())
	rc.Put(ctx, set.SourceURL, set)
	if _, ok := rc.Get(ctx, set.SourceURL); ok {
		t.Fatal("expected miss when redis is down")
	}
	rc.Clear(ctx)
}

func TestNewRedisBackend(t *testing.T) {
	server := miniredis.RunT(t)

	c, err := New(context.Background(), config.CacheConfig{Backend: "redis", RedisAddr: server.Addr()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := c.(*Redis); !ok {
		t.Fatalf("expected redis backend, got %T", c)
	}
}

func TestUnstampedSetsRoundTrip(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	rc, _ := newTestRedis(t, now)

	backends := map[string]pdflink.Cache{
		"memory": NewMemory(4).WithClock(func() time.Time { return now }),
		"redis":  rc,
	}

	for name, backend := range backends {
		t.Run(name, func(t *testing.T) {
			set := pdflink.Derive("1AbCdEfGhIjKlMnOpQr")
			backend.Put(ctx, "u", set)

			got, ok := backend.Get(ctx, "u")
			if !ok {
				t.Fatal("expected hit right after put")
			}
			if !got.SameURLs(set) {
				t.Fatalf("unexpected cached value: %+v", got)
			}
		})
	}
}

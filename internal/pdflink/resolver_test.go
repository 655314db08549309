package pdflink

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type mapCache struct {
	entries map[string]URLSet
	gets    int
	puts    int
	cleared bool
}

func newMapCache() *mapCache {
	return &mapCache{entries: map[string]URLSet{}}
}

func (c *mapCache) Get(_ context.Context, key string) (URLSet, bool) {
	c.gets++
	set, ok := c.entries[key]
	return set, ok
}

func (c *mapCache) Put(_ context.Context, key string, set URLSet) {
	c.puts++
	c.entries[key] = set
}

func (c *mapCache) Clear(context.Context) {
	c.cleared = true
	c.entries = map[string]URLSet{}
}

func TestResolverCachesValidLinks(t *testing.T) {
	ctx := context.Background()
	cache := newMapCache()
	fixed := time.Date(2024, 3, 20, 10, 0, 0, 0, time.UTC)
	resolver := NewResolver(cache).WithClock(func() time.Time { return fixed })

	link := "https://drive.google.com/file/d/1AbCdEfGhIjKlMnOpQr/view?usp=sharing"
	first := resolver.Resolve(ctx, link)
	if !first.Valid {
		t.Fatalf("expected valid resolution, got %+v", first)
	}
	if first.URLs.SourceURL != link || !first.URLs.ComputedAt.Equal(fixed) {
		t.Fatalf("expected source and timestamp to be stamped, got %+v", first.URLs)
	}
	if cache.puts != 1 {
		t.Fatalf("expected one cache write, got %d", cache.puts)
	}

	second := resolver.Resolve(ctx, link)
	if cache.puts != 1 {
		t.Fatalf("expected cache hit to skip writes, got %d puts", cache.puts)
	}
	if !second.URLs.SameURLs(first.URLs) || second.FileID != first.FileID {
		t.Fatalf("cached resolution differs: %+v vs %+v", second, first)
	}
}

func TestResolverOutputMatchesWithoutCache(t *testing.T) {
	ctx := context.Background()
	link := "https://drive.google.com/open?id=1AbCdEfGhIjKlMnOpQr"

	cached := NewResolver(newMapCache())
	uncached := NewResolver(nil)

	cached.Resolve(ctx, link)
	withCache := cached.Resolve(ctx, link)
	withoutCache := uncached.Resolve(ctx, link)

	if !withCache.URLs.SameURLs(withoutCache.URLs) {
		t.Fatalf("cache changed observable output: %+v vs %+v", withCache.URLs, withoutCache.URLs)
	}
}

func TestResolverDoesNotCacheInvalidLinks(t *testing.T) {
	cache := newMapCache()
	resolver := NewResolver(cache)

	resolution := resolver.Resolve(context.Background(), "https://example.com/foo.pdf")
	if resolution.Valid {
		t.Fatalf("expected invalid resolution")
	}
	if resolution.Error != MsgHostNotDrive {
		t.Fatalf("unexpected error %q", resolution.Error)
	}
	if cache.puts != 0 {
		t.Fatalf("invalid links must not be cached")
	}
}

func TestNormalizeAndClear(t *testing.T) {
	ctx := context.Background()
	cache := newMapCache()
	resolver := NewResolver(cache)

	preview, classification := resolver.Normalize(ctx, "https://drive.google.com/file/d/1AbCdEfGhIjKlMnOpQr/view")
	if !classification.Valid {
		t.Fatalf("expected valid classification, got %+v", classification)
	}
	if preview != "https://drive.google.com/file/d/1AbCdEfGhIjKlMnOpQr/preview" {
		t.Fatalf("unexpected preview %q", preview)
	}

	resolver.ClearCache(ctx)
	if !cache.cleared || len(cache.entries) != 0 {
		t.Fatal("expected cache to be cleared")
	}
}

func TestProbe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("expected HEAD request, got %s", r.Method)
		}
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	prober := NewProber(server.Client())
	if !prober.Probe(context.Background(), server.URL+"/ok") {
		t.Fatal("expected reachable link")
	}
	if prober.Probe(context.Background(), server.URL+"/missing") {
		t.Fatal("expected 404 to fail the probe")
	}
	if prober.Probe(context.Background(), "://bad") {
		t.Fatal("expected malformed url to fail the probe")
	}
}

package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"
	"github.com/tribuna/internal/metrics"
	"github.com/tribuna/internal/pdflink"
)

const (
	defaultMemorySize = 512
	memoryBackend     = "memory"
)

// Memory 是进程内的有界 LRU 缓存，过期条目在读取时惰性删除。
type Memory struct {
	entries *lru.Cache[string, pdflink.URLSet]
	now     func() time.Time
}

// NewMemory returns an LRU cache holding at most size entries.
func NewMemory(size int) *Memory {
	if size <= 0 {
		size = defaultMemorySize
	}
	entries, err := lru.New[string, pdflink.URLSet](size)
	if err != nil {
		// lru.New only fails on a non-positive size.
		panic(err)
	}
	return &Memory{entries: entries, now: time.Now}
}

// WithClock overrides the clock used for expiry checks.
func (m *Memory) WithClock(now func() time.Time) *Memory {
	if now != nil {
		m.now = now
	}
	return m
}

func (m *Memory) Get(_ context.Context, sourceURL string) (pdflink.URLSet, bool) {
	key := Key(sourceURL)
	set, ok := m.entries.Get(key)
	if !ok {
		metrics.CacheMiss(memoryBackend)
		return pdflink.URLSet{}, false
	}
	if expired(set.ComputedAt, m.now()) {
		m.entries.Remove(key)
		log.Debug().Str("source", sourceURL).Msg("link cache entry expired")
		metrics.CacheMiss(memoryBackend)
		return pdflink.URLSet{}, false
	}
	metrics.CacheHit(memoryBackend)
	return set, true
}

func (m *Memory) Put(_ context.Context, sourceURL string, set pdflink.URLSet) {
	if set.ComputedAt.IsZero() {
		set.ComputedAt = m.now()
	}
	m.entries.Add(Key(sourceURL), set)
}

func (m *Memory) Clear(context.Context) {
	m.entries.Purge()
}

// Len reports the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	return m.entries.Len()
}

package pdflink

import (
	"context"
	"strings"
	"time"
)

// Cache memoizes derivations per source URL. Implementations swallow their
// own failures: a broken backend behaves like an empty cache.
type Cache interface {
	Get(ctx context.Context, sourceURL string) (URLSet, bool)
	Put(ctx context.Context, sourceURL string, set URLSet)
	Clear(ctx context.Context)
}

// Resolution bundles the classification of a link with its derived URLs.
type Resolution struct {
	Classification
	URLs URLSet
}

// Resolver classifies and derives edition links, consulting a cache first.
type Resolver struct {
	cache Cache
	now   func() time.Time
}

// NewResolver returns a resolver backed by cache; a nil cache disables caching.
func NewResolver(cache Cache) *Resolver {
	return &Resolver{cache: cache, now: time.Now}
}

// WithClock overrides the clock used to stamp derivations.
func (r *Resolver) WithClock(now func() time.Time) *Resolver {
	if now != nil {
		r.now = now
	}
	return r
}

// Resolve returns the derivation for raw. Invalid links are never cached.
func (r *Resolver) Resolve(ctx context.Context, raw string) Resolution {
	source := strings.TrimSpace(raw)

	if r.cache != nil && source != "" {
		if cached, ok := r.cache.Get(ctx, source); ok {
			fileID := ExtractFileID(source)
			return Resolution{
				Classification: Classification{Valid: true, FileID: fileID},
				URLs:           cached,
			}
		}
	}

	classification := Classify(source)
	if !classification.Valid {
		return Resolution{Classification: classification}
	}

	set := Derive(classification.FileID)
	set.SourceURL = source
	set.ComputedAt = r.now()

	if r.cache != nil {
		r.cache.Put(ctx, source, set)
	}

	return Resolution{Classification: classification, URLs: set}
}

// Normalize returns the preview URL an external edition is stored under.
func (r *Resolver) Normalize(ctx context.Context, raw string) (string, Classification) {
	resolution := r.Resolve(ctx, raw)
	if !resolution.Valid {
		return "", resolution.Classification
	}
	return resolution.URLs.PreviewURL, resolution.Classification
}

// ClearCache drops every cached derivation.
func (r *Resolver) ClearCache(ctx context.Context) {
	if r.cache != nil {
		r.cache.Clear(ctx)
	}
}

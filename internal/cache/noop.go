package cache

import (
	"context"

	"github.com/tribuna/internal/metrics"
	"github.com/tribuna/internal/pdflink"
)

// Noop never stores anything.
type Noop struct{}

func (Noop) Get(context.Context, string) (pdflink.URLSet, bool) {
	metrics.CacheMiss("none")
	return pdflink.URLSet{}, false
}

func (Noop) Put(context.Context, string, pdflink.URLSet) {}

func (Noop) Clear(context.Context) {}

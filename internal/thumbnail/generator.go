// Package thumbnail renders cover images for uploaded PDF editions.
package thumbnail

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tribuna/internal/metrics"
	"github.com/tribuna/internal/storage"
	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"
)

const (
	defaultMaxWidth    = 800
	defaultConcurrency = 4
	defaultMaxBytes    = 25 << 20
	fetchTimeout       = 30 * time.Second
)

var (
	// ErrEmptyDocument is returned when no PDF bytes were provided.
	ErrEmptyDocument = errors.New("empty pdf document")
	// ErrDocumentTooLarge is returned when a fetched PDF exceeds the limit.
	ErrDocumentTooLarge = errors.New("pdf document too large")
)

// Options tunes a Generator.
type Options struct {
	MaxWidth    int
	Concurrency int
	MaxBytes    int64
	Store       storage.ObjectStore
	HTTPClient  *http.Client
}

// Generator 负责把 PDF 首页渲染为 PNG 封面，可直接输出 data URL。
type Generator struct {
	raster      Rasterizer
	store       storage.ObjectStore
	client      *http.Client
	maxWidth    int
	concurrency int
	maxBytes    int64
}

// NewGenerator wires a rasterizer with optional storage and HTTP access.
func NewGenerator(raster Rasterizer, opts Options) *Generator {
	g := &Generator{
		raster:      raster,
		store:       opts.Store,
		client:      opts.HTTPClient,
		maxWidth:    opts.MaxWidth,
		concurrency: opts.Concurrency,
		maxBytes:    opts.MaxBytes,
	}
	if g.maxWidth <= 0 {
		g.maxWidth = defaultMaxWidth
	}
	if g.concurrency <= 0 {
		g.concurrency = defaultConcurrency
	}
	if g.maxBytes <= 0 {
		g.maxBytes = defaultMaxBytes
	}
	if g.client == nil {
		g.client = &http.Client{Timeout: fetchTimeout}
	}
	return g
}

// RenderPNG rasterizes page 1 of pdf and returns it PNG encoded.
func (g *Generator) RenderPNG(ctx context.Context, pdf []byte) ([]byte, error) {
	if len(pdf) == 0 {
		return nil, ErrEmptyDocument
	}
	img, err := g.raster.FirstPage(ctx, pdf)
	if err != nil {
		metrics.ThumbnailRenders.WithLabelValues(metrics.ResultError).Inc()
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, fitWidth(img, g.maxWidth)); err != nil {
		metrics.ThumbnailRenders.WithLabelValues(metrics.ResultError).Inc()
		return nil, fmt.Errorf("encode cover: %w", err)
	}
	metrics.ThumbnailRenders.WithLabelValues(metrics.ResultOK).Inc()
	return buf.Bytes(), nil
}

// FromBytes returns a data:image/png;base64 URL of the first page.
func (g *Generator) FromBytes(ctx context.Context, pdf []byte) (string, error) {
	encoded, err := g.RenderPNG(ctx, pdf)
	if err != nil {
		return "", err
	}
	return DataURL(encoded), nil
}

// FromURL loads the document from owned storage or over HTTP, then renders it.
func (g *Generator) FromURL(ctx context.Context, pdfURL string) (string, error) {
	data, err := g.load(ctx, pdfURL)
	if err != nil {
		return "", err
	}
	return g.FromBytes(ctx, data)
}

// GenerateAll renders every URL concurrently. Failures are logged and left out
// of the result so one broken document never affects the others.
func (g *Generator) GenerateAll(ctx context.Context, urls []string) map[string]string {
	results := make(map[string]string, len(urls))
	var mu sync.Mutex

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(g.concurrency)

	for _, pdfURL := range urls {
		group.Go(func() error {
			dataURL, err := g.FromURL(groupCtx, pdfURL)
			if err != nil {
				log.Debug().Err(err).Str("url", pdfURL).Msg("cover generation failed")
				return nil
			}
			if groupCtx.Err() != nil {
				return nil
			}
			mu.Lock()
			results[pdfURL] = dataURL
			mu.Unlock()
			return nil
		})
	}
	_ = group.Wait()

	if ctx.Err() != nil {
		return map[string]string{}
	}
	return results
}

func (g *Generator) load(ctx context.Context, pdfURL string) ([]byte, error) {
	if g.store != nil {
		if key, ok := g.store.KeyFromURL(pdfURL); ok {
			rc, err := g.store.Open(ctx, key)
			if err != nil {
				return nil, fmt.Errorf("open %s: %w", key, err)
			}
			defer rc.Close()
			return readLimited(rc, g.maxBytes)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pdfURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch pdf: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch pdf: unexpected status %d", resp.StatusCode)
	}
	return readLimited(resp.Body, g.maxBytes)
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, ErrDocumentTooLarge
	}
	return data, nil
}

// fitWidth downsizes img proportionally when it is wider than maxWidth.
func fitWidth(img image.Image, maxWidth int) image.Image {
	bounds := img.Bounds()
	if bounds.Dx() <= maxWidth {
		return img
	}
	height := bounds.Dy() * maxWidth / bounds.Dx()
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

// DataURL wraps PNG bytes in a data URL.
func DataURL(encodedPNG []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(encodedPNG)
}

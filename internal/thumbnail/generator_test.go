package thumbnail

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/tribuna/internal/storage"
)

type fakeRasterizer struct {
	width, height int
	failOn        string
	calls         atomic.Int32
}

func (f *fakeRasterizer) FirstPage(_ context.Context, pdf []byte) (image.Image, error) {
	f.calls.Add(1)
	if f.failOn != "" && bytes.Contains(pdf, []byte(f.failOn)) {
		return nil, errors.New("broken document")
	}
	img := image.NewRGBA(image.Rect(0, 0, f.width, f.height))
	img.Set(0, 0, color.White)
	return img, nil
}

func decodeDataURL(t *testing.T, dataURL string) image.Image {
	t.Helper()
	const prefix = "data:image/png;base64,"
	if !strings.HasPrefix(dataURL, prefix) {
		t.Fatalf("expected png data url, got %.40q", dataURL)
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(dataURL, prefix))
	if err != nil {
		t.Fatalf("decode base64: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	return img
}

func TestFromBytesDownscalesWideCovers(t *testing.T) {
	gen := NewGenerator(&fakeRasterizer{width: 1600, height: 1200}, Options{MaxWidth: 800})

	dataURL, err := gen.FromBytes(context.Background(), []byte("%PDF-1.4"))
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	bounds := decodeDataURL(t, dataURL).Bounds()
	if bounds.Dx() != 800 || bounds.Dy() != 600 {
		t.Fatalf("expected 800x600 cover, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestFromBytesKeepsNarrowCovers(t *testing.T) {
	gen := NewGenerator(&fakeRasterizer{width: 600, height: 900}, Options{MaxWidth: 800})

	dataURL, err := gen.FromBytes(context.Background(), []byte("%PDF-1.4"))
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if bounds := decodeDataURL(t, dataURL).Bounds(); bounds.Dx() != 600 {
		t.Fatalf("expected width to stay 600, got %d", bounds.Dx())
	}
}

func TestFromBytesRejectsEmptyInput(t *testing.T) {
	raster := &fakeRasterizer{width: 10, height: 10}
	gen := NewGenerator(raster, Options{})
	if _, err := gen.FromBytes(context.Background(), nil); !errors.Is(err, ErrEmptyDocument) {
		t.Fatalf("expected ErrEmptyDocument, got %v", err)
	}
	if raster.calls.Load() != 0 {
		t.Fatal("rasterizer should not run on empty input")
	}
}

func TestFromURLReadsOwnedStorage(t *testing.T) {
	store, err := storage.NewLocalStore(t.TempDir(), "/uploads")
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	url, err := store.Upload(context.Background(), "1-edicao.pdf", strings.NewReader("%PDF-1.4 local"), 14, "application/pdf")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	gen := NewGenerator(&fakeRasterizer{width: 100, height: 140}, Options{Store: store})
	if _, err := gen.FromURL(context.Background(), url); err != nil {
		t.Fatalf("FromURL: %v", err)
	}
}

func TestFromURLFetchesOverHTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.pdf" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.4 remote"))
	}))
	defer server.Close()

	gen := NewGenerator(&fakeRasterizer{width: 100, height: 140}, Options{HTTPClient: server.Client()})
	if _, err := gen.FromURL(context.Background(), server.URL+"/edicao.pdf"); err != nil {
		t.Fatalf("FromURL: %v", err)
	}
	if _, err := gen.FromURL(context.Background(), server.URL+"/missing.pdf"); err == nil {
		t.Fatal("expected 404 to fail")
	}
}

func TestFromURLEnforcesSizeLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(bytes.Repeat([]byte("x"), 64))
	}))
	defer server.Close()

	gen := NewGenerator(&fakeRasterizer{width: 10, height: 10}, Options{HTTPClient: server.Client(), MaxBytes: 32})
	if _, err := gen.FromURL(context.Background(), server.URL+"/big.pdf"); !errors.Is(err, ErrDocumentTooLarge) {
		t.Fatalf("expected ErrDocumentTooLarge, got %v", err)
	}
}

func TestGenerateAllIsolatesFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("%PDF-1.4 " + r.URL.Path))
	}))
	defer server.Close()

	raster := &fakeRasterizer{width: 100, height: 140, failOn: "broken"}
	gen := NewGenerator(raster, Options{HTTPClient: server.Client(), Concurrency: 2})

	urls := []string{
		server.URL + "/a.pdf",
		server.URL + "/broken.pdf",
		server.URL + "/c.pdf",
	}
	results := gen.GenerateAll(context.Background(), urls)

	if len(results) != 2 {
		t.Fatalf("expected 2 covers, got %d", len(results))
	}
	if _, ok := results[server.URL+"/broken.pdf"]; ok {
		t.Fatal("failed document must not produce a cover")
	}
	if raster.calls.Load() != 3 {
		t.Fatalf("expected every document to be attempted, got %d", raster.calls.Load())
	}
}

func TestGenerateAllDiscardsResultsAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gen := NewGenerator(&fakeRasterizer{width: 10, height: 10}, Options{})
	if results := gen.GenerateAll(ctx, []string{"http://127.0.0.1:1/a.pdf"}); len(results) != 0 {
		t.Fatalf("expected no results after cancellation, got %d", len(results))
	}
}

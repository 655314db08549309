// Package storage 封装上传期刊 PDF 及其封面的对象存储后端。
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tribuna/internal/config"
)

// ErrObjectNotFound is returned by Open when the key does not exist.
var ErrObjectNotFound = errors.New("object not found")

// ObjectStore is the storage collaborator of the edition repository.
type ObjectStore interface {
	// Upload stores r under key and returns its public URL.
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	// Open streams the object stored under key.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Remove deletes key; removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
	// PublicURL returns the URL an object is served from.
	PublicURL(key string) string
	// KeyFromURL reverses PublicURL for URLs this store owns.
	KeyFromURL(rawURL string) (string, bool)
}

// New builds the object store selected by cfg.
func New(ctx context.Context, cfg config.AppConfig) (ObjectStore, error) {
	switch cfg.Storage.Backend {
	case "", "local":
		return NewLocalStore(cfg.UploadDir, cfg.UploadURLPath)
	case "minio":
		return NewMinIOStore(ctx, cfg.Storage)
	case "gcs":
		return NewGCSStore(ctx, cfg.Storage)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// keyFromPrefixedURL strips base from rawURL and returns the remaining
// single-segment key.
func keyFromPrefixedURL(base, rawURL string) (string, bool) {
	base = strings.TrimRight(base, "/") + "/"
	if base == "/" || !strings.HasPrefix(rawURL, base) {
		return "", false
	}
	key := strings.TrimPrefix(rawURL, base)
	if i := strings.IndexAny(key, "?#"); i >= 0 {
		key = key[:i]
	}
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, "/\\") {
		return "", false
	}
	return key, true
}

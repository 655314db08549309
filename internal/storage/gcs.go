package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/tribuna/internal/config"
	"google.golang.org/api/option"
)

const gcsWriteTimeout = 2 * time.Minute

// GCSStore keeps editions in a Google Cloud Storage bucket.
type GCSStore struct {
	client  *storage.Client
	bucket  string
	baseURL string
}

// NewGCSStore uses application default credentials. When
// STORAGE_EMULATOR_HOST is set the client library talks to the emulator.
func NewGCSStore(ctx context.Context, cfg config.StorageConfig) (*GCSStore, error) {
	if strings.TrimSpace(cfg.GCSBucket) == "" {
		return nil, errors.New("missing GCS_BUCKET")
	}
	client, err := storage.NewClient(ctx, option.WithScopes(storage.ScopeReadWrite))
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.GCSPublicBaseURL), "/")
	if baseURL == "" {
		baseURL = "https://storage.googleapis.com/" + cfg.GCSBucket
	}

	return &GCSStore{client: client, bucket: cfg.GCSBucket, baseURL: baseURL}, nil
}

func (s *GCSStore) Upload(ctx context.Context, key string, r io.Reader, _ int64, contentType string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, gcsWriteTimeout)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return s.PublicURL(key), nil
}

func (s *GCSStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	reader, err := s.client.Bucket(s.bucket).Object(key).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, ErrObjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open GCS object: %w", err)
	}
	return reader, nil
}

func (s *GCSStore) Remove(ctx context.Context, key string) error {
	err := s.client.Bucket(s.bucket).Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete GCS object: %w", err)
	}
	return nil
}

func (s *GCSStore) PublicURL(key string) string {
	return s.baseURL + "/" + key
}

func (s *GCSStore) KeyFromURL(rawURL string) (string, bool) {
	return keyFromPrefixedURL(s.baseURL, rawURL)
}

// Close releases the underlying client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}

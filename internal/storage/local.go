package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalStore 将对象保存在本地上传目录中，由 gin 静态路由对外提供。
type LocalStore struct {
	dir     string
	urlPath string
}

// NewLocalStore ensures dir exists; objects are served under urlPath.
func NewLocalStore(dir, urlPath string) (*LocalStore, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("upload dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	urlPath = "/" + strings.Trim(strings.TrimSpace(urlPath), "/")
	return &LocalStore{dir: dir, urlPath: urlPath}, nil
}

// Dir returns the directory objects are written to.
func (s *LocalStore) Dir() string {
	return s.dir
}

// URLPath returns the route prefix objects are served under.
func (s *LocalStore) URLPath() string {
	return s.urlPath
}

func (s *LocalStore) Upload(ctx context.Context, key string, r io.Reader, _ int64, _ string) (string, error) {
	target, err := s.pathFor(key)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close object: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("store object: %w", err)
	}
	return s.PublicURL(key), nil
}

func (s *LocalStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	target, err := s.pathFor(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(target)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrObjectNotFound
	}
	return f, err
}

func (s *LocalStore) Remove(_ context.Context, key string) error {
	target, err := s.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove object: %w", err)
	}
	return nil
}

func (s *LocalStore) PublicURL(key string) string {
	return path.Join(s.urlPath, key)
}

func (s *LocalStore) KeyFromURL(rawURL string) (string, bool) {
	return keyFromPrefixedURL(s.urlPath, rawURL)
}

func (s *LocalStore) pathFor(key string) (string, error) {
	if key == "" || key != filepath.Base(key) || strings.HasPrefix(key, ".") {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(s.dir, key), nil
}

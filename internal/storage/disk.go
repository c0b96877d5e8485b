package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"nanogallery/internal/domain"
)

// DiskStore writes images under a local directory that the server exposes at
// /images/. Suitable for single-node deployments and development.
type DiskStore struct {
	dir     string // Root directory for stored objects
	baseURL string // Public base URL, without trailing slash
}

// NewDiskStore creates the root directory if needed and returns the store
func NewDiskStore(dir, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &DiskStore{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Upload writes the payload to disk and returns the public URL it is served under
func (s *DiskStore) Upload(_ context.Context, key string, data []byte, _ string) (string, error) {
	path := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("%w: create object directory: %w", domain.ErrStorageFailed, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("%w: write object: %w", domain.ErrStorageFailed, err)
	}
	return s.baseURL + "/images/" + key, nil
}

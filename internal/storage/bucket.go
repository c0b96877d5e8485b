package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"nanogallery/internal/domain"
)

// Limit on how much of an error body is read back for diagnostics
const maxUploadErrorBytes = 32 << 10

// BucketStore uploads images to a Supabase-style storage REST API. Objects are
// publicly readable under /storage/v1/object/public/<bucket>/<key>.
type BucketStore struct {
	url        string // Store base URL, without trailing slash
	serviceKey string // Service role key used as bearer token
	bucket     string // Target bucket name
	httpClient *http.Client
}

// NewBucketStore constructs a bucket store client
func NewBucketStore(url, serviceKey, bucket string) *BucketStore {
	return &BucketStore{
		url:        strings.TrimSuffix(url, "/"),
		serviceKey: serviceKey,
		bucket:     bucket,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Upload stores the payload in the bucket and returns its public URL
func (s *BucketStore) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if contentType == "" {
		contentType = "image/png"
	}
	endpoint := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.url, s.bucket, key)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+s.serviceKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: execute request: %w", domain.ErrStorageFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxUploadErrorBytes))
		return "", fmt.Errorf("%w: upload returned status %d: %s", domain.ErrStorageFailed, resp.StatusCode, string(snippet))
	}
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.url, s.bucket, key), nil
}

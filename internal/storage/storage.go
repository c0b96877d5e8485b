package storage

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"
)

// Store is the durable object store that holds generated images. Upload
// persists the payload under key and returns its public URL.
type Store interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// ObjectKey builds a per-account, time-and-random-disambiguated key so
// concurrent uploads from one account never collide.
func ObjectKey(accountID uint) string {
	var suffix [4]byte
	_, _ = rand.Read(suffix[:])
	return fmt.Sprintf("%d/%d-%x.png", accountID, time.Now().UnixMilli(), suffix)
}

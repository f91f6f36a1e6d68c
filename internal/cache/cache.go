package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"strings"
	"time"
)

// ErrMiss is returned by Store.Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Store is a TTL'd key-value store for serialized query results.
//
// Get and Set are individually atomic but nothing coordinates a get-then-set
// pair: two concurrent misses for the same key may both compute and both
// write. Values are immutable once written, so the last write wins harmlessly.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Key builds a namespaced digest key from the given parts. Digesting keeps
// raw user input (search text) out of the key space and bounds key length.
func Key(prefix string, parts ...string) string {
	sum := md5.Sum([]byte(strings.Join(parts, "_")))
	return prefix + "_" + hex.EncodeToString(sum[:])
}

package cache

import (
	"errors"
	"strings"
	"time"
)

// MaxKeyLength is the maximum allowed length for a cache key.
const MaxKeyLength = 512

// Sentinel errors for cache operations.
var (
	ErrNilCache   = errors.New("cache: cache is nil")
	ErrInvalidKey = errors.New("cache: key is invalid")
	ErrKeyTooLong = errors.New("cache: key exceeds max length")
)

// Cache stores values for a fixed time-to-live.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Expiry: an entry older than the configured TTL is treated as absent.
// - Errors: Get never errors; it returns (zero, false) on miss or expiry.
type Cache[V any] interface {
	// Get retrieves a cached value. Returns (zero, false) on miss.
	Get(key string) (V, bool)

	// Set stores a value, replacing any previous entry for key.
	Set(key string, value V)

	// Delete removes a single entry. Idempotent.
	Delete(key string)

	// Clear removes every entry.
	Clear()

	// Stats reports the current entry count and the configured TTL.
	Stats() Stats
}

// Stats describes the state of a cache.
type Stats struct {
	Size int           `json:"size"`
	TTL  time.Duration `json:"ttl"`
}

// ValidateKey checks if a key is valid for caching.
func ValidateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}

package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Keyer derives cache keys for check executions.
//
// Contract:
// - Determinism: same inputs must produce same key, regardless of map iteration order.
// - Concurrency: implementations must be safe for concurrent use.
type Keyer interface {
	// Key generates a cache key from a check ID and the run configuration.
	Key(checkID string, input any) (string, error)
}

// DefaultKeyer generates keys of the form check:<id> or check:<id>:<hash>.
type DefaultKeyer struct {
	// Prefix replaces the default "check" prefix when set.
	Prefix string
}

// NewDefaultKeyer creates a new default keyer.
func NewDefaultKeyer() *DefaultKeyer {
	return &DefaultKeyer{}
}

// Key generates a deterministic cache key.
// An empty input yields check:<id>; otherwise the first 16 hex characters of
// SHA-256 over the JSON encoding of input are appended. encoding/json sorts
// map keys, which makes the encoding canonical for map inputs.
func (k *DefaultKeyer) Key(checkID string, input any) (string, error) {
	prefix := k.Prefix
	if prefix == "" {
		prefix = "check"
	}

	if isEmptyInput(input) {
		return fmt.Sprintf("%s:%s", prefix, checkID), nil
	}

	data, err := json.Marshal(input)
	if err != nil {
		return "", fmt.Errorf("cache: failed to encode input: %w", err)
	}

	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s:%s", prefix, checkID, hex.EncodeToString(hash[:8])), nil
}

func isEmptyInput(input any) bool {
	switch v := input.(type) {
	case nil:
		return true
	case map[string]any:
		return len(v) == 0
	default:
		return false
	}
}

// Ensure DefaultKeyer implements Keyer
var _ Keyer = (*DefaultKeyer)(nil)

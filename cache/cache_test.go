package cache

import (
	"strings"
	"testing"
)

func TestValidateKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr error
	}{
		{"empty key", "", ErrInvalidKey},
		{"valid key", "check:node-version", nil},
		{"too long", strings.Repeat("x", MaxKeyLength+1), ErrKeyTooLong},
		{"contains newline", "key\nwith\nnewlines", ErrInvalidKey},
		{"contains carriage return", "key\rwith\rreturns", ErrInvalidKey},
		{"whitespace only", "   ", ErrInvalidKey},
		{"max length exactly", strings.Repeat("x", MaxKeyLength), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateKey(tt.key)
			if err != tt.wantErr {
				t.Errorf("ValidateKey(%q) = %v, want %v", tt.key, err, tt.wantErr)
			}
		})
	}
}

// stubCache verifies the Cache contract compiles for arbitrary value types.
type stubCache[V any] struct{}

func (stubCache[V]) Get(string) (V, bool) {
	var zero V
	return zero, false
}

func (stubCache[V]) Set(string, V) {}
func (stubCache[V]) Delete(string) {}
func (stubCache[V]) Clear()        {}
func (stubCache[V]) Stats() Stats  { return Stats{} }

var _ Cache[string] = stubCache[string]{}

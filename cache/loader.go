package cache

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// LoadFunc produces a value on a cache miss.
type LoadFunc[V any] func(ctx context.Context) (V, error)

// Loader wraps a Cache with get-or-load semantics.
// Concurrent loads of the same key share a single LoadFunc invocation.
type Loader[V any] struct {
	cache Cache[V]
	keep  func(V) bool
	group singleflight.Group
}

// NewLoader creates a loader over c. keep decides whether a loaded value is
// stored; if nil, every successfully loaded value is stored.
func NewLoader[V any](c Cache[V], keep func(V) bool) *Loader[V] {
	if keep == nil {
		keep = func(V) bool { return true }
	}
	return &Loader[V]{cache: c, keep: keep}
}

// Load returns the cached value for key with hit=true, or calls fn and stores
// its result. Errors are never cached. An invalid key bypasses the cache.
func (l *Loader[V]) Load(ctx context.Context, key string, fn LoadFunc[V]) (value V, hit bool, err error) {
	if l == nil || l.cache == nil {
		v, err := fn(ctx)
		return v, false, err
	}

	if ValidateKey(key) != nil {
		v, err := fn(ctx)
		return v, false, err
	}

	if cached, ok := l.cache.Get(key); ok {
		return cached, true, nil
	}

	res, err, _ := l.group.Do(key, func() (any, error) {
		v, err := fn(ctx)
		if err != nil {
			return v, err
		}
		if l.keep(v) {
			l.cache.Set(key, v)
		}
		return v, nil
	})

	v, _ := res.(V)
	return v, false, err
}

// Cache returns the underlying cache.
func (l *Loader[V]) Cache() Cache[V] {
	return l.cache
}

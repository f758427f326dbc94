package cache

import "time"

// Policy configures how long results stay cached.
type Policy struct {
	// TTL is how long an entry remains valid after insertion.
	// If zero, caching is disabled.
	TTL time.Duration

	// MaxTTL caps TTL. If zero, no maximum is enforced.
	MaxTTL time.Duration
}

// DefaultPolicy returns the default caching policy.
// TTL: 5 minutes, MaxTTL: 1 hour
func DefaultPolicy() Policy {
	return Policy{
		TTL:    5 * time.Minute,
		MaxTTL: 1 * time.Hour,
	}
}

// NoCachePolicy returns a policy that disables caching entirely.
func NoCachePolicy() Policy {
	return Policy{}
}

// ShouldCache returns true if caching is enabled by this policy.
func (p Policy) ShouldCache() bool {
	return p.EffectiveTTL() > 0
}

// EffectiveTTL returns the TTL clamped to MaxTTL.
func (p Policy) EffectiveTTL() time.Duration {
	ttl := p.TTL
	if ttl < 0 {
		ttl = 0
	}
	if p.MaxTTL > 0 && ttl > p.MaxTTL {
		ttl = p.MaxTTL
	}
	return ttl
}

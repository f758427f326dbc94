package auth

import (
	"context"
	"net/http"
)

// Authenticator validates request credentials.
//
// Contract:
//   - Concurrency: implementations must be safe for concurrent use.
//   - Errors: credential problems return one of the authentication sentinels
//     (see IsAuthFailure); anything else is an internal error.
type Authenticator interface {
	// Name identifies the authenticator.
	Name() string

	// Supports reports whether the headers carry credentials this
	// authenticator understands.
	Supports(h http.Header) bool

	// Authenticate validates the credentials and returns the operator.
	Authenticate(ctx context.Context, h http.Header) (*Identity, error)
}

// Chain tries authenticators in order and returns the first success.
type Chain []Authenticator

var _ Authenticator = Chain(nil)

// Name returns "chain".
func (c Chain) Name() string {
	return "chain"
}

// Supports reports whether any member supports h.
func (c Chain) Supports(h http.Header) bool {
	for _, a := range c {
		if a.Supports(h) {
			return true
		}
	}
	return false
}

// Authenticate returns the first successful identity. Internal errors stop
// the chain; otherwise the last authentication failure is returned.
func (c Chain) Authenticate(ctx context.Context, h http.Header) (*Identity, error) {
	lastErr := ErrMissingCredentials
	for _, a := range c {
		if !a.Supports(h) {
			continue
		}
		id, err := a.Authenticate(ctx, h)
		if err == nil {
			return id, nil
		}
		if !IsAuthFailure(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

package auth

import (
	"context"
	"fmt"
)

// Operator actions gated by a Policy.
const (
	ActionHealthRead  = "health:read"
	ActionHealView    = "heal:view"
	ActionHealConfirm = "heal:confirm"
	ActionDiagnose    = "diagnose:run"
)

// Wildcard matches any role in a Policy.
const Wildcard = "*"

// Authorizer decides whether an identity may perform an action.
type Authorizer interface {
	// Authorize returns nil when allowed, or an error wrapping ErrForbidden.
	Authorize(ctx context.Context, id *Identity, action string) error
}

// Policy maps actions to the roles allowed to perform them. An action that is
// not listed is denied. A role of "*" admits any authenticated identity.
type Policy map[string][]string

var _ Authorizer = Policy(nil)

// DefaultPolicy lets viewers read while operators confirm fixes and run
// diagnoses.
func DefaultPolicy() Policy {
	return Policy{
		ActionHealthRead:  {"viewer", "operator", "admin"},
		ActionHealView:    {"viewer", "operator", "admin"},
		ActionHealConfirm: {"operator", "admin"},
		ActionDiagnose:    {"operator", "admin"},
	}
}

// Authorize checks id's roles against the roles listed for action.
func (p Policy) Authorize(_ context.Context, id *Identity, action string) error {
	if id == nil {
		return fmt.Errorf("%w: no identity for %s", ErrForbidden, action)
	}
	for _, role := range p[action] {
		if role == Wildcard || id.HasRole(role) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s may not %s", ErrForbidden, id.Principal, action)
}

// AllowAll permits every action.
type AllowAll struct{}

// Authorize always returns nil.
func (AllowAll) Authorize(context.Context, *Identity, string) error { return nil }

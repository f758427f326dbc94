package auth

import (
	"context"
	"errors"
	"testing"
)

func TestPolicy_Authorize(t *testing.T) {
	p := DefaultPolicy()
	p["custom"] = []string{Wildcard}

	viewer := &Identity{Principal: "v", Roles: []string{"viewer"}}
	operator := &Identity{Principal: "o", Roles: []string{"operator"}}
	nobody := &Identity{Principal: "n"}

	tests := []struct {
		name    string
		id      *Identity
		action  string
		allowed bool
	}{
		{"viewer reads health", viewer, ActionHealthRead, true},
		{"viewer views pending", viewer, ActionHealView, true},
		{"viewer cannot confirm", viewer, ActionHealConfirm, false},
		{"operator confirms", operator, ActionHealConfirm, true},
		{"operator diagnoses", operator, ActionDiagnose, true},
		{"viewer cannot diagnose", viewer, ActionDiagnose, false},
		{"no roles", nobody, ActionHealView, false},
		{"wildcard admits anyone", nobody, "custom", true},
		{"unlisted action", operator, "heal:delete", false},
		{"nil identity", nil, ActionHealthRead, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := p.Authorize(context.Background(), tt.id, tt.action)
			if tt.allowed && err != nil {
				t.Errorf("Authorize() error = %v, want allowed", err)
			}
			if !tt.allowed && !errors.Is(err, ErrForbidden) {
				t.Errorf("Authorize() error = %v, want ErrForbidden", err)
			}
		})
	}
}

func TestAllowAll(t *testing.T) {
	if err := (AllowAll{}).Authorize(context.Background(), nil, ActionHealConfirm); err != nil {
		t.Errorf("AllowAll.Authorize() = %v", err)
	}
}

package cache

import (
	"testing"
	"time"
)

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	if p.TTL != 5*time.Minute {
		t.Errorf("TTL = %v, want 5m", p.TTL)
	}
	if p.MaxTTL != time.Hour {
		t.Errorf("MaxTTL = %v, want 1h", p.MaxTTL)
	}
	if !p.ShouldCache() {
		t.Error("default policy should cache")
	}
}

func TestNoCachePolicy(t *testing.T) {
	if NoCachePolicy().ShouldCache() {
		t.Error("NoCachePolicy should not cache")
	}
}

func TestPolicy_EffectiveTTL(t *testing.T) {
	tests := []struct {
		name   string
		policy Policy
		want   time.Duration
	}{
		{"plain", Policy{TTL: time.Minute}, time.Minute},
		{"clamped", Policy{TTL: 2 * time.Hour, MaxTTL: time.Hour}, time.Hour},
		{"below max", Policy{TTL: time.Second, MaxTTL: time.Hour}, time.Second},
		{"negative", Policy{TTL: -time.Second}, 0},
		{"zero", Policy{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.policy.EffectiveTTL(); got != tt.want {
				t.Errorf("EffectiveTTL() = %v, want %v", got, tt.want)
			}
		})
	}
}

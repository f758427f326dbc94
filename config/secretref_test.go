package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type stubProvider struct {
	values map[string]string
}

func (stubProvider) Name() string { return "stub" }

func (s stubProvider) Resolve(_ context.Context, ref string) (string, error) {
	return s.values[ref], nil
}

func TestParseSecretRef(t *testing.T) {
	tests := []struct {
		in       string
		provider string
		ref      string
		ok       bool
	}{
		{"secretref:env:TOKEN", "env", "TOKEN", true},
		{"secretref:file:/run/secrets/a:b", "file", "/run/secrets/a:b", true},
		{"secretref:env:", "", "", false},
		{"secretref::x", "", "", false},
		{"literal", "", "", false},
	}
	for _, tt := range tests {
		provider, ref, ok := ParseSecretRef(tt.in)
		if ok != tt.ok || provider != tt.provider || ref != tt.ref {
			t.Errorf("ParseSecretRef(%q) = %q, %q, %v", tt.in, provider, ref, ok)
		}
	}
}

func TestResolver_Resolve(t *testing.T) {
	ctx := context.Background()
	t.Setenv("SELFHEAL_TEST_SECRET", "from-env")

	path := filepath.Join(t.TempDir(), "secret")
	if err := os.WriteFile(path, []byte("from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	r := NewResolver(stubProvider{values: map[string]string{"a": "from-stub"}})

	tests := []struct {
		in   string
		want string
	}{
		{"literal", "literal"},
		{"secretref:env:SELFHEAL_TEST_SECRET", "from-env"},
		{"secretref:file:" + path, "from-file"},
		{"secretref:stub:a", "from-stub"},
	}
	for _, tt := range tests {
		got, err := r.Resolve(ctx, tt.in)
		if err != nil {
			t.Fatalf("Resolve(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestResolver_ResolveErrors(t *testing.T) {
	ctx := context.Background()
	r := NewResolver(stubProvider{})

	if _, err := r.Resolve(ctx, "secretref:vault:x"); !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("unknown provider error = %v", err)
	}
	if _, err := r.Resolve(ctx, "secretref:stub:missing"); !errors.Is(err, ErrEmptySecret) {
		t.Errorf("empty secret error = %v", err)
	}
	if _, err := r.Resolve(ctx, "secretref:env:SELFHEAL_UNSET_VARIABLE"); !errors.Is(err, ErrMissingEnv) {
		t.Errorf("unset env error = %v", err)
	}
	if _, err := r.Resolve(ctx, "secretref:file:"+filepath.Join(t.TempDir(), "nope")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v", err)
	}
}

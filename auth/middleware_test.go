package auth

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jonwraymond/selfheal/observe"
)

func TestGuard_Require(t *testing.T) {
	jwtAuth, err := NewJWTAuthenticator(JWTConfig{Secret: "s"})
	if err != nil {
		t.Fatal(err)
	}
	operatorToken, _ := jwtAuth.SignToken("alice", []string{"operator"}, time.Hour)
	viewerToken, _ := jwtAuth.SignToken("vic", []string{"viewer"}, time.Hour)

	var buf bytes.Buffer
	g := NewGuard(jwtAuth, DefaultPolicy(), observe.NewLoggerWithWriter("info", &buf))

	var seen string
	h := g.Require(ActionHealConfirm, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name       string
		header     http.Header
		wantStatus int
	}{
		{"operator allowed", bearer(operatorToken), http.StatusNoContent},
		{"viewer forbidden", bearer(viewerToken), http.StatusForbidden},
		{"bad token", bearer("x.y.z"), http.StatusUnauthorized},
		{"no credentials", http.Header{}, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = ""
			req := httptest.NewRequest(http.MethodPost, "/heal/confirm", nil)
			req.Header = tt.header
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusNoContent && seen != "alice" {
				t.Errorf("principal in context = %q, want alice", seen)
			}
			if tt.wantStatus == http.StatusUnauthorized && rec.Header().Get("WWW-Authenticate") == "" {
				t.Error("401 without WWW-Authenticate")
			}
		})
	}

	if !strings.Contains(buf.String(), "authorization denied") {
		t.Errorf("log output = %s", buf.String())
	}
}

func TestGuard_InternalError(t *testing.T) {
	g := NewGuard(NewAPIKeyAuthenticator(brokenStore{}), nil, nil)
	h := g.Require(ActionHealView, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/heal/pending", nil)
	req.Header.Set(APIKeyHeader, "k")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestGuard_Disabled(t *testing.T) {
	g := NewGuard(nil, nil, nil)
	var id *Identity
	h := g.Require(ActionHealConfirm, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id = IdentityFromContext(r.Context())
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", nil))
	if id == nil || !id.IsAnonymous() {
		t.Errorf("identity = %+v, want anonymous", id)
	}
}

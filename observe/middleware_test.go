package observe

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/codes"
)

func TestMiddleware(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantMsg  string
		wantCode codes.Code
	}{
		{"ok", http.StatusOK, `"msg":"http request"`, codes.Ok},
		{"client error", http.StatusForbidden, `"msg":"http request"`, codes.Ok},
		{"server error", http.StatusServiceUnavailable, `"msg":"http request failed"`, codes.Error},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tr, recorder := newRecordingTracer()
			inst := NewInstrumentation(tr, nil, NewLoggerWithWriter("info", &buf))

			h := inst.Middleware("heal.confirm", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/heal/confirm", nil))

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			spans := recorder.Ended()
			if len(spans) != 1 {
				t.Fatalf("spans = %d, want 1", len(spans))
			}
			if spans[0].Name() != "selfheal.http.heal.confirm" {
				t.Errorf("span name = %q", spans[0].Name())
			}
			if spans[0].Status().Code != tt.wantCode {
				t.Errorf("span status = %v, want %v", spans[0].Status().Code, tt.wantCode)
			}
			out := buf.String()
			if !strings.Contains(out, tt.wantMsg) || !strings.Contains(out, `"http.name":"POST"`) {
				t.Errorf("log output = %s", out)
			}
		})
	}
}

func TestMiddleware_ImplicitOK(t *testing.T) {
	var i *Instrumentation
	h := i.Middleware("healthz", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("OK"))
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Errorf("response = %d %q", rec.Code, rec.Body.String())
	}
}

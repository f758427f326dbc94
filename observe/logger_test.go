package observe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid JSON line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestLogger_EntryShape(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerWithWriter("info", &buf)
	l.Info(context.Background(), "check completed", Field{Key: "check.id", Value: "node-version"})

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	e := lines[0]
	if e["level"] != "info" || e["msg"] != "check completed" || e["check.id"] != "node-version" {
		t.Errorf("entry = %v", e)
	}
	if _, ok := e["timestamp"]; !ok {
		t.Error("timestamp missing")
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		level string
		want  int
	}{
		{"debug", 4},
		{"info", 3},
		{"warn", 2},
		{"error", 1},
		{"bogus", 3},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			l := NewLoggerWithWriter(tt.level, &buf)
			ctx := context.Background()
			l.Debug(ctx, "d")
			l.Info(ctx, "i")
			l.Warn(ctx, "w")
			l.Error(ctx, "e")
			if got := len(decodeLines(t, &buf)); got != tt.want {
				t.Errorf("lines = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	base := NewLoggerWithWriter("info", &buf)
	scoped := base.With(Field{Key: "component", Value: "heal"})

	scoped.Info(context.Background(), "scoped")
	base.Info(context.Background(), "base")

	lines := decodeLines(t, &buf)
	if lines[0]["component"] != "heal" {
		t.Errorf("scoped entry missing component: %v", lines[0])
	}
	if _, ok := lines[1]["component"]; ok {
		t.Errorf("With mutated the parent logger: %v", lines[1])
	}
}

func TestLogger_Redaction(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerWithWriter("info", &buf).With(Field{Key: "token", Value: "abc"})
	l.Info(context.Background(), "auth", Field{Key: "password", Value: "hunter2"}, Field{Key: "user", Value: "ops"})

	e := decodeLines(t, &buf)[0]
	if e["token"] != "[REDACTED]" || e["password"] != "[REDACTED]" {
		t.Errorf("sensitive fields not redacted: %v", e)
	}
	if e["user"] != "ops" {
		t.Errorf("user = %v, want ops", e["user"])
	}
}

func TestLogger_ErrorValuesStringified(t *testing.T) {
	var buf bytes.Buffer
	NewLoggerWithWriter("info", &buf).Error(context.Background(), "failed", Field{Key: "error", Value: errors.New("disk full")})
	if e := decodeLines(t, &buf)[0]; e["error"] != "disk full" {
		t.Errorf("error = %v, want disk full", e["error"])
	}
}

func TestLogger_ConcurrentWrites(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerWithWriter("info", &buf)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			l.With(Field{Key: "n", Value: i}).Info(context.Background(), "x")
		}(i)
	}
	wg.Wait()
	if got := len(decodeLines(t, &buf)); got != 20 {
		t.Errorf("lines = %d, want 20", got)
	}
}

func TestParseLogLevel(t *testing.T) {
	for _, s := range []string{"debug", "info", "warn", "error"} {
		if got := ParseLogLevel(s).String(); got != s {
			t.Errorf("ParseLogLevel(%q).String() = %q", s, got)
		}
	}
}

func TestNopLogger(t *testing.T) {
	l := NopLogger()
	l.Info(context.Background(), "ignored")
	if l.With(Field{Key: "a", Value: 1}) == nil {
		t.Error("With returned nil")
	}
}

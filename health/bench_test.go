package health

import (
	"context"
	"fmt"
	"testing"
)

func benchChecks(n int, cacheable bool) []Check {
	ps := make([]*probe, n)
	sevs := []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}
	for i := range ps {
		ps[i] = newProbe(fmt.Sprintf("check%d", i), sevs[i%len(sevs)], 0, StatusPass)
		ps[i].def.Cacheable = cacheable
	}
	return checks(ps...)
}

// BenchmarkEngine_RunChecks_Sequential measures sequential dispatch without cache.
func BenchmarkEngine_RunChecks_Sequential(b *testing.B) {
	cfg := sequentialConfig()
	cfg.CacheEnabled = false
	engine := NewEngine(cfg)
	cs := benchChecks(8, false)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = engine.RunChecks(ctx, cs, RunOptions{Mode: ModeFull})
	}
}

// BenchmarkEngine_RunChecks_Parallel measures batched fan-out without cache.
func BenchmarkEngine_RunChecks_Parallel(b *testing.B) {
	cfg := DefaultEngineConfig()
	cfg.CacheEnabled = false
	engine := NewEngine(cfg)
	cs := benchChecks(8, false)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = engine.RunChecks(ctx, cs, RunOptions{Mode: ModeFull})
	}
}

// BenchmarkEngine_RunChecks_Cached measures a run served entirely from cache.
func BenchmarkEngine_RunChecks_Cached(b *testing.B) {
	engine := NewEngine(DefaultEngineConfig())
	cs := benchChecks(8, true)
	ctx := context.Background()
	_ = engine.RunChecks(ctx, cs, RunOptions{Mode: ModeFull})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = engine.RunChecks(ctx, cs, RunOptions{Mode: ModeFull})
	}
}

// BenchmarkHasCriticalFailure measures the result scan.
func BenchmarkHasCriticalFailure(b *testing.B) {
	results := make([]Result, 64)
	for i := range results {
		results[i] = Result{Severity: SeverityLow, Status: StatusPass}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = HasCriticalFailure(results)
	}
}

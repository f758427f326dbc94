package health

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/selfheal/cache"
	"github.com/jonwraymond/selfheal/observe"
	"github.com/jonwraymond/selfheal/resilience"
)

// EngineConfig configures the check engine.
type EngineConfig struct {
	// Parallel launches each severity batch concurrently when true.
	// Default: true
	Parallel bool `yaml:"parallel"`

	// CacheEnabled consults and populates the result cache for cacheable checks.
	// Default: true
	CacheEnabled bool `yaml:"cache_enabled"`

	// CacheTTL is how long a cached result stays valid.
	// Default: 5 minutes
	CacheTTL time.Duration `yaml:"cache_ttl"`

	// QuickModeTimeout is the overall budget of a quick run.
	// Default: 10 seconds
	QuickModeTimeout time.Duration `yaml:"quick_mode_timeout"`

	// FullModeTimeout is the overall budget of a full run.
	// Default: 60 seconds
	FullModeTimeout time.Duration `yaml:"full_mode_timeout"`

	// DefaultCheckTimeout applies to checks whose definition has no timeout.
	// Default: 5 seconds
	DefaultCheckTimeout time.Duration `yaml:"default_check_timeout"`

	// MaxConcurrency caps checks running at once in a parallel batch.
	// Zero means unlimited.
	MaxConcurrency int `yaml:"max_concurrency"`
}

// DefaultEngineConfig returns the default engine configuration.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Parallel:            true,
		CacheEnabled:        true,
		CacheTTL:            5 * time.Minute,
		QuickModeTimeout:    10 * time.Second,
		FullModeTimeout:     60 * time.Second,
		DefaultCheckTimeout: 5 * time.Second,
	}
}

// Validate rejects negative durations and concurrency.
func (c EngineConfig) Validate() error {
	switch {
	case c.CacheTTL < 0:
		return fmt.Errorf("%w: cache_ttl must not be negative", ErrInvalidConfig)
	case c.QuickModeTimeout < 0, c.FullModeTimeout < 0:
		return fmt.Errorf("%w: mode timeouts must not be negative", ErrInvalidConfig)
	case c.DefaultCheckTimeout < 0:
		return fmt.Errorf("%w: default_check_timeout must not be negative", ErrInvalidConfig)
	case c.MaxConcurrency < 0:
		return fmt.Errorf("%w: max_concurrency must not be negative", ErrInvalidConfig)
	}
	return nil
}

func (c EngineConfig) withDefaults() EngineConfig {
	d := DefaultEngineConfig()
	if c.CacheTTL <= 0 {
		c.CacheTTL = d.CacheTTL
	}
	if c.QuickModeTimeout <= 0 {
		c.QuickModeTimeout = d.QuickModeTimeout
	}
	if c.FullModeTimeout <= 0 {
		c.FullModeTimeout = d.FullModeTimeout
	}
	if c.DefaultCheckTimeout <= 0 {
		c.DefaultCheckTimeout = d.DefaultCheckTimeout
	}
	return c
}

// RunOptions selects the mode of a run and the configuration passed to checks.
type RunOptions struct {
	Mode   Mode
	Config Config
}

// Stats describes the most recent run.
type Stats struct {
	TotalDuration time.Duration `json:"totalDuration"`
	ChecksRun     int           `json:"checksRun"`
	Errors        int           `json:"errors"`
	Skipped       int           `json:"skipped"`
	CacheHits     int           `json:"cacheHits"`
	Cache         cache.Stats   `json:"cacheStats"`
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithInstrumentation sets the tracer, metrics and logger used by the engine.
func WithInstrumentation(inst *observe.Instrumentation) EngineOption {
	return func(e *Engine) {
		e.inst = inst.OrNop()
	}
}

// WithCache replaces the default in-memory result cache.
func WithCache(c cache.Cache[Result]) EngineOption {
	return func(e *Engine) {
		e.cache = c
	}
}

// WithKeyer replaces the default cache key derivation.
func WithKeyer(k cache.Keyer) EngineOption {
	return func(e *Engine) {
		e.keyer = k
	}
}

// Engine schedules and runs checks.
//
// Contract:
//   - Concurrency: safe for concurrent use; Stats reflects the last finished run.
//   - Errors: RunChecks never fails; every problem becomes a Result.
type Engine struct {
	config   EngineConfig
	cache    cache.Cache[Result]
	loader   *cache.Loader[Result]
	keyer    cache.Keyer
	bulkhead *resilience.Bulkhead
	inst     *observe.Instrumentation

	mu    sync.Mutex
	stats Stats
}

// NewEngine creates a check engine. Zero durations take their defaults.
func NewEngine(config EngineConfig, opts ...EngineOption) *Engine {
	cfg := config.withDefaults()

	e := &Engine{
		config: cfg,
		keyer:  cache.NewDefaultKeyer(),
		inst:   observe.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.cache == nil {
		e.cache = cache.NewMemoryCache[Result](cache.Policy{TTL: cfg.CacheTTL})
	}
	if cfg.CacheEnabled {
		e.loader = cache.NewLoader(e.cache, cacheable)
	}
	if cfg.MaxConcurrency > 0 {
		e.bulkhead = resilience.NewBulkhead(resilience.BulkheadConfig{
			MaxConcurrent: cfg.MaxConcurrency,
			MaxWait:       -1,
		})
	}

	return e
}

// cacheable keeps ERROR and SKIPPED results out of the cache.
func cacheable(r Result) bool {
	return r.Status != StatusError && r.Status != StatusSkipped
}

// Config returns the effective engine configuration.
func (e *Engine) Config() EngineConfig {
	return e.config
}

// ModeTimeout returns the overall budget for mode. Unknown modes use quick.
func (e *Engine) ModeTimeout(mode Mode) time.Duration {
	if mode == ModeFull {
		return e.config.FullModeTimeout
	}
	return e.config.QuickModeTimeout
}

// RunChecks runs checks and returns one result per dispatched or skipped
// check, in dispatch order. In quick mode a CRITICAL failure stops dispatch
// and the checks after it are omitted.
func (e *Engine) RunChecks(ctx context.Context, checks []Check, opts RunOptions) []Result {
	if opts.Mode == "" {
		opts.Mode = ModeQuick
	}
	start := time.Now()
	deadline := start.Add(e.ModeTimeout(opts.Mode))

	sorted := SortBySeverity(checks)
	results := make([]Result, 0, len(sorted))

	for i := 0; i < len(sorted); {
		if reason := e.exhausted(ctx, deadline, opts.Mode); reason != "" {
			for _, c := range sorted[i:] {
				results = append(results, SkippedResult(c.Definition(), reason))
			}
			break
		}

		end := i + 1
		if e.config.Parallel {
			end = batchEnd(sorted, i)
		}
		batch := e.runBatch(ctx, sorted[i:end], opts)
		results = append(results, batch...)
		i = end

		if opts.Mode == ModeQuick && HasCriticalFailure(batch) {
			e.inst.Logger.Warn(ctx, "critical check failed, stopping quick run",
				observe.Field{Key: "omitted", Value: len(sorted) - i})
			break
		}
	}

	e.record(ctx, opts.Mode, results, time.Since(start))
	return results
}

func (e *Engine) exhausted(ctx context.Context, deadline time.Time, mode Mode) string {
	if ctx.Err() != nil {
		return "Skipped: run cancelled"
	}
	if !time.Now().Before(deadline) {
		return fmt.Sprintf("Skipped: %s mode timeout exhausted", mode)
	}
	return ""
}

// batchEnd returns the end of the equal-severity run starting at i.
func batchEnd(sorted []Check, i int) int {
	sev := sorted[i].Definition().Severity.Rank()
	j := i + 1
	for j < len(sorted) && sorted[j].Definition().Severity.Rank() == sev {
		j++
	}
	return j
}

func (e *Engine) runBatch(ctx context.Context, batch []Check, opts RunOptions) []Result {
	results := make([]Result, len(batch))
	if len(batch) == 1 {
		results[0] = e.runCheck(ctx, batch[0], opts)
		return results
	}

	var g errgroup.Group
	for idx, c := range batch {
		g.Go(func() error {
			if e.bulkhead != nil {
				if err := e.bulkhead.Acquire(ctx); err != nil {
					results[idx] = SkippedResult(c.Definition(), "Skipped: run cancelled")
					return nil
				}
				defer e.bulkhead.Release()
			}
			results[idx] = e.runCheck(ctx, c, opts)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (e *Engine) runCheck(ctx context.Context, check Check, opts RunOptions) Result {
	def := check.Definition()
	meta := observe.Meta{
		Component: observe.ComponentCheck,
		ID:        def.ID,
		Name:      def.Name,
		Domain:    def.Domain,
		Severity:  string(def.Severity),
	}

	var res Result
	_ = e.inst.Span(ctx, meta, func(ctx context.Context) error {
		res = e.lookup(ctx, check, def, opts)
		if res.Status == StatusError {
			return errors.New(res.Message)
		}
		return nil
	})
	e.inst.Metrics.RecordCheck(ctx, meta, string(res.Status), res.Duration, res.FromCache)
	return res
}

// lookup serves cacheable checks from the cache and executes everything else.
func (e *Engine) lookup(ctx context.Context, check Check, def Definition, opts RunOptions) Result {
	if err := def.Validate(); err != nil {
		return ErrorResult(def, err.Error(), 0)
	}
	if e.loader == nil || !def.Cacheable {
		return e.execute(ctx, check, def, opts.Config)
	}

	key, err := e.keyer.Key(def.ID, map[string]any(opts.Config))
	if err != nil {
		e.inst.Logger.Warn(ctx, "cache key derivation failed",
			observe.Field{Key: "check.id", Value: def.ID}, observe.Field{Key: "error", Value: err})
		return e.execute(ctx, check, def, opts.Config)
	}

	res, hit, _ := e.loader.Load(ctx, key, func(ctx context.Context) (Result, error) {
		return e.execute(ctx, check, def, opts.Config), nil
	})
	if hit {
		res.FromCache = true
	}
	return res
}

func (e *Engine) execute(ctx context.Context, check Check, def Definition, cfg Config) Result {
	timeout := def.Timeout
	if timeout <= 0 {
		timeout = e.config.DefaultCheckTimeout
	}

	start := time.Now()
	out, err := resilience.Within(ctx, timeout, func(ctx context.Context) (Outcome, error) {
		return check.Execute(ctx, cfg)
	})
	duration := time.Since(start)

	switch {
	case errors.Is(err, resilience.ErrTimeout):
		return ErrorResult(def, "Check timeout", duration)
	case err != nil:
		return ErrorResult(def, err.Error(), duration)
	}
	return NewResult(def, out, duration)
}

func (e *Engine) record(ctx context.Context, mode Mode, results []Result, total time.Duration) {
	st := Stats{TotalDuration: total}
	for _, r := range results {
		switch {
		case r.Status == StatusSkipped:
			st.Skipped++
			continue
		case r.FromCache:
			st.CacheHits++
			continue
		}
		st.ChecksRun++
		if r.Status == StatusError {
			st.Errors++
		}
	}

	e.mu.Lock()
	e.stats = st
	e.mu.Unlock()

	e.inst.Logger.Info(ctx, "check run completed",
		observe.Field{Key: "mode", Value: string(mode)},
		observe.Field{Key: "results", Value: len(results)},
		observe.Field{Key: "checks_run", Value: st.ChecksRun},
		observe.Field{Key: "errors", Value: st.Errors},
		observe.Field{Key: "skipped", Value: st.Skipped},
		observe.Field{Key: "cache_hits", Value: st.CacheHits},
		observe.Field{Key: "duration_ms", Value: total.Milliseconds()},
	)
}

// Stats returns statistics for the last run plus current cache stats.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	st := e.stats
	e.mu.Unlock()
	st.Cache = e.cache.Stats()
	return st
}

// ClearCache drops every cached result.
func (e *Engine) ClearCache() {
	e.cache.Clear()
}

// GroupByDomain maps each domain to its checks, in input order.
// Checks without a domain are grouped under "unknown".
func (e *Engine) GroupByDomain(checks []Check) map[string][]Check {
	groups := make(map[string][]Check)
	for _, c := range checks {
		domain := c.Definition().Domain
		if domain == "" {
			domain = "unknown"
		}
		groups[domain] = append(groups[domain], c)
	}
	return groups
}

// SortBySeverity returns a copy of checks stable-sorted CRITICAL first.
func SortBySeverity(checks []Check) []Check {
	sorted := make([]Check, len(checks))
	copy(sorted, checks)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Definition().Severity.Rank() < sorted[j].Definition().Severity.Rank()
	})
	return sorted
}

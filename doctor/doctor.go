package doctor

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/jonwraymond/selfheal/auth"
	"github.com/jonwraymond/selfheal/config"
	"github.com/jonwraymond/selfheal/heal"
	"github.com/jonwraymond/selfheal/health"
	"github.com/jonwraymond/selfheal/observe"
	"github.com/jonwraymond/selfheal/recovery"
	"github.com/jonwraymond/selfheal/resilience"
)

// Option configures a Doctor.
type Option func(*options)

type options struct {
	observer observe.Observer
	store    recovery.EscalationStore
	backups  heal.BackupManager
}

// WithObserver supplies the observer instead of building one from the
// observe section. The caller keeps ownership and shuts it down.
func WithObserver(obs observe.Observer) Option {
	return func(o *options) {
		o.observer = obs
	}
}

// WithEscalationStore replaces the file store under the project root.
func WithEscalationStore(s recovery.EscalationStore) Option {
	return func(o *options) {
		o.store = s
	}
}

// WithBackupManager replaces the file backup manager under BackupDir.
func WithBackupManager(b heal.BackupManager) Option {
	return func(o *options) {
		o.backups = b
	}
}

// Doctor owns one engine, healer manager and recovery handler.
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Errors: Diagnose never fails; see health.Engine and heal.Manager.
//   - Lifecycle: Close shuts down an observer New created.
type Doctor struct {
	config   config.Config
	observer observe.Observer
	owned    bool
	inst     *observe.Instrumentation
	engine   *health.Engine
	healer   *heal.Manager
	recovery *recovery.Handler
	guard    *auth.Guard
	limiter  *resilience.RateLimiter

	mu     sync.RWMutex
	checks []health.Check
}

// New validates cfg and builds every component from it.
func New(ctx context.Context, cfg config.Config, opts ...Option) (*Doctor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	d := &Doctor{config: cfg, observer: o.observer}
	if d.observer == nil {
		obs, err := observe.NewObserver(ctx, cfg.Observe)
		if err != nil {
			return nil, fmt.Errorf("doctor: observer: %w", err)
		}
		d.observer = obs
		d.owned = true
	}

	inst, err := observe.FromObserver(d.observer)
	if err != nil {
		d.shutdownOwned(ctx)
		return nil, fmt.Errorf("doctor: instrumentation: %w", err)
	}
	d.inst = inst

	guard, err := cfg.Auth.NewGuard(inst.Logger)
	if err != nil {
		d.shutdownOwned(ctx)
		return nil, fmt.Errorf("doctor: auth: %w", err)
	}
	d.guard = guard

	backups := o.backups
	if backups == nil {
		backups = heal.NewFileBackupManager(cfg.BackupDir)
	}

	d.limiter = resilience.NewRateLimiter(cfg.DiagnoseLimit)
	d.engine = health.NewEngine(cfg.Engine, health.WithInstrumentation(inst))
	d.healer = heal.NewManager(cfg.Healer,
		heal.WithInstrumentation(inst),
		heal.WithBackupManager(backups),
		heal.WithRoot(cfg.Root),
	)

	recoveryOpts := []recovery.HandlerOption{recovery.WithInstrumentation(inst)}
	if o.store != nil {
		recoveryOpts = append(recoveryOpts, recovery.WithStore(o.store))
	}
	d.recovery = recovery.NewHandler(cfg.Recovery, recoveryOpts...)

	inst.Logger.Info(ctx, "doctor ready",
		observe.Field{Key: "root", Value: cfg.Root},
		observe.Field{Key: "max_auto_fix_tier", Value: cfg.Healer.MaxAutoFixTier.String()},
		observe.Field{Key: "dry_run", Value: cfg.Healer.DryRun},
	)
	return d, nil
}

// Config returns the configuration the doctor was built from.
func (d *Doctor) Config() config.Config { return d.config }

// Engine returns the health check engine.
func (d *Doctor) Engine() *health.Engine { return d.engine }

// Healer returns the healer manager.
func (d *Doctor) Healer() *heal.Manager { return d.healer }

// Recovery returns the recovery handler.
func (d *Doctor) Recovery() *recovery.Handler { return d.recovery }

// Register adds a check and, when h is non-nil, its healer.
func (d *Doctor) Register(check health.Check, h *heal.Healer) error {
	if check == nil {
		return ErrNilCheck
	}
	def := check.Definition()
	if err := def.Validate(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if slices.ContainsFunc(d.checks, func(c health.Check) bool { return c.Definition().ID == def.ID }) {
		return fmt.Errorf("%w: %s", ErrDuplicateCheck, def.ID)
	}
	d.checks = append(d.checks, check)
	if h != nil {
		d.healer.RegisterHealer(def.ID, *h)
	}
	return nil
}

// Checks returns a copy of the registered checks in registration order.
func (d *Doctor) Checks() []health.Check {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.checks)
}

// Report is the outcome of one Diagnose call.
type Report struct {
	Status    health.Overall       `json:"status"`
	Mode      health.Mode          `json:"mode"`
	Timestamp time.Time            `json:"timestamp"`
	Results   []health.Result      `json:"results"`
	Healing   []heal.HealingResult `json:"healing"`
	Stats     health.Stats         `json:"stats"`
	Critical  bool                 `json:"critical"`
}

// Fixed counts healing results that applied a fix, dry runs included.
func (r Report) Fixed() int {
	n := 0
	for _, h := range r.Healing {
		if h.Action == heal.ActionFixed && h.Success {
			n++
		}
	}
	return n
}

// Prompts returns the healing results awaiting operator confirmation.
func (r Report) Prompts() []heal.HealingResult {
	var out []heal.HealingResult
	for _, h := range r.Healing {
		if h.IsPrompt() {
			out = append(out, h)
		}
	}
	return out
}

// Diagnose runs every registered check in mode and hands the results to the
// healer manager at its configured tier ceiling.
func (d *Doctor) Diagnose(ctx context.Context, mode health.Mode) Report {
	results := d.engine.RunChecks(ctx, d.Checks(), health.RunOptions{Mode: mode})
	healing := d.healer.ApplyFixes(ctx, results)

	report := Report{
		Status:    health.OverallStatus(results),
		Mode:      mode,
		Timestamp: time.Now().UTC(),
		Results:   results,
		Healing:   healing,
		Stats:     d.engine.Stats(),
		Critical:  health.HasCriticalFailure(results),
	}
	d.inst.Logger.Info(ctx, "diagnosis complete",
		observe.Field{Key: "mode", Value: string(mode)},
		observe.Field{Key: "status", Value: string(report.Status)},
		observe.Field{Key: "checks", Value: len(results)},
		observe.Field{Key: "healing", Value: len(healing)},
		observe.Field{Key: "fixed", Value: report.Fixed()},
	)
	return report
}

// RunUnit drives op through the recovery handler; see recovery.Run.
func (d *Doctor) RunUnit(ctx context.Context, unitID string, op func(ctx context.Context) error, cfg recovery.RunConfig) (recovery.Outcome, error) {
	return recovery.Run(ctx, d.recovery, unitID, op, cfg)
}

// Close shuts down the observer when New created it.
func (d *Doctor) Close(ctx context.Context) error {
	if !d.owned {
		return nil
	}
	return d.observer.Shutdown(ctx)
}

func (d *Doctor) shutdownOwned(ctx context.Context) {
	if d.owned {
		_ = d.observer.Shutdown(ctx)
	}
}

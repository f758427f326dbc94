package heal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonwraymond/selfheal/health"
	"github.com/jonwraymond/selfheal/observe"
	"github.com/jonwraymond/selfheal/resilience"
)

// ManagerConfig configures a Manager.
type ManagerConfig struct {
	// MaxAutoFixTier is the default tier ceiling of ApplyFixes.
	// Default: 1 (silent fixes only)
	MaxAutoFixTier Tier `yaml:"max_auto_fix_tier"`

	// DryRun reports what would be fixed without running any fix.
	DryRun bool `yaml:"dry_run"`

	// FixTimeout bounds a single fix.
	// Default: 30 seconds
	FixTimeout time.Duration `yaml:"fix_timeout"`

	// BreakerFailures is the number of consecutive fix failures that open a
	// healer's circuit.
	// Default: 3
	BreakerFailures int `yaml:"breaker_failures"`

	// BreakerReset is how long an open healer circuit rejects fixes.
	// Default: 5 minutes
	BreakerReset time.Duration `yaml:"breaker_reset"`
}

// DefaultManagerConfig returns the default manager configuration.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		MaxAutoFixTier:  TierSilent,
		FixTimeout:      30 * time.Second,
		BreakerFailures: 3,
		BreakerReset:    5 * time.Minute,
	}
}

// Validate rejects out-of-range tiers and negative limits.
func (c ManagerConfig) Validate() error {
	switch {
	case c.MaxAutoFixTier < TierNone || c.MaxAutoFixTier > TierManual:
		return fmt.Errorf("heal: max_auto_fix_tier must be between 0 and 3, got %d", c.MaxAutoFixTier)
	case c.FixTimeout < 0:
		return errors.New("heal: fix_timeout must not be negative")
	case c.BreakerFailures < 0:
		return errors.New("heal: breaker_failures must not be negative")
	case c.BreakerReset < 0:
		return errors.New("heal: breaker_reset must not be negative")
	}
	return nil
}

// withDefaults fills zero limits. MaxAutoFixTier is used as given.
func (c ManagerConfig) withDefaults() ManagerConfig {
	d := DefaultManagerConfig()
	if c.FixTimeout <= 0 {
		c.FixTimeout = d.FixTimeout
	}
	if c.BreakerFailures <= 0 {
		c.BreakerFailures = d.BreakerFailures
	}
	if c.BreakerReset <= 0 {
		c.BreakerReset = d.BreakerReset
	}
	return c
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithInstrumentation sets the tracer, metrics and logger used by the manager.
func WithInstrumentation(inst *observe.Instrumentation) ManagerOption {
	return func(m *Manager) {
		m.inst = inst.OrNop()
	}
}

// WithBackupManager backs up target files before fixes run.
func WithBackupManager(b BackupManager) ManagerOption {
	return func(m *Manager) {
		m.backups = b
	}
}

// WithFixConfig sets the configuration passed to every fix.
func WithFixConfig(cfg health.Config) ManagerOption {
	return func(m *Manager) {
		m.fixConfig = cfg
	}
}

// WithRoot resolves relative target files against dir.
func WithRoot(dir string) ManagerOption {
	return func(m *Manager) {
		m.root = dir
	}
}

type pendingPrompt struct {
	seq    uint64
	result HealingResult
}

// Manager maps check IDs to healers and applies them.
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Errors: Heal and ApplyFixes never fail; fix errors become results with
//     ActionError.
//   - Security: a fix whose target file is blocklisted never runs.
type Manager struct {
	config    ManagerConfig
	inst      *observe.Instrumentation
	backups   BackupManager
	breakers  *resilience.Breakers
	fixConfig health.Config
	root      string

	mu      sync.RWMutex
	healers map[string]*Healer
	log     []LogEntry
	pending map[string]pendingPrompt
	seq     uint64
}

// NewManager creates a healer manager.
func NewManager(config ManagerConfig, opts ...ManagerOption) *Manager {
	cfg := config.withDefaults()

	m := &Manager{
		config:  cfg,
		inst:    observe.Nop(),
		healers: make(map[string]*Healer),
		pending: make(map[string]pendingPrompt),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.breakers = resilience.NewBreakers(resilience.CircuitBreakerConfig{
		MaxFailures:  cfg.BreakerFailures,
		ResetTimeout: cfg.BreakerReset,
	})
	return m
}

// Config returns the effective manager configuration.
func (m *Manager) Config() ManagerConfig {
	return m.config
}

// BackupManager returns the configured backup manager, or nil.
func (m *Manager) BackupManager() BackupManager {
	return m.backups
}

// RegisterHealer registers h for checkID, replacing any previous healer.
func (m *Manager) RegisterHealer(checkID string, h Healer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.healers[checkID] = &h
}

// Healer returns the healer registered for checkID.
func (m *Manager) Healer(checkID string) (Healer, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.healers[checkID]
	if !ok {
		return Healer{}, false
	}
	return *h, true
}

// IsBlocked reports whether target is on the blocklist.
func (m *Manager) IsBlocked(target string) bool {
	return IsBlocked(target)
}

// ApplyFixes heals every healable, non-passing result whose tier is within
// maxTier. Without maxTier the configured MaxAutoFixTier applies.
// Results are returned in input order.
func (m *Manager) ApplyFixes(ctx context.Context, results []health.Result, maxTier ...Tier) []HealingResult {
	ceiling := m.config.MaxAutoFixTier
	if len(maxTier) > 0 {
		ceiling = maxTier[0]
	}

	var out []HealingResult
	for _, r := range results {
		if !r.Healable || r.Status == health.StatusPass || Tier(r.HealingTier) > ceiling {
			continue
		}
		out = append(out, m.Heal(ctx, r, ceiling))
	}
	return out
}

// Heal acts on one result:
//
//   - tier 3, or a tier above maxTier: a manual guide. A tier-2 result is
//     still offered as a prompt when maxTier is at least 1.
//   - no healer, or tier 0: ActionNone with "No healer registered".
//   - tier 1: the fix runs.
//   - tier 2: a prompt awaiting Confirm.
//   - any other tier: ActionUnknown.
func (m *Manager) Heal(ctx context.Context, result health.Result, maxTier Tier) HealingResult {
	tier := Tier(result.HealingTier)
	h, registered := m.Healer(result.CheckID)

	meta := observe.Meta{
		Component: observe.ComponentHeal,
		ID:        result.CheckID,
		Name:      h.Name,
		Domain:    result.Domain,
		Severity:  string(result.Severity),
		Tier:      int(tier),
	}

	var res HealingResult
	_ = m.inst.Span(ctx, meta, func(ctx context.Context) error {
		res = m.dispatch(ctx, result, tier, maxTier, h, registered)
		if res.Action == ActionError {
			return errors.New(res.Error)
		}
		return nil
	})
	m.record(ctx, meta, res)
	return res
}

func (m *Manager) dispatch(ctx context.Context, result health.Result, tier, maxTier Tier, h Healer, registered bool) HealingResult {
	promptable := tier == TierPrompted && maxTier >= TierSilent
	switch {
	case tier == TierManual || (tier > maxTier && !promptable):
		guide := m.guide(result, h, registered)
		return HealingResult{
			CheckID: result.CheckID,
			Healer:  h.Name,
			Tier:    tier,
			Action:  ActionManual,
			Message: guide.Title,
			Guide:   &guide,
		}
	case !registered || tier == TierNone:
		return HealingResult{
			CheckID: result.CheckID,
			Tier:    tier,
			Action:  ActionNone,
			Message: "No healer registered",
		}
	case tier == TierSilent:
		res := m.fix(ctx, result.CheckID, h)
		res.Tier = tier
		return res
	case tier == TierPrompted:
		return m.prompt(result.CheckID, h)
	default:
		return HealingResult{
			CheckID: result.CheckID,
			Healer:  h.Name,
			Tier:    tier,
			Action:  ActionUnknown,
			Message: "Unknown healing tier",
		}
	}
}

// fix runs the blocklist and dry-run gates and then the fix itself.
func (m *Manager) fix(ctx context.Context, checkID string, h Healer) HealingResult {
	res := HealingResult{CheckID: checkID, Healer: h.Name}

	if reason, blocked := m.blockReason(h.TargetFile); blocked {
		res.Action = ActionBlocked
		res.Message = fmt.Sprintf("Refusing to modify %s (%s)", h.TargetFile, reason)
		res.Error = ErrBlocked.Error()
		return res
	}

	if m.config.DryRun {
		res.Action = ActionFixed
		res.Success = true
		res.DryRun = true
		res.Message = "Dry run: would apply " + healerLabel(checkID, h)
		return res
	}

	backupID, err := m.run(ctx, checkID, h)
	res.BackupID = backupID
	if err != nil {
		res.Action = ActionError
		res.Error = err.Error()
		res.Message = "Fix failed: " + err.Error()
		return res
	}

	res.Action = ActionFixed
	res.Success = true
	res.Message = h.SuccessMessage
	if res.Message == "" {
		res.Message = "Applied " + healerLabel(checkID, h)
	}
	return res
}

// run backs up the target, executes the fix behind the healer's breaker and
// restores the backup on failure.
func (m *Manager) run(ctx context.Context, checkID string, h Healer) (string, error) {
	if h.Fix == nil {
		return "", ErrNoFix
	}

	var backupID string
	if target := m.resolve(h.TargetFile); m.backups != nil && target != "" {
		if _, err := os.Stat(target); err == nil {
			id, err := m.backups.Backup(ctx, target)
			if err != nil {
				return "", fmt.Errorf("backup %s: %w", h.TargetFile, err)
			}
			backupID = id
		}
	}

	exec := resilience.NewExecutor(
		resilience.WithCircuitBreaker(m.breakers.Get(checkID)),
		resilience.WithTimeout(m.config.FixTimeout),
	)
	err := exec.Execute(ctx, func(ctx context.Context) error {
		return h.Fix(ctx, m.fixConfig)
	})
	if err != nil && backupID != "" {
		// The fix may have failed because ctx ended; the restore must still run.
		if rerr := m.backups.Restore(context.WithoutCancel(ctx), backupID); rerr != nil {
			m.inst.Logger.Error(ctx, "backup restore failed",
				observe.Field{Key: "heal.id", Value: checkID},
				observe.Field{Key: "backup_id", Value: backupID},
				observe.Field{Key: "error", Value: rerr})
			err = errors.Join(err, rerr)
		}
	}
	return backupID, err
}

func (m *Manager) resolve(target string) string {
	if target == "" || filepath.IsAbs(target) || m.root == "" {
		return target
	}
	return filepath.Join(m.root, target)
}

// blockReason checks target both as given and as resolved against the root.
func (m *Manager) blockReason(target string) (string, bool) {
	if reason, blocked := BlockReason(target); blocked {
		return reason, true
	}
	return BlockReason(m.resolve(target))
}

func (m *Manager) prompt(checkID string, h Healer) HealingResult {
	if reason, blocked := m.blockReason(h.TargetFile); blocked {
		return HealingResult{
			CheckID: checkID,
			Healer:  h.Name,
			Tier:    TierPrompted,
			Action:  ActionBlocked,
			Message: fmt.Sprintf("Refusing to modify %s (%s)", h.TargetFile, reason),
			Error:   ErrBlocked.Error(),
		}
	}

	question := h.PromptQuestion
	if question == "" {
		question = fmt.Sprintf("Apply %s?", healerLabel(checkID, h))
	}
	risk := h.Risk
	if risk == "" {
		risk = RiskMedium
	}
	message := h.PromptMessage
	if message == "" {
		message = "Confirmation required: " + healerLabel(checkID, h)
	}

	m.mu.Lock()
	m.seq++
	seq := m.seq
	m.mu.Unlock()

	res := HealingResult{
		CheckID: checkID,
		Healer:  h.Name,
		Tier:    TierPrompted,
		Action:  ActionPrompt,
		Message: message,
		Prompt: &Prompt{
			Question:    question,
			Message:     h.PromptMessage,
			Description: h.PromptDescription,
			Risk:        risk,
		},
	}

	var resolved atomic.Bool
	res.confirm = func(ctx context.Context, ok bool) HealingResult {
		if !resolved.CompareAndSwap(false, true) {
			return HealingResult{
				CheckID: checkID,
				Healer:  h.Name,
				Tier:    TierPrompted,
				Action:  ActionError,
				Message: ErrPromptResolved.Error(),
				Error:   ErrPromptResolved.Error(),
			}
		}
		m.dropPending(checkID, seq)
		return m.resolvePrompt(ctx, checkID, h, ok)
	}

	m.mu.Lock()
	m.pending[checkID] = pendingPrompt{seq: seq, result: res}
	m.mu.Unlock()
	return res
}

func (m *Manager) resolvePrompt(ctx context.Context, checkID string, h Healer, ok bool) HealingResult {
	meta := observe.Meta{
		Component: observe.ComponentHeal,
		ID:        checkID,
		Name:      h.Name,
		Tier:      int(TierPrompted),
	}

	var res HealingResult
	_ = m.inst.Span(ctx, meta, func(ctx context.Context) error {
		if !ok {
			res = HealingResult{
				CheckID: checkID,
				Healer:  h.Name,
				Action:  ActionDeclined,
				Message: "Fix declined by operator",
			}
		} else {
			res = m.fix(ctx, checkID, h)
		}
		res.Tier = TierPrompted
		if res.Action == ActionError {
			return errors.New(res.Error)
		}
		return nil
	})
	m.record(ctx, meta, res)
	return res
}

func (m *Manager) dropPending(checkID string, seq uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.pending[checkID]; ok && p.seq == seq {
		delete(m.pending, checkID)
	}
}

// Pending returns the unresolved prompts, sorted by check ID.
func (m *Manager) Pending() []HealingResult {
	m.mu.RLock()
	out := make([]HealingResult, 0, len(m.pending))
	for _, p := range m.pending {
		out = append(out, p.result)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CheckID < out[j].CheckID })
	return out
}

// Confirm resolves the pending prompt for checkID.
func (m *Manager) Confirm(ctx context.Context, checkID string, ok bool) (HealingResult, error) {
	m.mu.RLock()
	p, found := m.pending[checkID]
	m.mu.RUnlock()
	if !found {
		return HealingResult{}, fmt.Errorf("%w: %s", ErrNoPending, checkID)
	}
	return p.result.Confirm(ctx, ok), nil
}

// ManualGuide builds the manual instructions for result. Healer-provided
// steps, documentation and warning take precedence over the defaults.
func (m *Manager) ManualGuide(result health.Result) Guide {
	h, ok := m.Healer(result.CheckID)
	return m.guide(result, h, ok)
}

func (m *Manager) guide(result health.Result, h Healer, registered bool) Guide {
	name := result.Name
	if name == "" {
		name = result.CheckID
	}
	g := Guide{
		Title:       "Manual fix required: " + name,
		Description: result.Message,
	}
	if registered {
		g.Steps = append([]string(nil), h.Steps...)
		g.Documentation = h.Documentation
		g.Warning = h.Warning
	}
	if len(g.Steps) == 0 {
		if result.Recommendation != "" {
			g.Steps = append(g.Steps, result.Recommendation)
		}
		g.Steps = append(g.Steps,
			"Review the check details above",
			"Apply the fix by hand",
			"Re-run the health check to verify",
		)
	}
	return g
}

func (m *Manager) record(ctx context.Context, meta observe.Meta, res HealingResult) {
	m.mu.Lock()
	m.log = append(m.log, LogEntry{
		CheckID:   res.CheckID,
		Timestamp: time.Now(),
		Tier:      res.Tier,
		Action:    res.Action,
		Success:   res.Success,
	})
	m.mu.Unlock()

	m.inst.Metrics.RecordHeal(ctx, meta, string(res.Action), res.Success)

	fields := append(meta.Fields(),
		observe.Field{Key: "action", Value: string(res.Action)},
		observe.Field{Key: "success", Value: res.Success},
		observe.Field{Key: "dry_run", Value: res.DryRun},
	)
	if res.Error != "" {
		fields = append(fields, observe.Field{Key: "error", Value: res.Error})
	}
	switch res.Action {
	case ActionError, ActionBlocked:
		m.inst.Logger.Warn(ctx, "healing action", fields...)
	default:
		m.inst.Logger.Info(ctx, "healing action", fields...)
	}
}

// HealingLog returns a copy of the healing log, oldest first.
func (m *Manager) HealingLog() []LogEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]LogEntry(nil), m.log...)
}

// ClearLog empties the healing log.
func (m *Manager) ClearLog() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.log = nil
}

// Breakers returns the state of every healer circuit.
func (m *Manager) Breakers() []resilience.CircuitBreakerMetrics {
	return m.breakers.Snapshot()
}

func healerLabel(checkID string, h Healer) string {
	if h.Name != "" {
		return h.Name
	}
	return "fix for " + checkID
}

package recovery

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonwraymond/selfheal/observe"
)

// HandlerConfig configures a Handler.
type HandlerConfig struct {
	// MaxRetries is the number of unknown or destructive failures a unit may
	// accumulate before it is escalated or skipped. Transient and dependency
	// failures are always retried; Run bounds them at MaxRetries+1 attempts.
	// Default: 3
	MaxRetries int `yaml:"max_retries"`

	// AutoEscalate escalates a unit that exhausts its retries. Without it the
	// phase is skipped instead.
	// Default: true
	AutoEscalate bool `yaml:"auto_escalate"`

	// RetryDependencyOnce retries the first dependency failure of a unit
	// before triggering the recovery workflow.
	// Default: true
	RetryDependencyOnce bool `yaml:"retry_dependency_once"`

	// StoryID is copied into escalation reports.
	StoryID string `yaml:"story_id"`

	// Root is the project root. When set and no store is configured,
	// reports are written under <root>/.selfheal/escalations.
	Root string `yaml:"root"`
}

// DefaultHandlerConfig returns the default handler configuration.
func DefaultHandlerConfig() HandlerConfig {
	return HandlerConfig{
		MaxRetries:          3,
		AutoEscalate:        true,
		RetryDependencyOnce: true,
	}
}

// Validate rejects a negative retry budget.
func (c HandlerConfig) Validate() error {
	if c.MaxRetries < 0 {
		return fmt.Errorf("%w: max_retries must not be negative", ErrInvalidConfig)
	}
	return nil
}

// FailureContext describes the failed attempt.
type FailureContext struct {
	// Approach names what the unit tried.
	Approach string
	// Destructive marks an attempt that left partial changes behind; the
	// retry then rolls back first.
	Destructive bool
	Phase       string
	Metadata    map[string]any
}

// Attempt is one recorded failure of a unit.
type Attempt struct {
	UnitID         string         `json:"unitId"`
	Attempt        int            `json:"attempt"`
	Approach       string         `json:"approach,omitempty"`
	Phase          string         `json:"phase,omitempty"`
	Error          string         `json:"error"`
	Classification ErrorClass     `json:"classification"`
	Strategy       Strategy       `json:"strategy"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	Timestamp      time.Time      `json:"timestamp"`
}

// Outcome is the decision for one failure.
type Outcome struct {
	UnitID         string     `json:"unitId"`
	Strategy       Strategy   `json:"strategy"`
	Result         ResultKind `json:"result"`
	Success        bool       `json:"success"`
	ShouldRetry    bool       `json:"shouldRetry"`
	Escalated      bool       `json:"escalated"`
	Classification ErrorClass `json:"classification"`
	Attempt        int        `json:"attempt"`
	ReportPath     string     `json:"reportPath,omitempty"`
}

// LogEntry is one line of the handler's human-readable trace.
type LogEntry struct {
	UnitID    string    `json:"unitId"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithInstrumentation sets the tracer, metrics and logger used by the handler.
func WithInstrumentation(inst *observe.Instrumentation) HandlerOption {
	return func(h *Handler) {
		h.inst = inst.OrNop()
	}
}

// WithStore sets where escalation reports are persisted.
func WithStore(s EscalationStore) HandlerOption {
	return func(h *Handler) {
		h.store = s
	}
}

// Handler tracks failures per unit and selects recovery strategies.
//
// Contract:
//   - Concurrency: safe for concurrent use. Failures of the same unit are
//     serialised; their order decides attempt numbers.
//   - Errors: HandleEpicFailure never fails; a report that cannot be
//     persisted is logged and the unit is still escalated.
type Handler struct {
	config HandlerConfig
	store  EscalationStore
	inst   *observe.Instrumentation
	now    func() time.Time

	mu        sync.Mutex
	attempts  map[string][]Attempt
	escalated map[string]string
	logs      []LogEntry
	listeners map[EventName][]Listener
}

// NewHandler creates a recovery handler. A non-positive MaxRetries takes
// the default; the boolean settings are used as given.
func NewHandler(config HandlerConfig, opts ...HandlerOption) *Handler {
	if config.MaxRetries <= 0 {
		config.MaxRetries = DefaultHandlerConfig().MaxRetries
	}

	h := &Handler{
		config:    config,
		inst:      observe.Nop(),
		now:       time.Now,
		attempts:  make(map[string][]Attempt),
		escalated: make(map[string]string),
		listeners: make(map[EventName][]Listener),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.store == nil && config.Root != "" {
		h.store = NewFileStore(config.Root)
	}
	return h
}

// Config returns the effective handler configuration.
func (h *Handler) Config() HandlerConfig {
	return h.config
}

// HandleEpicFailure records a failure of unitID and returns the strategy to
// follow. The attempt is recorded before anything else, even when the
// outcome is escalation.
func (h *Handler) HandleEpicFailure(ctx context.Context, unitID string, err error, fc FailureContext) Outcome {
	meta := observe.Meta{Component: observe.ComponentRecovery, ID: unitID, Name: fc.Phase}

	var out Outcome
	_ = h.inst.Span(ctx, meta, func(ctx context.Context) error {
		out = h.handle(ctx, unitID, err, fc)
		return nil
	})
	h.inst.Metrics.RecordRecovery(ctx, meta, string(out.Strategy), out.Escalated)
	return out
}

func (h *Handler) handle(ctx context.Context, unitID string, err error, fc FailureContext) Outcome {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	class := ClassifyMessage(msg)

	h.mu.Lock()
	history := h.attempts[unitID]
	count := len(history) + 1
	record := Attempt{
		UnitID:         unitID,
		Attempt:        count,
		Approach:       fc.Approach,
		Phase:          fc.Phase,
		Error:          msg,
		Classification: class,
		Metadata:       fc.Metadata,
		Timestamp:      h.now(),
	}

	out := Outcome{UnitID: unitID, Classification: class, Attempt: count}
	priorReport, already := h.escalated[unitID]
	escalate := false

	switch {
	case already:
		out.Strategy = StrategyEscalateToHuman
		out.ReportPath = priorReport
	case class == ClassFatal:
		escalate = true
	case class == ClassDependency:
		out.Strategy = StrategyTriggerRecoveryWorkflow
		if h.config.RetryDependencyOnce && dependencyFailures(history) == 0 {
			out.Strategy = StrategyRetrySameApproach
		}
	case class == ClassTransient:
		out.Strategy = StrategyRetrySameApproach
	case count >= h.config.MaxRetries:
		// Transient and dependency failures are never escalated by the budget.
		if h.config.AutoEscalate {
			escalate = true
		} else {
			out.Strategy = StrategySkipPhase
		}
	case fc.Destructive:
		out.Strategy = StrategyRollbackAndRetry
	default:
		out.Strategy = StrategyRetrySameApproach
	}
	if escalate {
		out.Strategy = StrategyEscalateToHuman
		h.escalated[unitID] = ""
	}

	record.Strategy = out.Strategy
	h.attempts[unitID] = append(history, record)
	h.appendLogLocked(unitID, "info", fmt.Sprintf("Unit %s failed (attempt %d/%d, %s): %s",
		unitID, count, h.config.MaxRetries, class, msg))
	h.appendLogLocked(unitID, "info", fmt.Sprintf("Unit %s recovery strategy: %s", unitID, out.Strategy))

	var report EscalationReport
	if escalate {
		report = EscalationReport{
			ID:             uuid.NewString(),
			UnitID:         unitID,
			StoryID:        h.config.StoryID,
			Phase:          fc.Phase,
			Attempts:       append([]Attempt(nil), h.attempts[unitID]...),
			FinalError:     msg,
			Classification: class,
			Timestamp:      record.Timestamp,
		}
	}
	h.mu.Unlock()

	switch out.Strategy {
	case StrategyEscalateToHuman:
		out.Result = ResultEscalated
		out.Escalated = true
	case StrategySkipPhase:
		out.Result = ResultSkipped
	default:
		out.Result = ResultSuccess
		out.Success = true
		out.ShouldRetry = true
	}

	fields := []observe.Field{
		{Key: "recovery.id", Value: unitID},
		{Key: "attempt", Value: count},
		{Key: "classification", Value: string(class)},
		{Key: "strategy", Value: string(out.Strategy)},
		{Key: "error", Value: msg},
	}
	h.inst.Logger.Info(ctx, "recovery attempt", fields...)

	if escalate {
		out.ReportPath = h.persist(ctx, report)
		h.emit(Event{Name: EventEscalation, UnitID: unitID, Attempt: count, Strategy: out.Strategy, Report: &report})
	}
	h.emit(Event{Name: EventRecoveryAttempt, UnitID: unitID, Attempt: count, Strategy: out.Strategy})
	return out
}

func dependencyFailures(history []Attempt) int {
	n := 0
	for _, a := range history {
		if a.Classification == ClassDependency {
			n++
		}
	}
	return n
}

// persist saves report and returns its location, or "" when there is no
// store or saving failed.
func (h *Handler) persist(ctx context.Context, report EscalationReport) string {
	if h.store == nil {
		h.log(report.UnitID, "warn", fmt.Sprintf("Unit %s escalated; no escalation store configured", report.UnitID))
		h.inst.Logger.Warn(ctx, "escalation not persisted",
			observe.Field{Key: "recovery.id", Value: report.UnitID},
			observe.Field{Key: "report_id", Value: report.ID})
		return ""
	}

	path, err := h.store.Save(ctx, report)
	if err != nil {
		h.log(report.UnitID, "error", fmt.Sprintf("Unit %s escalation report not saved: %v", report.UnitID, err))
		h.inst.Logger.Error(ctx, "escalation report not saved",
			observe.Field{Key: "recovery.id", Value: report.UnitID},
			observe.Field{Key: "report_id", Value: report.ID},
			observe.Field{Key: "error", Value: err})
		return ""
	}

	// A reset while saving clears the escalation; do not bring it back.
	h.mu.Lock()
	if _, ok := h.escalated[report.UnitID]; ok {
		h.escalated[report.UnitID] = path
	}
	h.mu.Unlock()

	h.log(report.UnitID, "warn", fmt.Sprintf("Unit %s escalated to human, report saved to %s", report.UnitID, path))
	h.inst.Logger.Warn(ctx, "unit escalated",
		observe.Field{Key: "recovery.id", Value: report.UnitID},
		observe.Field{Key: "report_id", Value: report.ID},
		observe.Field{Key: "report_path", Value: path})
	return path
}

func (h *Handler) log(unitID, level, msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.appendLogLocked(unitID, level, msg)
}

func (h *Handler) appendLogLocked(unitID, level, msg string) {
	h.logs = append(h.logs, LogEntry{UnitID: unitID, Level: level, Message: msg, Timestamp: h.now()})
}

// AttemptCount returns the number of failures recorded for unitID.
func (h *Handler) AttemptCount(unitID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.attempts[unitID])
}

// CanRetry reports whether unitID is below its retry budget and not escalated.
func (h *Handler) CanRetry(unitID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, escalated := h.escalated[unitID]; escalated {
		return false
	}
	return len(h.attempts[unitID]) < h.config.MaxRetries
}

// IsEscalated reports whether unitID has been escalated since its last reset.
func (h *Handler) IsEscalated(unitID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.escalated[unitID]
	return ok
}

// AttemptHistory returns a copy of every unit's attempts.
func (h *Handler) AttemptHistory() map[string][]Attempt {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make(map[string][]Attempt, len(h.attempts))
	for id, list := range h.attempts {
		out[id] = append([]Attempt(nil), list...)
	}
	return out
}

// Units returns the IDs of units with recorded attempts, sorted.
func (h *Handler) Units() []string {
	h.mu.Lock()
	ids := make([]string, 0, len(h.attempts))
	for id := range h.attempts {
		ids = append(ids, id)
	}
	h.mu.Unlock()
	sort.Strings(ids)
	return ids
}

// Logs returns a copy of the trace, oldest first.
func (h *Handler) Logs() []LogEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]LogEntry(nil), h.logs...)
}

// UnitLogs returns the trace entries for unitID.
func (h *Handler) UnitLogs(unitID string) []LogEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []LogEntry
	for _, e := range h.logs {
		if e.UnitID == unitID {
			out = append(out, e)
		}
	}
	return out
}

// ResetAttempts forgets unitID's attempts and escalation.
func (h *Handler) ResetAttempts(unitID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.attempts, unitID)
	delete(h.escalated, unitID)
	h.appendLogLocked(unitID, "info", fmt.Sprintf("Unit %s attempts reset", unitID))
}

// Clear wipes all attempts, escalations and logs. Listeners stay registered.
func (h *Handler) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.attempts = make(map[string][]Attempt)
	h.escalated = make(map[string]string)
	h.logs = nil
}

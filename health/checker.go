package health

import (
	"context"
	"fmt"
	"time"
)

// Severity ranks checks for ordering and fail-fast.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
)

// Rank returns 0 for CRITICAL through 3 for LOW, and 4 for unknown values.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	default:
		return 4
	}
}

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool {
	return s.Rank() < 4
}

// Status is the outcome of a single check execution.
type Status string

const (
	StatusPass    Status = "PASS"
	StatusWarning Status = "WARNING"
	StatusFail    Status = "FAIL"
	StatusError   Status = "ERROR"
	StatusSkipped Status = "SKIPPED"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPass, StatusWarning, StatusFail, StatusError, StatusSkipped:
		return true
	}
	return false
}

// Failed reports whether s is FAIL or ERROR.
func (s Status) Failed() bool {
	return s == StatusFail || s == StatusError
}

// Mode selects the overall time budget of a run.
type Mode string

const (
	ModeQuick Mode = "quick"
	ModeFull  Mode = "full"
)

// MaxHealingTier is the highest healing tier a result can carry.
const MaxHealingTier = 3

// Config is the run configuration handed to every check.
type Config map[string]any

// Definition is the immutable metadata of a check.
type Definition struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Domain      string        `json:"domain,omitempty"`
	Severity    Severity      `json:"severity"`
	Timeout     time.Duration `json:"timeout"`
	Cacheable   bool          `json:"cacheable"`
}

// Validate checks that the definition has an ID and a known severity.
func (d Definition) Validate() error {
	if d.ID == "" {
		return ErrMissingID
	}
	if !d.Severity.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidSeverity, d.Severity)
	}
	return nil
}

// Check is a diagnostic probe.
//
// Contract:
//   - Definition must return the same value on every call.
//   - Execute should honor ctx cancellation; the engine stops waiting at the
//     check timeout either way.
//   - A returned error becomes an ERROR result carrying err.Error().
type Check interface {
	Definition() Definition
	Execute(ctx context.Context, cfg Config) (Outcome, error)
}

// Outcome is what a check reports about itself.
type Outcome struct {
	Status         Status
	Message        string
	Details        map[string]any
	Recommendation string
	Healable       bool
	HealingTier    int
}

// Pass creates a PASS outcome.
func Pass(message string) Outcome {
	return Outcome{Status: StatusPass, Message: message}
}

// Warn creates a WARNING outcome.
func Warn(message string) Outcome {
	return Outcome{Status: StatusWarning, Message: message}
}

// Fail creates a FAIL outcome.
func Fail(message string) Outcome {
	return Outcome{Status: StatusFail, Message: message}
}

// WithDetails adds details to an outcome.
func (o Outcome) WithDetails(details map[string]any) Outcome {
	o.Details = details
	return o
}

// WithRecommendation sets the remediation hint.
func (o Outcome) WithRecommendation(rec string) Outcome {
	o.Recommendation = rec
	return o
}

// WithHealing marks the outcome healable at the given tier.
func (o Outcome) WithHealing(tier int) Outcome {
	o.Healable = true
	o.HealingTier = tier
	return o
}

// CheckFunc adapts a function to the Check interface.
type CheckFunc struct {
	def Definition
	fn  func(context.Context, Config) (Outcome, error)
}

// NewCheck creates a Check from a definition and a function.
func NewCheck(def Definition, fn func(context.Context, Config) (Outcome, error)) *CheckFunc {
	return &CheckFunc{def: def, fn: fn}
}

// Definition returns the check metadata.
func (f *CheckFunc) Definition() Definition {
	return f.def
}

// Execute runs the check function.
func (f *CheckFunc) Execute(ctx context.Context, cfg Config) (Outcome, error) {
	return f.fn(ctx, cfg)
}

// Result is the record of one check execution. Results are never mutated
// after creation; cached results are shared read-only snapshots.
type Result struct {
	CheckID        string         `json:"checkId"`
	Name           string         `json:"name"`
	Domain         string         `json:"domain,omitempty"`
	Severity       Severity       `json:"severity"`
	Status         Status         `json:"status"`
	Message        string         `json:"message"`
	Details        map[string]any `json:"details,omitempty"`
	Recommendation string         `json:"recommendation,omitempty"`
	Healable       bool           `json:"healable"`
	HealingTier    int            `json:"healingTier"`
	Duration       time.Duration  `json:"duration"`
	Timestamp      time.Time      `json:"timestamp"`
	FromCache      bool           `json:"fromCache"`
}

// NewResult builds a Result from a definition and an outcome.
// The tier is clamped to 0..MaxHealingTier and a positive tier forces Healable.
// An unknown status becomes ERROR.
func NewResult(def Definition, out Outcome, duration time.Duration) Result {
	if !out.Status.Valid() {
		return ErrorResult(def, fmt.Sprintf("%v: %q", ErrInvalidStatus, out.Status), duration)
	}

	tier := out.HealingTier
	if tier < 0 {
		tier = 0
	}
	if tier > MaxHealingTier {
		tier = MaxHealingTier
	}

	return Result{
		CheckID:        def.ID,
		Name:           def.Name,
		Domain:         def.Domain,
		Severity:       def.Severity,
		Status:         out.Status,
		Message:        out.Message,
		Details:        out.Details,
		Recommendation: out.Recommendation,
		Healable:       out.Healable || tier > 0,
		HealingTier:    tier,
		Duration:       duration,
		Timestamp:      time.Now(),
	}
}

// ErrorResult creates an ERROR result. Errors are never healable.
func ErrorResult(def Definition, message string, duration time.Duration) Result {
	return Result{
		CheckID:   def.ID,
		Name:      def.Name,
		Domain:    def.Domain,
		Severity:  def.Severity,
		Status:    StatusError,
		Message:   message,
		Duration:  duration,
		Timestamp: time.Now(),
	}
}

// SkippedResult creates a SKIPPED result with zero duration.
func SkippedResult(def Definition, message string) Result {
	return Result{
		CheckID:   def.ID,
		Name:      def.Name,
		Domain:    def.Domain,
		Severity:  def.Severity,
		Status:    StatusSkipped,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// HasCriticalFailure reports whether any CRITICAL result failed or errored.
func HasCriticalFailure(results []Result) bool {
	for _, r := range results {
		if r.Severity == SeverityCritical && r.Status.Failed() {
			return true
		}
	}
	return false
}

package heal

import (
	"context"
	"time"

	"github.com/jonwraymond/selfheal/health"
)

// Tier is the automation ceiling of a fix.
type Tier int

const (
	TierNone Tier = iota
	TierSilent
	TierPrompted
	TierManual
)

// String returns the tier name.
func (t Tier) String() string {
	switch t {
	case TierNone:
		return "none"
	case TierSilent:
		return "silent"
	case TierPrompted:
		return "prompted"
	case TierManual:
		return "manual"
	default:
		return "unknown"
	}
}

// Action records what a heal call did.
type Action string

const (
	ActionNone     Action = "none"
	ActionFixed    Action = "fixed"
	ActionPrompt   Action = "prompt"
	ActionManual   Action = "manual"
	ActionBlocked  Action = "blocked"
	ActionError    Action = "error"
	ActionDeclined Action = "declined"
	ActionUnknown  Action = "unknown"
)

// Risk describes how disruptive a fix is.
type Risk string

const (
	RiskLow    Risk = "low"
	RiskMedium Risk = "medium"
	RiskHigh   Risk = "high"
)

// FixFunc applies a fix. cfg is the manager's fix configuration.
type FixFunc func(ctx context.Context, cfg health.Config) error

// Healer is a fix registered against a check ID.
type Healer struct {
	Name string
	Fix  FixFunc

	SuccessMessage    string
	PromptMessage     string
	PromptQuestion    string
	PromptDescription string
	Risk              Risk

	// TargetFile is the file the fix modifies. It is matched against the
	// blocklist and backed up before the fix runs.
	TargetFile string

	// Manual guide fields.
	Steps         []string
	Documentation string
	Warning       string
}

// Prompt asks an operator to confirm a tier-2 fix.
type Prompt struct {
	Question    string `json:"question"`
	Message     string `json:"message,omitempty"`
	Description string `json:"description,omitempty"`
	Risk        Risk   `json:"risk"`
}

// Guide tells an operator how to fix a problem by hand.
type Guide struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Steps         []string `json:"steps"`
	Documentation string   `json:"documentation,omitempty"`
	Warning       string   `json:"warning,omitempty"`
}

// HealingResult is the outcome of a heal call or a prompt confirmation.
type HealingResult struct {
	CheckID  string  `json:"checkId"`
	Healer   string  `json:"healer,omitempty"`
	Tier     Tier    `json:"tier"`
	Action   Action  `json:"action"`
	Success  bool    `json:"success"`
	Message  string  `json:"message"`
	DryRun   bool    `json:"dryRun,omitempty"`
	Error    string  `json:"error,omitempty"`
	Prompt   *Prompt `json:"prompt,omitempty"`
	Guide    *Guide  `json:"guide,omitempty"`
	BackupID string  `json:"backupId,omitempty"`

	confirm func(ctx context.Context, ok bool) HealingResult
}

// Confirm resolves a prompt. With ok the fix runs (or is simulated in
// dry-run); without it the result is declined and the fix never runs.
// A prompt resolves once; later calls return an error result.
func (r HealingResult) Confirm(ctx context.Context, ok bool) HealingResult {
	if r.confirm == nil {
		return HealingResult{
			CheckID: r.CheckID,
			Tier:    r.Tier,
			Action:  ActionError,
			Message: ErrNotPrompt.Error(),
			Error:   ErrNotPrompt.Error(),
		}
	}
	return r.confirm(ctx, ok)
}

// IsPrompt reports whether the result awaits confirmation.
func (r HealingResult) IsPrompt() bool {
	return r.Action == ActionPrompt && r.confirm != nil
}

// LogEntry records one heal call or confirmation.
type LogEntry struct {
	CheckID   string    `json:"checkId"`
	Timestamp time.Time `json:"timestamp"`
	Tier      Tier      `json:"tier"`
	Action    Action    `json:"action"`
	Success   bool      `json:"success"`
}

package recovery

import (
	"context"
	"fmt"
	"time"

	"github.com/jonwraymond/selfheal/resilience"
)

// RunConfig configures Run.
type RunConfig struct {
	Approach string
	Phase    string

	// Destructive marks every failed attempt as having left partial changes.
	Destructive bool

	// Backoff shapes the delay between attempts. MaxAttempts is ignored;
	// the handler decides when to stop.
	Backoff resilience.RetryConfig

	// Rollback runs before an attempt that follows ROLLBACK_AND_RETRY.
	Rollback func(ctx context.Context) error

	// Workflow runs before an attempt that follows TRIGGER_RECOVERY_WORKFLOW.
	Workflow func(ctx context.Context) error
}

// Run executes op for unitID, reporting each failure to h and retrying while
// h recommends it. It returns the last outcome and, on failure, the last
// error. A successful run returns an Outcome with Result ResultSuccess.
func Run(ctx context.Context, h *Handler, unitID string, op func(ctx context.Context) error, cfg RunConfig) (Outcome, error) {
	if h == nil {
		return Outcome{UnitID: unitID, Result: ResultFailed}, ErrNilHandler
	}

	fc := FailureContext{Approach: cfg.Approach, Destructive: cfg.Destructive, Phase: cfg.Phase}

	var last Outcome
	backoff := cfg.Backoff
	backoff.MaxAttempts = h.Config().MaxRetries + 1
	backoff.RetryIf = func(err error) bool {
		last = h.HandleEpicFailure(ctx, unitID, err, fc)
		return last.ShouldRetry
	}
	if backoff.InitialDelay <= 0 {
		backoff.InitialDelay = 50 * time.Millisecond
	}

	attempt := 0
	err := resilience.NewRetry(backoff).Execute(ctx, func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			if err := prepare(ctx, last.Strategy, cfg); err != nil {
				return err
			}
		}
		return op(ctx)
	})

	switch {
	case err == nil:
		return Outcome{
			UnitID:  unitID,
			Result:  ResultSuccess,
			Success: true,
			Attempt: attempt,
		}, nil
	case ctx.Err() != nil && !last.Escalated:
		last.UnitID = unitID
		last.Result = ResultFailed
		last.Success = false
		last.ShouldRetry = false
		return last, err
	}
	return last, err
}

// prepare runs the recovery step that precedes a retry under strategy.
func prepare(ctx context.Context, strategy Strategy, cfg RunConfig) error {
	switch {
	case strategy == StrategyRollbackAndRetry && cfg.Rollback != nil:
		if err := cfg.Rollback(ctx); err != nil {
			return fmt.Errorf("rollback: %w", err)
		}
	case strategy == StrategyTriggerRecoveryWorkflow && cfg.Workflow != nil:
		if err := cfg.Workflow(ctx); err != nil {
			return fmt.Errorf("recovery workflow: %w", err)
		}
	}
	return nil
}

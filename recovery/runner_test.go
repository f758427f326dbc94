package recovery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonwraymond/selfheal/resilience"
)

var fastBackoff = resilience.RetryConfig{
	InitialDelay: time.Millisecond,
	MaxDelay:     time.Millisecond,
	Strategy:     resilience.BackoffConstant,
}

func TestRun_SucceedsAfterTransientFailures(t *testing.T) {
	h := NewHandler(DefaultHandlerConfig())
	calls := 0

	out, err := Run(context.Background(), h, "u", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("ECONNREFUSED")
		}
		return nil
	}, RunConfig{Backoff: fastBackoff})

	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !out.Success || out.Result != ResultSuccess || out.Attempt != 3 {
		t.Errorf("Run() = %+v", out)
	}
	if h.AttemptCount("u") != 2 {
		t.Errorf("AttemptCount = %d, want 2", h.AttemptCount("u"))
	}
}

func TestRun_EscalatesAfterBudget(t *testing.T) {
	h := NewHandler(DefaultHandlerConfig())
	calls := 0
	opErr := errors.New("still broken")

	out, err := Run(context.Background(), h, "u", func(ctx context.Context) error {
		calls++
		return opErr
	}, RunConfig{Backoff: fastBackoff})

	if !errors.Is(err, opErr) {
		t.Errorf("Run() error = %v, want op error", err)
	}
	if !out.Escalated || out.Strategy != StrategyEscalateToHuman {
		t.Errorf("Run() = %+v, want escalation", out)
	}
	if calls != 3 {
		t.Errorf("op calls = %d, want 3", calls)
	}
}

func TestRun_TransientBoundedWithoutEscalation(t *testing.T) {
	h := NewHandler(HandlerConfig{MaxRetries: 2, AutoEscalate: true})
	calls := 0

	out, err := Run(context.Background(), h, "u", func(ctx context.Context) error {
		calls++
		return errors.New("ETIMEDOUT")
	}, RunConfig{Backoff: fastBackoff})

	if !errors.Is(err, resilience.ErrMaxRetriesExceeded) {
		t.Errorf("Run() error = %v, want ErrMaxRetriesExceeded", err)
	}
	if out.Escalated || h.IsEscalated("u") {
		t.Errorf("Run() = %+v, want no escalation", out)
	}
	if calls != 3 {
		t.Errorf("op calls = %d, want 3", calls)
	}
}

func TestRun_FatalStopsImmediately(t *testing.T) {
	h := NewHandler(DefaultHandlerConfig())
	calls := 0

	out, _ := Run(context.Background(), h, "u", func(ctx context.Context) error {
		calls++
		return errors.New("fatal: out of memory")
	}, RunConfig{Backoff: fastBackoff})

	if calls != 1 || !out.Escalated {
		t.Errorf("calls = %d, Run() = %+v", calls, out)
	}
}

func TestRun_RollbackBeforeRetry(t *testing.T) {
	h := NewHandler(DefaultHandlerConfig())
	var order []string

	_, err := Run(context.Background(), h, "u", func(ctx context.Context) error {
		order = append(order, "op")
		if len(order) == 1 {
			return errors.New("partial write")
		}
		return nil
	}, RunConfig{
		Destructive: true,
		Backoff:     fastBackoff,
		Rollback: func(ctx context.Context) error {
			order = append(order, "rollback")
			return nil
		},
	})

	if err != nil {
		t.Fatal(err)
	}
	want := []string{"op", "rollback", "op"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestRun_WorkflowForDependencyFailure(t *testing.T) {
	h := NewHandler(HandlerConfig{MaxRetries: 5, AutoEscalate: true, RetryDependencyOnce: true})
	workflows := 0
	calls := 0

	_, err := Run(context.Background(), h, "u", func(ctx context.Context) error {
		calls++
		if calls <= 2 {
			return errors.New("Cannot find module lodash")
		}
		return nil
	}, RunConfig{
		Backoff: fastBackoff,
		Workflow: func(ctx context.Context) error {
			workflows++
			return nil
		},
	})

	if err != nil {
		t.Fatal(err)
	}
	if workflows != 1 {
		t.Errorf("workflow runs = %d, want 1 (first dependency failure retries plainly)", workflows)
	}
}

func TestRun_SkipWithoutAutoEscalate(t *testing.T) {
	h := NewHandler(HandlerConfig{MaxRetries: 2})
	out, err := Run(context.Background(), h, "u", func(ctx context.Context) error {
		return errors.New("nope")
	}, RunConfig{Backoff: fastBackoff})

	if err == nil || out.Strategy != StrategySkipPhase || out.Escalated {
		t.Errorf("Run() = %+v, %v; want skip", out, err)
	}
}

func TestRun_Cancelled(t *testing.T) {
	h := NewHandler(HandlerConfig{MaxRetries: 10, AutoEscalate: true})
	ctx, cancel := context.WithCancel(context.Background())

	out, err := Run(ctx, h, "u", func(ctx context.Context) error {
		cancel()
		return errors.New("timeout")
	}, RunConfig{Backoff: resilience.RetryConfig{InitialDelay: time.Second, Strategy: resilience.BackoffConstant}})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
	if out.Result != ResultFailed || out.ShouldRetry {
		t.Errorf("Run() = %+v, want failed", out)
	}
}

func TestRun_NilHandler(t *testing.T) {
	if _, err := Run(context.Background(), nil, "u", func(context.Context) error { return nil }, RunConfig{}); !errors.Is(err, ErrNilHandler) {
		t.Errorf("Run(nil) error = %v, want ErrNilHandler", err)
	}
}

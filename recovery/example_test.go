package recovery_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonwraymond/selfheal/recovery"
)

func ExampleHandler_HandleEpicFailure() {
	h := recovery.NewHandler(recovery.DefaultHandlerConfig())
	ctx := context.Background()

	for _, msg := range []string{"ETIMEDOUT", "Cannot find module lodash", "Fatal: out of memory"} {
		out := h.HandleEpicFailure(ctx, "epic-7", errors.New(msg), recovery.FailureContext{})
		fmt.Println(out.Classification, out.Strategy, out.Escalated)
	}
	fmt.Println(h.AttemptCount("epic-7"), h.CanRetry("epic-7"))
	// Output:
	// transient retry_same_approach false
	// dependency retry_same_approach false
	// fatal escalate_to_human true
	// 3 false
}

func ExampleClassify() {
	fmt.Println(recovery.Classify(errors.New("dial tcp: ECONNREFUSED")))
	fmt.Println(recovery.Classify(errors.New("exit status 1")))
	// Output:
	// transient
	// unknown
}

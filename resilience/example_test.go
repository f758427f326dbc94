package resilience_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonwraymond/selfheal/resilience"
)

func ExampleWithin() {
	_, err := resilience.Within(context.Background(), 10*time.Millisecond, func(ctx context.Context) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	fmt.Println(errors.Is(err, resilience.ErrTimeout))
	// Output:
	// true
}

func ExampleBreakers() {
	breakers := resilience.NewBreakers(resilience.CircuitBreakerConfig{MaxFailures: 1})
	ctx := context.Background()

	_ = breakers.Get("lockfile").Execute(ctx, func(context.Context) error {
		return errors.New("fix failed")
	})
	err := breakers.Get("lockfile").Execute(ctx, func(context.Context) error { return nil })

	fmt.Println(breakers.Get("lockfile").State())
	fmt.Println(errors.Is(err, resilience.ErrCircuitOpen))
	// Output:
	// open
	// true
}

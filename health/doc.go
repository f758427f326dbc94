// Package health runs diagnostic checks against a project or environment.
//
// A Check is a named probe carrying a Definition (domain, severity, timeout,
// cacheable) and an Execute operation returning an Outcome. The Engine runs a
// set of checks under a mode deadline, in severity order, and turns every
// outcome, error, timeout or panic into a Result. Nothing a check does can make
// RunChecks fail.
//
// # Basic Usage
//
//	engine := health.NewEngine(health.DefaultEngineConfig())
//
//	node := health.NewCheck(health.Definition{
//	    ID:        "node-version",
//	    Name:      "Node.js version",
//	    Domain:    "local",
//	    Severity:  health.SeverityCritical,
//	    Timeout:   2 * time.Second,
//	    Cacheable: true,
//	}, func(ctx context.Context, cfg health.Config) (health.Outcome, error) {
//	    return health.Pass("node 20.11.0"), nil
//	})
//
//	results := engine.RunChecks(ctx, []health.Check{node}, health.RunOptions{Mode: health.ModeQuick})
//	if health.HasCriticalFailure(results) {
//	    // stop the pipeline
//	}
//
// # Scheduling
//
// Checks are stable-sorted by severity before dispatch. With Parallel set, each
// run of equal-severity checks is one batch, launched together and awaited
// together. Before each dispatch the engine compares elapsed time with the
// mode budget; once it is spent, the remaining checks become SKIPPED. In quick
// mode a CRITICAL check that fails or errors stops dispatch and the remaining
// checks are left out of the result set.
//
// # HTTP Endpoints
//
//	mux := http.NewServeMux()
//	health.RegisterHandlers(mux, engine, checks)
package health

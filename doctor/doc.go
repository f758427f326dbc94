// Package doctor assembles the health engine, healer manager and recovery
// handler from a config.Config and runs the diagnose then heal flow.
//
// # Basic Usage
//
//	cfg, err := config.Load(ctx, "selfheal.yaml")
//	if err != nil {
//	    return err
//	}
//	d, err := doctor.New(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer d.Close(context.Background())
//
//	d.Register(diskCheck, &heal.Healer{Name: "prune cache", Fix: pruneCache})
//	report := d.Diagnose(ctx, health.ModeFull)
//
// Handler exposes the probes, the detailed health report, pending prompts and
// their confirmation over HTTP. Everything except the liveness and readiness
// probes goes through the auth.Guard built from the auth section.
package doctor

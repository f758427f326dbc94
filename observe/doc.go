// Package observe provides logging, tracing and metrics for health checks,
// healing actions and recovery attempts.
//
// It is a pure instrumentation library: no execution and no I/O beyond
// exporter setup. The health, heal and recovery packages accept an
// *Instrumentation; a nil value is replaced by Nop().
package observe

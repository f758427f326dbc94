// Package recovery decides what to do when a pipeline unit fails.
//
// A Handler records every failure of a unit, classifies the error by its
// message (fatal, transient, dependency or unknown) and picks one of five
// strategies: retry the same approach, roll back and retry, skip the phase,
// trigger a recovery workflow, or escalate to a human. Transient and
// dependency failures are always retried. Any other failure that exhausts
// the retry budget is escalated (when AutoEscalate is set) and an
// EscalationReport is persisted through an EscalationStore. Escalation is
// sticky until ResetAttempts or Clear.
//
// Run drives an operation through a Handler, backing off between attempts
// and stopping as soon as the handler no longer recommends a retry.
package recovery

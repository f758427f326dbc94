package recovery

import "strings"

// Strategy is the recovery action chosen for a failure.
type Strategy string

const (
	StrategyRetrySameApproach       Strategy = "retry_same_approach"
	StrategyRollbackAndRetry        Strategy = "rollback_and_retry"
	StrategySkipPhase               Strategy = "skip_phase"
	StrategyEscalateToHuman         Strategy = "escalate_to_human"
	StrategyTriggerRecoveryWorkflow Strategy = "trigger_recovery_workflow"
)

// Retries reports whether the strategy runs the unit again.
func (s Strategy) Retries() bool {
	switch s {
	case StrategyRetrySameApproach, StrategyRollbackAndRetry, StrategyTriggerRecoveryWorkflow:
		return true
	default:
		return false
	}
}

// ResultKind summarises an outcome.
type ResultKind string

const (
	ResultSuccess   ResultKind = "success"
	ResultFailed    ResultKind = "failed"
	ResultEscalated ResultKind = "escalated"
	ResultSkipped   ResultKind = "skipped"
)

// ErrorClass is the category of a failure.
type ErrorClass string

const (
	ClassFatal      ErrorClass = "fatal"
	ClassTransient  ErrorClass = "transient"
	ClassDependency ErrorClass = "dependency"
	ClassUnknown    ErrorClass = "unknown"
)

var (
	fatalMarkers = []string{
		"fatal:",
		"fatal error",
		"out of memory",
		"enomem",
		"heap limit",
	}
	transientMarkers = []string{
		"timeout",
		"timed out",
		"etimedout",
		"econnrefused",
		"econnreset",
		"network error",
		"fetch failed",
		"socket hang up",
	}
	dependencyMarkers = []string{
		"cannot find module",
		"module not found",
		"cannot find package",
		"no such package",
		"missing dependency",
	}
)

// Classify categorises err by case-insensitive substring matching, checking
// fatal, transient and dependency markers in that order.
func Classify(err error) ErrorClass {
	if err == nil {
		return ClassUnknown
	}
	return ClassifyMessage(err.Error())
}

// ClassifyMessage categorises an error message.
func ClassifyMessage(msg string) ErrorClass {
	msg = strings.ToLower(msg)
	switch {
	case containsAny(msg, fatalMarkers):
		return ClassFatal
	case containsAny(msg, transientMarkers):
		return ClassTransient
	case containsAny(msg, dependencyMarkers):
		return ClassDependency
	default:
		return ClassUnknown
	}
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

package recovery

import "errors"

var (
	// ErrNilHandler is returned by Run when no handler is supplied.
	ErrNilHandler = errors.New("recovery: handler is nil")

	// ErrReportNotFound indicates an unknown escalation report.
	ErrReportNotFound = errors.New("recovery: escalation report not found")

	// ErrInvalidConfig indicates an invalid handler configuration.
	ErrInvalidConfig = errors.New("recovery: invalid configuration")
)

package health

import "errors"

var (
	// ErrMissingID indicates a check definition has no ID.
	ErrMissingID = errors.New("health: check id is required")

	// ErrInvalidSeverity indicates a severity outside CRITICAL|HIGH|MEDIUM|LOW.
	ErrInvalidSeverity = errors.New("health: invalid severity")

	// ErrInvalidStatus indicates a check returned an unknown status.
	ErrInvalidStatus = errors.New("health: invalid status")

	// ErrInvalidConfig indicates an engine configuration value is out of range.
	ErrInvalidConfig = errors.New("health: invalid engine config")
)

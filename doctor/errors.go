package doctor

import "errors"

var (
	// ErrNilCheck is returned by Register for a nil check.
	ErrNilCheck = errors.New("doctor: check is nil")

	// ErrDuplicateCheck is returned by Register for an ID already registered.
	ErrDuplicateCheck = errors.New("doctor: check already registered")
)

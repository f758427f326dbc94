package config

import "errors"

var (
	// ErrInvalidConfig indicates a configuration that failed validation.
	ErrInvalidConfig = errors.New("config: invalid configuration")

	// ErrMissingEnv indicates ${VAR} references to unset variables.
	ErrMissingEnv = errors.New("config: missing required environment variables")

	// ErrUnknownProvider indicates a secret reference to an unregistered provider.
	ErrUnknownProvider = errors.New("config: secret provider not registered")

	// ErrEmptySecret indicates a provider resolved a reference to "".
	ErrEmptySecret = errors.New("config: secret resolved to empty value")
)

// Package cache provides the TTL result cache shared by the check engine.
//
// It provides a generic Cache interface with an in-memory implementation that
// expires entries lazily on read, deterministic key derivation for check
// executions, and a Loader that collapses concurrent loads of the same key.
package cache

package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for infrastructure and configuration failures. Per-record
// data issues are never raised; they are filtered and counted during
// ingestion.
var (
	// ErrIndexUnavailable means the persisted index is missing, corrupt, or
	// mid-rebuild. Raised at load time rather than masked as empty results.
	ErrIndexUnavailable = errors.New("index unavailable")

	// ErrModelMismatch means the embedding model configured for queries is
	// not the one the index was built with. Fatal at startup.
	ErrModelMismatch = errors.New("embedding model mismatch")

	// ErrInvalidChunkParams means the chunk size/overlap configuration is
	// malformed (overlap must be smaller than the chunk size).
	ErrInvalidChunkParams = errors.New("invalid chunk parameters")

	// ErrEmptyQuestion is returned for blank query input.
	ErrEmptyQuestion = errors.New("question is empty")
)

// ConfigError wraps a configuration sentinel with the offending parameter.
type ConfigError struct {
	Param   string
	Value   string
	Wrapped error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s (value=%q)", e.Wrapped, e.Param, e.Value)
}

func (e *ConfigError) Unwrap() error { return e.Wrapped }

// NewConfigError creates a ConfigError.
func NewConfigError(param, value string, wrapped error) *ConfigError {
	return &ConfigError{Param: param, Value: value, Wrapped: wrapped}
}

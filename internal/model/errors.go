package model

import (
	"fmt"
	"time"
)

// UpstreamError wraps a failed ATS API call (non-2xx, timeout, or a
// malformed payload) so retry logic can inspect the status code.
type UpstreamError struct {
	Source     SourceKind
	Status     int           // zero for transport-level failures
	Body       string        // truncated response body, may be empty
	RetryAfter time.Duration // from Retry-After header, zero if absent
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s upstream: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("%s upstream: HTTP %d", e.Source, e.Status)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// MalformedPostingError marks a single posting that cannot be normalized
// (e.g. missing external id). The posting is skipped and logged; the rest
// of the batch is unaffected.
type MalformedPostingError struct {
	Source SourceKind
	Reason string
}

func (e *MalformedPostingError) Error() string {
	return fmt.Sprintf("malformed %s posting: %s", e.Source, e.Reason)
}

// PersistenceError wraps a storage write failure after retries.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// ConfigurationError marks missing credentials or invalid settings.
// Fatal to the whole cycle, never retried.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration %s: %s", e.Field, e.Reason)
}

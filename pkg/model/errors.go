// Package model defines the shared evidence and result types that flow
// through an audit, plus the error taxonomy every other package reports
// errors against.
package model

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. These are kinds, not concrete types — callers use
// errors.Is against these values and wrap them with context via fmt.Errorf.
var (
	// ErrInput indicates an invalid URL, unknown tier, or malformed
	// configuration. Fatal at startup only.
	ErrInput = errors.New("invalid input")

	// ErrCancelled indicates the supervisor or user requested cancellation.
	// Propagated through the whole pipeline; never logged as an error.
	ErrCancelled = errors.New("audit cancelled")

	// ErrTimeout indicates a bounded operation exceeded its deadline.
	// Recoverable per operation.
	ErrTimeout = errors.New("operation timed out")

	// ErrRateLimited indicates an OSINT source rejected a query because its
	// quota is exhausted. Never fatal.
	ErrRateLimited = errors.New("source rate limited")

	// ErrCircuitOpen indicates an OSINT source's circuit breaker is open.
	// Never fatal.
	ErrCircuitOpen = errors.New("source circuit open")

	// ErrUpstream indicates an external source returned an error or an
	// unparsable response. Recorded on the source's breaker; recoverable.
	ErrUpstream = errors.New("upstream source error")

	// ErrTransport indicates the progress-event transport failed to
	// deliver. Triggers a mode fallback; only fatal if fallback also fails.
	ErrTransport = errors.New("progress transport failure")

	// ErrBudget indicates a hard budget was exceeded. Routes to
	// force_verdict; never fatal on its own.
	ErrBudget = errors.New("audit budget exceeded")

	// ErrInternal indicates an invariant violation. Aborts the audit.
	ErrInternal = errors.New("internal invariant violation")
)

// CauseTag classifies why a source query failed, attached to ErrUpstream
// and similar errors so callers can distinguish failure modes without
// string matching.
type CauseTag string

const (
	CauseTimeout   CauseTag = "timeout"
	CauseTransport CauseTag = "transport"
	CauseUpstream  CauseTag = "upstream"
	CauseParse     CauseTag = "parse"
)

// SourceError wraps a source-query failure with a cause tag and the source
// name, so phase handlers can record structured entries in AuditState.Errors
// without parsing error strings.
type SourceError struct {
	Source string
	Cause  CauseTag
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %s: %s: %v", e.Source, e.Cause, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// ErrorRecord is an accumulated non-fatal error entry in AuditState.Errors.
// Append-only; never removed once recorded.
type ErrorRecord struct {
	Phase     string `json:"phase"`
	Source    string `json:"source,omitempty"`
	Message   string `json:"message"`
	Kind      string `json:"kind"`
	Timestamp int64  `json:"timestamp"`
}

// NewErrorRecord builds an ErrorRecord from a phase name and error,
// classifying it against the sentinel kinds above for the Kind field.
func NewErrorRecord(phase string, source string, err error, nowUnix int64) ErrorRecord {
	return ErrorRecord{
		Phase:     phase,
		Source:    source,
		Message:   err.Error(),
		Kind:      classify(err),
		Timestamp: nowUnix,
	}
}

func classify(err error) string {
	switch {
	case errors.Is(err, ErrCancelled):
		return "cancelled"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, ErrUpstream):
		return "upstream"
	case errors.Is(err, ErrTransport):
		return "transport"
	case errors.Is(err, ErrBudget):
		return "budget"
	case errors.Is(err, ErrInternal):
		return "internal"
	case errors.Is(err, ErrInput):
		return "input"
	default:
		return "unknown"
	}
}

// Package hiveerr defines the coordinator's error taxonomy. Every operation
// that can fail across process boundaries (the public API and the HTTP/JSON
// surface) returns one of these codes so callers can distinguish a bad
// request from an internal fault without parsing strings. Grounded on the
// sentinel-error convention of internal/auth/service.go in the KaskMan
// example (ErrUserNotFound, ErrInvalidToken, etc.), generalized from a flat
// error-variable list to a typed Code so the HTTP layer can map codes to
// status lines without a switch over error identity.
package hiveerr

import (
	"errors"
	"fmt"
)

// Code is a stable, machine-checkable error classification.
type Code string

const (
	// InvalidRequest means the caller's input failed validation: missing
	// fields, malformed ids, an unknown enum value.
	InvalidRequest Code = "invalid_request"
	// UnknownEntity means a referenced swarm, agent, task, or proposal id
	// does not exist.
	UnknownEntity Code = "unknown_entity"
	// UnsatisfiableCapability means no agent in the pool holds the
	// capability set a task requires.
	UnsatisfiableCapability Code = "unsatisfiable_capability"
	// CyclicDependency means a task's dependency graph contains a cycle.
	CyclicDependency Code = "cyclic_dependency"
	// UnknownDependency means a task's depends_on list names an id that is
	// not an existing task in the same swarm.
	UnknownDependency Code = "unknown_dependency"
	// Busy means the target cannot accept the operation in its current
	// state (e.g. voting on a decided proposal, assigning to a busy agent).
	Busy Code = "busy"
	// CapacityExceeded means the agent pool or queue is at its configured
	// limit.
	CapacityExceeded Code = "capacity_exceeded"
	// NamespaceUnknown means an operation targeted a memory namespace that
	// was never declared ("default" excepted, which auto-creates).
	NamespaceUnknown Code = "namespace_unknown"
	// QueryTimeout means a bus query did not receive a response before its
	// context deadline.
	QueryTimeout Code = "query_timeout"
	// StoreUnavailable means the persistence layer could not service the
	// request (connection failure, disk full).
	StoreUnavailable Code = "store_unavailable"
	// SchemaIncompatible means the on-disk store's schema_version is newer
	// or incompatible with this binary's migrations.
	SchemaIncompatible Code = "schema_incompatible"
	// InternalInvariant means a state-machine or data invariant the
	// coordinator relies on was found broken; this indicates a bug.
	InternalInvariant Code = "internal_invariant"
)

// Error wraps a Code with a human-readable message and an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New builds an *Error with no wrapped cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap builds an *Error carrying code, message, and an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// Is reports whether err carries the given code, unwrapping as needed.
func Is(err error, code Code) bool {
	var he *Error
	if errors.As(err, &he) {
		return he.Code == code
	}
	return false
}

// CodeOf extracts the Code from err, returning InternalInvariant when err is
// not a *Error (an unclassified failure is treated as a bug to investigate).
func CodeOf(err error) Code {
	var he *Error
	if errors.As(err, &he) {
		return he.Code
	}
	return InternalInvariant
}

// Package util provides utility functions and common error types.
package util

import (
	"errors"
	"fmt"
)

// Sentinel errors for the warm boot cycle
var (
	ErrNotFound        = errors.New("object not found")
	ErrInvariant       = errors.New("hardware state invariant violated")
	ErrHardware        = errors.New("hardware operation failed")
	ErrSnapshotCorrupt = errors.New("persisted snapshot unreadable")
)

// InvariantError reports a mismatch between assumed and actual hardware
// state. There is no partial-recovery path for these: the host process is
// expected to escalate (abort the warm boot attempt). The error is still a
// plain value so callers and tests can observe it before escalating.
type InvariantError struct {
	Check   string // which invariant, e.g. "egress-id-unique"
	Object  string // the offending object, e.g. "egress 100002"
	Details string
}

func (e *InvariantError) Error() string {
	msg := fmt.Sprintf("invariant %s violated by %s", e.Check, e.Object)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	return msg
}

func (e *InvariantError) Unwrap() error {
	return ErrInvariant
}

// NewInvariantError creates a new invariant violation error
func NewInvariantError(check, object, details string) *InvariantError {
	return &InvariantError{
		Check:   check,
		Object:  object,
		Details: details,
	}
}

// HardwareError wraps a failed call into the hardware driver with the
// operation and object it was issued against.
type HardwareError struct {
	Op     string // driver operation, e.g. "l3_route_delete"
	Object string
	Err    error // underlying driver error
}

func (e *HardwareError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s failed for %s: %v", e.Op, e.Object, e.Err)
	}
	return fmt.Sprintf("%s failed for %s", e.Op, e.Object)
}

func (e *HardwareError) Unwrap() error {
	return ErrHardware
}

// NewHardwareError creates a hardware error
func NewHardwareError(op, object string, err error) *HardwareError {
	return &HardwareError{
		Op:     op,
		Object: object,
		Err:    err,
	}
}

// NotFoundError carries the key that missed, for lookups where the caller
// needs to distinguish "absent" from other failures.
type NotFoundError struct {
	Kind string // table name, e.g. "ecmp group"
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.Key)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// NewNotFoundError creates a not-found error
func NewNotFoundError(kind, key string) *NotFoundError {
	return &NotFoundError{Kind: kind, Key: key}
}

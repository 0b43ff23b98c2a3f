package util

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestInvariantError(t *testing.T) {
	err := NewInvariantError("egress-id-unique", "egress 100002", "double traversal callback for same id")

	msg := err.Error()
	if !strings.Contains(msg, "egress-id-unique") {
		t.Errorf("Error message should contain check name: %s", msg)
	}
	if !strings.Contains(msg, "egress 100002") {
		t.Errorf("Error message should contain object: %s", msg)
	}
	if !strings.Contains(msg, "double traversal callback") {
		t.Errorf("Error message should contain details: %s", msg)
	}

	if !errors.Is(err, ErrInvariant) {
		t.Errorf("InvariantError should unwrap to ErrInvariant")
	}
}

func TestInvariantErrorNoDetails(t *testing.T) {
	err := NewInvariantError("drop-egress-singleton", "egress 7", "")
	if strings.HasSuffix(err.Error(), ": ") {
		t.Errorf("Error message should not have empty details: %q", err.Error())
	}
}

func TestHardwareError(t *testing.T) {
	inner := errors.New("E_FAIL")
	err := NewHardwareError("l3_route_delete", "vrf 0 route 10.0.0.0/255.255.255.0", inner)

	msg := err.Error()
	if !strings.Contains(msg, "l3_route_delete") || !strings.Contains(msg, "E_FAIL") {
		t.Errorf("Error message should contain op and driver error: %s", msg)
	}
	if !errors.Is(err, ErrHardware) {
		t.Errorf("HardwareError should unwrap to ErrHardware")
	}
}

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("ecmp group", "200256")
	if !strings.Contains(err.Error(), "200256") {
		t.Errorf("Error message should contain key: %s", err.Error())
	}
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("NotFoundError should unwrap to ErrNotFound")
	}
}

func TestSentinelErrors(t *testing.T) {
	// Sentinel errors must be distinct
	sentinels := []error{
		ErrNotFound,
		ErrInvariant,
		ErrHardware,
		ErrSnapshotCorrupt,
	}

	for i, err1 := range sentinels {
		for j, err2 := range sentinels {
			if i != j && errors.Is(err1, err2) {
				t.Errorf("Sentinel errors should be distinct: %v == %v", err1, err2)
			}
		}
	}
}

func TestErrorsIsWrapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"InvariantError", NewInvariantError("check", "obj", ""), ErrInvariant},
		{"HardwareError", NewHardwareError("op", "obj", nil), ErrHardware},
		{"NotFoundError", NewNotFoundError("kind", "key"), ErrNotFound},
		{"fmt wrapped", fmt.Errorf("%w: extra context", ErrSnapshotCorrupt), ErrSnapshotCorrupt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("%s should wrap %v", tt.name, tt.sentinel)
			}
		})
	}
}

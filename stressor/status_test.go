package stressor

import (
	"fmt"
	"syscall"
	"testing"
)

func TestStatusFromErrno(t *testing.T) {
	tests := []struct {
		err  error
		want Status
	}{
		{syscall.ENOMEM, StatusNoResource},
		{syscall.ENOSPC, StatusNoResource},
		{syscall.ENOSYS, StatusNotImplemented},
		{syscall.EPERM, StatusFailure},
		{fmt.Errorf("clone: %w", syscall.ENOMEM), StatusNoResource},
		{fmt.Errorf("plain"), StatusFailure},
	}
	for _, tt := range tests {
		if got := StatusFromErrno(tt.err); got != tt.want {
			t.Errorf("StatusFromErrno(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestStatusExitCode(t *testing.T) {
	tests := []struct {
		s    Status
		want int
	}{
		{StatusSuccess, 0},
		{StatusFailure, 1},
		{StatusInvalid, 2},
		{StatusNoResource, 3},
		{StatusNotImplemented, 4},
		{Status(42), 2},
	}
	for _, tt := range tests {
		if got := tt.s.ExitCode(); got != tt.want {
			t.Errorf("%v.ExitCode() = %d, want %d", tt.s, got, tt.want)
		}
	}
}

func TestStatusWorse(t *testing.T) {
	tests := []struct {
		a, b Status
		want Status
	}{
		{StatusSuccess, StatusSuccess, StatusSuccess},
		{StatusSuccess, StatusFailure, StatusFailure},
		{StatusFailure, StatusSuccess, StatusFailure},
		{StatusNotImplemented, StatusSuccess, StatusNotImplemented},
		{StatusNoResource, StatusNotImplemented, StatusNoResource},
		{StatusFailure, StatusNoResource, StatusFailure},
		{StatusInvalid, StatusFailure, StatusInvalid},
	}
	for _, tt := range tests {
		if got := tt.a.Worse(tt.b); got != tt.want {
			t.Errorf("%v.Worse(%v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestResult(t *testing.T) {
	r := Result{Status: StatusSuccess, Ops: 500, Duration: 2e9}
	if got := r.OpsPerSecond(); got != 250 {
		t.Errorf("OpsPerSecond() = %v, want 250", got)
	}
	if got := (Result{Ops: 10}).OpsPerSecond(); got != 0 {
		t.Errorf("OpsPerSecond() with zero duration = %v, want 0", got)
	}
	if got := (Result{Status: StatusNotImplemented, Error: "x"}).String(); got != "Result[NotImplemented(x)]" {
		t.Errorf("String() = %q", got)
	}
}

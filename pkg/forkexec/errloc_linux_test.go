package forkexec

import (
	"errors"
	"syscall"
	"testing"
)

func TestErrorLocationString(t *testing.T) {
	tests := []struct {
		loc  ErrorLocation
		want string
	}{
		{0, "unknown"},
		{LocClone, "clone"},
		{LocSigaction, "sigaction"},
		{LocMountRoot, "mount(root)"},
		{LocMount, "mount"},
		{LocMount + 1, "unknown"},
	}
	for _, tt := range tests {
		if got := tt.loc.String(); got != tt.want {
			t.Errorf("ErrorLocation(%d).String() = %q, want %q", int(tt.loc), got, tt.want)
		}
	}
	if len(locToString) != int(LocMount)+1 {
		t.Errorf("locToString has %d entries, want %d", len(locToString), int(LocMount)+1)
	}
}

func TestChildError(t *testing.T) {
	tests := []struct {
		name string
		err  ChildError
		want string
	}{
		{
			name: "clone",
			err:  ChildError{Err: syscall.ENOMEM, Location: LocClone},
			want: "clone: " + syscall.ENOMEM.Error(),
		},
		{
			name: "first mount",
			err:  ChildError{Err: syscall.ENOENT, Location: LocMount, Index: 0},
			want: "mount(0): " + syscall.ENOENT.Error(),
		},
		{
			name: "rlimit",
			err:  ChildError{Err: syscall.EPERM, Location: LocSetRlimit, Index: 1},
			want: "setrlimit(1): " + syscall.EPERM.Error(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
			if !errors.Is(tt.err, tt.err.Err) {
				t.Errorf("errors.Is(%v, %v) = false", tt.err, tt.err.Err)
			}
		})
	}
}

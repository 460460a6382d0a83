package seccomp

import (
	"testing"

	libseccomp "github.com/elastic/go-seccomp-bpf"
)

func TestBuildFilter(t *testing.T) {
	tests := []struct {
		name    string
		builder Builder
		wantErr bool
	}{
		{
			name:    "stress",
			builder: *NewStressBuilder(),
		},
		{
			name: "single syscall",
			builder: Builder{
				Allow:   []string{"exit_group"},
				Default: ActionKill,
			},
		},
		{
			name: "invalid syscall",
			builder: Builder{
				Allow:   []string{"invalid_syscall"},
				Default: ActionKill,
			},
			wantErr: true,
		},
		{
			name: "duplicate syscalls",
			builder: Builder{
				Allow:   []string{"mount", "mount"},
				Default: ActionErrno,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter, err := tt.builder.Build()
			if (err != nil) != tt.wantErr {
				t.Errorf("Builder.Build() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}
			if len(filter) == 0 {
				t.Fatal("Builder.Build() returned empty filter without error")
			}
			prog := filter.SockFprog()
			if prog == nil || int(prog.Len) != len(filter) {
				t.Errorf("SockFprog() = %+v, want Len %d", prog, len(filter))
			}
		})
	}
}

func TestBuildDuplicateSyscalls(t *testing.T) {
	dup, err := (&Builder{Allow: []string{"mount", "umount2", "mount"}, Default: ActionKill}).Build()
	if err != nil {
		t.Fatal(err)
	}
	single, err := (&Builder{Allow: []string{"mount", "umount2"}, Default: ActionKill}).Build()
	if err != nil {
		t.Fatal(err)
	}
	if len(dup) != len(single) {
		t.Fatalf("len(dup) = %d, want %d", len(dup), len(single))
	}
	for i := range single {
		if dup[i] != single[i] {
			t.Errorf("instruction %d = %+v, want %+v", i, dup[i], single[i])
		}
	}
}

func TestToSeccompAction(t *testing.T) {
	tests := []struct {
		name string
		act  Action
		want libseccomp.Action
	}{
		{name: "allow", act: ActionAllow, want: libseccomp.ActionAllow},
		{name: "errno", act: ActionErrno, want: libseccomp.ActionErrno},
		{name: "kill", act: ActionKill, want: libseccomp.ActionKillProcess},
		{name: "invalid", act: Action(99), want: libseccomp.ActionKillProcess},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToSeccompAction(tt.act); got != tt.want {
				t.Errorf("ToSeccompAction() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEmptyFilterSockFprog(t *testing.T) {
	var f Filter
	if f.SockFprog() != nil {
		t.Error("SockFprog() of empty filter should be nil")
	}
}

// BenchmarkBuildFilter 测试过滤器构建的性能
func BenchmarkBuildFilter(b *testing.B) {
	builder := NewStressBuilder()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := builder.Build(); err != nil {
			b.Fatal(err)
		}
	}
}

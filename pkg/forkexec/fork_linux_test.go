package forkexec

import (
	"errors"
	"os"
	"runtime"
	"syscall"
	"testing"
	"time"

	"github.com/zqzqsb/nsstress/pkg/counter"
	"github.com/zqzqsb/nsstress/pkg/mount"
	"github.com/zqzqsb/nsstress/pkg/seccomp"
	"golang.org/x/net/bpf"
	"golang.org/x/sys/unix"
)

func TestStartWithoutShared(t *testing.T) {
	r := &Runner{CloneFlags: StressFlags}
	if _, err := r.Start(); !errors.Is(err, ErrNoSharedContext) {
		t.Fatalf("Start() = %v, want ErrNoSharedContext", err)
	}
}

func TestExitClean(t *testing.T) {
	tests := []struct {
		name string
		exit Exit
		want bool
	}{
		{"zero", Exit{Status: unix.WaitStatus(0)}, true},
		{"exit code", Exit{Status: unix.WaitStatus(2 << 8)}, false},
		{"signaled", Exit{Status: unix.WaitStatus(unix.SIGALRM)}, false},
		{"reported", Exit{Err: &ChildError{Err: syscall.ENOENT, Location: LocMount}}, false},
	}
	for _, tt := range tests {
		if got := tt.exit.Clean(); got != tt.want {
			t.Errorf("%s: Clean() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

// newStressRunner 创建一个在临时目录上做非递归绑定挂载的 Runner
// 非递归的自绑定在卸载后挂载表不会增长，压力循环只会因为上限或停止而结束
func newStressRunner(t *testing.T, maxOps uint64, mounts ...mount.Mount) (*Runner, *counter.Context) {
	t.Helper()

	c, err := counter.New("forkexec-test", maxOps, unix.Getpgrp())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { c.Close() })

	if len(mounts) == 0 {
		dir := t.TempDir()
		mounts = []mount.Mount{{Source: dir, Target: dir, Flags: unix.MS_BIND}}
	}
	params, err := mount.NewBuilder().WithMounts(mounts).Build()
	if err != nil {
		t.Fatal(err)
	}
	return &Runner{
		CloneFlags: StressFlags,
		Mounts:     params,
		Shared:     c.Shared(),
	}, c
}

// start 启动子进程，没有用户命名空间权限时跳过测试
func start(t *testing.T, r *Runner) *Process {
	t.Helper()

	p, err := r.Start()
	if err == nil {
		return p
	}
	var ce ChildError
	if errors.As(err, &ce) && (ce.Location == LocClone || ce.Location == LocUnshareUserRead) {
		switch ce.Err {
		case unix.EPERM, unix.EINVAL, unix.ENOSPC, unix.EUSERS, unix.EACCES:
			t.Skipf("user namespaces unavailable: %v", err)
		}
	}
	t.Fatalf("Start() = %v", err)
	return nil
}

func TestStressBounded(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	const bound = 5
	r, c := newStressRunner(t, bound)
	p := start(t, r)

	e, err := p.Wait()
	if err != nil {
		t.Fatal(err)
	}
	if !e.Clean() {
		t.Fatalf("child exited with %v, err %v", e.Status, e.Err)
	}
	if got := c.Counter(); got != bound {
		t.Errorf("Counter() = %d, want %d", got, bound)
	}
}

func TestStressMountFailure(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	dir := t.TempDir()
	missing := dir + "/missing"
	r, c := newStressRunner(t, 0,
		mount.Mount{Source: dir, Target: dir, Flags: unix.MS_BIND},
		mount.Mount{Source: missing, Target: missing, Flags: unix.MS_BIND},
	)
	p := start(t, r)

	e, err := p.Wait()
	if err != nil {
		t.Fatal(err)
	}
	if e.Err == nil {
		t.Fatalf("expected a reported mount error, got status %v", e.Status)
	}
	if e.Err.Location != LocMount || e.Err.Index != 1 || e.Err.Err != unix.ENOENT {
		t.Errorf("Err = %v, want mount(1): ENOENT", e.Err)
	}
	if got := c.Counter(); got != 0 {
		t.Errorf("Counter() = %d, want 0", got)
	}
}

func TestStressStop(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	r, c := newStressRunner(t, 0)
	p := start(t, r)

	time.Sleep(20 * time.Millisecond)
	c.Stop()

	e, err := p.Wait()
	if err != nil {
		t.Fatal(err)
	}
	if !e.Clean() {
		t.Errorf("child exited with %v, err %v", e.Status, e.Err)
	}
}

func TestStressAlarm(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	// 上限足够大，收到信号前不会自然结束
	const bound = 1 << 24
	r, c := newStressRunner(t, bound)
	p := start(t, r)

	time.Sleep(20 * time.Millisecond)
	before := c.Counter()
	if err := p.Signal(unix.SIGALRM); err != nil {
		t.Fatal(err)
	}

	e, err := p.Wait()
	if err != nil {
		t.Fatal(err)
	}
	if !e.Status.Signaled() || e.Status.Signal() != unix.SIGALRM {
		t.Errorf("Status = %v, want killed by SIGALRM", e.Status)
	}
	if e.Err != nil {
		t.Errorf("Err = %v, want nil", e.Err)
	}

	after := c.Counter()
	if after < before {
		t.Errorf("Counter() went from %d to %d after SIGALRM", before, after)
	}
	if after > bound {
		t.Errorf("Counter() = %d, exceeds bound %d", after, bound)
	}
}

// TestStressMountTableFull 用 seccomp 让 mount 返回 ENOSPC，模拟挂载表耗尽
// 子进程应当正常退出且不报告错误
func TestStressMountTableFull(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	filter, err := seccomp.ExportBPF([]bpf.Instruction{
		bpf.LoadAbsolute{Off: 0, Size: 4},
		bpf.JumpIf{Cond: bpf.JumpEqual, Val: uint32(unix.SYS_MOUNT), SkipFalse: 1},
		bpf.RetConstant{Val: unix.SECCOMP_RET_ERRNO | uint32(unix.ENOSPC)},
		bpf.RetConstant{Val: unix.SECCOMP_RET_ALLOW},
	})
	if err != nil {
		t.Fatal(err)
	}

	r, c := newStressRunner(t, 0)
	r.Seccomp = filter.SockFprog()
	p := start(t, r)

	e, err := p.Wait()
	runtime.KeepAlive(filter)
	if err != nil {
		t.Fatal(err)
	}
	if e.Err != nil {
		t.Fatalf("Err = %v, want nil", e.Err)
	}
	if !e.Clean() {
		t.Errorf("child exited with %v, want clean exit", e.Status)
	}
	if got := c.Counter(); got != 0 {
		t.Errorf("Counter() = %d, want 0", got)
	}
}

func TestSyncFuncFailure(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	r, c := newStressRunner(t, 0)
	errSync := errors.New("sync failed")
	var got int
	r.SyncFunc = func(pid int) error {
		got = pid
		return errSync
	}

	_, err := r.Start()
	var ce ChildError
	if errors.As(err, &ce) && (ce.Location == LocClone || ce.Location == LocUnshareUserRead) {
		t.Skipf("user namespaces unavailable: %v", err)
	}
	if !errors.Is(err, errSync) {
		t.Fatalf("Start() = %v, want %v", err, errSync)
	}
	if got == 0 || got == os.Getpid() {
		t.Errorf("SyncFunc called with pid %d", got)
	}
	if c.Counter() != 0 {
		t.Errorf("Counter() = %d, want 0", c.Counter())
	}
}

func BenchmarkStressIteration(b *testing.B) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	c, err := counter.New("forkexec-bench", uint64(b.N), unix.Getpgrp())
	if err != nil {
		b.Fatal(err)
	}
	defer c.Close()

	dir := b.TempDir()
	params, err := mount.NewBuilder().WithBind(dir, dir, false).Build()
	if err != nil {
		b.Fatal(err)
	}
	r := &Runner{CloneFlags: StressFlags, Mounts: params, Shared: c.Shared()}

	b.ResetTimer()
	p, err := r.Start()
	if err != nil {
		b.Skipf("user namespaces unavailable: %v", err)
	}
	if _, err := p.Wait(); err != nil {
		b.Fatal(err)
	}
}

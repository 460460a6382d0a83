package bindmount

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/zqzqsb/nsstress/pkg/cgroup"
	"github.com/zqzqsb/nsstress/pkg/forkexec"
	"github.com/zqzqsb/nsstress/pkg/mount"
	"github.com/zqzqsb/nsstress/pkg/seccomp"
	"github.com/zqzqsb/nsstress/stressor"
)

// child 是一个已经进入压力循环的子进程
type child interface {
	Wait() (forkexec.Exit, error)
}

// starter 创建子进程，测试中可以替换为假的实现
type starter interface {
	Start() (int, child, error)
}

// runnerStarter 使用 forkexec.Runner 创建真实的子进程
type runnerStarter struct {
	r *forkexec.Runner
}

func (s runnerStarter) Start() (int, child, error) {
	p, err := s.r.Start()
	if err != nil {
		return 0, nil, err
	}
	return p.Pid, p, nil
}

// syncError 表示在把子进程加入 cgroup 时失败，这是局部失败
type syncError struct {
	err error
}

func (e *syncError) Error() string { return "cgroup: " + e.err.Error() }

func (e *syncError) Unwrap() error { return e.err }

// Run 运行压力测试直到 ctx 结束、共享标志被清除或达到迭代上限
func (b *BindMount) Run(ctx context.Context, args *stressor.Args) stressor.Result {
	log := args.Log()
	if !Supported() {
		return notImplemented(args)
	}
	if args.Context == nil {
		args.Fail(log, "setup", forkexec.ErrNoSharedContext)
		return stressor.Result{Status: stressor.StatusFailure, Error: forkexec.ErrNoSharedContext.Error()}
	}

	// 父进程死亡信号与创建子进程的线程绑定
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	r, cg, err := b.prepare(args, log)
	if err != nil {
		args.Fail(log, "setup", err)
		return stressor.Result{Status: stressor.StatusFailure, Error: err.Error()}
	}

	result := supervise(ctx, args, runnerStarter{r: r}, log)

	if cg != nil {
		result.MemoryPeak = releaseCgroup(args, cg, log)
	}
	log.WithFields(logrus.Fields{
		"ops":      result.Ops,
		"children": result.Children,
		"failures": result.Failures,
	}).Debugf("%s: %v", args.Name, result)
	return result
}

// releaseCgroup 读取峰值内存后删除本实例创建的 cgroup
// 所有子进程都已回收，cgroup 中残留的进程只记录日志
func releaseCgroup(args *stressor.Args, cg *cgroup.Cgroup, log logrus.FieldLogger) (peak stressor.Size) {
	log = log.WithField("cgroup", cg.Path())
	if v, err := cg.MemoryPeak(); err == nil {
		peak = stressor.Size(v)
	}
	if pids, err := cg.Processes(); err != nil {
		log.WithError(err).Debugf("%s: failed to list processes", args.Name)
	} else if len(pids) > 0 {
		log.WithField("pids", pids).Warnf("%s: %d processes left in cgroup", args.Name, len(pids))
	}
	if cg.Existing() {
		log.Debugf("%s: keeping existing cgroup", args.Name)
		return peak
	}
	if err := cg.Destroy(); err != nil {
		log.WithError(err).Warnf("%s: failed to remove %v", args.Name, cg)
	}
	return peak
}

// prepare 构建子进程的 Runner，按需创建 cgroup
func (b *BindMount) prepare(args *stressor.Args, log logrus.FieldLogger) (*forkexec.Runner, *cgroup.Cgroup, error) {
	mb := mount.NewBuilder().WithMounts(b.opts.Mounts)
	if len(mb.Mounts) == 0 {
		mb = mount.NewDefaultBuilder()
	}
	params, err := mb.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("mounts: %w", err)
	}
	log.Debugf("%s: %v", args.Name, mb)

	r := &forkexec.Runner{
		CloneFlags: forkexec.StressFlags,
		Mounts:     params,
		RLimits:    b.opts.RLimits.PrepareRLimit(),
		Shared:     args.Context.Shared(),
	}

	if b.opts.Seccomp {
		filter, err := seccomp.NewStressBuilder().Build()
		if err != nil {
			return nil, nil, fmt.Errorf("seccomp: %w", err)
		}
		r.Seccomp = filter.SockFprog()
	}

	if !b.opts.Cgroup.Enabled {
		return r, nil, nil
	}
	cg, err := b.newCgroup(args.Instance)
	if err != nil {
		return nil, nil, err
	}
	log.Debugf("%s: children confined to %v", args.Name, cg)
	r.SyncFunc = func(pid int) error {
		if err := cg.AddProc(pid); err != nil {
			return &syncError{err: err}
		}
		return nil
	}
	return r, cg, nil
}

// newCgroup 为当前实例创建独立的 cgroup 并写入限制
func (b *BindMount) newCgroup(instance int) (*cgroup.Cgroup, error) {
	o := b.opts.Cgroup
	ct := &cgroup.Controllers{
		Memory: o.Memory > 0,
		Pids:   o.Pids > 0,
	}
	prefix := path.Join(o.Prefix, fmt.Sprintf("%s-%d-%d", Name, os.Getpid(), instance))
	cg, err := cgroup.New(prefix, ct)
	if err != nil {
		return nil, fmt.Errorf("cgroup: %w", err)
	}
	if ct.Memory {
		if err := cg.SetMemoryLimit(o.Memory.Byte()); err != nil {
			cg.Destroy()
			return nil, fmt.Errorf("cgroup: memory.max: %w", err)
		}
	}
	if ct.Pids {
		if err := cg.SetProcLimit(o.Pids); err != nil {
			cg.Destroy()
			return nil, fmt.Errorf("cgroup: pids.max: %w", err)
		}
	}
	return cg, nil
}

// supervise 是监督循环：每次创建一个子进程，等待它退出后再创建下一个
//
// clone 失败是致命的，结果状态由错误码决定
// 子进程初始化失败和挂载失败是局部失败，记录后继续下一轮
func supervise(ctx context.Context, args *stressor.Args, s starter, log logrus.FieldLogger) (result stressor.Result) {
	sc := args.Context
	stop := context.AfterFunc(ctx, sc.Stop)
	defer stop()

	start := time.Now()
	result.Status = stressor.StatusSuccess
	defer func() {
		// AfterFunc 在另一个 goroutine 中执行，返回前保证标志已经清除
		if ctx.Err() != nil {
			sc.Stop()
		}
		result.Ops = sc.Counter()
		result.Duration = time.Since(start)
	}()

	for iteration := 0; ctx.Err() == nil && sc.KeepStressing(); iteration++ {
		l := log.WithField("iteration", iteration)

		pid, c, err := s.Start()
		if err != nil {
			var ce forkexec.ChildError
			var se *syncError
			switch {
			case errors.As(err, &ce) && ce.Location == forkexec.LocClone:
				args.Fail(l, "clone", err)
				result.Status = stressor.StatusFromErrno(ce.Err)
				result.Error = err.Error()
				return

			case errors.As(err, &ce), errors.As(err, &se):
				result.Children++
				// 停止时整组收到的 SIGALRM 可能杀死还在初始化的子进程
				if !sc.KeepStressing() {
					l.WithError(err).Debugf("%s: child stopped during setup", args.Name)
					return
				}
				result.Failures++
				result.Status = stressor.StatusFailure
				result.Error = err.Error()
				args.Fail(l, "child setup", err)
				continue

			default:
				args.Fail(l, "start", err)
				result.Status = stressor.StatusFailure
				result.Error = err.Error()
				return
			}
		}
		result.Children++
		l = l.WithField("pid", pid)

		e, err := c.Wait()
		if err != nil {
			args.Fail(l, "wait4", err)
			result.Status = stressor.StatusFailure
			result.Error = err.Error()
			return
		}
		if e.Err != nil {
			result.Failures++
			result.Status = stressor.StatusFailure
			result.Error = e.Err.Error()
			args.Fail(l.WithField("index", e.Err.Index), e.Err.Location.String(), e.Err.Err)
			continue
		}
		l.Debugf("%s: child exited (%v), %d ops", args.Name, e.Status, sc.Counter())
	}
	return
}

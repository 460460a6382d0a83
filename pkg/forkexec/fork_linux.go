package forkexec

import (
	"errors"
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Process 是一个已经通过同步、正在压力循环中的子进程
type Process struct {
	// Pid 是子进程的进程 ID
	Pid int

	// report 是 socketpair 的父进程端，子进程在失败时写入 ChildError
	report int
}

// Exit 描述了子进程退出后的状态
type Exit struct {
	Status unix.WaitStatus
	Rusage unix.Rusage

	// Err 是子进程通过 socketpair 报告的错误
	// 为 nil 表示子进程没有报告错误（正常结束或被信号终止）
	Err *ChildError
}

// Clean 判断子进程是否以 0 退出且没有报告错误
func (e Exit) Clean() bool {
	return e.Err == nil && e.Status.Exited() && e.Status.ExitStatus() == 0
}

// Start 执行以下操作：
// 1. clone 创建位于新命名空间中的子进程
// 2. 为子进程写入 uid/gid 映射
// 3. 等待子进程完成初始化并执行 SyncFunc
// 4. 通知子进程进入压力循环
//
// 如果 clone 失败，返回的错误为 Location 等于 LocClone 的 ChildError
// 子进程初始化失败时返回对应位置的 ChildError，此时子进程已经被回收
func (r *Runner) Start() (*Process, error) {
	if r.Shared == nil {
		return nil, ErrNoSharedContext
	}
	ppid := unix.Getpid()

	// 创建一对 socket 用于父子进程通信
	// p[0] 由父进程使用，p[1] 由子进程使用
	// 用途：
	// 1. 通知子进程 uid/gid 映射已经设置完成
	// 2. 在进入压力循环之前与父进程同步
	// 3. 子进程在失败时报告 ChildError
	p, err := syscall.Socketpair(syscall.AF_LOCAL, syscall.SOCK_STREAM|syscall.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, err
	}

	pid, err1 := forkAndStressInChild(r, ppid, p)

	// 恢复所有信号处理
	afterFork()
	syscall.ForkLock.Unlock()

	return syncWithChild(r, p, int(pid), err1)
}

// syncWithChild 负责父进程与子进程的同步操作
// 主要完成以下工作：
// 1. 设置 uid/gid 映射（如果启用了用户命名空间）
// 2. 处理子进程返回的错误
// 3. 执行用户定义的同步函数
func syncWithChild(r *Runner, p [2]int, pid int, err1 syscall.Errno) (*Process, error) {
	var (
		err2        syscall.Errno
		err         error
		unshareUser = r.CloneFlags&unix.CLONE_NEWUSER == unix.CLONE_NEWUSER
		childErr    ChildError
	)

	// 关闭子进程端
	unix.Close(p[1])

	// 如果 clone 系统调用失败，直接返回错误
	if err1 != 0 {
		unix.Close(p[0])
		childErr.Location = LocClone
		childErr.Err = err1
		return nil, childErr
	}

	if unshareUser {
		if err = writeIDMaps(r, pid); err != nil {
			if !errors.As(err, &err2) {
				err2 = syscall.EINVAL
			}
		}
		// 通知子进程 uid/gid 映射已完成
		syscall.RawSyscall(syscall.SYS_WRITE, uintptr(p[0]), uintptr(unsafe.Pointer(&err2)), uintptr(unsafe.Sizeof(err2)))
	}

	// 读取子进程的同步信号或错误记录
	n, err := readChildErr(p[0], &childErr)
	if (n != int(unsafe.Sizeof(err2)) && n != int(unsafe.Sizeof(childErr))) || childErr.Err != 0 || err != nil {
		childErr.Err = handlePipeError(n, childErr.Err)
		if childErr.Location == 0 {
			childErr.Location = LocSyncRead
		}
		goto fail
	}

	if r.SyncFunc != nil {
		if err = r.SyncFunc(pid); err != nil {
			goto fail
		}
	}
	// 向子进程发送确认信号
	syscall.RawSyscall(syscall.SYS_WRITE, uintptr(p[0]), uintptr(unsafe.Pointer(&err1)), uintptr(unsafe.Sizeof(err1)))

	return &Process{Pid: pid, report: p[0]}, nil

fail:
	unix.Close(p[0])
	handleChildFailed(pid)
	if childErr.Err == 0 {
		return nil, err
	}
	return nil, childErr
}

// Wait 阻塞直到子进程退出，被 EINTR 中断时重试
// 子进程退出后读取 socketpair 中的错误记录
// 返回的 error 只表示 wait4 本身失败
func (p *Process) Wait() (Exit, error) {
	var e Exit
	for {
		_, err := unix.Wait4(p.Pid, &e.Status, 0, &e.Rusage)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			p.closeReport()
			return e, err
		}
		break
	}

	var childErr ChildError
	if n, err := recvChildErr(p.report, &childErr); err == nil &&
		n == int(unsafe.Sizeof(childErr)) && childErr.Err != 0 {
		e.Err = &childErr
	}
	p.closeReport()
	return e, nil
}

// Signal 向子进程发送信号
func (p *Process) Signal(sig unix.Signal) error {
	return unix.Kill(p.Pid, sig)
}

func (p *Process) closeReport() {
	if p.report >= 0 {
		unix.Close(p.report)
		p.report = -1
	}
}

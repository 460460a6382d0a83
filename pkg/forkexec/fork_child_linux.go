package forkexec

import (
	"sync/atomic"
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"
)

// forkAndStressInChild 参照 src/syscall/exec_linux.go 创建子进程
// 但子进程不执行 execve，而是直接进入挂载压力循环
//
// clone 时不传入栈指针，内核为子进程复制一份写时复制的栈，子进程退出时一并销毁
// 计数器所在的 MAP_SHARED 映射在父子进程之间真正共享
//
// 返回值：
// - r1: 子进程的 PID（在父进程中）
// - err1: clone 的错误码
//
//go:norace
func forkAndStressInChild(r *Runner, ppid int, p [2]int) (r1 uintptr, err1 syscall.Errno) {
	var (
		err2        syscall.Errno
		unshareUser = r.CloneFlags&unix.CLONE_NEWUSER == unix.CLONE_NEWUSER
		unshareNS   = r.CloneFlags&unix.CLONE_NEWNS == unix.CLONE_NEWNS
		unsharePID  = r.CloneFlags&unix.CLONE_NEWPID == unix.CLONE_NEWPID
		noNewPrivs  = r.NoNewPrivs || r.Seccomp != nil
		shared      = r.Shared
		bound       = shared.MaxOps
		pgrp        = uintptr(shared.Pgrp)
		mounts      = r.Mounts
		rlimits     = r.RLimits
		filter      = r.Seccomp
	)

	// 获取 fork 锁，确保在 clone 之前没有其他线程创建还未设置 close-on-exec 的描述符
	syscall.ForkLock.Lock()

	// 从这里开始不能再分配内存或调用非汇编函数
	beforeFork()

	r1, _, err1 = syscall.RawSyscall6(syscall.SYS_CLONE, uintptr(syscall.SIGCHLD)|(r.CloneFlags&UnshareFlags), 0, 0, 0, 0, 0)
	if err1 != 0 || r1 != 0 {
		// 在父进程中，立即返回
		return
	}

	// 以下代码在子进程中执行
	afterForkInChild()
	// 注意：从这里开始不能调用任何 GO 函数

	pipe := p[1]

	// 关闭父进程端
	if _, _, err1 = syscall.RawSyscall(syscall.SYS_CLOSE, uintptr(p[0]), 0, 0); err1 != 0 {
		childExitError(pipe, LocCloseWrite, err1)
	}

	// 关闭从父进程继承的其他描述符，其中可能有其他实例的 socketpair
	// 旧内核不支持 close_range，忽略结果
	if pipe > 3 {
		syscall.RawSyscall(unix.SYS_CLOSE_RANGE, 3, uintptr(pipe-1), 0)
	}
	syscall.RawSyscall(unix.SYS_CLOSE_RANGE, uintptr(pipe+1), ^uintptr(0), 0)

	// 等待父进程设置 uid/gid 映射
	// 在原始命名空间中子进程自己没有权限写入这些映射
	if unshareUser {
		r1, _, err1 = syscall.RawSyscall(syscall.SYS_READ, uintptr(pipe), uintptr(unsafe.Pointer(&err2)), unsafe.Sizeof(err2))
		if err1 != 0 {
			childExitError(pipe, LocUnshareUserRead, err1)
		}
		if r1 != unsafe.Sizeof(err2) {
			err1 = syscall.EINVAL
			childExitError(pipe, LocUnshareUserRead, err1)
		}
		if err2 != 0 {
			err1 = err2
			childExitError(pipe, LocUnshareUserRead, err1)
		}
	}

	// SIGALRM 和 SIGSEGV 立即终止子进程
	// 父进程可能忽略了 SIGALRM，而忽略的处理方式会在 clone 后被继承
	_, _, err1 = syscall.RawSyscall6(syscall.SYS_RT_SIGACTION, uintptr(unix.SIGALRM),
		uintptr(unsafe.Pointer(&dflAction)), 0, sigsetSize, 0, 0)
	if err1 != 0 {
		childExitError(pipe, LocSigaction, err1)
	}
	_, _, err1 = syscall.RawSyscall6(syscall.SYS_RT_SIGACTION, uintptr(unix.SIGSEGV),
		uintptr(unsafe.Pointer(&dflAction)), 0, sigsetSize, 0, 0)
	if err1 != 0 {
		childExitError(pipe, LocSigaction, err1)
	}
	_, _, err1 = syscall.RawSyscall6(syscall.SYS_RT_SIGPROCMASK, _SIG_UNBLOCK,
		uintptr(unsafe.Pointer(&unblockSet)), 0, sigsetSize, 0, 0)
	if err1 != 0 {
		childExitError(pipe, LocSigmask, err1)
	}

	// 加入压力测试的进程组，这样整组收到的 SIGALRM 也会送达子进程
	// 失败不影响压力测试
	syscall.RawSyscall(syscall.SYS_SETPGID, 0, pgrp, 0)

	// 父进程退出时子进程收到 SIGALRM
	_, _, err1 = syscall.RawSyscall(syscall.SYS_PRCTL, syscall.PR_SET_PDEATHSIG, uintptr(unix.SIGALRM), 0)
	if err1 != 0 {
		childExitError(pipe, LocPdeathsig, err1)
	}
	// 父进程在设置之前已经退出
	// 在新的 PID 命名空间中 getppid 返回 0，无法判断
	if !unsharePID {
		r1, _, _ = syscall.RawSyscall(syscall.SYS_GETPPID, 0, 0, 0)
		if int(r1) != ppid {
			childExit(0)
		}
	}

	// 设置资源限制
	for i, rlim := range rlimits {
		// prlimit 代替 setrlimit 以避免 32 位限制（linux > 3.2）
		_, _, err1 = syscall.RawSyscall6(syscall.SYS_PRLIMIT64, 0, uintptr(rlim.Res), uintptr(unsafe.Pointer(&rlim.Rlim)), 0, 0, 0)
		if err1 != 0 {
			childExitErrorWithIndex(pipe, LocSetRlimit, i, err1)
		}
	}

	// 将根目录标记为私有，避免挂载传播到原始挂载命名空间
	if unshareNS {
		_, _, err1 = syscall.RawSyscall6(syscall.SYS_MOUNT, uintptr(unsafe.Pointer(&none[0])),
			uintptr(unsafe.Pointer(&slash[0])), 0, syscall.MS_REC|syscall.MS_PRIVATE, 0, 0)
		if err1 != 0 {
			childExitError(pipe, LocMountRoot, err1)
		}
	}

	// 在进入压力循环之前与父进程同步
	r1, _, err1 = syscall.RawSyscall(syscall.SYS_WRITE, uintptr(pipe), uintptr(unsafe.Pointer(&err2)), uintptr(unsafe.Sizeof(err2)))
	if r1 == 0 || err1 != 0 {
		childExitError(pipe, LocSyncWrite, err1)
	}
	r1, _, err1 = syscall.RawSyscall(syscall.SYS_READ, uintptr(pipe), uintptr(unsafe.Pointer(&err2)), uintptr(unsafe.Sizeof(err2)))
	if r1 == 0 || err1 != 0 {
		childExitError(pipe, LocSyncRead, err1)
	}

	// 不允许新特权
	if noNewPrivs {
		_, _, err1 = syscall.RawSyscall6(syscall.SYS_PRCTL, unix.PR_SET_NO_NEW_PRIVS, 1, 0, 0, 0, 0)
		if err1 != 0 {
			childExitError(pipe, LocSetNoNewPrivs, err1)
		}
	}

	// 加载 seccomp 过滤器
	if filter != nil {
		_, _, err1 = syscall.RawSyscall(unix.SYS_SECCOMP, SECCOMP_SET_MODE_FILTER, SECCOMP_FILTER_FLAG_TSYNC, uintptr(unsafe.Pointer(filter)))
		if err1 != 0 {
			childExitError(pipe, LocSeccomp, err1)
		}
	}

	// 压力循环
	// 每一轮依次执行全部挂载，完成后计数器加一
	for atomic.LoadUint32(&shared.Run) != 0 {
		if bound != 0 && atomic.LoadUint64(&shared.Counter) >= bound {
			break
		}
		for i := range mounts {
			m := &mounts[i]
			_, _, err1 = syscall.RawSyscall6(syscall.SYS_MOUNT, uintptr(unsafe.Pointer(m.Source)),
				uintptr(unsafe.Pointer(m.Target)), uintptr(unsafe.Pointer(m.FsType)), m.Flags,
				uintptr(unsafe.Pointer(m.Data)), 0)
			if err1 == syscall.ENOSPC {
				// 挂载表已满，这是预期的结束方式
				childExit(0)
			}
			if err1 != 0 {
				childExitErrorWithIndex(pipe, LocMount, i, err1)
			}
			// 卸载失败不影响压力测试
			syscall.RawSyscall(syscall.SYS_UMOUNT2, uintptr(unsafe.Pointer(m.Target)), 0, 0)
		}
		atomic.AddUint64(&shared.Counter, 1)
	}
	childExit(0)
	return
}

//go:nosplit
func childExit(code int) {
	for {
		syscall.RawSyscall(syscall.SYS_EXIT, uintptr(code), 0, 0)
	}
}

//go:nosplit
func childExitError(pipe int, loc ErrorLocation, err syscall.Errno) {
	// 发送错误代码到管道
	childError := ChildError{
		Err:      err,
		Location: loc,
	}

	syscall.RawSyscall(unix.SYS_WRITE, uintptr(pipe), uintptr(unsafe.Pointer(&childError)), unsafe.Sizeof(childError))
	for {
		syscall.RawSyscall(syscall.SYS_EXIT, uintptr(err), 0, 0)
	}
}

//go:nosplit
func childExitErrorWithIndex(pipe int, loc ErrorLocation, idx int, err syscall.Errno) {
	// 发送错误代码到管道
	childError := ChildError{
		Err:      err,
		Location: loc,
		Index:    idx,
	}

	syscall.RawSyscall(unix.SYS_WRITE, uintptr(pipe), uintptr(unsafe.Pointer(&childError)), unsafe.Sizeof(childError))
	for {
		syscall.RawSyscall(syscall.SYS_EXIT, uintptr(err), 0, 0)
	}
}

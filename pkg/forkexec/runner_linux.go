package forkexec

import (
	"errors"
	"syscall"

	"github.com/zqzqsb/nsstress/pkg/counter"
	"github.com/zqzqsb/nsstress/pkg/mount"
	"github.com/zqzqsb/nsstress/pkg/rlimit"
)

// ErrNoSharedContext 表示 Runner 没有提供共享计数器
var ErrNoSharedContext = errors.New("forkexec: runner has no shared stress context")

// Runner 描述了一个压力测试子进程
// 子进程在新的用户和挂载命名空间中反复执行 Mounts 中的挂载与卸载，
// 每完成一轮就在共享内存中把计数器加一
type Runner struct {
	// CloneFlags 定义了创建 Linux 命名空间的标志
	// 只有 UnshareFlags 中的标志会生效，通常为 StressFlags
	CloneFlags uintptr

	// Mounts 定义了压力循环中每一轮要执行的挂载操作
	// 每个挂载成功后会立即 umount2(target, 0)，卸载结果被忽略
	// 挂载返回 ENOSPC 表示内核资源耗尽，子进程正常退出
	Mounts []mount.SyscallParams

	// RLimits 定义了子进程的资源限制，在进入压力循环前通过 prlimit 设置
	RLimits []rlimit.RLimit

	// Seccomp 定义了系统调用过滤器
	// 在与父进程同步之后、进入压力循环之前加载
	Seccomp *syscall.SockFprog

	// NoNewPrivs 通过 prctl(PR_SET_NO_NEW_PRIVS) 禁用新特权
	// 当提供 seccomp 过滤器时自动启用
	NoNewPrivs bool

	// Shared 是与子进程共享的计数器，必须位于 MAP_SHARED 映射中
	// 子进程轮询其中的运行标志和上限，并原子地增加计数器
	Shared *counter.Shared

	// UIDMappings 和 GIDMappings 用于用户命名空间的 UID/GID 映射
	// 为空时把命名空间内的 0 映射到当前的有效用户（组）
	UIDMappings []syscall.SysProcIDMap
	GIDMappings []syscall.SysProcIDMap

	// GIDMappingsEnableSetgroups 允许/禁止 setgroups 系统调用
	// 如果 GIDMappings 为 nil 则拒绝
	GIDMappingsEnableSetgroups bool

	// SyncFunc 在子进程进入压力循环之前被调用，参数为子进程的 PID
	// 通常用于把子进程加入 cgroup
	// 如果 SyncFunc 返回错误，子进程会被杀死并回收
	SyncFunc func(int) error
}

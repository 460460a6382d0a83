// Package forkexec 在新的命名空间中创建压力测试子进程
package forkexec

import (
	"golang.org/x/sys/unix"
)

// 定义 syscall 包中缺少的常量
const (
	// SECCOMP_SET_MODE_FILTER 是 seccomp 的过滤器模式
	// 允许使用 BPF 过滤器定义允许的系统调用
	SECCOMP_SET_MODE_FILTER = 1

	// SECCOMP_FILTER_FLAG_TSYNC 表示同步所有线程的 seccomp 过滤器
	SECCOMP_FILTER_FLAG_TSYNC = 1

	// UnshareFlags 定义了子进程允许使用的命名空间标志位组合
	// 压力测试只需要 CLONE_NEWUSER 和 CLONE_NEWNS，其他标志用于更彻底的隔离
	UnshareFlags = unix.CLONE_NEWIPC | unix.CLONE_NEWNET | unix.CLONE_NEWNS |
		unix.CLONE_NEWPID | unix.CLONE_NEWUSER | unix.CLONE_NEWUTS | unix.CLONE_NEWCGROUP

	// StressFlags 是压力测试默认使用的命名空间组合
	StressFlags = unix.CLONE_NEWUSER | unix.CLONE_NEWNS

	// _SIG_UNBLOCK 是 rt_sigprocmask 的 how 参数
	_SIG_UNBLOCK = 1

	// sigsetSize 是内核 sigset_t 的字节数（_NSIG / 8）
	sigsetSize = 8
)

// sigactiont 对应内核的 struct sigaction
// 全零值即 SIG_DFL、无标志、空掩码，在没有 restorer 字段的架构上同样成立
type sigactiont struct {
	handler  uintptr
	flags    uint64
	restorer uintptr
	mask     uint64
}

var (
	// none 用于 mount 系统调用，表示无文件系统类型
	none = []byte("none\000")
	// slash 表示根目录路径
	slash = []byte("/\000")

	// setGIDAllow 和 setGIDDeny 用于配置用户命名空间的 setgroups 策略
	setGIDAllow = []byte("allow")
	setGIDDeny  = []byte("deny")

	// dflAction 把信号处理恢复为默认动作（终止进程）
	dflAction sigactiont

	// unblockSet 包含子进程需要解除阻塞的 SIGALRM 和 SIGSEGV
	unblockSet = uint64(1)<<(unix.SIGALRM-1) | uint64(1)<<(unix.SIGSEGV-1)
)

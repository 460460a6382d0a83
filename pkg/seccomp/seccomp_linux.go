// Package seccomp 生成压力测试子进程使用的 seccomp 过滤器。
// 子进程进入压力循环后只需要很少的系统调用，
// 加载白名单过滤器后，循环中的任何意外行为都会直接终止子进程。
package seccomp

import "syscall"

// Filter 是 BPF 格式的 seccomp 过滤器
type Filter []syscall.SockFilter

// SockFprog 将 Filter 转换为内核可以理解的 SockFprog 格式
// 返回的结构体引用 Filter 的底层数组，调用者需要保持 Filter 存活
func (f Filter) SockFprog() *syscall.SockFprog {
	if len(f) == 0 {
		return nil
	}
	b := []syscall.SockFilter(f)
	return &syscall.SockFprog{
		Len:    uint16(len(b)),
		Filter: &b[0],
	}
}

// Action 定义了系统调用的处理动作
type Action uint32

// Action 常量定义
const (
	ActionInvalid Action = iota // 无效动作
	ActionAllow                 // 允许系统调用
	ActionErrno                 // 返回错误码
	ActionKill                  // 终止进程
)

// StressSyscalls 是压力循环需要的系统调用白名单：
// 挂载和卸载、通过 socket 写错误报告、退出
var StressSyscalls = []string{
	"mount", "umount2",
	"write",
	"exit", "exit_group",
	"rt_sigreturn",
}

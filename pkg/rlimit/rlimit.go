// Package rlimit 提供了压力测试子进程的资源限制
// 限制在子进程中通过 prlimit64 原始系统调用设置
package rlimit

import (
	"fmt"
	"strings"
	"syscall"
)

// RLimits 定义了应用到每个压力测试子进程的资源限制
type RLimits struct {
	CPU         uint64 // CPU 时间限制（秒），超出后子进程收到 SIGXCPU 并终止，0 表示不限
	DisableCore bool   // 是否禁用 core dump（SIGSEGV 以默认动作终止子进程时不产生 core 文件）
}

// RLimit 是 Linux setrlimit 定义的资源限制
type RLimit struct {
	// Res 是资源类型（例如 syscall.RLIMIT_CPU）
	Res int
	// Rlim 是应用到该资源的限制
	Rlim syscall.Rlimit
}

// PrepareRLimit 为子进程创建 rlimit 结构体
// 需要在 clone 之前调用，子进程只读取结果
func (r *RLimits) PrepareRLimit() []RLimit {
	var ret []RLimit

	if r.CPU > 0 {
		// 软限制先触发 SIGXCPU，硬限制多留一秒触发 SIGKILL
		ret = append(ret, RLimit{
			Res:  syscall.RLIMIT_CPU,
			Rlim: syscall.Rlimit{Cur: r.CPU, Max: r.CPU + 1},
		})
	}

	if r.DisableCore {
		ret = append(ret, RLimit{
			Res:  syscall.RLIMIT_CORE,
			Rlim: syscall.Rlimit{Cur: 0, Max: 0},
		})
	}

	return ret
}

// String 返回 RLimit 的字符串表示
func (r RLimit) String() string {
	switch r.Res {
	case syscall.RLIMIT_CPU:
		return fmt.Sprintf("CPU[%d s:%d s]", r.Rlim.Cur, r.Rlim.Max)
	case syscall.RLIMIT_CORE:
		return fmt.Sprintf("Core[%d]", r.Rlim.Cur)
	default:
		return fmt.Sprintf("Resource(%d)[%d:%d]", r.Res, r.Rlim.Cur, r.Rlim.Max)
	}
}

// String 返回 RLimits 的字符串表示
func (r *RLimits) String() string {
	var s []string
	if r.CPU > 0 {
		s = append(s, fmt.Sprintf("CPU=%d", r.CPU))
	}
	if r.DisableCore {
		s = append(s, "DisableCore=true")
	}
	return fmt.Sprintf("RLimits{%s}", strings.Join(s, ", "))
}

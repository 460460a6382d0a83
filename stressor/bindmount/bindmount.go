// Package bindmount 实现了挂载表压力测试
//
// 监督进程反复在新的用户和挂载命名空间中创建子进程，子进程把根目录递归绑定挂载到自身
// 再尝试卸载，直到内核的挂载表或内存耗尽；每完成一轮，共享计数器加一
package bindmount

import (
	"github.com/zqzqsb/nsstress/pkg/mount"
	"github.com/zqzqsb/nsstress/pkg/rlimit"
	"github.com/zqzqsb/nsstress/stressor"
)

// Name 是压力测试名称
const Name = "bind-mount"

// CgroupOptions 配置可选的 cgroup v2 限制
type CgroupOptions struct {
	Enabled bool
	Prefix  string        // 相对于 /sys/fs/cgroup 的父目录
	Memory  stressor.Size // memory.max，0 表示不限
	Pids    uint64        // pids.max，0 表示不限
}

// Options 是压力测试的配置
type Options struct {
	// Mounts 是子进程每一轮要执行的挂载，为空时使用根目录的递归自绑定
	Mounts []mount.Mount

	// RLimits 是子进程的资源限制，通常禁用 core dump
	RLimits rlimit.RLimits

	// Seccomp 为子进程加载只允许压力循环所需系统调用的过滤器
	Seccomp bool

	Cgroup CgroupOptions
}

// DefaultOptions 返回默认配置：递归绑定挂载根目录，禁用 core dump
func DefaultOptions() Options {
	return Options{
		Mounts:  []mount.Mount{Bind("/", "/", true)},
		RLimits: rlimit.RLimits{DisableCore: true},
		Cgroup:  CgroupOptions{Prefix: "nsstress"},
	}
}

// Bind 返回一个把 source 绑定挂载到 target 的压力挂载
func Bind(source, target string, recursive bool) mount.Mount {
	m := mount.Mount{Source: source, Target: target, Flags: bind}
	if recursive {
		m.Flags = rbind
	}
	return m
}

// BindMount 是挂载表压力测试
type BindMount struct {
	opts Options
}

var _ stressor.Stressor = (*BindMount)(nil)

// New 创建压力测试
func New(opts Options) *BindMount {
	return &BindMount{opts: opts}
}

// notImplemented 是不支持命名空间的平台上的结果，不会创建任何进程
func notImplemented(args *stressor.Args) stressor.Result {
	args.Log().Infof("%s: %v, skipping stressor", args.Name, stressor.ErrNotImplemented)
	return stressor.Result{
		Status: stressor.StatusNotImplemented,
		Error:  stressor.ErrNotImplemented.Error(),
	}
}

// Package cgroup 提供了把压力测试子进程限制在 cgroup v2 中的功能
package cgroup

// Cgroup 相关的常量定义
const (
	// basePath 是 cgroup 的根目录路径
	basePath = "/sys/fs/cgroup"

	// cgroupProcs 是存储 cgroup 中进程 ID 的文件名
	cgroupProcs = "cgroup.procs"

	// cgroupSubtreeControl 用于控制子树中可用的控制器
	// 通过写入 "+controller" 或 "-controller" 来启用或禁用控制器
	cgroupSubtreeControl = "cgroup.subtree_control"

	// cgroupControllers 列出了当前 cgroup 中可用的所有控制器
	cgroupControllers = "cgroup.controllers"

	filePerm = 0644
	dirPerm  = 0755

	// Memory 控制器名称，用于内存使用限制和统计
	Memory = "memory"

	// Pids 控制器名称，用于限制进程数量
	Pids = "pids"
)

// Type 定义了 cgroup 的版本类型
type Type int

// cgroup 版本的枚举值
const (
	// TypeV1 表示 cgroup v1，每个子系统都是独立的层级结构
	TypeV1 = iota + 1

	// TypeV2 表示 cgroup v2，所有控制器在同一个层级中
	TypeV2
)

// String 返回 Type 的字符串表示
func (t Type) String() string {
	switch t {
	case TypeV1:
		return "v1"
	case TypeV2:
		return "v2"
	default:
		return "invalid"
	}
}

package cgroup

import (
	"strings"
)

// Controllers 定义了需要启用的控制器
type Controllers struct {
	Memory bool // 限制子进程（以及内核为挂载表分配的内存）
	Pids   bool // 限制进程数量
}

// Names 返回已启用控制器的名称列表
func (c *Controllers) Names() []string {
	var names []string
	if c.Memory {
		names = append(names, Memory)
	}
	if c.Pids {
		names = append(names, Pids)
	}
	return names
}

// Contains 判断 c 是否包含 o 中所有已启用的控制器
func (c *Controllers) Contains(o *Controllers) bool {
	return (c.Memory || !o.Memory) && (c.Pids || !o.Pids)
}

// Empty 判断是否没有启用任何控制器
func (c *Controllers) Empty() bool {
	return !c.Memory && !c.Pids
}

func (c *Controllers) String() string {
	return "[" + strings.Join(c.Names(), ", ") + "]"
}

// parseControllers 解析 cgroup.controllers / cgroup.subtree_control 的内容
// 格式为空格分隔的控制器名称，未知的控制器被忽略
func parseControllers(content []byte) *Controllers {
	c := new(Controllers)
	for _, name := range strings.Fields(string(content)) {
		switch name {
		case Memory:
			c.Memory = true
		case Pids:
			c.Pids = true
		}
	}
	return c
}

package counter

import "fmt"

// Context 持有一个压力测试实例的共享上下文及其后备映射
type Context struct {
	name    string
	release func() error
	shared  *Shared
}

// Name 返回压力测试名称
func (c *Context) Name() string { return c.name }

// Shared 返回共享内存中的原始结构，交给子进程使用
func (c *Context) Shared() *Shared { return c.shared }

// Counter 返回当前迭代计数
func (c *Context) Counter() uint64 { return c.shared.Load() }

// MaxOps 返回迭代上限
func (c *Context) MaxOps() uint64 { return c.shared.MaxOps }

// Pgrp 返回进程组 ID
func (c *Context) Pgrp() int { return int(c.shared.Pgrp) }

// KeepStressing 见 Shared.KeepStressing
func (c *Context) KeepStressing() bool { return c.shared.KeepStressing() }

// Stop 见 Shared.Stop
func (c *Context) Stop() { c.shared.Stop() }

// Close 释放共享映射，之后不能再访问 Shared
func (c *Context) Close() error {
	c.shared = nil
	if c.release == nil {
		return nil
	}
	return c.release()
}

func (c *Context) String() string {
	return fmt.Sprintf("Context[%s %d/%d run=%d pgrp=%d]", c.name,
		c.shared.Load(), c.shared.MaxOps, c.shared.Run, c.shared.Pgrp)
}

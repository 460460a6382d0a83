//go:build !linux

package counter

// New 在不支持 memfd 的平台上使用进程内内存
// 这些平台上不会创建子进程，上下文只用于报告结果
func New(name string, maxOps uint64, pgrp int) (*Context, error) {
	return &Context{
		name:   name,
		shared: &Shared{MaxOps: maxOps, Pgrp: int32(pgrp), Run: 1},
	}, nil
}

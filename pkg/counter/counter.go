// Package counter 实现了压力测试进程之间共享的上下文：
// 迭代计数器、迭代上限、继续运行标志以及进程组 ID
//
// 这些字段位于 MAP_SHARED 映射中，clone 出的子进程与监督进程看到的是同一块内存
package counter

import (
	"sync/atomic"
	"unsafe"
)

// Shared 是共享内存中的原始布局
// 字段顺序保证 64 位字段按 8 字节对齐（映射起始地址按页对齐）
//
// 子进程只能通过原子操作直接访问这些字段，不能调用 Go 方法
type Shared struct {
	Counter uint64 // 迭代计数，只由当前存活的子进程递增
	MaxOps  uint64 // 迭代上限，0 表示不限
	Run     uint32 // 继续压力测试标志，非 0 表示继续
	Pgrp    int32  // 子进程需要加入的进程组
}

// SharedSize 是 Shared 在内存中的大小
const SharedSize = int(unsafe.Sizeof(Shared{}))

// Load 读取当前计数
func (s *Shared) Load() uint64 {
	return atomic.LoadUint64(&s.Counter)
}

// KeepStressing 判断是否应该继续：运行标志仍然有效，且没有达到迭代上限
func (s *Shared) KeepStressing() bool {
	if atomic.LoadUint32(&s.Run) == 0 {
		return false
	}
	bound := atomic.LoadUint64(&s.MaxOps)
	return bound == 0 || atomic.LoadUint64(&s.Counter) < bound
}

// Stop 清除运行标志，子进程会在当前迭代结束后退出
func (s *Shared) Stop() {
	atomic.StoreUint32(&s.Run, 0)
}

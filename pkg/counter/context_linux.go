package counter

import (
	"fmt"
	"unsafe"

	"github.com/zqzqsb/nsstress/pkg/memfd"
)

// New 创建共享上下文
// 参数：
//   - name: 压力测试名称（用于 memfd 名称和诊断信息）
//   - maxOps: 迭代上限，0 表示不限
//   - pgrp: 子进程需要加入的进程组
//
// 优先使用 memfd，失败时回退到匿名共享映射
func New(name string, maxOps uint64, pgrp int) (*Context, error) {
	region, err := memfd.MapShared(name, SharedSize)
	if err != nil {
		if region, err = memfd.MapAnonymous(SharedSize); err != nil {
			return nil, fmt.Errorf("counter: %w", err)
		}
	}
	s := (*Shared)(unsafe.Pointer(&region.Data[0]))
	s.MaxOps = maxOps
	s.Pgrp = int32(pgrp)
	s.Run = 1
	return &Context{name: name, release: region.Close, shared: s}, nil
}

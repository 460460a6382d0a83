package stressor

import (
	"errors"
	"syscall"
)

// Status 是压力测试的结果状态
type Status int

// 压力测试的结果状态
const (
	StatusInvalid Status = iota // 0 未初始化

	// StatusSuccess 正常结束，包括因内核资源耗尽而停止
	StatusSuccess

	// StatusFailure 出现了失败
	StatusFailure

	// StatusNoResource 没有足够的资源启动压力测试
	StatusNoResource

	// StatusNotImplemented 当前平台或内核不支持
	StatusNotImplemented
)

var (
	statusString = []string{
		"invalid",
		"success",
		"failure",
		"no resource",
		"not implemented",
	}

	// statusExitCode 与 stress-ng 的退出码保持一致
	statusExitCode = []int{2, 0, 1, 3, 4}

	// statusRank 用于挑选多个实例中最差的状态
	statusRank = []int{4, 0, 3, 2, 1}
)

func (t Status) valid() bool {
	return t >= StatusInvalid && t <= StatusNotImplemented
}

func (t Status) String() string {
	if t.valid() {
		return statusString[t]
	}
	return statusString[0]
}

func (t Status) Error() string {
	return t.String()
}

// ExitCode 返回该状态对应的进程退出码
func (t Status) ExitCode() int {
	if t.valid() {
		return statusExitCode[t]
	}
	return statusExitCode[0]
}

// Worse 返回 t 和 o 中更差的状态
func (t Status) Worse(o Status) Status {
	if !t.valid() {
		return t
	}
	if !o.valid() || statusRank[o] > statusRank[t] {
		return o
	}
	return t
}

// StatusFromErrno 将创建子进程失败的错误码映射为状态
// ENOMEM 和 ENOSPC 表示资源不足，ENOSYS 表示内核不支持，其余视为失败
func StatusFromErrno(err error) Status {
	var errno syscall.Errno
	if !errors.As(err, &errno) {
		return StatusFailure
	}
	switch errno {
	case syscall.ENOMEM, syscall.ENOSPC:
		return StatusNoResource
	case syscall.ENOSYS:
		return StatusNotImplemented
	default:
		return StatusFailure
	}
}

package stressor

import (
	"fmt"
	"time"
)

// Result 是一个压力测试实例的结果
type Result struct {
	Status        // 结果状态
	Error  string // 导致失败的详细错误信息

	Ops      uint64        // 完成的迭代次数（bogo ops）
	Children uint64        // 创建的子进程数量
	Failures uint64        // 局部失败次数（挂载失败、子进程初始化失败）
	Duration time.Duration // 实际运行时间

	// MemoryPeak 是 cgroup 记录的峰值内存，未启用 cgroup 时为 0
	MemoryPeak Size
}

// OpsPerSecond 返回每秒完成的迭代次数
func (r Result) OpsPerSecond() float64 {
	if r.Duration <= 0 {
		return 0
	}
	return float64(r.Ops) / r.Duration.Seconds()
}

func (r Result) String() string {
	switch r.Status {
	case StatusSuccess:
		return fmt.Sprintf("Result[%d ops %d children %d failures][%v %v]", r.Ops, r.Children, r.Failures, r.Duration, r.MemoryPeak)

	case StatusNotImplemented:
		return fmt.Sprintf("Result[NotImplemented(%s)]", r.Error)

	default:
		return fmt.Sprintf("Result[%v(%s)][%d ops %d children %d failures][%v %v]", r.Status, r.Error, r.Ops, r.Children, r.Failures, r.Duration, r.MemoryPeak)
	}
}

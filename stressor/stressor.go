// Package stressor 定义了压力测试的统一接口
//
// 每个压力测试实例运行在自己的 goroutine 中，通过共享上下文与子进程交换迭代计数，
// 结束后返回 Result 供命令行汇总
package stressor

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/zqzqsb/nsstress/pkg/counter"
)

// ErrNotImplemented 表示当前平台不支持该压力测试
var ErrNotImplemented = errors.New("not implemented on this platform")

// Stressor 接口定义了启动压力测试的方法
type Stressor interface {
	Run(ctx context.Context, args *Args) Result
}

// Args 是传给单个压力测试实例的参数
type Args struct {
	// Name 是压力测试名称，出现在日志和报表中
	Name string

	// Instance 是实例序号，从 0 开始
	Instance int

	// Context 是与子进程共享的计数器和运行标志
	Context *counter.Context

	// Logger 用于输出日志，为 nil 时使用 logrus 的标准 logger
	Logger logrus.FieldLogger
}

// Log 返回带有压力测试名称和实例序号的 logger
func (a *Args) Log() logrus.FieldLogger {
	l := a.Logger
	if l == nil {
		l = logrus.StandardLogger()
	}
	return l.WithFields(logrus.Fields{
		"stressor": a.Name,
		"instance": a.Instance,
	})
}

// Fail 以 "<name>: fail: <op>: <err>" 的格式记录一次失败
func (a *Args) Fail(l logrus.FieldLogger, op string, err error) {
	if l == nil {
		l = a.Log()
	}
	l.Error(fmt.Sprintf("%s: fail: %s: %v", a.Name, op, err))
}

//go:build !linux

package bindmount

import (
	"context"

	"github.com/zqzqsb/nsstress/stressor"
)

// Supported 在没有 Linux 命名空间的平台上始终返回 false
func Supported() bool { return false }

// Run 在不支持的平台上直接返回 StatusNotImplemented
func (b *BindMount) Run(_ context.Context, args *stressor.Args) stressor.Result {
	return notImplemented(args)
}

//go:build !linux

package bindmount

// 与 Linux 的 MS_BIND 和 MS_REC 取值相同，只用于保持配置一致
const (
	bind  = 0x1000
	rbind = bind | 0x4000
)

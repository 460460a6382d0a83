package forkexec

import (
	"fmt"
	"syscall"
)

// ErrorLocation 定义了子进程执行失败的具体位置
// 这个类型用于精确定位在子进程初始化和压力循环中的哪个步骤出现了错误
type ErrorLocation int

// ChildError 定义了子进程错误的详细信息
// 子进程通过 socketpair 以定长记录的形式发送给父进程
// - Err: 系统调用返回的错误码
// - Location: 错误发生的位置
// - Index: 对于挂载和资源限制，表示出错项在列表中的序号
type ChildError struct {
	Err      syscall.Errno // 系统调用错误码
	Location ErrorLocation // 错误发生的位置
	Index    int           // 操作序号（如果适用）
}

// Location 常量定义了所有可能的错误位置
// 这些常量按照子进程执行的顺序排列
const (
	LocClone           ErrorLocation = iota + 1 // 克隆（创建）新进程失败
	LocCloseWrite                               // 关闭父进程端失败
	LocUnshareUserRead                          // 等待 uid/gid 映射失败
	LocSigaction                                // 恢复默认信号处理失败
	LocSigmask                                  // 解除信号阻塞失败
	LocPdeathsig                                // 设置父进程死亡信号失败
	LocSetRlimit                                // 设置资源限制失败
	LocMountRoot                                // 将根目录设为私有失败
	LocSyncWrite                                // 同步写入失败
	LocSyncRead                                 // 同步读取失败
	LocSetNoNewPrivs                            // 禁止获取新特权失败
	LocSeccomp                                  // 加载 seccomp 失败
	LocMount                                    // 压力循环中的挂载失败
)

var locToString = []string{
	"unknown",
	"clone",
	"close_write",
	"unshare_user_read",
	"sigaction",
	"sigprocmask",
	"pdeathsig",
	"setrlimit",
	"mount(root)",
	"sync_write",
	"sync_read",
	"set_no_new_privs",
	"seccomp",
	"mount",
}

// String 将 ErrorLocation 转换为人类可读的字符串
func (e ErrorLocation) String() string {
	if e >= LocClone && e <= LocMount {
		return locToString[e]
	}
	return "unknown"
}

// indexed 判断该位置的错误是否带有列表序号
func (e ErrorLocation) indexed() bool {
	return e == LocMount || e == LocSetRlimit
}

// Error 实现了 error 接口，提供格式化的错误信息
// 例如：
// - "clone: operation not permitted"
// - "mount(0): no such file or directory"
func (e ChildError) Error() string {
	if e.Location.indexed() {
		return fmt.Sprintf("%s(%d): %s", e.Location.String(), e.Index, e.Err.Error())
	}
	return fmt.Sprintf("%s: %s", e.Location.String(), e.Err.Error())
}

// Unwrap 返回系统调用错误码，便于使用 errors.Is 判断
func (e ChildError) Unwrap() error {
	return e.Err
}

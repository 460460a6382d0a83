package forkexec

// 导入 unsafe 包是为了使用 go:linkname 指令
import _ "unsafe"

// beforeFork 在 clone 之前被调用
// 阻塞所有信号并禁止当前 M 被抢占，从这里开始不能分配内存
//
//go:linkname beforeFork syscall.runtime_BeforeFork
func beforeFork()

// afterFork 在父进程的 clone 完成后被调用，恢复信号掩码
//
//go:linkname afterFork syscall.runtime_AfterFork
func afterFork()

// afterForkInChild 在子进程中被调用
// 把运行时安装的信号处理函数重置为默认值并恢复信号掩码
// 注意：在子进程中，只有当前线程存在
//
//go:linkname afterForkInChild syscall.runtime_AfterForkInChild
func afterForkInChild()

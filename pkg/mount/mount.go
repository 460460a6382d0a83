package mount

import (
	"fmt"
	"syscall"
)

// Mount 定义了一个挂载操作
type Mount struct {
	Source string  // 挂载源
	Target string  // 挂载目标（同时也是卸载目标）
	FsType string  // 文件系统类型，绑定挂载为空
	Data   string  // 挂载选项
	Flags  uintptr // 挂载标志（如 MS_BIND、MS_REC 等）
}

// SyscallParams 定义了执行 mount 系统调用所需的原始参数
// 字符串都已转换为 C 风格的字节指针，子进程可以直接使用
type SyscallParams struct {
	Source, Target, FsType, Data *byte // C 风格的字符串指针，Data 可以为 nil
	Flags                        uintptr
}

// ToSyscall 将 Mount 结构体转换为系统调用参数
func (m *Mount) ToSyscall() (*SyscallParams, error) {
	var data *byte
	source, err := syscall.BytePtrFromString(m.Source)
	if err != nil {
		return nil, err
	}
	target, err := syscall.BytePtrFromString(m.Target)
	if err != nil {
		return nil, err
	}
	fsType, err := syscall.BytePtrFromString(m.FsType)
	if err != nil {
		return nil, err
	}
	if m.Data != "" {
		data, err = syscall.BytePtrFromString(m.Data)
		if err != nil {
			return nil, err
		}
	}
	return &SyscallParams{
		Source: source,
		Target: target,
		FsType: fsType,
		Data:   data,
		Flags:  m.Flags,
	}, nil
}

// Validate 检查路径是否为非空的绝对路径
func (m *Mount) Validate() error {
	for _, p := range []string{m.Source, m.Target} {
		if p == "" || p[0] != '/' {
			return fmt.Errorf("mount: %q is not an absolute path", p)
		}
	}
	return nil
}

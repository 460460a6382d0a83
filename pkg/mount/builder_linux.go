package mount

import (
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

// rbind 定义了压力测试使用的递归绑定挂载标志
const rbind = unix.MS_BIND | unix.MS_REC

// Builder 构建子进程每次迭代要执行的挂载列表
// 通过链式调用方式配置多个挂载点
type Builder struct {
	Mounts []Mount
}

// NewBuilder 创建一个新的挂载构建器实例
func NewBuilder() *Builder {
	return &Builder{}
}

// NewDefaultBuilder 创建默认的构建器：把根目录递归绑定挂载到自身
func NewDefaultBuilder() *Builder {
	return NewBuilder().WithBind("/", "/", true)
}

// Build 根据构建器中的配置创建系统调用参数序列
func (b *Builder) Build() ([]SyscallParams, error) {
	ret := make([]SyscallParams, 0, len(b.Mounts))
	for _, m := range b.Mounts {
		if err := m.Validate(); err != nil {
			return nil, err
		}
		sp, err := m.ToSyscall()
		if err != nil {
			return nil, err
		}
		ret = append(ret, *sp)
	}
	return ret, nil
}

// FilterNotExist 移除源路径不存在的绑定挂载
func (b *Builder) FilterNotExist() *Builder {
	rt := b.Mounts[:0]
	for _, m := range b.Mounts {
		if m.IsBindMount() {
			if _, err := os.Stat(m.Source); os.IsNotExist(err) {
				continue
			}
		}
		rt = append(rt, m)
	}
	b.Mounts = rt
	return b
}

// WithMounts 将多个挂载操作添加到构建器中
func (b *Builder) WithMounts(m []Mount) *Builder {
	b.Mounts = append(b.Mounts, m...)
	return b
}

// WithMount 将单个挂载操作添加到构建器中
func (b *Builder) WithMount(m Mount) *Builder {
	b.Mounts = append(b.Mounts, m)
	return b
}

// WithBind 添加一个绑定挂载
// 参数：
// - source: 源路径
// - target: 目标路径
// - recursive: 是否带 MS_REC 递归绑定
func (b *Builder) WithBind(source, target string, recursive bool) *Builder {
	var flags uintptr = unix.MS_BIND
	if recursive {
		flags = rbind
	}
	b.Mounts = append(b.Mounts, Mount{
		Source: source,
		Target: target,
		Flags:  flags,
	})
	return b
}

// String 实现 Stringer 接口，主要用于日志输出
func (b Builder) String() string {
	var sb strings.Builder
	sb.WriteString("Mounts: ")
	for i, m := range b.Mounts {
		sb.WriteString(m.String())
		if i != len(b.Mounts)-1 {
			sb.WriteString(", ")
		}
	}
	return sb.String()
}

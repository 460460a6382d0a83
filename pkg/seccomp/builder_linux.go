package seccomp

import (
	"syscall"

	libseccomp "github.com/elastic/go-seccomp-bpf"
	"golang.org/x/net/bpf"
)

// Builder 用于构建 seccomp 过滤器
type Builder struct {
	Allow   []string // 允许执行的系统调用列表
	Default Action   // 默认动作（当系统调用不在白名单中时）
}

// NewStressBuilder 创建压力循环使用的默认构建器：
// 只允许 StressSyscalls，其余系统调用直接终止进程
func NewStressBuilder() *Builder {
	return &Builder{
		Allow:   StressSyscalls,
		Default: ActionKill,
	}
}

// Build 将 Builder 中的配置编译为 BPF 过滤器
// 白名单中重复的系统调用只保留第一次出现
func (b *Builder) Build() (Filter, error) {
	policy := libseccomp.Policy{
		DefaultAction: ToSeccompAction(b.Default),
		Syscalls: []libseccomp.SyscallGroup{
			{
				Action: libseccomp.ActionAllow,
				Names:  uniqueNames(b.Allow),
			},
		},
	}

	program, err := policy.Assemble()
	if err != nil {
		return nil, err
	}
	return ExportBPF(program)
}

func uniqueNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// ToSeccompAction 将 Action 转换为 go-seccomp-bpf 的动作类型
// 无法识别的动作按终止进程处理
func ToSeccompAction(a Action) libseccomp.Action {
	switch a {
	case ActionAllow:
		return libseccomp.ActionAllow
	case ActionErrno:
		return libseccomp.ActionErrno
	default:
		return libseccomp.ActionKillProcess
	}
}

// ExportBPF 将 BPF 指令序列汇编为内核可读的过滤器
func ExportBPF(filter []bpf.Instruction) (Filter, error) {
	raw, err := bpf.Assemble(filter)
	if err != nil {
		return nil, err
	}
	return sockFilter(raw), nil
}

// sockFilter 将原始 BPF 指令转换为内核使用的 SockFilter 格式
func sockFilter(raw []bpf.RawInstruction) []syscall.SockFilter {
	filter := make([]syscall.SockFilter, 0, len(raw))
	for _, instruction := range raw {
		filter = append(filter, syscall.SockFilter{
			Code: instruction.Op,
			Jt:   instruction.Jt,
			Jf:   instruction.Jf,
			K:    instruction.K,
		})
	}
	return filter
}

package cgroup

import (
	"errors"
	"fmt"
	"os"
	"path"
	"strconv"
	"strings"
)

var (
	// ErrNotV2 表示系统没有挂载统一层级（cgroup v2）
	ErrNotV2 = errors.New("cgroup: unified hierarchy (v2) is not mounted")

	// ErrNotInitialized 表示所需的控制器没有启用
	ErrNotInitialized = errors.New("cgroup: controller not enabled")
)

// Cgroup 是一个 cgroup v2 目录
// 监督进程在子进程进入压力循环前把它加入这个 cgroup
type Cgroup struct {
	path     string       // cgroup 在文件系统中的路径
	control  *Controllers // 启用的控制器
	existing bool         // 标记是否是已存在的 cgroup（不由我们删除）
}

// New 在 /sys/fs/cgroup 下创建 prefix 对应的 cgroup，并逐级启用 ct 中的控制器
// 如果 cgroup 已存在，则打开现有的 cgroup
func New(prefix string, ct *Controllers) (cg *Cgroup, err error) {
	if DetectType() != TypeV2 {
		return nil, ErrNotV2
	}
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return nil, fmt.Errorf("cgroup: empty prefix")
	}

	c := &Cgroup{
		path:    join(prefix),
		control: ct,
	}
	if _, err := os.Stat(c.path); err == nil {
		c.existing = true
	}
	defer func() {
		if err != nil && !c.existing {
			remove(c.path)
		}
	}()

	controlMsg := []byte("+" + strings.Join(ct.Names(), " +"))

	// 从根目录开始，逐级创建目录并在父目录的 subtree_control 中启用控制器
	current := ""
	for _, e := range strings.Split(prefix, "/") {
		parent := current
		current = path.Join(current, e)
		if _, err := os.Stat(join(current)); os.IsNotExist(err) {
			if err := os.Mkdir(join(current), dirPerm); err != nil {
				return nil, err
			}
		} else if err != nil {
			return nil, err
		}

		if ct.Empty() {
			continue
		}
		ect, err := availableControllers(join(current, cgroupControllers))
		if err != nil {
			return nil, err
		}
		if ect.Contains(ct) {
			continue
		}
		if err := writeFile(join(parent, cgroupSubtreeControl), controlMsg, filePerm); err != nil {
			return nil, fmt.Errorf("cgroup: enable %v in %q: %w", ct, join(parent), err)
		}
	}
	return c, nil
}

// Path 返回 cgroup 的目录
func (c *Cgroup) Path() string { return c.path }

// Existing 返回这个 cgroup 是否是已存在的
func (c *Cgroup) Existing() bool { return c.existing }

// String 返回 cgroup 的字符串表示
func (c *Cgroup) String() string {
	return "v2(" + c.path + ")" + c.control.String()
}

// AddProc 将指定的进程添加到这个 cgroup 中
func (c *Cgroup) AddProc(pids ...int) error {
	return AddProcesses(path.Join(c.path, cgroupProcs), pids)
}

// Processes 返回该 cgroup 中的所有进程 ID
func (c *Cgroup) Processes() ([]int, error) {
	return ReadProcesses(path.Join(c.path, cgroupProcs))
}

// Destroy 删除这个 cgroup，已存在的 cgroup 不会被删除
// 调用前所有子进程必须已经被回收
func (c *Cgroup) Destroy() error {
	if !c.existing {
		return remove(c.path)
	}
	return nil
}

// SetMemoryLimit 设置内存使用上限（字节）
func (c *Cgroup) SetMemoryLimit(l uint64) error {
	if !c.control.Memory {
		return ErrNotInitialized
	}
	return c.WriteUint("memory.max", l)
}

// SetProcLimit 设置进程数量上限
func (c *Cgroup) SetProcLimit(l uint64) error {
	if !c.control.Pids {
		return ErrNotInitialized
	}
	return c.WriteUint("pids.max", l)
}

// MemoryUsage 读取当前内存使用量
func (c *Cgroup) MemoryUsage() (uint64, error) {
	if !c.control.Memory {
		return 0, ErrNotInitialized
	}
	return c.ReadUint("memory.current")
}

// MemoryPeak 读取峰值内存使用量
// 内核版本低于 5.19 时没有 memory.peak，退化为当前使用量
func (c *Cgroup) MemoryPeak() (uint64, error) {
	if !c.control.Memory {
		return 0, ErrNotInitialized
	}
	v, err := c.ReadUint("memory.peak")
	if errors.Is(err, os.ErrNotExist) {
		return c.MemoryUsage()
	}
	return v, err
}

// WriteUint 将 uint64 类型的值写入指定文件
func (c *Cgroup) WriteUint(filename string, i uint64) error {
	return c.WriteFile(filename, []byte(strconv.FormatUint(i, 10)))
}

// ReadUint 从指定文件读取 uint64 类型的值
func (c *Cgroup) ReadUint(filename string) (uint64, error) {
	b, err := c.ReadFile(filename)
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(strings.TrimSpace(string(b)), 10, 64)
}

// WriteFile 写入 cgroup 文件内容
func (c *Cgroup) WriteFile(name string, content []byte) error {
	return writeFile(path.Join(c.path, name), content, filePerm)
}

// ReadFile 读取 cgroup 文件内容
func (c *Cgroup) ReadFile(name string) ([]byte, error) {
	return readFile(path.Join(c.path, name))
}

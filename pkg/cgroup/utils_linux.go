package cgroup

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"
)

// DetectType 检测当前系统挂载的 cgroup 类型
// 通过检查 /sys/fs/cgroup 的文件系统类型来判断
func DetectType() Type {
	var st unix.Statfs_t
	if err := unix.Statfs(basePath, &st); err != nil {
		return TypeV1
	}
	if st.Type == unix.CGROUP2_SUPER_MAGIC {
		return TypeV2
	}
	return TypeV1
}

// ReadProcesses 读取 cgroup.procs 文件并返回进程 ID 列表
func ReadProcesses(path string) ([]int, error) {
	content, err := readFile(path)
	if err != nil {
		return nil, err
	}
	var rt []int
	for _, x := range strings.Split(string(content), "\n") {
		if len(x) == 0 {
			continue
		}
		pid, err := strconv.Atoi(x)
		if err != nil {
			return nil, err
		}
		rt = append(rt, pid)
	}
	return rt, nil
}

// AddProcesses 将进程添加到 cgroup.procs 文件中
// 每个 pid 需要单独一次 write
func AddProcesses(path string, procs []int) error {
	f, err := os.OpenFile(path, os.O_RDWR, filePerm)
	if err != nil {
		return err
	}
	defer f.Close()
	for _, p := range procs {
		if _, err := f.WriteString(strconv.Itoa(p)); err != nil {
			return err
		}
	}
	return nil
}

// availableControllers 读取指定 cgroup 下的控制器文件
func availableControllers(p string) (*Controllers, error) {
	content, err := readFile(p)
	if err != nil {
		return nil, err
	}
	return parseControllers(content), nil
}

// remove 删除指定的目录，名称为空时什么都不做
func remove(name string) error {
	if name != "" {
		return os.Remove(name)
	}
	return nil
}

// readFile 读取文件内容，处理 EINTR 中断
func readFile(p string) ([]byte, error) {
	data, err := os.ReadFile(p)
	for err != nil && errors.Is(err, syscall.EINTR) {
		data, err = os.ReadFile(p)
	}
	return data, err
}

// writeFile 写入文件内容，处理 EINTR 中断
func writeFile(p string, content []byte, perm fs.FileMode) error {
	err := os.WriteFile(p, content, perm)
	for err != nil && errors.Is(err, syscall.EINTR) {
		err = os.WriteFile(p, content, perm)
	}
	return err
}

// join 拼接 cgroup 根目录下的相对路径
func join(elem ...string) string {
	return path.Join(append([]string{basePath}, elem...)...)
}

package memfd

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// 创建 memfd 的标志位组合：
// MFD_CLOEXEC: 在执行 exec 时自动关闭文件描述符
// MFD_ALLOW_SEALING: 允许对文件进行密封操作
const createFlag = unix.MFD_CLOEXEC | unix.MFD_ALLOW_SEALING

// 尺寸密封标志位组合：
// F_SEAL_SEAL: 防止进一步添加新的密封
// F_SEAL_SHRINK: 防止文件缩小（缩小后访问映射会触发 SIGBUS）
// F_SEAL_GROW: 防止文件增长
// 不密封写入，映射需要可写
const sizeSeal = unix.F_SEAL_SEAL | unix.F_SEAL_SHRINK | unix.F_SEAL_GROW

// New 创建一个新的 memfd（内存文件）
// 参数：
//   - name: 文件名（仅用于调试目的，会显示在 /proc/[pid]/fd 中）
//
// 注意：调用者需要负责关闭返回的文件
func New(name string) (*os.File, error) {
	fd, err := unix.MemfdCreate(name, createFlag)
	if err != nil {
		return nil, fmt.Errorf("memfd: memfd_create failed %w", err)
	}
	file := os.NewFile(uintptr(fd), name)
	if file == nil {
		unix.Close(fd)
		return nil, fmt.Errorf("memfd: NewFile failed for %v", name)
	}
	return file, nil
}

// Region 是一段基于 memfd 的共享内存映射
type Region struct {
	File *os.File // 后备 memfd，匿名映射时为 nil
	Data []byte   // MAP_SHARED 映射
}

// MapShared 创建大小为 size 的 memfd，密封其尺寸并以 MAP_SHARED 方式映射
// 返回的映射在之后 fork/clone 出的子进程中仍与父进程共享
func MapShared(name string, size int) (*Region, error) {
	if size <= 0 {
		return nil, fmt.Errorf("memfd: invalid size %d", size)
	}
	file, err := New(name)
	if err != nil {
		return nil, err
	}
	if err := file.Truncate(int64(size)); err != nil {
		file.Close()
		return nil, fmt.Errorf("memfd: truncate %w", err)
	}
	if _, err := unix.FcntlInt(file.Fd(), unix.F_ADD_SEALS, sizeSeal); err != nil {
		file.Close()
		return nil, fmt.Errorf("memfd: seal %w", err)
	}
	data, err := unix.Mmap(int(file.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("memfd: mmap %w", err)
	}
	return &Region{File: file, Data: data}, nil
}

// MapAnonymous 创建不依赖 memfd 的匿名共享映射
// 用于 memfd_create 不可用（如被 seccomp 禁止）时的回退
func MapAnonymous(size int) (*Region, error) {
	if size <= 0 {
		return nil, fmt.Errorf("memfd: invalid size %d", size)
	}
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("memfd: mmap anonymous %w", err)
	}
	return &Region{Data: data}, nil
}

// Close 解除映射并关闭后备文件
func (r *Region) Close() error {
	var err error
	if r.Data != nil {
		err = unix.Munmap(r.Data)
		r.Data = nil
	}
	if r.File != nil {
		if cerr := r.File.Close(); err == nil {
			err = cerr
		}
		r.File = nil
	}
	return err
}

package forkexec

import (
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"
)

// readChildErr 从文件描述符中读取子进程的错误信息
// 如果被 EINTR 信号中断，会重试读取操作
func readChildErr(fd int, childErr *ChildError) (n int, err error) {
	for {
		n, err = readlen(fd, (*byte)(unsafe.Pointer(childErr)), int(unsafe.Sizeof(*childErr)))
		if err != syscall.EINTR {
			break
		}
	}
	return
}

// recvChildErr 以非阻塞方式读取子进程退出后留下的错误记录
// 子进程已经退出，它写入的数据都在缓冲区中，没有数据时返回 (0, EAGAIN)
// 非阻塞读取避免了其他进程持有 socket 副本时的等待
func recvChildErr(fd int, childErr *ChildError) (n int, err error) {
	buf := unsafe.Slice((*byte)(unsafe.Pointer(childErr)), unsafe.Sizeof(*childErr))
	for {
		n, _, err = unix.Recvfrom(fd, buf, unix.MSG_DONTWAIT)
		if err != unix.EINTR {
			break
		}
	}
	return
}

// readlen 直接调用 read 系统调用读取指定长度的数据
func readlen(fd int, p *byte, np int) (n int, err error) {
	r0, _, e1 := syscall.Syscall(syscall.SYS_READ, uintptr(fd), uintptr(unsafe.Pointer(p)), uintptr(np))
	n = int(r0)
	if e1 != 0 {
		err = syscall.Errno(e1)
	}
	return
}

// handlePipeError 处理管道错误
// 如果读取的数据长度足够，返回实际的错误码，否则返回 EPIPE
func handlePipeError(r1 int, errno syscall.Errno) syscall.Errno {
	if uintptr(r1) >= unsafe.Sizeof(errno) && errno != 0 {
		return errno
	}
	return syscall.EPIPE
}

// handleChildFailed 杀死并回收初始化失败的子进程，避免产生僵尸进程
func handleChildFailed(pid int) {
	var wstatus syscall.WaitStatus
	syscall.Kill(pid, syscall.SIGKILL)
	_, err := syscall.Wait4(pid, &wstatus, 0, nil)
	for err == syscall.EINTR {
		_, err = syscall.Wait4(pid, &wstatus, 0, nil)
	}
}

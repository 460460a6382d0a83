package forkexec

import (
	"strconv"
	"syscall"

	"golang.org/x/sys/unix"
)

// writeIDMaps 为用户命名空间中的子进程写入 uid_map、setgroups 和 gid_map
// 此函数由父进程调用，setgroups 必须在 gid_map 之前写入
func writeIDMaps(r *Runner, pid int) error {
	dir := "/proc/" + strconv.Itoa(pid) + "/"

	if err := writeFile(dir+"uid_map", idMappings(r.UIDMappings, unix.Geteuid())); err != nil {
		return err
	}

	// 没有 GID 映射或禁用了 setgroups 时，拒绝 setgroups 操作
	setGroups := setGIDDeny
	if r.GIDMappings != nil && r.GIDMappingsEnableSetgroups {
		setGroups = setGIDAllow
	}
	if err := writeFile(dir+"setgroups", setGroups); err != nil {
		return err
	}

	return writeFile(dir+"gid_map", idMappings(r.GIDMappings, unix.Getegid()))
}

// idMappings 返回要写入的映射内容
// 没有指定映射时，把命名空间内的 0 映射到主机上的 hostID
func idMappings(idMap []syscall.SysProcIDMap, hostID int) []byte {
	if idMap == nil {
		return []byte("0 " + strconv.Itoa(hostID) + " 1")
	}
	return formatIDMappings(idMap)
}

// formatIDMappings 将 ID 映射数组转换为 /proc/[pid]/{uid,gid}_map 的格式
// 每行为：ContainerID HostID Size
func formatIDMappings(idMap []syscall.SysProcIDMap) []byte {
	var data []byte
	for _, im := range idMap {
		data = append(data, strconv.Itoa(im.ContainerID)+" "+strconv.Itoa(im.HostID)+" "+strconv.Itoa(im.Size)+"\n"...)
	}
	return data
}

// writeFile 用一次 write 写入 proc 文件，映射文件不接受分段写入
func writeFile(path string, content []byte) error {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return err
	}
	if _, err := unix.Write(fd, content); err != nil {
		unix.Close(fd)
		return err
	}
	return unix.Close(fd)
}

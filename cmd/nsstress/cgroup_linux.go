package main

import "github.com/zqzqsb/nsstress/pkg/cgroup"

// cgroupVersion 返回挂载在 /sys/fs/cgroup 的 cgroup 版本
func cgroupVersion() string {
	return cgroup.DetectType().String()
}

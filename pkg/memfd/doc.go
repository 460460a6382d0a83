// Package memfd 提供了 Linux memfd（匿名内存文件）的封装。
// 压力测试的共享上下文放在 memfd 映射的共享内存中：
// 通过 clone 创建的子进程得到的是父进程地址空间的副本，
// 只有 MAP_SHARED 映射在父子进程之间真正共享。
//
// 要求 Linux 内核版本 >= 3.17
package memfd

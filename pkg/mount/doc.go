/*
Package mount 描述压力测试子进程在每次迭代中反复执行的挂载操作。

主要功能：

1. Mount 结构体：
   - 定义挂载操作的基本属性（源、目标、文件系统类型、标志）
   - 在 clone 之前转换为系统调用参数（子进程中不能再分配内存）

2. Builder 模式：
   - 提供流式 API 来构建挂载列表
   - 默认配置是把根目录递归绑定挂载到自身

使用示例：

    mounts, err := mount.NewDefaultBuilder().   // "/" -> "/" (MS_BIND|MS_REC)
        WithBind("/tmp", "/tmp", false).        // 额外的非递归绑定挂载
        Build()
*/
package mount

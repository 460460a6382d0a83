package mount

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// IsBindMount 判断是否为绑定挂载
func (m Mount) IsBindMount() bool {
	return m.Flags&unix.MS_BIND == unix.MS_BIND
}

// IsRecursive 判断是否为递归挂载
// 递归绑定挂载会复制目标下的整棵挂载树，挂载表按指数增长
func (m Mount) IsRecursive() bool {
	return m.Flags&unix.MS_REC == unix.MS_REC
}

// String 返回挂载操作的字符串表示
func (m Mount) String() string {
	switch {
	case m.IsBindMount() && m.IsRecursive():
		return fmt.Sprintf("rbind[%s:%s]", m.Source, m.Target)

	case m.IsBindMount():
		return fmt.Sprintf("bind[%s:%s]", m.Source, m.Target)

	default:
		return fmt.Sprintf("mount[%s,%s:%s:%x,%s]", m.FsType, m.Source, m.Target, m.Flags, m.Data)
	}
}

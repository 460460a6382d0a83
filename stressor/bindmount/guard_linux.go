package bindmount

import (
	"os"
	"sync"
)

// namespaceFiles 是压力测试需要的命名空间
var namespaceFiles = []string{
	"/proc/self/ns/user",
	"/proc/self/ns/mnt",
}

var supported = sync.OnceValue(func() bool {
	for _, f := range namespaceFiles {
		if _, err := os.Stat(f); err != nil {
			return false
		}
	}
	return true
})

// Supported 判断内核是否提供用户和挂载命名空间，结果只探测一次
func Supported() bool {
	return supported()
}

package stressor

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Size 存储对象的字节数，例如内存。
// 最大大小受64位限制
type Size uint64

// String 实现 stringer 接口用于打印
func (s Size) String() string {
	t := uint64(s)
	switch {
	case t < 1<<10:
		return fmt.Sprintf("%d B", t)
	case t < 1<<20:
		return fmt.Sprintf("%.1f KiB", float64(t)/float64(1<<10))
	case t < 1<<30:
		return fmt.Sprintf("%.1f MiB", float64(t)/float64(1<<20))
	default:
		return fmt.Sprintf("%.1f GiB", float64(t)/float64(1<<30))
	}
}

// Set 从字符串解析大小值，支持 k、m、g 后缀（可带 b）
// 实现了 cli.Generic，可以直接作为命令行参数
func (s *Size) Set(str string) error {
	str = strings.TrimSpace(str)
	if str == "" {
		return errors.New("size: empty value")
	}
	switch str[len(str)-1] {
	case 'b', 'B':
		str = str[:len(str)-1]
	}
	if str == "" {
		return errors.New("size: missing number")
	}

	factor := 0
	switch str[len(str)-1] {
	case 'k', 'K':
		factor = 10
		str = str[:len(str)-1]
	case 'm', 'M':
		factor = 20
		str = str[:len(str)-1]
	case 'g', 'G':
		factor = 30
		str = str[:len(str)-1]
	}

	t, err := strconv.ParseUint(str, 10, 64)
	if err != nil {
		return err
	}
	if t > (1<<64-1)>>factor {
		return fmt.Errorf("size: %s overflows", str)
	}
	*s = Size(t << factor)
	return nil
}

// UnmarshalText 让 Size 可以直接出现在配置文件中
func (s *Size) UnmarshalText(text []byte) error {
	return s.Set(string(text))
}

// Byte 返回字节大小
func (s Size) Byte() uint64 {
	return uint64(s)
}

// KiB 返回 KiB 大小
func (s Size) KiB() uint64 {
	return uint64(s) >> 10
}

// MiB 返回 MiB 大小
func (s Size) MiB() uint64 {
	return uint64(s) >> 20
}

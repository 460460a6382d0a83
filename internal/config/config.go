// Package config 读取 nsstress 的 YAML 配置文件
//
// 配置文件中没有出现的字段保留 Default 中的默认值，命令行参数再覆盖配置文件
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/zqzqsb/nsstress/pkg/mount"
	"github.com/zqzqsb/nsstress/pkg/rlimit"
	"github.com/zqzqsb/nsstress/stressor"
	"github.com/zqzqsb/nsstress/stressor/bindmount"
)

const (
	defaultInstances    = 1
	defaultTimeout      = 10 * time.Second
	defaultCgroupPrefix = "nsstress"
	defaultLogLevel     = "info"
	defaultLogFormat    = "text"
)

// Mount 是一个压力挂载，recursive 缺省为 true
type Mount struct {
	Source    string `yaml:"source"`
	Target    string `yaml:"target"`
	Recursive *bool  `yaml:"recursive"`
}

// RLimits 是子进程的资源限制
type RLimits struct {
	DisableCore bool   `yaml:"disable_core"`
	CPU         uint64 `yaml:"cpu"`
}

// Cgroup 是可选的 cgroup v2 限制
type Cgroup struct {
	Enabled bool          `yaml:"enabled"`
	Prefix  string        `yaml:"prefix"`
	Memory  stressor.Size `yaml:"memory"`
	Pids    uint64        `yaml:"pids"`
}

// Log 是日志配置
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config 是 nsstress 的完整配置
type Config struct {
	Instances int           `yaml:"instances"`
	Timeout   time.Duration `yaml:"timeout"`
	Ops       uint64        `yaml:"ops"`
	Mounts    []Mount       `yaml:"mounts"`
	RLimits   RLimits       `yaml:"rlimits"`
	Seccomp   bool          `yaml:"seccomp"`
	Cgroup    Cgroup        `yaml:"cgroup"`
	Log       Log           `yaml:"log"`
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		Instances: defaultInstances,
		Timeout:   defaultTimeout,
		RLimits:   RLimits{DisableCore: true},
		Cgroup:    Cgroup{Prefix: defaultCgroupPrefix},
		Log:       Log{Level: defaultLogLevel, Format: defaultLogFormat},
	}
}

// Load 在默认配置的基础上读取 path，未知字段视为错误
func Load(path string) (*Config, error) {
	cfg := Default()
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 检查配置是否有效
func (c *Config) Validate() error {
	if c.Instances <= 0 {
		return fmt.Errorf("config: instances must be positive, got %d", c.Instances)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("config: timeout must be positive, got %v", c.Timeout)
	}
	for i, m := range c.Mounts {
		if !filepath.IsAbs(m.Source) || !filepath.IsAbs(m.Target) {
			return fmt.Errorf("config: mounts[%d]: source and target must be absolute paths", i)
		}
	}
	if c.Cgroup.Enabled && c.Cgroup.Prefix == "" {
		return errors.New("config: cgroup.prefix must not be empty")
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config: log.level: %w", err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("config: log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// Options 转换为压力测试的配置
func (c *Config) Options() bindmount.Options {
	o := bindmount.DefaultOptions()
	if len(c.Mounts) > 0 {
		o.Mounts = make([]mount.Mount, 0, len(c.Mounts))
		for _, m := range c.Mounts {
			recursive := m.Recursive == nil || *m.Recursive
			o.Mounts = append(o.Mounts, bindmount.Bind(m.Source, m.Target, recursive))
		}
	}
	o.RLimits = rlimit.RLimits{
		CPU:         c.RLimits.CPU,
		DisableCore: c.RLimits.DisableCore,
	}
	o.Seccomp = c.Seccomp
	o.Cgroup = bindmount.CgroupOptions{
		Enabled: c.Cgroup.Enabled,
		Prefix:  c.Cgroup.Prefix,
		Memory:  c.Cgroup.Memory,
		Pids:    c.Cgroup.Pids,
	}
	return o
}

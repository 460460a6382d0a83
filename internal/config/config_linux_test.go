package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/zqzqsb/nsstress/stressor"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "nsstress.yaml")
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad(t *testing.T) {
	p := writeConfig(t, `
instances: 4
timeout: 30s
ops: 1000
mounts:
  - source: /
    target: /
  - source: /tmp
    target: /tmp
    recursive: false
seccomp: true
cgroup:
  enabled: true
  memory: "64m"
  pids: 16
log:
  level: debug
  format: json
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Instances != 4 || cfg.Timeout != 30*time.Second || cfg.Ops != 1000 {
		t.Errorf("cfg = %+v", cfg)
	}
	if !cfg.RLimits.DisableCore {
		t.Error("disable_core should keep its default")
	}
	if cfg.Cgroup.Prefix != defaultCgroupPrefix {
		t.Errorf("cgroup.prefix = %q, want default", cfg.Cgroup.Prefix)
	}
	if cfg.Cgroup.Memory != 64<<20 {
		t.Errorf("cgroup.memory = %v, want 64 MiB", cfg.Cgroup.Memory)
	}

	o := cfg.Options()
	if len(o.Mounts) != 2 {
		t.Fatalf("Mounts = %v", o.Mounts)
	}
	if !o.Mounts[0].IsRecursive() || o.Mounts[1].IsRecursive() {
		t.Errorf("recursive flags = %v, %v", o.Mounts[0], o.Mounts[1])
	}
	if !o.Seccomp || !o.Cgroup.Enabled || o.Cgroup.Memory != stressor.Size(64<<20) || o.Cgroup.Pids != 16 {
		t.Errorf("options = %+v", o)
	}
}

func TestLoadEmpty(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Instances != defaultInstances || cfg.Timeout != defaultTimeout {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}
	o := cfg.Options()
	if len(o.Mounts) != 1 || o.Mounts[0].Source != "/" {
		t.Errorf("Mounts = %v, want default root bind", o.Mounts)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown field", "instance: 2\n", "field instance not found"},
		{"zero instances", "instances: 0\n", "instances must be positive"},
		{"negative timeout", "timeout: -1s\n", "timeout must be positive"},
		{"relative mount", "mounts:\n  - source: tmp\n    target: /tmp\n", "absolute"},
		{"bad size", "cgroup:\n  memory: lots\n", "parse"},
		{"bad level", "log:\n  level: loud\n", "log.level"},
		{"bad format", "log:\n  format: xml\n", "log.format"},
		{"empty prefix", "cgroup:\n  enabled: true\n  prefix: \"\"\n", "cgroup.prefix"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("Load() succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load() = %v, want error containing %q", err, tt.want)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() of a missing file succeeded")
	}
}

package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
	"golang.org/x/sys/unix"

	"github.com/zqzqsb/nsstress/internal/config"
	"github.com/zqzqsb/nsstress/pkg/counter"
	"github.com/zqzqsb/nsstress/stressor"
	"github.com/zqzqsb/nsstress/stressor/bindmount"
)

var runCommand = cli.Command{
	Name: "run",
	Usage: `run bind-mount stressor instances
			nsstress run --instances 4 --timeout 30s`,
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "config, c",
			Usage: "YAML configuration file",
		},
		cli.IntFlag{
			Name:  "instances, n",
			Usage: "number of stressor instances to run in parallel",
		},
		cli.DurationFlag{
			Name:  "timeout, t",
			Usage: "stop stressing after this duration",
		},
		cli.Uint64Flag{
			Name:  "ops",
			Usage: "stop each instance after this many bogo operations (0 = unbounded)",
		},
		cli.BoolFlag{
			Name:  "seccomp",
			Usage: "restrict the stress loop with a seccomp allow-list",
		},
		cli.GenericFlag{
			Name:  "cgroup-memory",
			Value: new(stressor.Size),
			Usage: "confine children to a cgroup v2 with this memory.max (e.g. 64m)",
		},
		cli.Uint64Flag{
			Name:  "cgroup-pids",
			Usage: "confine children to a cgroup v2 with this pids.max",
		},
	},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return cli.NewExitError(err, stressor.StatusInvalid.ExitCode())
		}
		if err := setupLogging(cfg.Log.Level, cfg.Log.Format); err != nil {
			return cli.NewExitError(err, stressor.StatusInvalid.ExitCode())
		}

		results := runInstances(cfg)
		if err := printReport(os.Stdout, results); err != nil {
			log.Error(err)
		}
		if code := worstStatus(results).ExitCode(); code != 0 {
			return cli.NewExitError("", code)
		}
		return nil
	},
}

// loadConfig 读取配置文件，再用命令行参数覆盖
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}

	if c.IsSet("instances") {
		cfg.Instances = c.Int("instances")
	}
	if c.IsSet("timeout") {
		cfg.Timeout = c.Duration("timeout")
	}
	if c.IsSet("ops") {
		cfg.Ops = c.Uint64("ops")
	}
	if c.IsSet("seccomp") {
		cfg.Seccomp = c.Bool("seccomp")
	}
	if c.IsSet("cgroup-memory") {
		cfg.Cgroup.Enabled = true
		cfg.Cgroup.Memory = *c.Generic("cgroup-memory").(*stressor.Size)
	}
	if c.IsSet("cgroup-pids") {
		cfg.Cgroup.Enabled = true
		cfg.Cgroup.Pids = c.Uint64("cgroup-pids")
	}
	if c.GlobalIsSet("log-level") {
		cfg.Log.Level = c.GlobalString("log-level")
	}
	if c.GlobalIsSet("log-format") {
		cfg.Log.Format = c.GlobalString("log-format")
	}
	return cfg, cfg.Validate()
}

// runInstances 并行运行所有实例，直到超时、收到中断或全部结束
//
// 超时后先清除每个实例的运行标志，再向进程组发送 SIGALRM 终止仍在运行的子进程
func runInstances(cfg *config.Config) []stressor.Result {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	pgrp := unix.Getpgrp()
	opts := cfg.Options()
	results := make([]stressor.Result, cfg.Instances)

	log.WithFields(log.Fields{
		"instances": cfg.Instances,
		"timeout":   cfg.Timeout,
		"ops":       cfg.Ops,
	}).Infof("%s: dispatching hogs", bindmount.Name)

	var wg sync.WaitGroup
	for i := range results {
		sc, err := counter.New(bindmount.Name, cfg.Ops, pgrp)
		if err != nil {
			log.WithField("instance", i).Errorf("%s: fail: shared context: %v", bindmount.Name, err)
			results[i] = stressor.Result{Status: stressor.StatusNoResource, Error: err.Error()}
			continue
		}

		wg.Add(1)
		go func(i int, sc *counter.Context) {
			defer wg.Done()
			defer sc.Close()

			args := &stressor.Args{
				Name:     bindmount.Name,
				Instance: i,
				Context:  sc,
				Logger:   log.StandardLogger(),
			}
			results[i] = bindmount.New(opts).Run(ctx, args)
		}(i, sc)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		// 只有进程组组长才能确定整组都属于自己
		if pgrp == unix.Getpid() {
			unix.Kill(-pgrp, unix.SIGALRM)
		}
		<-done
	}
	return results
}

// worstStatus 返回所有实例中最差的状态
func worstStatus(results []stressor.Result) stressor.Status {
	worst := stressor.StatusSuccess
	for _, r := range results {
		worst = worst.Worse(r.Status)
	}
	return worst
}

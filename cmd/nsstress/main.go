// nsstress 反复在新的用户和挂载命名空间中递归绑定挂载根目录，压测内核的挂载表
package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

const usage = `stress the kernel mount table from isolated user and mount namespaces`

func main() {
	app := cli.NewApp()
	app.Name = "nsstress"
	app.Usage = usage

	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "log-level",
			Value: "info",
			Usage: "log level (debug, info, warn, error)",
		},
		cli.StringFlag{
			Name:  "log-format",
			Value: "text",
			Usage: "log format (text, json)",
		},
	}

	app.Commands = []cli.Command{runCommand, probeCommand}

	app.Before = func(c *cli.Context) error {
		return setupLogging(c.GlobalString("log-level"), c.GlobalString("log-format"))
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// setupLogging 配置 logrus 的级别和格式
func setupLogging(level, format string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return err
	}
	log.SetLevel(lvl)
	log.SetOutput(os.Stderr)

	switch format {
	case "text":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	default:
		return fmt.Errorf("unknown log format %q", format)
	}
	return nil
}

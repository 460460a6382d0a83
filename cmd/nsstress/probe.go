package main

import (
	"fmt"
	"os"

	"github.com/gosuri/uitable"
	"github.com/urfave/cli"

	"github.com/zqzqsb/nsstress/stressor"
	"github.com/zqzqsb/nsstress/stressor/bindmount"
)

var probeCommand = cli.Command{
	Name:  "probe",
	Usage: `report whether the bind-mount stressor can run on this kernel`,
	Action: func(c *cli.Context) error {
		status := stressor.StatusSuccess
		if !bindmount.Supported() {
			status = stressor.StatusNotImplemented
		}

		table := uitable.New()
		table.AddRow("STRESSOR", "NAMESPACES", "CGROUP", "STATUS")
		table.AddRow(bindmount.Name, supportedString(bindmount.Supported()), cgroupVersion(), status)
		if err := encodeTable(os.Stdout, table); err != nil {
			return err
		}

		if code := status.ExitCode(); code != 0 {
			return cli.NewExitError(fmt.Sprintf("%s: %v", bindmount.Name, stressor.ErrNotImplemented), code)
		}
		return nil
	},
}

func supportedString(ok bool) string {
	if ok {
		return "user,mnt"
	}
	return "missing"
}

package main

import (
	"fmt"
	"io"
	"time"

	"github.com/gosuri/uitable"

	"github.com/zqzqsb/nsstress/stressor"
	"github.com/zqzqsb/nsstress/stressor/bindmount"
)

// printReport 以表格形式输出每个实例的结果
func printReport(out io.Writer, results []stressor.Result) error {
	table := uitable.New()
	table.MaxColWidth = 60
	table.AddRow("STRESSOR", "INSTANCE", "BOGO OPS", "REAL TIME", "BOGO OPS/S", "CHILDREN", "FAILURES", "MEMORY PEAK", "STATUS")
	for i, r := range results {
		peak := "-"
		if r.MemoryPeak > 0 {
			peak = r.MemoryPeak.String()
		}
		table.AddRow(
			bindmount.Name,
			i,
			r.Ops,
			r.Duration.Round(time.Millisecond),
			fmt.Sprintf("%.2f", r.OpsPerSecond()),
			r.Children,
			r.Failures,
			peak,
			r.Status,
		)
	}
	return encodeTable(out, table)
}

// encodeTable 把表格写入 out，末尾补一个换行
func encodeTable(out io.Writer, table *uitable.Table) error {
	raw := table.Bytes()
	raw = append(raw, '\n')
	_, err := out.Write(raw)
	return err
}

package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/zqzqsb/nsstress/stressor"
)

func TestSetupLogging(t *testing.T) {
	defer log.SetLevel(log.InfoLevel)

	tests := []struct {
		level, format string
		wantErr       bool
	}{
		{"debug", "text", false},
		{"warn", "json", false},
		{"loud", "text", true},
		{"info", "xml", true},
	}
	for _, tt := range tests {
		err := setupLogging(tt.level, tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("setupLogging(%q, %q) error = %v, wantErr %v", tt.level, tt.format, err, tt.wantErr)
		}
	}
}

func TestWorstStatus(t *testing.T) {
	tests := []struct {
		name    string
		results []stressor.Result
		want    stressor.Status
	}{
		{"none", nil, stressor.StatusSuccess},
		{"all success", []stressor.Result{{Status: stressor.StatusSuccess}, {Status: stressor.StatusSuccess}}, stressor.StatusSuccess},
		{"one failure", []stressor.Result{{Status: stressor.StatusSuccess}, {Status: stressor.StatusFailure}}, stressor.StatusFailure},
		{"not implemented", []stressor.Result{{Status: stressor.StatusNotImplemented}}, stressor.StatusNotImplemented},
		{"no resource", []stressor.Result{{Status: stressor.StatusNotImplemented}, {Status: stressor.StatusNoResource}}, stressor.StatusNoResource},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := worstStatus(tt.results); got != tt.want {
				t.Errorf("worstStatus() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPrintReport(t *testing.T) {
	results := []stressor.Result{
		{Status: stressor.StatusSuccess, Ops: 1200, Children: 3, Duration: 2 * time.Second},
		{Status: stressor.StatusFailure, Ops: 7, Children: 2, Failures: 1, Duration: time.Second, MemoryPeak: 64 << 20},
	}
	var buf bytes.Buffer
	if err := printReport(&buf, results); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("report has %d lines, want 3:\n%s", len(lines), buf.String())
	}
	for _, want := range []string{"STRESSOR", "BOGO OPS/S", "FAILURES", "STATUS"} {
		if !strings.Contains(lines[0], want) {
			t.Errorf("header %q missing %q", lines[0], want)
		}
	}
	for _, want := range []string{"bind-mount", "1200", "600.00", "success"} {
		if !strings.Contains(lines[1], want) {
			t.Errorf("row %q missing %q", lines[1], want)
		}
	}
	for _, want := range []string{"failure", "64.0 MiB"} {
		if !strings.Contains(lines[2], want) {
			t.Errorf("row %q missing %q", lines[2], want)
		}
	}
}

//go:build !linux

package main

func cgroupVersion() string {
	return "none"
}

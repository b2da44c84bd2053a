// Package sysinfo describes the machine a plan was computed on.
package sysinfo

import (
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/host"
	"github.com/shirou/gopsutil/mem"
)

// Info is attached to reports so solve times can be compared across hosts
type Info struct {
	Platform string `json:"platform"`
	CPU      string `json:"cpu"`
	Cores    int    `json:"cores"`
	Memory   string `json:"memory"`
}

// Collect reads host details. Lookups that fail leave their field empty.
func Collect() Info {
	info := Info{Cores: runtime.NumCPU()}

	if hostStat, err := host.Info(); err == nil {
		info.Platform = hostStat.Platform
		if hostStat.PlatformVersion != "" {
			info.Platform += " " + hostStat.PlatformVersion
		}
	}
	if info.Platform == "" {
		info.Platform = runtime.GOOS + "/" + runtime.GOARCH
	}

	if cpuStat, err := cpu.Info(); err == nil && len(cpuStat) > 0 {
		info.CPU = cpuStat[0].ModelName
	}

	if vmStat, err := mem.VirtualMemory(); err == nil {
		info.Memory = formatGB(vmStat.Total)
	}

	return info
}

// String renders a one-line summary
func (i Info) String() string {
	s := fmt.Sprintf("%s, %d cores", i.Platform, i.Cores)
	if i.CPU != "" {
		s += ", " + i.CPU
	}
	if i.Memory != "" {
		s += ", " + i.Memory
	}
	return s
}

func formatGB(bytes uint64) string {
	return fmt.Sprintf("%d GB", bytes/1024/1024/1024)
}

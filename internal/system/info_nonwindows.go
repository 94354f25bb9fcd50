//go:build !windows

package system

import (
	"strings"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

func collectHostExtras() hostExtras {
	var extras hostExtras
	if infos, err := cpu.Info(); err == nil && len(infos) > 0 {
		extras.CPUModel = strings.TrimSpace(infos[0].ModelName)
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		extras.RAMBytes = vm.Total
	}
	return extras
}

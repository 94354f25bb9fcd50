package system

import (
	"net"
	"os"
	"runtime"

	"github.com/dustin/go-humanize"
)

// HostInfo is the short machine summary printed in a report header.
type HostInfo struct {
	Hostname  string `json:"hostname"`
	IPAddress string `json:"ip_address"`
	OSVersion string `json:"os_version"`
	CPUModel  string `json:"cpu_model"`
	RAM       string `json:"ram"`
}

// hostExtras holds platform-specific hardware details collected by
// collectHostExtras(), which is implemented per-OS.
type hostExtras struct {
	CPUModel string
	RAMBytes uint64
}

func CollectHostInfo() HostInfo {
	hostname, _ := os.Hostname()
	extras := collectHostExtras()
	cpuModel := extras.CPUModel
	if cpuModel == "" {
		cpuModel = runtime.GOARCH
	}
	ram := ""
	if extras.RAMBytes > 0 {
		ram = humanize.IBytes(extras.RAMBytes)
	}
	return HostInfo{
		Hostname:  hostname,
		IPAddress: firstIPv4(),
		OSVersion: runtime.GOOS + "/" + runtime.GOARCH,
		CPUModel:  cpuModel,
		RAM:       ram,
	}
}

func firstIPv4() string {
	ifaces, err := net.Interfaces()
	if err != nil {
		return ""
	}
	for _, iface := range ifaces {
		if (iface.Flags&net.FlagUp) == 0 || (iface.Flags&net.FlagLoopback) != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipNet, ok := addr.(*net.IPNet)
			if !ok || ipNet.IP == nil {
				continue
			}
			if ip := ipNet.IP.To4(); ip != nil {
				return ip.String()
			}
		}
	}
	return ""
}

//go:build !windows

package system

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

type psutilQuerier struct{}

// NewQuerier returns a gopsutil-backed querier that maps host data onto the
// same property names used by the CIM classes.
func NewQuerier() Querier {
	return psutilQuerier{}
}

func (psutilQuerier) Available() bool { return true }

func (psutilQuerier) Query(ctx context.Context, q Query) ([]Instance, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("read memory: %w", err)
	}

	switch q {
	case OperatingSystem:
		caption := strings.TrimSpace(info.Platform + " " + info.PlatformVersion)
		_, offset := time.Now().Zone()
		return []Instance{{
			Display: caption,
			Properties: []Property{
				{Key: "Caption", Value: caption},
				{Key: "CodeSet", Value: codeSet()},
				{Key: "CurrentTimeZone", Value: strconv.Itoa(offset / 60)},
				{Key: "FreePhysicalMemory", Value: humanize.IBytes(vm.Available)},
				{Key: "OSArchitecture", Value: info.KernelArch},
				{Key: "OSLanguage", Value: language()},
				{Key: "Version", Value: info.KernelVersion},
			},
		}}, nil
	case Machine:
		return []Instance{{
			Display: info.Hostname,
			Properties: []Property{
				{Key: "Name", Value: info.Hostname},
				{Key: "TotalPhysicalMemory", Value: humanize.IBytes(vm.Total)},
				{Key: "Manufacturer", Value: dmi("sys_vendor")},
				{Key: "Model", Value: dmi("product_name")},
			},
		}}, nil
	}
	return nil, fmt.Errorf("%w: query %q", ErrUnavailable, q.Name)
}

func language() string {
	for _, k := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if v := os.Getenv(k); v != "" {
			if i := strings.IndexByte(v, '.'); i > 0 {
				return v[:i]
			}
			return v
		}
	}
	return "C"
}

func codeSet() string {
	v := os.Getenv("LANG")
	if i := strings.IndexByte(v, '.'); i > 0 {
		return v[i+1:]
	}
	return "UTF-8"
}

// dmi reads a DMI attribute where the kernel exposes one.
func dmi(name string) string {
	b, err := os.ReadFile("/sys/class/dmi/id/" + name)
	if err != nil {
		return "unknown"
	}
	return strings.TrimSpace(string(b))
}

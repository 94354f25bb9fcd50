//go:build windows

package system

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const cimQueryTimeout = 25 * time.Second

type cimQuerier struct{}

// NewQuerier returns the CIM-backed querier.
func NewQuerier() Querier {
	return cimQuerier{}
}

func (cimQuerier) Available() bool { return true }

func (cimQuerier) Query(ctx context.Context, q Query) ([]Instance, error) {
	ps := strings.Join([]string{
		"$ErrorActionPreference='SilentlyContinue';",
		"Get-CimInstance " + q.Class,
		"| Select-Object * -ExcludeProperty Cim*,PSComputerName",
		"| ConvertTo-Json -Compress -Depth 1",
	}, " ")

	ctx, cancel := context.WithTimeout(ctx, cimQueryTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, "powershell.exe", "-NoProfile", "-NonInteractive", "-Command", ps).Output()
	if err != nil || len(out) == 0 {
		return nil, fmt.Errorf("query %s failed: %w", q.Class, err)
	}
	return parseCIMOutput(out, q.DisplayField)
}

//go:build !windows

package transport

import (
	"context"
	"os/exec"
	"runtime"
)

// OSShell opens URIs with xdg-open, or open on macOS.
type OSShell struct{}

func (OSShell) Open(ctx context.Context, uri string) error {
	name := "xdg-open"
	if runtime.GOOS == "darwin" {
		name = "open"
	}
	return exec.CommandContext(ctx, name, uri).Start()
}

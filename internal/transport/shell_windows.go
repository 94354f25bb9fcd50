//go:build windows

package transport

import (
	"context"

	"golang.org/x/sys/windows"
)

// OSShell opens URIs with ShellExecute.
type OSShell struct{}

func (OSShell) Open(_ context.Context, uri string) error {
	verb, err := windows.UTF16PtrFromString("open")
	if err != nil {
		return err
	}
	file, err := windows.UTF16PtrFromString(uri)
	if err != nil {
		return err
	}
	return windows.ShellExecute(0, verb, file, nil, nil, windows.SW_SHOWNORMAL)
}

//go:build windows

package system

import (
	"github.com/google/uuid"
	"golang.org/x/sys/windows/registry"
)

const reporterRegistryPath = `SOFTWARE\ExceptionReporter`

// ReporterID returns the per-user reporter id, creating it on first use.
func ReporterID() (string, error) {
	k, err := registry.OpenKey(registry.CURRENT_USER, reporterRegistryPath, registry.QUERY_VALUE)
	if err == nil {
		defer k.Close()
		if v, _, err := k.GetStringValue("ReporterId"); err == nil && v != "" {
			return v, nil
		}
	}

	id := uuid.NewString()

	k, _, err = registry.CreateKey(registry.CURRENT_USER, reporterRegistryPath, registry.SET_VALUE)
	if err != nil {
		return "", err
	}
	defer k.Close()

	if err := k.SetStringValue("ReporterId", id); err != nil {
		return "", err
	}
	return id, nil
}

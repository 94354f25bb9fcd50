//go:build !windows

package system

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ReporterID returns the per-user reporter id stored under the user config
// dir, creating it on first use. Without a config dir a fresh id is returned.
func ReporterID() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return uuid.NewString(), nil
	}
	return reporterIDAt(filepath.Join(dir, "exreport", "reporter-id"))
}

func reporterIDAt(path string) (string, error) {
	if b, err := os.ReadFile(path); err == nil {
		if id := strings.TrimSpace(string(b)); id != "" {
			return id, nil
		}
	}
	id := uuid.NewString()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(id+"\n"), 0o600); err != nil {
		return "", err
	}
	return id, nil
}

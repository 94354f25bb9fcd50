package utils

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"strings"
)

// FileSHA256 returns the hex digest of a file, prefixed with "sha256:".
func FileSHA256(filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("sha256:%x", h.Sum(nil)), nil
}

// SameDigest compares two digests with or without the "sha256:" prefix.
func SameDigest(a, b string) bool {
	norm := func(s string) string { return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "sha256:") }
	return norm(a) != "" && norm(a) == norm(b)
}

package screenshot

import (
	"path/filepath"
	"testing"
)

func TestPathUsesDir(t *testing.T) {
	dir := t.TempDir()
	got := New(dir).Path()
	if got != filepath.Join(dir, FileName) {
		t.Fatalf("unexpected path %q", got)
	}
	if New("").Path() == "" {
		t.Fatalf("expected temp dir fallback")
	}
}

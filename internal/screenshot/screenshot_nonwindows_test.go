//go:build !windows

package screenshot

import (
	"context"
	"errors"
	"testing"
)

func TestTakeScreenshotUnavailable(t *testing.T) {
	_, err := New(t.TempDir()).TakeScreenshot(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

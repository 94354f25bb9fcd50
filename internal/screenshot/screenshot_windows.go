//go:build windows

package screenshot

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const captureTimeout = 15 * time.Second

// TakeScreenshot captures the union of all screen bounds and returns the
// image path.
func (t *Taker) TakeScreenshot(ctx context.Context) (string, error) {
	target := t.Path()
	ps := strings.Join([]string{
		"$ErrorActionPreference='Stop';",
		"Add-Type -AssemblyName System.Windows.Forms, System.Drawing;",
		"$b=[System.Windows.Forms.SystemInformation]::VirtualScreen;",
		"$bmp=New-Object System.Drawing.Bitmap $b.Width, $b.Height;",
		"$g=[System.Drawing.Graphics]::FromImage($bmp);",
		"$g.CopyFromScreen($b.X, $b.Y, 0, 0, $bmp.Size);",
		"$bmp.Save('" + strings.ReplaceAll(target, "'", "''") + "', [System.Drawing.Imaging.ImageFormat]::Jpeg);",
		"$g.Dispose(); $bmp.Dispose();",
	}, " ")

	ctx, cancel := context.WithTimeout(ctx, captureTimeout)
	defer cancel()

	if out, err := exec.CommandContext(ctx, "powershell.exe", "-NoProfile", "-NonInteractive", "-Command", ps).CombinedOutput(); err != nil {
		return "", fmt.Errorf("capture screen: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return target, nil
}

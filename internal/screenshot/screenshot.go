// Package screenshot captures the desktop to a temporary image file.
package screenshot

import (
	"errors"
	"os"
	"path/filepath"
)

// FileName is the name of the captured image inside the temp dir.
const FileName = "exceptionreport-screenshot.jpg"

// ErrUnavailable is returned where screen capture is not supported.
var ErrUnavailable = errors.New("screen capture unavailable on this platform")

// Taker captures every monitor into one JPEG.
type Taker struct {
	dir string
}

// New returns a Taker writing into dir; empty means the OS temp dir.
func New(dir string) *Taker {
	if dir == "" {
		dir = os.TempDir()
	}
	return &Taker{dir: dir}
}

// Path is where TakeScreenshot writes the image.
func (t *Taker) Path() string {
	return filepath.Join(t.dir, FileName)
}

// Package archive bundles user attachments and the screenshot into a zip.
package archive

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"exception-reporter/internal/config"
)

const zipExt = ".zip"

// FileService abstracts the file system operations the archiver needs.
type FileService interface {
	Exists(path string) bool
	TempFile(name string) string
	Write(path, text string) WriteResult
}

// WriteResult is the outcome of FileService.Write.
type WriteResult struct {
	Saved bool
	Err   error
}

// Zipper writes files into a zip archive at target.
type Zipper interface {
	Zip(target string, files []string) error
}

// ScreenshotTaker captures the screen and returns the image path.
type ScreenshotTaker interface {
	TakeScreenshot(ctx context.Context) (string, error)
}

// Bundle describes what Collect produced.
type Bundle struct {
	// Archive is the zip built from non-zip files; empty when nothing was zipped.
	Archive string
	// Zips are existing .zip attachments passed through unchanged.
	Zips []string
	// Screenshot is the image taken during Collect, if any.
	Screenshot string
}

// Archiver gathers attachments.
type Archiver struct {
	files  FileService
	zipper Zipper
	shots  ScreenshotTaker
	logger *zap.Logger
}

func New(files FileService, zipper Zipper, shots ScreenshotTaker, logger *zap.Logger) *Archiver {
	if files == nil {
		files = OSFileService{}
	}
	if zipper == nil {
		zipper = ArchiverZipper{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Archiver{files: files, zipper: zipper, shots: shots, logger: logger}
}

// Archive returns the path of a zip holding the existing configured files and
// the screenshot, or "" when there was nothing to zip.
func (a *Archiver) Archive(ctx context.Context, cfg config.Config, screenshotPath string) (string, error) {
	b, err := a.Collect(ctx, cfg, screenshotPath)
	return b.Archive, err
}

// Collect takes a screenshot when requested and none was supplied, keeps only
// files that exist, passes .zip files through and zips the rest.
func (a *Archiver) Collect(ctx context.Context, cfg config.Config, screenshotPath string) (Bundle, error) {
	var b Bundle

	candidates := append([]string(nil), cfg.Attachments.FilesToAttach...)
	if screenshotPath == "" && cfg.Attachments.TakeScreenshot && a.shots != nil {
		p, err := a.shots.TakeScreenshot(ctx)
		if err != nil {
			a.logger.Warn("screenshot failed", zap.Error(err))
		} else {
			screenshotPath = p
			b.Screenshot = p
		}
	}
	if screenshotPath != "" {
		candidates = append(candidates, screenshotPath)
	}

	var toZip []string
	for _, f := range candidates {
		if f == "" || !a.files.Exists(f) {
			continue
		}
		if strings.HasSuffix(strings.ToLower(f), zipExt) {
			b.Zips = append(b.Zips, f)
			continue
		}
		toZip = append(toZip, f)
	}
	if len(toZip) == 0 {
		return b, nil
	}

	target := a.files.TempFile(config.NormalizeAttachmentFilename(cfg.Attachments.Filename))
	if err := a.zipper.Zip(target, toZip); err != nil {
		return b, err
	}
	b.Archive = target
	a.logger.Debug("attachments archived", zap.String("archive", target), zap.Int("files", len(toZip)))
	return b, nil
}

// Attacher hands every attachment to a sender-specific attach func.
type Attacher struct {
	archiver *Archiver
}

func NewAttacher(a *Archiver) *Attacher {
	return &Attacher{archiver: a}
}

// Attach passes existing .zip files through as-is, then the produced archive.
func (at *Attacher) Attach(ctx context.Context, cfg config.Config, screenshotPath string, attach func(path string)) (Bundle, error) {
	b, err := at.archiver.Collect(ctx, cfg, screenshotPath)
	if err != nil {
		return b, err
	}
	for _, z := range b.Zips {
		attach(z)
	}
	if b.Archive != "" {
		attach(b.Archive)
	}
	return b, nil
}

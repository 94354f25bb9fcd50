package archive

import (
	"os"
	"path/filepath"

	"github.com/mholt/archiver/v3"

	"exception-reporter/internal/reporterr"
)

// OSFileService is the FileService backed by the local file system.
type OSFileService struct {
	// Dir overrides the temp dir used by TempFile.
	Dir string
}

func (s OSFileService) Exists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir()
}

func (s OSFileService) TempFile(name string) string {
	dir := s.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, name)
}

func (s OSFileService) Write(path, text string) WriteResult {
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return WriteResult{Err: reporterr.Wrap(reporterr.CodeFileWrite, "write "+path, err)}
	}
	return WriteResult{Saved: true}
}

// ArchiverZipper writes zips with mholt/archiver, replacing an existing target.
type ArchiverZipper struct{}

func (ArchiverZipper) Zip(target string, files []string) error {
	z := archiver.NewZip()
	z.OverwriteExisting = true
	z.MkdirAll = true
	return z.Archive(files, target)
}

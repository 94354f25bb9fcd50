package archive

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exception-reporter/internal/reporterr"
)

func TestOSFileServiceWriteAndExists(t *testing.T) {
	dir := t.TempDir()
	fs := OSFileService{Dir: dir}

	p := fs.TempFile("report.txt")
	assert.Equal(t, filepath.Join(dir, "report.txt"), p)
	assert.False(t, fs.Exists(p))

	res := fs.Write(p, "hello")
	require.True(t, res.Saved)
	require.NoError(t, res.Err)
	assert.True(t, fs.Exists(p))
	assert.False(t, fs.Exists(dir))
}

func TestOSFileServiceWriteFailure(t *testing.T) {
	fs := OSFileService{}
	res := fs.Write(filepath.Join(t.TempDir(), "missing", "report.txt"), "x")
	assert.False(t, res.Saved)
	assert.True(t, reporterr.IsCode(res.Err, reporterr.CodeFileWrite))
}

func TestArchiverZipperOverwrites(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "app.log")
	require.NoError(t, os.WriteFile(src, []byte("log line"), 0o644))
	target := filepath.Join(dir, "out", "ExceptionReport.zip")

	z := ArchiverZipper{}
	require.NoError(t, z.Zip(target, []string{src}))
	require.NoError(t, z.Zip(target, []string{src}))

	fi, err := os.Stat(target)
	require.NoError(t, err)
	assert.Greater(t, fi.Size(), int64(0))
}

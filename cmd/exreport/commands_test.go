package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exception-reporter/pkg/utils"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &errOut
	err := app.Run(context.Background(), append([]string{"exreport"}, args...))
	return out.String(), errOut.String(), err
}

func tempConfig(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "exreport", "config.yaml")
}

func TestInitConfig(t *testing.T) {
	path := tempConfig(t)
	out, _, err := run(t, "--config", path, "init-config")
	require.NoError(t, err)
	assert.Contains(t, out, path)
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestReportToStdout(t *testing.T) {
	path := tempConfig(t)
	out, _, err := run(t, "--config", path, "--log-level", "error",
		"report", "--message", "cannot open database", "--type", "*fs.PathError", "--explanation", "opened a project")
	require.NoError(t, err)
	assert.Contains(t, out, "Error Message: cannot open database")
	assert.Contains(t, out, "*fs.PathError")
	assert.Contains(t, out, "opened a project")
}

func TestReportToFile(t *testing.T) {
	path := tempConfig(t)
	target := filepath.Join(t.TempDir(), "report.txt")
	out, _, err := run(t, "--config", path, "--log-level", "error",
		"report", "-m", "boom", "--output", target)
	require.NoError(t, err)

	b, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(b), "boom")

	sum, err := utils.FileSHA256(target)
	require.NoError(t, err)
	assert.Contains(t, out, sum)
}

func TestReportWithStackFile(t *testing.T) {
	path := tempConfig(t)
	stack := filepath.Join(t.TempDir(), "stack.txt")
	require.NoError(t, os.WriteFile(stack, []byte(`goroutine 1 [running]:
main.save(0x1)
	/src/app/main.go:42 +0x1d
main.main()
	/src/app/main.go:10 +0x25
`), 0o600))

	out, _, err := run(t, "--config", path, "--log-level", "error",
		"report", "-m", "boom", "--stack-file", stack)
	require.NoError(t, err)
	assert.Contains(t, out, "main.save")
	assert.Contains(t, out, "/src/app/main.go:line 42")
}

func TestSendWithoutMethodCompletes(t *testing.T) {
	path := tempConfig(t)
	out, _, err := run(t, "--config", path, "--log-level", "error", "send", "-m", "boom")
	require.NoError(t, err)
	assert.Contains(t, out, "sent via")
}

func TestSendSMTPWithoutServerIsRejected(t *testing.T) {
	path := tempConfig(t)
	_, _, err := run(t, "--config", path, "--log-level", "error", "send", "-m", "boom", "--method", "smtp")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp.server")
}

func TestSendWebPageWithoutURLFails(t *testing.T) {
	path := tempConfig(t)
	_, _, err := run(t, "--config", path, "--log-level", "error", "send", "-m", "boom", "--web-page")
	assert.ErrorIs(t, err, errSendFailed)
}

func TestDepsSelf(t *testing.T) {
	out, _, err := run(t, "deps")
	require.NoError(t, err)
	assert.Contains(t, out, "go, Version=go")
}

func TestMessageIsRequired(t *testing.T) {
	_, _, err := run(t, "--config", tempConfig(t), "report")
	assert.Error(t, err)
}

func TestSysinfoPrintsSections(t *testing.T) {
	out, _, err := run(t, "--config", tempConfig(t), "--log-level", "error", "sysinfo")
	require.NoError(t, err)
	assert.Contains(t, out, "[Operating System]")
	assert.Contains(t, out, "[Machine]")
}

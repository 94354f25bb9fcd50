package templates

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exception-reporter/internal/reporterr"
)

type fakeReport struct {
	ReportID     string
	App          struct{ Name, Version, CompanyName, UserName string }
	Error        struct{ Date, Message, Explanation, FullStackTrace string }
	Machine      struct{ Hostname, IPAddress, OSVersion string }
	AssemblyRefs []struct{ Name, Version string }
	SysInfo      string
}

func (fakeReport) Kind() Kind { return KindReport }

func sampleReport() fakeReport {
	var m fakeReport
	m.ReportID = "r-1"
	m.App.Name = "Demo <App>"
	m.App.Version = "1.0"
	m.Error.Message = "boom"
	m.AssemblyRefs = []struct{ Name, Version string }{{"github.com/google/uuid", "v1.6.0"}}
	return m
}

func TestRenderEmailIntro(t *testing.T) {
	e := New()

	with, err := e.Render(EmailIntroModel{ScreenshotTaken: true}, FormatText)
	require.NoError(t, err)
	assert.Contains(t, with, "The email is ready to be sent.")
	assert.Contains(t, with, "A screenshot, taken at the time of the exception, is attached.")

	without, err := e.Render(EmailIntroModel{}, FormatText)
	require.NoError(t, err)
	assert.NotContains(t, without, "screenshot")

	html, err := e.Render(EmailIntroModel{ScreenshotTaken: true}, FormatHTML)
	require.NoError(t, err)
	assert.Contains(t, html, "<p>")
}

func TestRenderReportFormats(t *testing.T) {
	e := New()
	m := sampleReport()

	text, err := e.Render(m, FormatText)
	require.NoError(t, err)
	assert.Contains(t, text, "Application: Demo <App>")
	assert.Contains(t, text, "github.com/google/uuid, Version=v1.6.0")
	assert.NotContains(t, text, "User Explanation")

	html, err := e.Render(m, FormatHTML)
	require.NoError(t, err)
	assert.Contains(t, html, "Demo &lt;App&gt;")

	md, err := e.Render(m, FormatMarkdown)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(md, "## Demo <App> 1.0"))
}

func TestRenderIsDeterministic(t *testing.T) {
	e := New()
	a, err := e.Render(sampleReport(), FormatText)
	require.NoError(t, err)
	b, err := e.Render(sampleReport(), FormatText)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRenderMissingTemplate(t *testing.T) {
	_, err := New().Render(EmailIntroModel{}, FormatMarkdown)
	assert.True(t, reporterr.IsCode(err, reporterr.CodeTemplateNotFound), "got %v", err)
}

func TestRenderCustom(t *testing.T) {
	e := New()
	out, err := e.RenderCustom("{{{App.Name}}}: {{{Error.Message}}}", sampleReport())
	require.NoError(t, err)
	assert.Equal(t, "Demo <App>: boom", out)

	_, err = e.RenderCustom("{{#App.Name}}unterminated", sampleReport())
	assert.True(t, reporterr.IsCode(err, reporterr.CodeTemplateSyntax), "got %v", err)
}

func TestBrokenBuiltinIsSyntaxError(t *testing.T) {
	e := NewWithFS(fstest.MapFS{
		"ReportTemplate.text": {Data: []byte("{{#open}}")},
	})
	_, err := e.Render(sampleReport(), FormatText)
	assert.True(t, reporterr.IsCode(err, reporterr.CodeTemplateSyntax), "got %v", err)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatText, f)

	f, err = ParseFormat("MD")
	require.NoError(t, err)
	assert.Equal(t, FormatMarkdown, f)

	_, err = ParseFormat("pdf")
	assert.True(t, reporterr.IsCode(err, reporterr.CodeConfiguration))
}

func TestResourceName(t *testing.T) {
	assert.Equal(t, "ReportTemplate.html", ResourceName(KindReport, FormatHTML))
	assert.Equal(t, "EmailIntroTemplate.text", ResourceName(KindEmailIntro, FormatText))
}

// Package templates renders report and email text from embedded mustache
// templates.
package templates

import (
	"embed"
	"errors"
	"io/fs"
	"strings"
	"sync"

	"github.com/cbroglie/mustache"

	"exception-reporter/internal/reporterr"
)

//go:embed assets/*
var assets embed.FS

// Kind names the model a template renders.
type Kind string

const (
	KindEmailIntro Kind = "EmailIntro"
	KindReport     Kind = "Report"
)

// Format is the output format of a built-in template.
type Format string

const (
	FormatText     Format = "text"
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
)

// ParseFormat accepts text, html, markdown (alias md); empty means text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return FormatText, nil
	case "html":
		return FormatHTML, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	}
	return "", reporterr.Newf(reporterr.CodeConfiguration, "unknown template format %q", s)
}

// Model is implemented by every value a template can render.
type Model interface {
	Kind() Kind
}

// EmailIntroModel feeds the email intro prepended for mail client delivery.
type EmailIntroModel struct {
	ScreenshotTaken bool
}

func (EmailIntroModel) Kind() Kind { return KindEmailIntro }

// Engine renders built-in and custom templates. Built-ins are parsed once.
type Engine struct {
	fsys fs.FS

	mu     sync.Mutex
	parsed map[string]*mustache.Template
}

func New() *Engine {
	sub, _ := fs.Sub(assets, "assets")
	return NewWithFS(sub)
}

// NewWithFS serves built-ins from fsys instead of the embedded set.
func NewWithFS(fsys fs.FS) *Engine {
	return &Engine{fsys: fsys, parsed: map[string]*mustache.Template{}}
}

// ResourceName is the built-in template name for kind and format.
func ResourceName(kind Kind, format Format) string {
	return string(kind) + "Template." + string(format)
}

// Render renders the built-in template for model's kind in format.
func (e *Engine) Render(model Model, format Format) (string, error) {
	if format == "" {
		format = FormatText
	}
	tmpl, err := e.builtin(ResourceName(model.Kind(), format))
	if err != nil {
		return "", err
	}
	return tmpl.Render(model)
}

// RenderCustom renders a caller-supplied template against model.
func (e *Engine) RenderCustom(template string, model Model) (string, error) {
	tmpl, err := mustache.ParseString(template)
	if err != nil {
		return "", reporterr.Wrap(reporterr.CodeTemplateSyntax, "parse custom template", err)
	}
	return tmpl.Render(model)
}

func (e *Engine) builtin(name string) (*mustache.Template, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if t, ok := e.parsed[name]; ok {
		return t, nil
	}
	b, err := fs.ReadFile(e.fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, reporterr.Newf(reporterr.CodeTemplateNotFound, "no built-in template %s", name)
	}
	if err != nil {
		return nil, reporterr.Wrap(reporterr.CodeTemplateNotFound, "read template "+name, err)
	}
	t, err := mustache.ParseString(string(b))
	if err != nil {
		return nil, reporterr.Wrap(reporterr.CodeTemplateSyntax, "parse template "+name, err)
	}
	e.parsed[name] = t
	return t, nil
}

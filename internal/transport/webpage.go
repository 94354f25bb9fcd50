package transport

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"exception-reporter/internal/reporterr"
)

// WebPageSender posts the report as a form to a web page.
type WebPageSender struct {
	deps       Deps
	httpClient *http.Client
}

func NewWebPageSender(deps Deps) *WebPageSender {
	deps.normalize()
	client := deps.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	return &WebPageSender{deps: deps, httpClient: client}
}

// ValidWebPageURL reports whether raw is an absolute http(s) URL.
func ValidWebPageURL(raw string) bool {
	if strings.TrimSpace(raw) == "" {
		return false
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Send posts text and reports whether the page accepted it.
func (s *WebPageSender) Send(ctx context.Context, text string) bool {
	target := s.deps.Config.WebService.WebReportURL
	if !ValidWebPageURL(target) {
		return false
	}

	form := url.Values{}
	form.Set("app_name", s.deps.Config.App.Name)
	form.Set("app_version", s.deps.Config.App.Version)
	form.Set("report", text)

	if timeout := s.deps.View.WebServiceTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(form.Encode()))
	if err != nil {
		s.fail(err)
		return false
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.fail(err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		s.fail(httpErrorFromResponse(http.MethodPost, target, resp))
		return false
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
	s.deps.Logger.Info("report posted to web page", zap.String("url", target))
	s.deps.Sink.Completed(true)
	return true
}

func (s *WebPageSender) fail(err error) {
	s.deps.Sink.Completed(false)
	s.deps.Sink.ShowError("Web page unable to accept report", reporterr.Wrap(reporterr.CodeTransportSend, "post report form", err))
}

package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"exception-reporter/internal/report"
	"exception-reporter/internal/reporterr"
)

// HTTPError is a non-success HTTP response.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Status     string
	Detail     string
	Body       string
}

func (e *HTTPError) Error() string {
	msg := e.Status
	if msg == "" {
		msg = fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	if e.Detail != "" {
		return fmt.Sprintf("%s %s: %s (%s)", e.Method, e.URL, e.Detail, msg)
	}
	if e.Body != "" {
		return fmt.Sprintf("%s %s: %s (%s)", e.Method, e.URL, e.Body, msg)
	}
	return fmt.Sprintf("%s %s failed: %s", e.Method, e.URL, msg)
}

// Packet is the JSON body posted to the web service.
type Packet struct {
	report.Model
	ReporterID string `json:"reporter_id,omitempty"`
	ReportText string `json:"report_text"`
}

// WebServiceSender posts the report as JSON.
type WebServiceSender struct {
	deps       Deps
	url        string
	httpClient *http.Client
}

func NewWebServiceSender(deps Deps) *WebServiceSender {
	deps.normalize()
	client := deps.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	return &WebServiceSender{
		deps:       deps,
		url:        strings.TrimSpace(deps.Config.WebService.URL),
		httpClient: client,
	}
}

func (s *WebServiceSender) ConnectingMessage() string {
	return "Connecting to WebService..."
}

func (s *WebServiceSender) Description() string { return "WebService" }

func (s *WebServiceSender) Send(ctx context.Context, text string) error {
	if s.url == "" {
		return reporterr.New(reporterr.CodeTransportSetup, "web service url is empty")
	}
	packet := Packet{ReporterID: s.deps.ReporterID, ReportText: text}
	if s.deps.Packet != nil {
		m, err := s.deps.Packet()
		if err != nil {
			return err
		}
		packet.Model = m
	}
	body, err := json.Marshal(packet)
	if err != nil {
		return reporterr.Wrap(reporterr.CodeTransportSetup, "encode web service packet", err)
	}

	timeout := s.deps.View.WebServiceTimeout
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return reporterr.Wrap(reporterr.CodeTransportSetup, "build web service request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return s.fail(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return s.fail(httpErrorFromResponse(http.MethodPost, s.url, resp))
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))

	s.deps.Logger.Info("report posted to web service", zap.String("url", s.url), zap.Int("status", resp.StatusCode))
	s.deps.Sink.Completed(true)
	return nil
}

func (s *WebServiceSender) fail(err error) error {
	wrapped := reporterr.WrapWithContext(reporterr.CodeTransportSend, "post report", err, map[string]any{"url": s.url})
	s.deps.Sink.Completed(false)
	s.deps.Sink.ShowError(s.Description()+" unable to send report", wrapped)
	return wrapped
}

func httpErrorFromResponse(method, url string, resp *http.Response) error {
	const maxBody = 64 * 1024
	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	body := strings.TrimSpace(string(b))

	var apiErr struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	detail := ""
	if len(b) > 0 && json.Unmarshal(b, &apiErr) == nil {
		if apiErr.Detail != "" {
			detail = apiErr.Detail
		} else if apiErr.Message != "" {
			detail = apiErr.Message
		}
	}

	return &HTTPError{
		Method:     method,
		URL:        url,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Detail:     detail,
		Body:       body,
	}
}

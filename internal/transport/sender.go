// Package transport delivers rendered reports.
package transport

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"exception-reporter/internal/archive"
	"exception-reporter/internal/config"
	"exception-reporter/internal/report"
)

// EventSink receives the outcome of a delivery.
type EventSink interface {
	Completed(success bool)
	ShowError(message string, err error)
}

// SilentSink discards every event.
type SilentSink struct{}

func (SilentSink) Completed(bool)          {}
func (SilentSink) ShowError(string, error) {}

// Sender delivers one report.
//
// Failures that happen before delivery starts (bad host, refused auth, no
// mail client) are only returned. Failures once delivery has started are
// reported to the sink and returned with code TRANSPORT_SEND.
type Sender interface {
	ConnectingMessage() string
	Description() string
	Send(ctx context.Context, report string) error
}

// Deps carries what the concrete senders need besides the report text.
type Deps struct {
	Config config.Config
	View   config.View
	Sink   EventSink
	Logger *zap.Logger

	// Attacher supplies SMTP attachments; nil sends without attachments.
	Attacher *archive.Attacher
	// Screenshot is an already captured image, if any.
	Screenshot string
	// Packet builds the web service body.
	Packet func() (report.Model, error)
	// ReporterID identifies the reporting installation in the web packet.
	ReporterID string
	// TrackFile registers temp files produced while sending.
	TrackFile func(path string)

	HTTPClient *http.Client
	Shell      Shell
	DialSMTP   DialFunc
}

func (d *Deps) normalize() {
	if d.Sink == nil {
		d.Sink = SilentSink{}
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.TrackFile == nil {
		d.TrackFile = func(string) {}
	}
	if d.Shell == nil {
		d.Shell = OSShell{}
	}
	if d.DialSMTP == nil {
		d.DialSMTP = DialSMTP
	}
}

// Select maps the resolved send method to its sender.
func Select(deps Deps) Sender {
	deps.normalize()
	switch deps.View.SendMethod {
	case config.SendMailClient:
		return &MailClientSender{deps: deps}
	case config.SendSMTP:
		return &SMTPSender{deps: deps}
	case config.SendWebService:
		return NewWebServiceSender(deps)
	default:
		return &NullSender{sink: deps.Sink}
	}
}

// subject is the mail subject used by the mail based senders.
func subject(cfg config.Config) string {
	name := cfg.App.Name
	if name == "" {
		name = "Application"
	}
	if cfg.App.Version != "" {
		return fmt.Sprintf("%s %s - Error Report", name, cfg.App.Version)
	}
	return name + " - Error Report"
}

// NullSender completes immediately without sending.
type NullSender struct {
	sink EventSink
}

func (s *NullSender) ConnectingMessage() string { return "" }
func (s *NullSender) Description() string       { return "No Send Method" }

func (s *NullSender) Send(context.Context, string) error {
	if s.sink != nil {
		s.sink.Completed(true)
	}
	return nil
}

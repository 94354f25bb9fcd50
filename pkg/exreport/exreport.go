// Package exreport is the headless entry point: build a report for an error
// and send it without any user interface.
//
//	r, rerr := exreport.New(cfg, err)
//	if rerr != nil { ... }
//	defer r.Close()
//	r.SendReportByEmail(ctx, nil)
package exreport

import (
	"context"
	"fmt"
	"runtime/debug"

	"go.uber.org/zap"

	"exception-reporter/internal/capture"
	"exception-reporter/internal/config"
	"exception-reporter/internal/dispatch"
	"exception-reporter/internal/reporterr"
	"exception-reporter/internal/transport"
)

// Config is the reporter configuration.
type Config = config.Config

// EventSink receives send outcomes.
type EventSink = transport.EventSink

// SilentSink ignores every event.
type SilentSink = transport.SilentSink

// Option customizes a Reporter.
type Option func(*dispatch.Options)

// WithLogger sets the logger used by the pipeline.
func WithLogger(l *zap.Logger) Option {
	return func(o *dispatch.Options) { o.Logger = l }
}

// WithDispatchOptions replaces collaborators wholesale.
func WithDispatchOptions(opts dispatch.Options) Option {
	return func(o *dispatch.Options) {
		logger := o.Logger
		*o = opts
		if o.Logger == nil {
			o.Logger = logger
		}
	}
}

// Reporter builds and sends reports for one error occurrence.
type Reporter struct {
	d    *dispatch.Dispatcher
	sink *sinkSwitch
}

// sinkSwitch lets each call choose its own sink on a shared dispatcher.
type sinkSwitch struct {
	current EventSink
}

func (s *sinkSwitch) Completed(ok bool)               { s.current.Completed(ok) }
func (s *sinkSwitch) ShowError(msg string, err error) { s.current.ShowError(msg, err) }
func (s *sinkSwitch) UserExplanation() string         { return "" }
func (s *sinkSwitch) SetSendEnabled(bool)             {}
func (s *sinkSwitch) ShowProgress(bool)               {}
func (s *sinkSwitch) SetProgressMessage(string)       {}
func (s *sinkSwitch) MailClientSendCompleted()        {}

func (s *sinkSwitch) use(sink EventSink) {
	if sink == nil {
		sink = SilentSink{}
	}
	s.current = sink
}

// New builds a reporter for err.
func New(cfg *Config, err error, opts ...Option) (*Reporter, error) {
	if err == nil {
		return nil, reporterr.New(reporterr.CodeConfiguration, "no error to report")
	}
	return NewFromErrorData(cfg, capture.NewErrorData(capture.FromError(err)), opts...)
}

// NewMulti builds a reporter for several errors; the first is the main one.
func NewMulti(cfg *Config, errs []error, opts ...Option) (*Reporter, error) {
	exceptions := capture.FromErrors(errs...)
	if len(exceptions) == 0 {
		return nil, reporterr.New(reporterr.CodeConfiguration, "no error to report")
	}
	return NewFromErrorData(cfg, capture.NewErrorData(exceptions...), opts...)
}

// NewFromErrorData builds a reporter for already captured error data.
func NewFromErrorData(cfg *Config, ed *capture.ErrorData, opts ...Option) (*Reporter, error) {
	var o dispatch.Options
	for _, opt := range opts {
		opt(&o)
	}
	sink := &sinkSwitch{current: SilentSink{}}
	d, err := dispatch.New(cfg, ed, sink, o)
	if err != nil {
		return nil, err
	}
	return &Reporter{d: d, sink: sink}, nil
}

// CreateReport returns the rendered report text.
func (r *Reporter) CreateReport(ctx context.Context) (string, error) {
	return r.d.CreateReport(ctx)
}

// SendReportByEmail sends over SMTP regardless of the configured method.
func (r *Reporter) SendReportByEmail(ctx context.Context, sink EventSink) bool {
	r.sink.use(sink)
	return r.d.SendWith(ctx, config.SendSMTP) == dispatch.StateCompleted
}

// SendReportToWebService posts to the configured web service.
func (r *Reporter) SendReportToWebService(ctx context.Context, sink EventSink) bool {
	r.sink.use(sink)
	return r.d.SendWith(ctx, config.SendWebService) == dispatch.StateCompleted
}

// SendReportToWebPage posts to web_report_url. It returns false without any
// attempt when the URL is empty or malformed.
func (r *Reporter) SendReportToWebPage(ctx context.Context, sink EventSink) bool {
	r.sink.use(sink)
	return r.d.SendToWebPage(ctx)
}

// Send sends with the configured method and reports events to sink.
func (r *Reporter) Send(ctx context.Context, sink EventSink) bool {
	r.sink.use(sink)
	return r.d.SendReport(ctx) == dispatch.StateCompleted
}

// SaveReportToFile writes the report to path; failures go to sink.
func (r *Reporter) SaveReportToFile(ctx context.Context, path string, sink EventSink) bool {
	r.sink.use(sink)
	return r.d.SaveReportToFile(ctx, path)
}

// Dispatcher exposes the underlying dispatcher.
func (r *Reporter) Dispatcher() *dispatch.Dispatcher { return r.d }

func (r *Reporter) Close() error {
	return r.d.Close()
}

// Recover reports a panic with the configured send method and re-panics.
// Use it deferred at the top of a goroutine:
//
//	defer exreport.Recover(ctx, cfg, nil)
func Recover(ctx context.Context, cfg *Config, sink EventSink) {
	v := recover()
	if v == nil {
		return
	}
	ce := capture.FromPanic(v, debug.Stack())
	if r, err := NewFromErrorData(cfg, capture.NewErrorData(ce)); err == nil {
		r.Send(ctx, sink)
		_ = r.Close()
	} else if sink != nil {
		sink.ShowError(fmt.Sprintf("Unable to report panic: %v", v), err)
	}
	panic(v)
}

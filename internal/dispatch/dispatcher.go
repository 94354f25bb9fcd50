// Package dispatch drives report assembly and delivery for one error.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"exception-reporter/internal/archive"
	"exception-reporter/internal/assembly"
	"exception-reporter/internal/capture"
	"exception-reporter/internal/config"
	"exception-reporter/internal/report"
	"exception-reporter/internal/reporterr"
	"exception-reporter/internal/screenshot"
	"exception-reporter/internal/system"
	"exception-reporter/internal/templates"
	"exception-reporter/internal/transport"
)

// State is the lifecycle position of a send.
type State int

const (
	StateIdle State = iota
	StateBuilding
	StateSending
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateBuilding:
		return "building"
	case StateSending:
		return "sending"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Options overrides collaborators; zero values select the defaults.
type Options struct {
	Logger     *zap.Logger
	Clock      func() time.Time
	Facts      *system.FactProvider
	Inspector  *assembly.Inspector
	Engine     *templates.Engine
	Files      archive.FileService
	Zipper     archive.Zipper
	Screenshot archive.ScreenshotTaker
	// ScreenshotPath is an image captured earlier, when available.
	ScreenshotPath string
	HTTPClient     *http.Client
	Shell          transport.Shell
	DialSMTP       transport.DialFunc
	// NewSender replaces transport.Select.
	NewSender func(transport.Deps) transport.Sender
	Host      *system.HostInfo
	// ReporterID defaults to system.ReporterID.
	ReporterID string
	// ReportID defaults to a random uuid.
	ReportID string
}

// Dispatcher owns the caches and temp files for one error occurrence.
type Dispatcher struct {
	cfg       config.Config
	view      config.View
	errorData *capture.ErrorData
	ui        View
	logger    *zap.Logger

	facts     *system.FactProvider
	inspector *assembly.Inspector
	assembler *report.Assembler
	archiver  *archive.Archiver
	files     archive.FileService
	limiter   *rate.Limiter
	opts      Options

	mu         sync.Mutex
	state      State
	tempFiles  []string
	closed     bool
	sendLocked sync.Mutex
}

// New validates its inputs, stamps the exception date and fills in the
// application name and version from the binary when they are not configured.
func New(cfg *config.Config, ed *capture.ErrorData, ui View, opts Options) (*Dispatcher, error) {
	if cfg == nil {
		return nil, reporterr.New(reporterr.CodeConfiguration, "config is nil")
	}
	if ed == nil || !ed.HasExceptions() {
		return nil, reporterr.New(reporterr.CodeConfiguration, "error data has no exceptions")
	}
	if ui == nil {
		ui = HeadlessView{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	if opts.Facts == nil {
		opts.Facts = system.NewFactProvider(nil, logger)
	}
	if opts.Inspector == nil {
		opts.Inspector = assembly.New()
	}
	if opts.Files == nil {
		opts.Files = archive.OSFileService{}
	}
	if opts.Screenshot == nil {
		opts.Screenshot = screenshot.New("")
	}
	if opts.NewSender == nil {
		opts.NewSender = transport.Select
	}

	snapshot := cfg.Clone()
	view, err := config.Derive(*snapshot, config.Platform{FactsAvailable: opts.Facts.Available()})
	if err != nil {
		return nil, err
	}

	now := clock()
	if view.ExceptionDateLocal {
		ed.ExceptionDate = now.Local()
	} else {
		ed.ExceptionDate = now.UTC()
	}

	if snapshot.App.Name == "" {
		snapshot.App.Name = binaryName(ed.AppBinary)
	}
	if snapshot.App.Version == "" {
		if m, err := opts.Inspector.MainModule(ed.AppBinary); err == nil {
			snapshot.App.Version = m.Version
		}
	}

	var info system.HostInfo
	if opts.Host != nil {
		info = *opts.Host
	} else {
		info = system.CollectHostInfo()
	}

	var limiter *rate.Limiter
	if view.MinSendInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(view.MinSendInterval), 1)
	}

	d := &Dispatcher{
		cfg:       *snapshot,
		view:      view,
		errorData: ed,
		ui:        ui,
		logger:    logger.With(zap.String("send_method", view.SendMethod.String())),
		facts:     opts.Facts,
		inspector: opts.Inspector,
		assembler: report.NewAssembler(opts.Engine, clock, info, opts.ReportID),
		archiver:  archive.New(opts.Files, opts.Zipper, opts.Screenshot, logger),
		files:     opts.Files,
		limiter:   limiter,
		opts:      opts,
	}
	d.logger.Debug("dispatcher created", zap.String("report_id", d.assembler.ReportID()))
	return d, nil
}

func binaryName(path string) string {
	if path == "" {
		exe, err := os.Executable()
		if err != nil {
			return ""
		}
		path = exe
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Config returns the configuration snapshot in use.
func (d *Dispatcher) Config() config.Config { return d.cfg }

// View returns the derived configuration.
func (d *Dispatcher) View() config.View { return d.view }

// ReportID identifies reports built by this dispatcher.
func (d *Dispatcher) ReportID() string { return d.assembler.ReportID() }

func (d *Dispatcher) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *Dispatcher) setState(s State) {
	d.mu.Lock()
	prev := d.state
	d.state = s
	d.mu.Unlock()
	d.logger.Debug("state change", zap.Stringer("from", prev), zap.Stringer("to", s))
}

// GetSysInfo returns the memoized system facts; empty when unsupported.
func (d *Dispatcher) GetSysInfo(ctx context.Context) []*system.SysInfoResult {
	return d.facts.Fetch(ctx)
}

// GetReferencedAssemblies returns the module list of the application binary.
func (d *Dispatcher) GetReferencedAssemblies() ([]assembly.Ref, error) {
	if d.errorData.AppBinary != "" {
		return d.inspector.Refs(d.errorData.AppBinary)
	}
	return d.inspector.Self()
}

func (d *Dispatcher) refs() []assembly.Ref {
	refs, err := d.GetReferencedAssemblies()
	if err != nil {
		d.logger.Warn("module list unavailable", zap.Error(err))
		return []assembly.Ref{}
	}
	return refs
}

func (d *Dispatcher) configWithExplanation() config.Config {
	cfg := d.cfg
	if e := d.ui.UserExplanation(); e != "" {
		cfg.App.UserExplanation = e
	}
	return cfg
}

// CreateReport renders the report with the explanation currently entered in
// the view.
func (d *Dispatcher) CreateReport(ctx context.Context) (string, error) {
	start := time.Now()
	defer func() { reportBuildDuration.Observe(time.Since(start).Seconds()) }()
	return d.assembler.Build(d.configWithExplanation(), d.errorData, d.refs(), d.GetSysInfo(ctx))
}

// Model returns the flattened report model.
func (d *Dispatcher) Model(ctx context.Context) (report.Model, error) {
	return d.assembler.Model(d.configWithExplanation(), d.errorData, d.refs(), d.GetSysInfo(ctx))
}

func (d *Dispatcher) createEmailReport(ctx context.Context) (string, error) {
	format, err := templates.ParseFormat(d.view.TemplateFormat)
	if err != nil {
		return "", err
	}
	if format == templates.FormatMarkdown {
		format = templates.FormatText
	}
	intro, err := d.assembler.EmailIntro(d.cfg.Attachments.TakeScreenshot, format)
	if err != nil {
		return "", err
	}
	body, err := d.CreateReport(ctx)
	if err != nil {
		return "", err
	}
	return intro + body, nil
}

// SaveReportToFile writes the report to path. Failures go to the view;
// an empty path does nothing.
func (d *Dispatcher) SaveReportToFile(ctx context.Context, path string) bool {
	if path == "" {
		return false
	}
	text, err := d.CreateReport(ctx)
	if err != nil {
		d.ui.ShowError(fmt.Sprintf("Unable to save file '%s'", path), err)
		return false
	}
	res := d.files.Write(path, text)
	if !res.Saved {
		err := res.Err
		if err == nil {
			err = reporterr.New(reporterr.CodeFileWrite, "report not saved")
		}
		d.ui.ShowError(fmt.Sprintf("Unable to save file '%s'", path), err)
		return false
	}
	d.logger.Info("report saved", zap.String("path", path))
	return true
}

func (d *Dispatcher) trackFile(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, p := range d.tempFiles {
		if p == path {
			return
		}
	}
	d.tempFiles = append(d.tempFiles, path)
}

func (d *Dispatcher) reporterID() string {
	if d.opts.ReporterID != "" {
		return d.opts.ReporterID
	}
	id, err := system.ReporterID()
	if err != nil {
		d.logger.Debug("reporter id unavailable", zap.Error(err))
		return ""
	}
	return id
}

// Sender builds the sender for the configured method.
func (d *Dispatcher) Sender(ctx context.Context) transport.Sender {
	return d.opts.NewSender(d.deps(ctx, d.view))
}

func (d *Dispatcher) deps(ctx context.Context, view config.View) transport.Deps {
	return transport.Deps{
		Config:     d.configWithExplanation(),
		View:       view,
		Sink:       d.ui,
		Logger:     d.logger,
		Attacher:   archive.NewAttacher(d.archiver),
		Screenshot: d.opts.ScreenshotPath,
		Packet:     func() (report.Model, error) { return d.Model(ctx) },
		ReporterID: d.reporterID(),
		TrackFile:  d.trackFile,
		HTTPClient: d.opts.HTTPClient,
		Shell:      d.opts.Shell,
		DialSMTP:   d.opts.DialSMTP,
	}
}

// SendReport builds and sends the report with the configured method.
func (d *Dispatcher) SendReport(ctx context.Context) State {
	return d.sendWith(ctx, d.view)
}

// SendWith sends using method instead of the configured one.
func (d *Dispatcher) SendWith(ctx context.Context, method config.SendMethod) State {
	view := d.view
	view.SendMethod = method
	return d.sendWith(ctx, view)
}

// SendToWebPage posts the report to the configured web page.
func (d *Dispatcher) SendToWebPage(ctx context.Context) bool {
	if !transport.ValidWebPageURL(d.cfg.WebService.WebReportURL) {
		return false
	}
	text, err := d.CreateReport(ctx)
	if err != nil {
		d.ui.Completed(false)
		d.ui.ShowError("Unable to setup Web Page\n"+err.Error(), err)
		return false
	}
	ok := transport.NewWebPageSender(d.deps(ctx, d.view)).Send(ctx, text)
	result := "success"
	if !ok {
		result = "failure"
	}
	sendAttempts.WithLabelValues("web_page", result).Inc()
	return ok
}

func (d *Dispatcher) sendWith(ctx context.Context, view config.View) State {
	d.sendLocked.Lock()
	defer d.sendLocked.Unlock()

	d.setState(StateBuilding)
	d.ui.SetSendEnabled(false)
	d.ui.ShowProgress(true)

	var sender transport.Sender
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%v", r)
			}
		}()

		sender = d.opts.NewSender(d.deps(ctx, view))
		d.ui.SetProgressMessage(sender.ConnectingMessage())

		if d.limiter != nil && !d.limiter.Allow() {
			return reporterr.Newf(reporterr.CodeTransportSetup, "a report was sent less than %s ago", d.view.MinSendInterval)
		}

		var text string
		if view.IsMailClient() {
			text, err = d.createEmailReport(ctx)
		} else {
			text, err = d.CreateReport(ctx)
		}
		if err != nil {
			return err
		}

		d.setState(StateSending)
		return sender.Send(ctx, text)
	}()

	if view.IsMailClient() {
		d.ui.MailClientSendCompleted()
	}

	method := view.SendMethod.String()
	if err != nil {
		if !reporterr.IsCode(err, reporterr.CodeTransportSend) {
			description := "sender"
			if sender != nil {
				description = sender.Description()
			}
			d.ui.Completed(false)
			d.ui.ShowError(fmt.Sprintf("Unable to setup %s\n%s", description, err.Error()), err)
		}
		d.logger.Warn("report send failed", zap.Error(err))
		sendAttempts.WithLabelValues(method, "failure").Inc()
		d.setState(StateFailed)
		return StateFailed
	}

	d.logger.Info("report sent", zap.String("report_id", d.assembler.ReportID()))
	sendAttempts.WithLabelValues(method, "success").Inc()
	d.setState(StateCompleted)
	return StateCompleted
}

// Close removes temp files created while sending. It is safe to call more
// than once; only the first call does any work.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	files := d.tempFiles
	d.tempFiles = nil
	d.mu.Unlock()

	var result *multierror.Error
	for _, p := range files {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			result = multierror.Append(result, fmt.Errorf("remove %s: %w", p, err))
			continue
		}
		tempFilesRemoved.Inc()
	}
	return result.ErrorOrNil()
}

package report

import (
	"time"

	"github.com/google/uuid"

	"exception-reporter/internal/assembly"
	"exception-reporter/internal/capture"
	"exception-reporter/internal/config"
	"exception-reporter/internal/reporterr"
	"exception-reporter/internal/system"
	"exception-reporter/internal/templates"
)

// DateLayout formats report timestamps.
const DateLayout = "2006-01-02 15:04:05 MST"

// Assembler renders reports. The report id and timestamp are fixed when the
// assembler is built so identical inputs always yield identical output from
// one assembler. Two assemblers share output only when built with the same
// clock and report id.
type Assembler struct {
	engine   *templates.Engine
	host     system.HostInfo
	reportID string
	stamp    time.Time
}

// NewAssembler captures the clock once. An empty reportID gets a random uuid.
func NewAssembler(engine *templates.Engine, clock func() time.Time, host system.HostInfo, reportID string) *Assembler {
	if engine == nil {
		engine = templates.New()
	}
	if clock == nil {
		clock = time.Now
	}
	if reportID == "" {
		reportID = uuid.NewString()
	}
	return &Assembler{
		engine:   engine,
		host:     host,
		reportID: reportID,
		stamp:    clock(),
	}
}

// ReportID identifies every report built by this assembler.
func (a *Assembler) ReportID() string { return a.reportID }

// Timestamp is the instant captured at construction.
func (a *Assembler) Timestamp() time.Time { return a.stamp }

// Model composes the flattened report model.
func (a *Assembler) Model(cfg config.Config, ed *capture.ErrorData, refs []assembly.Ref, facts []*system.SysInfoResult) (Model, error) {
	if ed == nil || !ed.HasExceptions() {
		return Model{}, reporterr.New(reporterr.CodeConfiguration, "error data has no exceptions")
	}

	date := ed.ExceptionDate
	if date.IsZero() {
		date = a.stamp
	}
	if refs == nil {
		refs = []assembly.Ref{}
	}

	return Model{
		ReportID: a.reportID,
		App: AppInfo{
			Name:         cfg.App.Name,
			Version:      cfg.App.Version,
			CompanyName:  cfg.App.CompanyName,
			UserName:     cfg.App.UserName,
			ContactEmail: cfg.App.ContactEmail,
			WebURL:       cfg.App.WebURL,
		},
		Error: ErrorInfo{
			Date:           date.Format(DateLayout),
			Message:        ed.MainMessage(),
			Explanation:    cfg.App.UserExplanation,
			FullStackTrace: capture.Format(ed.Exceptions()),
			Exceptions:     ed.Exceptions(),
		},
		Machine:      a.host,
		AssemblyRefs: refs,
		SysInfo:      FormatFacts(facts),
		Facts:        facts,
	}, nil
}

// Build renders the report with the custom template when one is configured,
// otherwise with the built-in template for the configured format.
func (a *Assembler) Build(cfg config.Config, ed *capture.ErrorData, refs []assembly.Ref, facts []*system.SysInfoResult) (string, error) {
	m, err := a.Model(cfg, ed, refs, facts)
	if err != nil {
		return "", err
	}
	if cfg.Report.CustomTemplate != "" {
		return a.engine.RenderCustom(cfg.Report.CustomTemplate, m)
	}
	format, err := templates.ParseFormat(cfg.Report.TemplateFormat)
	if err != nil {
		return "", err
	}
	return a.engine.Render(m, format)
}

// EmailIntro renders the intro prepended to mail client reports.
func (a *Assembler) EmailIntro(screenshotTaken bool, format templates.Format) (string, error) {
	return a.engine.Render(templates.EmailIntroModel{ScreenshotTaken: screenshotTaken}, format)
}

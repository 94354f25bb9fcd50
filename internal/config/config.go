package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"exception-reporter/internal/reporterr"
)

// Config is the raw configuration bag as stored on disk. Effective values
// that depend on several fields are computed by Derive, never stored here.
type Config struct {
	App         AppConfig         `yaml:"app"`
	Dialog      DialogConfig      `yaml:"dialog"`
	Send        SendConfig        `yaml:"send"`
	SMTP        SMTPConfig        `yaml:"smtp"`
	WebService  WebServiceConfig  `yaml:"web_service"`
	Attachments AttachmentsConfig `yaml:"attachments"`
	Report      ReportConfig      `yaml:"report"`
	Logging     LoggingConfig     `yaml:"logging"`
}

type AppConfig struct {
	// Name and Version fall back to the running binary when empty.
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	CompanyName string `yaml:"company_name"`
	// UserName is shown in the report; hidden when empty.
	UserName     string `yaml:"user_name"`
	ContactEmail string `yaml:"contact_email"`
	WebURL       string `yaml:"web_url"`
	// UserExplanation is normally filled in by the dialog just before a report is built.
	UserExplanation string `yaml:"user_explanation"`
}

type DialogConfig struct {
	TitleText               string  `yaml:"title_text"`
	UserExplanationLabel    string  `yaml:"user_explanation_label"`
	ContactMessageTop       string  `yaml:"contact_message_top"`
	BackgroundColor         string  `yaml:"background_color"`
	UserExplanationFontSize float64 `yaml:"user_explanation_font_size"`

	ShowGeneralTab    bool `yaml:"show_general_tab"`
	ShowExceptionsTab bool `yaml:"show_exceptions_tab"`
	ShowSysInfoTab    bool `yaml:"show_sys_info_tab"`
	ShowAssembliesTab bool `yaml:"show_assemblies_tab"`

	ShowEmailButton      bool `yaml:"show_email_button"`
	ShowFlatButtons      bool `yaml:"show_flat_buttons"`
	ShowLessDetailButton bool `yaml:"show_less_detail_button"`
	ShowFullDetail       bool `yaml:"show_full_detail"`
	ShowButtonIcons      bool `yaml:"show_button_icons"`
	TopMost              bool `yaml:"top_most"`
}

type SendConfig struct {
	// Method is one of none, mail_client (alias simple_mapi), smtp, web_service.
	// Empty means unset, in which case LegacyMailMethod is consulted.
	Method           string `yaml:"method"`
	LegacyMailMethod string `yaml:"mail_method"`
	// EmailReportAddress is the "to" address for smtp and mail_client delivery.
	EmailReportAddress string `yaml:"email_report_address"`
	// MinIntervalSec throttles repeated send attempts from one dispatcher.
	MinIntervalSec int `yaml:"min_interval_sec"`
}

type SMTPConfig struct {
	Server      string `yaml:"server"`
	Port        int    `yaml:"port"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	FromAddress string `yaml:"from_address"`
	UseSSL      bool   `yaml:"use_ssl"`
	// Priority is low, normal or high.
	Priority string `yaml:"priority"`
}

type WebServiceConfig struct {
	URL        string `yaml:"url"`
	TimeoutSec int    `yaml:"timeout_sec"`
	// WebReportURL is the page used by the web page hand-off.
	WebReportURL string `yaml:"web_report_url"`
}

type AttachmentsConfig struct {
	TakeScreenshot bool     `yaml:"take_screenshot"`
	FilesToAttach  []string `yaml:"files_to_attach"`
	// Filename is the archive base name; ".zip" is appended by Derive when missing.
	Filename string `yaml:"filename"`
}

type ReportConfig struct {
	// TemplateFormat is text, html or markdown.
	TemplateFormat string `yaml:"template_format"`
	// CustomTemplate replaces the built-in preset when set.
	CustomTemplate string `yaml:"custom_template"`
	// ExceptionDateKind is utc or local.
	ExceptionDateKind string `yaml:"exception_date_kind"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

const (
	DefaultTitleText            = "Error Report"
	DefaultExplanationLabel     = "Please enter a brief explanation of events leading up to this exception"
	DefaultContactMessageTop    = "The following details can be used to obtain support for this application"
	DefaultAttachmentFilename   = "ExceptionReport"
	DefaultWebServiceTimeoutSec = 15
	DefaultTemplateFormat       = "text"
)

func Default() *Config {
	return &Config{
		Dialog: DialogConfig{
			TitleText:               DefaultTitleText,
			UserExplanationLabel:    DefaultExplanationLabel,
			ContactMessageTop:       DefaultContactMessageTop,
			BackgroundColor:         "WhiteSmoke",
			UserExplanationFontSize: 12,
			ShowGeneralTab:          true,
			ShowExceptionsTab:       true,
			ShowSysInfoTab:          true,
			ShowAssembliesTab:       true,
			ShowEmailButton:         true,
			ShowFlatButtons:         true,
		},
		SMTP: SMTPConfig{
			Priority: "normal",
		},
		WebService: WebServiceConfig{
			TimeoutSec: DefaultWebServiceTimeoutSec,
		},
		Attachments: AttachmentsConfig{
			Filename:      DefaultAttachmentFilename,
			FilesToAttach: []string{},
		},
		Report: ReportConfig{
			TemplateFormat:    DefaultTemplateFormat,
			ExceptionDateKind: "utc",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// EnsureExists creates a default config file when it does not exist.
// It never overwrites an existing config.
func EnsureExists(path string) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(Default())
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}

// Load reads a YAML config. Keys absent from the file keep their Default() value.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, reporterr.Wrap(reporterr.CodeConfiguration, "parse "+path, err)
	}
	cfg.ApplyDefaults()
	cfg.ApplyRuntimeOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}

func (c *Config) Validate() error {
	invalid := func(msg string) error { return reporterr.New(reporterr.CodeConfiguration, msg) }

	method, err := ResolveSendMethod(c.Send.Method, c.Send.LegacyMailMethod)
	if err != nil {
		return err
	}
	if _, ok := parseFormat(c.Report.TemplateFormat); !ok {
		return invalid("report.template_format must be one of text, html, markdown")
	}
	switch strings.ToLower(c.Report.ExceptionDateKind) {
	case "", "utc", "local":
	default:
		return invalid("report.exception_date_kind must be utc or local")
	}
	if c.WebService.TimeoutSec <= 0 {
		return invalid("web_service.timeout_sec must be > 0")
	}
	if c.SMTP.Port < 0 || c.SMTP.Port > 65535 {
		return invalid("smtp.port must be between 0 and 65535")
	}
	if c.Send.MinIntervalSec < 0 {
		return invalid("send.min_interval_sec must be >= 0")
	}

	switch method {
	case SendSMTP:
		if c.SMTP.Server == "" {
			return invalid("smtp.server is required when sending by smtp")
		}
		if c.Send.EmailReportAddress == "" {
			return invalid("send.email_report_address is required when sending by smtp")
		}
	case SendWebService:
		if c.WebService.URL == "" {
			return invalid("web_service.url is required when sending to a web service")
		}
	}
	return nil
}

func (c *Config) ApplyDefaults() {
	if c.Dialog.TitleText == "" {
		c.Dialog.TitleText = DefaultTitleText
	}
	if c.Attachments.Filename == "" {
		c.Attachments.Filename = DefaultAttachmentFilename
	}
	if c.WebService.TimeoutSec == 0 {
		c.WebService.TimeoutSec = DefaultWebServiceTimeoutSec
	}
	if c.Report.TemplateFormat == "" {
		c.Report.TemplateFormat = DefaultTemplateFormat
	}
	if c.SMTP.Priority == "" {
		c.SMTP.Priority = "normal"
	}
	if c.Attachments.FilesToAttach == nil {
		c.Attachments.FilesToAttach = []string{}
	}
}

// Clone returns a deep copy so a snapshot can be handed to the pipeline while
// the caller keeps editing its own copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Attachments.FilesToAttach = append([]string(nil), c.Attachments.FilesToAttach...)
	return &out
}

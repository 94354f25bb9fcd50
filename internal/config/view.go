package config

import (
	"strings"
	"time"
)

const archiveExt = ".zip"

// Platform describes host capabilities that influence the effective config.
type Platform struct {
	// FactsAvailable is false where system facts cannot be queried.
	FactsAvailable bool
}

// View is the effective configuration computed from a raw Config snapshot.
type View struct {
	SendMethod SendMethod

	ShowSendButton    bool
	ShowGeneralTab    bool
	ShowExceptionsTab bool
	ShowSysInfoTab    bool
	ShowAssembliesTab bool

	AttachmentFilename string
	TemplateFormat     string
	WebServiceTimeout  time.Duration
	ExceptionDateLocal bool
	MinSendInterval    time.Duration
}

// IsMailClient reports whether the report goes out through the OS mail client.
func (v View) IsMailClient() bool {
	return v.SendMethod == SendMailClient
}

// Derive computes the effective view of cfg. It has no side effects and
// fails only when the send method cannot be resolved.
func Derive(cfg Config, p Platform) (View, error) {
	method, err := ResolveSendMethod(cfg.Send.Method, cfg.Send.LegacyMailMethod)
	if err != nil {
		return View{}, err
	}

	format, ok := parseFormat(cfg.Report.TemplateFormat)
	if !ok {
		format = DefaultTemplateFormat
	}
	timeout := cfg.WebService.TimeoutSec
	if timeout <= 0 {
		timeout = DefaultWebServiceTimeoutSec
	}

	return View{
		SendMethod:         method,
		ShowSendButton:     method != SendNone && cfg.Dialog.ShowEmailButton,
		ShowGeneralTab:     cfg.Dialog.ShowGeneralTab,
		ShowExceptionsTab:  cfg.Dialog.ShowExceptionsTab,
		ShowSysInfoTab:     p.FactsAvailable && cfg.Dialog.ShowSysInfoTab,
		ShowAssembliesTab:  p.FactsAvailable && cfg.Dialog.ShowAssembliesTab,
		AttachmentFilename: NormalizeAttachmentFilename(cfg.Attachments.Filename),
		TemplateFormat:     format,
		WebServiceTimeout:  time.Duration(timeout) * time.Second,
		ExceptionDateLocal: strings.EqualFold(cfg.Report.ExceptionDateKind, "local"),
		MinSendInterval:    time.Duration(cfg.Send.MinIntervalSec) * time.Second,
	}, nil
}

// NormalizeAttachmentFilename appends the archive extension when missing; it
// is idempotent.
func NormalizeAttachmentFilename(name string) string {
	if name == "" {
		name = DefaultAttachmentFilename
	}
	if strings.HasSuffix(name, archiveExt) {
		return name
	}
	return name + archiveExt
}

func parseFormat(v string) (string, bool) {
	switch f := strings.ToLower(strings.TrimSpace(v)); f {
	case "", "text":
		return "text", true
	case "html", "markdown":
		return f, true
	case "md":
		return "markdown", true
	}
	return "", false
}

package config

import (
	"strings"

	"exception-reporter/internal/reporterr"
)

// SendMethod is the resolved delivery strategy for a report.
type SendMethod int

const (
	SendNone SendMethod = iota
	SendMailClient
	SendSMTP
	SendWebService
)

// Raw values accepted in send.method and send.mail_method.
const (
	MethodNone       = "none"
	MethodMailClient = "mail_client"
	MethodSimpleMAPI = "simple_mapi"
	MethodSMTP       = "smtp"
	MethodWebService = "web_service"
)

func (m SendMethod) String() string {
	switch m {
	case SendMailClient:
		return MethodMailClient
	case SendSMTP:
		return MethodSMTP
	case SendWebService:
		return MethodWebService
	default:
		return MethodNone
	}
}

func parseSendMethod(v string) (SendMethod, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case MethodNone:
		return SendNone, true
	case MethodMailClient, MethodSimpleMAPI, "mapi":
		return SendMailClient, true
	case MethodSMTP:
		return SendSMTP, true
	case MethodWebService, "webservice":
		return SendWebService, true
	}
	return SendNone, false
}

// ResolveSendMethod picks the delivery method: an explicit method always wins
// (including "none"); the legacy mail_method is used only when the explicit
// one is unset; both unset resolves to SendNone.
func ResolveSendMethod(method, legacy string) (SendMethod, error) {
	if strings.TrimSpace(method) != "" {
		m, ok := parseSendMethod(method)
		if !ok {
			return SendNone, reporterr.Newf(reporterr.CodeConfiguration, "unknown send.method %q", method)
		}
		return m, nil
	}

	if strings.TrimSpace(legacy) == "" {
		return SendNone, nil
	}
	l, ok := parseSendMethod(legacy)
	if !ok {
		return SendNone, reporterr.Newf(reporterr.CodeConfiguration, "unknown send.mail_method %q", legacy)
	}
	return l, nil
}

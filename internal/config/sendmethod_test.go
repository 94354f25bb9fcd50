package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exception-reporter/internal/reporterr"
)

func TestResolveSendMethod(t *testing.T) {
	tests := []struct {
		name   string
		method string
		legacy string
		want   SendMethod
	}{
		{name: "both empty", want: SendNone},
		{name: "explicit smtp", method: "smtp", want: SendSMTP},
		{name: "explicit web service", method: "web_service", want: SendWebService},
		{name: "explicit none beats legacy", method: "none", legacy: "smtp", want: SendNone},
		{name: "explicit mail client beats legacy", method: "mail_client", legacy: "web_service", want: SendMailClient},
		{name: "explicit simple mapi alias", method: "simple_mapi", want: SendMailClient},
		{name: "legacy smtp", legacy: "smtp", want: SendSMTP},
		{name: "legacy web service", legacy: "web_service", want: SendWebService},
		{name: "legacy none", legacy: "none", want: SendNone},
		{name: "legacy mapi", legacy: "simple_mapi", want: SendMailClient},
		{name: "case insensitive", method: "SMTP", want: SendSMTP},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveSendMethod(tt.method, tt.legacy)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveSendMethodRejectsUnknown(t *testing.T) {
	_, err := ResolveSendMethod("carrier_pigeon", "")
	assert.True(t, reporterr.IsCode(err, reporterr.CodeConfiguration))

	_, err = ResolveSendMethod("", "fax")
	assert.True(t, reporterr.IsCode(err, reporterr.CodeConfiguration))
}

func TestSendMethodString(t *testing.T) {
	assert.Equal(t, "none", SendNone.String())
	assert.Equal(t, "mail_client", SendMailClient.String())
	assert.Equal(t, "smtp", SendSMTP.String())
	assert.Equal(t, "web_service", SendWebService.String())
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveHidesSendButtonWithoutMethod(t *testing.T) {
	cfg := Default()
	cfg.Send.Method = MethodNone
	cfg.Dialog.ShowEmailButton = true

	v, err := Derive(*cfg, Platform{FactsAvailable: true})
	require.NoError(t, err)
	assert.False(t, v.ShowSendButton)

	cfg.Send.Method = MethodSMTP
	v, err = Derive(*cfg, Platform{FactsAvailable: true})
	require.NoError(t, err)
	assert.True(t, v.ShowSendButton)

	cfg.Dialog.ShowEmailButton = false
	v, err = Derive(*cfg, Platform{FactsAvailable: true})
	require.NoError(t, err)
	assert.False(t, v.ShowSendButton)
}

func TestDeriveHidesFactTabsWhenUnavailable(t *testing.T) {
	cfg := Default()
	v, err := Derive(*cfg, Platform{FactsAvailable: false})
	require.NoError(t, err)
	assert.False(t, v.ShowSysInfoTab)
	assert.False(t, v.ShowAssembliesTab)
	assert.True(t, v.ShowGeneralTab)
	assert.True(t, v.ShowExceptionsTab)

	v, err = Derive(*cfg, Platform{FactsAvailable: true})
	require.NoError(t, err)
	assert.True(t, v.ShowSysInfoTab)
	assert.True(t, v.ShowAssembliesTab)
}

func TestDeriveDoesNotMutateInput(t *testing.T) {
	cfg := Default()
	cfg.Attachments.Filename = "crash"
	_, err := Derive(*cfg, Platform{})
	require.NoError(t, err)
	assert.Equal(t, "crash", cfg.Attachments.Filename)
}

func TestDeriveTimeoutAndFormat(t *testing.T) {
	cfg := Default()
	cfg.WebService.TimeoutSec = 0
	cfg.Report.TemplateFormat = "md"
	v, err := Derive(*cfg, Platform{})
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, v.WebServiceTimeout)
	assert.Equal(t, "markdown", v.TemplateFormat)
}

func TestNormalizeAttachmentFilename(t *testing.T) {
	assert.Equal(t, "x.zip", NormalizeAttachmentFilename("x"))
	assert.Equal(t, "x.zip", NormalizeAttachmentFilename("x.zip"))
	assert.Equal(t, "ExceptionReport.zip", NormalizeAttachmentFilename(""))
	assert.Equal(t, "x.zip", NormalizeAttachmentFilename(NormalizeAttachmentFilename("x")))
}

func TestIsMailClient(t *testing.T) {
	cfg := Default()
	cfg.Send.Method = ""
	cfg.Send.LegacyMailMethod = MethodSimpleMAPI
	v, err := Derive(*cfg, Platform{})
	require.NoError(t, err)
	assert.True(t, v.IsMailClient())
}

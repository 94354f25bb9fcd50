//go:build windows

package config

import "golang.org/x/sys/windows/registry"

// Deployment tooling (GPO, installers) can pin endpoints per user here.
const overridesRegistryPath = `SOFTWARE\ExceptionReporter`

func applyOSOverrides(c *Config) {
	k, err := registry.OpenKey(registry.CURRENT_USER, overridesRegistryPath, registry.QUERY_VALUE)
	if err != nil {
		return
	}
	defer k.Close()

	if v, _, err := k.GetStringValue("WebServiceUrl"); err == nil && v != "" {
		c.WebService.URL = v
	}
	if v, _, err := k.GetStringValue("SmtpServer"); err == nil && v != "" {
		c.SMTP.Server = v
	}
	if v, _, err := k.GetStringValue("EmailReportAddress"); err == nil && v != "" {
		c.Send.EmailReportAddress = v
	}
}

package config

import "os"

// ApplyRuntimeOverrides applies environment/OS-specific overrides after YAML load
// and before validation.
func (c *Config) ApplyRuntimeOverrides() {
	applyEnvOverrides(c)
	applyOSOverrides(c)
}

func applyEnvOverrides(c *Config) {
	if v := os.Getenv("EXREPORT_SEND_METHOD"); v != "" {
		c.Send.Method = v
	}
	if v := os.Getenv("EXREPORT_SMTP_SERVER"); v != "" {
		c.SMTP.Server = v
	}
	if v := os.Getenv("EXREPORT_SMTP_USERNAME"); v != "" {
		c.SMTP.Username = v
	}
	if v := os.Getenv("EXREPORT_SMTP_PASSWORD"); v != "" {
		c.SMTP.Password = v
	}
	if v := os.Getenv("EXREPORT_WEB_SERVICE_URL"); v != "" {
		c.WebService.URL = v
	}
}

package config

import "github.com/opsbolt/opsbolt/errors"

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Runner.MaxRunMinutes < 0 {
		return errors.Newf("runner.max_run_minutes must be >= 0, got %d", c.Runner.MaxRunMinutes)
	}
	if c.Runner.AlertGapMinutes < 0 {
		return errors.Newf("runner.alert_gap_minutes must be >= 0, got %d", c.Runner.AlertGapMinutes)
	}

	if c.Notify.SMTP.Host != "" {
		if c.Notify.SMTP.Port <= 0 || c.Notify.SMTP.Port > 65535 {
			return errors.Newf("notify.smtp.port must be 1-65535, got %d", c.Notify.SMTP.Port)
		}
		if c.Notify.SMTP.From == "" {
			return errors.New("notify.smtp.from cannot be empty when notify.smtp.host is set")
		}
	}

	if c.Fetch.Concurrency < 1 {
		return errors.Newf("fetch.concurrency must be >= 1, got %d", c.Fetch.Concurrency)
	}
	if c.Fetch.TimeoutSeconds < 1 {
		return errors.Newf("fetch.timeout_seconds must be >= 1, got %d", c.Fetch.TimeoutSeconds)
	}
	if c.Fetch.RequestsPerMinute < 1 {
		return errors.Newf("fetch.requests_per_minute must be >= 1, got %d", c.Fetch.RequestsPerMinute)
	}

	if c.Probe.TimeoutSeconds < 1 {
		return errors.Newf("probe.timeout_seconds must be >= 1, got %d", c.Probe.TimeoutSeconds)
	}

	return nil
}

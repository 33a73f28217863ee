// Package config holds the opsbolt configuration, loaded from opsbolt.toml
// files and OPSBOLT_* environment variables via Viper.
package config

import "time"

// Config is the root opsbolt configuration.
type Config struct {
	Runner RunnerConfig `mapstructure:"runner"`
	Notify NotifyConfig `mapstructure:"notify"`
	Fetch  FetchConfig  `mapstructure:"fetch"`
	Probe  ProbeConfig  `mapstructure:"probe"`
}

// RunnerConfig configures the locking task runner defaults. Flags on
// `opsbolt run` override these per invocation.
type RunnerConfig struct {
	LockDir         string `mapstructure:"lock_dir"`          // where job locks live (default: OS temp dir)
	MaxRunMinutes   int    `mapstructure:"max_run_minutes"`   // lock older than this is stale (default: 60)
	AlertGapMinutes int    `mapstructure:"alert_gap_minutes"` // min gap between outbound alerts (default: 60)
	FilterRulesPath string `mapstructure:"filter_rules_path"` // optional YAML stderr-noise rules
}

// NotifyConfig configures the outbound notifier collaborators.
type NotifyConfig struct {
	SMTP          SMTPConfig `mapstructure:"smtp"`
	SMSGatewayURL string     `mapstructure:"sms_gateway_url"` // HTTP gateway accepting {to, body} POSTs
}

// SMTPConfig configures the email transport.
type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"` // env only: OPSBOLT_NOTIFY_SMTP_PASSWORD
	From     string `mapstructure:"from"`
}

// FetchConfig configures the domain-intelligence fetcher.
type FetchConfig struct {
	TimeoutSeconds    int `mapstructure:"timeout_seconds"`     // per-source timeout (default: 15)
	Concurrency       int `mapstructure:"concurrency"`         // domains fetched in parallel (default: 4)
	RequestsPerMinute int `mapstructure:"requests_per_minute"` // polite limit across all sources (default: 30)
}

// ProbeConfig configures the HTTP probe.
type ProbeConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"` // whole-probe deadline (default: 10)
}

// FetchTimeout returns the per-source fetch timeout as a duration.
func (c FetchConfig) FetchTimeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ProbeTimeout returns the probe deadline as a duration.
func (c ProbeConfig) ProbeTimeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

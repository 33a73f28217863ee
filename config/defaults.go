package config

import (
	"os"

	"github.com/spf13/viper"
)

// DefaultDirPermissions for directories opsbolt creates (user config dir, log dirs).
const DefaultDirPermissions = 0o755

// SetDefaults configures default values for all configuration options.
func SetDefaults(v *viper.Viper) {
	// Runner defaults
	v.SetDefault("runner.lock_dir", os.TempDir())
	v.SetDefault("runner.max_run_minutes", 60)  // lock older than 1h is stale
	v.SetDefault("runner.alert_gap_minutes", 60) // at most one alert burst per hour per job
	v.SetDefault("runner.filter_rules_path", "")

	// Notify defaults
	v.SetDefault("notify.smtp.port", 587)
	v.SetDefault("notify.smtp.host", "")
	v.SetDefault("notify.smtp.from", "")
	v.SetDefault("notify.sms_gateway_url", "")

	// Fetch defaults
	v.SetDefault("fetch.timeout_seconds", 15)
	v.SetDefault("fetch.concurrency", 4)
	v.SetDefault("fetch.requests_per_minute", 30) // polite to registries and resolvers

	// Probe defaults
	v.SetDefault("probe.timeout_seconds", 10)
}

package config

import (
	"time"

	"github.com/spf13/viper"
)

// CacheTTL returns how long orchestrator cache entries stay fresh
func CacheTTL() time.Duration {
	return viper.GetDuration("cache.ttl")
}

// MaxCommits returns the history walk bound for extraction
func MaxCommits() int {
	return viper.GetInt("extract.max_commits")
}

// IncludeAllBranches returns whether extraction walks every branch tip
func IncludeAllBranches() bool {
	return viper.GetBool("extract.all_branches")
}

// ExtractTimeout returns the per-subprocess deadline for extraction
func ExtractTimeout() time.Duration {
	return viper.GetDuration("extract.timeout")
}

// ProviderTimeout returns each provider's share of one orchestrated fetch
func ProviderTimeout() time.Duration {
	return viper.GetDuration("providers.timeout")
}

// ProviderEnabled returns a provider's configured enabled flag. Providers
// without a configured flag default to enabled.
func ProviderEnabled(id string) bool {
	key := "providers." + id + ".enabled"
	if !viper.IsSet(key) {
		return true
	}
	return viper.GetBool(key)
}

// LogLevel returns the configured log level name
func LogLevel() string {
	return viper.GetString("log.level")
}

// MetricsListen returns the serve command's listen address
func MetricsListen() string {
	return viper.GetString("serve.listen")
}

// ServeInterval returns the refresh period for the serve command
func ServeInterval() time.Duration {
	return viper.GetDuration("serve.interval")
}

// FilterStatePath returns where the filters command persists its snapshots
func FilterStatePath() string {
	return viper.GetString("filters.state_file")
}

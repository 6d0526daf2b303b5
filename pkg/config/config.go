package config

import "time"

// Config holds runtime configuration for the liveness probe.
type Config struct {
	AppEnv string `mapstructure:"app_env"`

	Probe  ProbeConfig  `mapstructure:"probe"`
	Log    LogConfig    `mapstructure:"log"`
	HTTP   HTTPConfig   `mapstructure:"http"`
	Redis  RedisConfig  `mapstructure:"redis"`
	Sentry SentryConfig `mapstructure:"sentry"`
}

// ProbeConfig controls the status file loop.
type ProbeConfig struct {
	StatusFile   string        `mapstructure:"status_file" validate:"required"`
	Interval     time.Duration `mapstructure:"interval" validate:"gt=0"`
	InitialDelay time.Duration `mapstructure:"initial_delay" validate:"gte=0"`
	// Seed of the random source; 0 seeds from the runtime.
	Seed            uint64 `mapstructure:"seed"`
	ExitOnDeath     bool   `mapstructure:"exit_on_death"`
	WatchStatusFile bool   `mapstructure:"watch_status_file"`
}

type LogConfig struct {
	Level      string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format     string `mapstructure:"format" validate:"oneof=text json"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `mapstructure:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `mapstructure:"max_age_days" validate:"gte=0"`
	Compress   bool   `mapstructure:"compress"`
}

// HTTPConfig exposes the optional health and metrics endpoints.
type HTTPConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Addr            string        `mapstructure:"addr" validate:"required_if=Enabled true"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// RedisConfig configures the optional status mirror.
type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr" validate:"required_if=Enabled true"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db" validate:"gte=0"`
	Key      string        `mapstructure:"key" validate:"required_if=Enabled true"`
	TTL      time.Duration `mapstructure:"ttl" validate:"gte=0"`
	PoolSize int           `mapstructure:"pool_size" validate:"gte=0"`
	// MaxRetries is passed to go-redis: -1 disables its retries, 0 means its default of 3.
	MaxRetries int `mapstructure:"max_retries" validate:"gte=-1"`
}

type SentryConfig struct {
	DSN         string `mapstructure:"dsn"`
	Environment string `mapstructure:"environment"`
}

// Enabled reports whether errors are forwarded to Sentry.
func (c SentryConfig) Enabled() bool {
	return c.DSN != ""
}

// MirrorTTL returns the configured TTL or three probe intervals when unset.
func (c *Config) MirrorTTL() time.Duration {
	if c.Redis.TTL > 0 {
		return c.Redis.TTL
	}
	return 3 * c.Probe.Interval
}

// Package config provides configuration loading and validation utilities.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// LoadWithFlags reads .env files, path (./configs/<APP_ENV>.yaml when empty),
// environment variables and changed command line flags, in increasing order
// of precedence, and validates the result.
func LoadWithFlags(path string, flags *pflag.FlagSet) (*Config, *viper.Viper, error) {
	// env files are optional; earlier files win because godotenv never overrides.
	for _, file := range []string{".env.local", ".env"} {
		_ = godotenv.Load(file)
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	if path == "" {
		path = fmt.Sprintf("./configs/%s.yaml", env)
	}

	return load(env, path, flags)
}

// LoadFile loads configuration from path. A missing file leaves the defaults
// in place; any other read error is returned.
func LoadFile(env, path string) (*Config, *viper.Viper, error) {
	return load(env, path, nil)
}

func load(env, path string, flags *pflag.FlagSet) (*Config, *viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	if err := bindFlags(v, flags); err != nil {
		return nil, nil, err
	}

	v.SetConfigFile(path)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil && !isNotFound(err) {
		return nil, nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.AppEnv = env
	if cfg.Sentry.Environment == "" {
		cfg.Sentry.Environment = env
	}

	if err := Validate(&cfg); err != nil {
		return nil, nil, err
	}

	return &cfg, v, nil
}

// Validate checks struct constraints.
func Validate(cfg *Config) error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("probe.status_file", "./liveness.txt")
	v.SetDefault("probe.interval", time.Second)
	v.SetDefault("probe.initial_delay", time.Second)
	v.SetDefault("probe.seed", 0)
	v.SetDefault("probe.exit_on_death", false)
	v.SetDefault("probe.watch_status_file", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 7)
	v.SetDefault("log.compress", false)

	v.SetDefault("http.enabled", false)
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.shutdown_timeout", 5*time.Second)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key", "liveness:status")
	v.SetDefault("redis.ttl", 0)
	v.SetDefault("redis.pool_size", 2)
	v.SetDefault("redis.max_retries", -1)

	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "")
}

// flagKeys maps command line flags to configuration keys.
var flagKeys = map[string]string{
	"status-file":   "probe.status_file",
	"interval":      "probe.interval",
	"seed":          "probe.seed",
	"exit-on-death": "probe.exit_on_death",
	"http":          "http.enabled",
	"http-addr":     "http.addr",
	"log-level":     "log.level",
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	if flags == nil {
		return nil
	}
	for name, key := range flagKeys {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

func isNotFound(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
}

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g.
// SCHEDULER_DATABASE_URL for database.url.
const EnvPrefix = "SCHEDULER"

// defaults lists every key known to the loader. Keys must be registered
// here for AutomaticEnv to pick them up during Unmarshal.
var defaults = map[string]any{
	"server.port":                 8080,
	"server.log_level":            "info",
	"server.shutdown_timeout":     10 * time.Second,
	"database.url":                "",
	"redis.addr":                  "localhost:6379",
	"redis.password":              "",
	"redis.db":                    0,
	"mongo.enabled":               false,
	"mongo.uri":                   "",
	"mongo.database":              "scheduler",
	"engine.addr":                 "localhost:9090",
	"engine.service":              "scheduler.v1.TaskEngine",
	"engine.ping_timeout":         2 * time.Second,
	"engine.call_timeout":         5 * time.Second,
	"auth.jwt_secret":             "",
	"auth.token_lifetime_minutes": 60,
	"auth.login_rps":              1.0,
	"auth.login_burst":            5,
	"session.ttl":                 5 * time.Minute,
	"idempotency.retention":       24 * time.Hour,
	"idempotency.sweep_interval":  10 * time.Minute,
	"task.worker_count":           2,
	"task.queue_size":             100,
	"task.recover_limit":          100,
}

// Load reads configuration from an optional config.yaml (working directory
// or /etc/scheduler-api) and from SCHEDULER_* environment variables.
// Environment variables take precedence over values from the file.
func Load() (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/scheduler-api")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

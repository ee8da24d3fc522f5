package main

import (
	"fmt"
	"log/slog"

	"github.com/scheduler-platform/scheduler-api/internal/config"
)

// loadAppConfig loads configuration from SCHEDULER_* environment variables
// and an optional config.yaml.
func loadAppConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	slog.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"engine_addr", cfg.Engine.Addr,
		"mongo_enabled", cfg.Mongo.Enabled)

	return cfg, nil
}

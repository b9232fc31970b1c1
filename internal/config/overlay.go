package config

import (
	"os"
	"strconv"
	"strings"
)

const (
	EnvDataDir  = "JOBSEARCH_DATA_DIR"
	EnvPort     = "JOBSEARCH_PORT"
	EnvLogLevel = "JOBSEARCH_LOG_LEVEL"
)

// ApplyEnv overlays environment variables on cfg. Malformed values are
// ignored so a bad variable never blocks startup.
func ApplyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvDataDir)); v != "" {
		cfg.App.DataDir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvPort)); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.App.Port = p
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.App.LogLevel = v
	}
}

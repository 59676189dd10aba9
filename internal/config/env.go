package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "STUDYLOG_"

// applyEnv loads .env from the working directory (if present) and lets
// STUDYLOG_* variables override cfg. Variables already set in the process
// environment win over .env entries.
func applyEnv(cfg *Config) error {
	// Ignore error so the app still starts when .env is absent.
	_ = godotenv.Load()

	envString("DB_PATH", &cfg.Storage.DBPath)
	envString("TIMER_BACKEND", &cfg.Storage.TimerBackend)
	envString("BADGER_DIR", &cfg.Storage.BadgerDir)
	envString("TIMEZONE", &cfg.Display.Timezone)
	envString("LOG_LEVEL", &cfg.Log.Level)
	envString("LOG_FILE", &cfg.Log.File)

	if v := os.Getenv(envPrefix + "TICK_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sTICK_INTERVAL: %w", envPrefix, err)
		}
		cfg.Display.TickInterval = Duration{d}
	}
	return nil
}

func envString(key string, dst *string) {
	if v := os.Getenv(envPrefix + key); v != "" {
		*dst = v
	}
}

// Package config loads settings from a TOML file, a .env file and the
// environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
)

type Config struct {
	Storage StorageConfig `toml:"storage"`
	Display DisplayConfig `toml:"display"`
	Log     LogConfig     `toml:"log"`
}

type StorageConfig struct {
	DBPath       string `toml:"db_path"`
	TimerBackend string `toml:"timer_backend"`
	BadgerDir    string `toml:"badger_dir"`
}

type DisplayConfig struct {
	// Timezone is an IANA name; "" or "Local" means the system zone.
	Timezone     string   `toml:"timezone"`
	TickInterval Duration `toml:"tick_interval"`
}

type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// Duration decodes TOML strings such as "500ms" or "1s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Storage: StorageConfig{
			DBPath:       DefaultDBPath(),
			TimerBackend: BackendSQLite,
			BadgerDir:    DefaultBadgerDir(),
		},
		Display: DisplayConfig{
			Timezone:     "Local",
			TickInterval: Duration{500 * time.Millisecond},
		},
		Log: LogConfig{
			Level: "info",
			File:  DefaultLogPath(),
		},
	}
}

// LoadFile overlays the TOML file at path onto cfg. A missing file is not an
// error; unknown keys are.
func LoadFile(path string, cfg *Config) error {
	if path == "" {
		return fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("stat config: %w", err)
	}
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

// Load builds the effective configuration: defaults, then the TOML file at
// path (DefaultConfigPath when empty), then .env and STUDYLOG_* variables.
// The result is validated. Only the default file may be missing.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultConfigPath()
	} else if _, err := os.Stat(path); err != nil {
		return Config{}, fmt.Errorf("config file: %w", err)
	}
	cfg := Default()
	if err := LoadFile(path, &cfg); err != nil {
		return Config{}, err
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Storage.DBPath) == "" {
		errs = append(errs, errors.New("storage.db_path cannot be empty"))
	}
	switch c.Storage.TimerBackend {
	case BackendSQLite:
	case BackendBadger:
		if strings.TrimSpace(c.Storage.BadgerDir) == "" {
			errs = append(errs, errors.New("storage.badger_dir cannot be empty with the badger backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.timer_backend must be %q or %q, got %q",
			BackendSQLite, BackendBadger, c.Storage.TimerBackend))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if c.Display.TickInterval.Duration <= 0 {
		errs = append(errs, fmt.Errorf("display.tick_interval must be positive, got %s", c.Display.TickInterval))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level))
	}
	return errors.Join(errs...)
}

// Location resolves Display.Timezone.
func (c Config) Location() (*time.Location, error) {
	switch c.Display.Timezone {
	case "", "Local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Display.Timezone)
	if err != nil {
		return nil, fmt.Errorf("display.timezone: %w", err)
	}
	return loc, nil
}

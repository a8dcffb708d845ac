package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// JournalConfig locates the game's journal files.
type JournalConfig struct {
	Dir     string `mapstructure:"dir"`
	Pattern string `mapstructure:"pattern"`
}

// IngestConfig tunes the batch reader.
type IngestConfig struct {
	Workers        int           `mapstructure:"workers"`
	RescanInterval time.Duration `mapstructure:"rescan_interval"`
}

// TailConfig tunes the live tail reader.
type TailConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// StoreConfig selects where derived state is persisted.
type StoreConfig struct {
	Backend string `mapstructure:"backend"`
	Dir     string `mapstructure:"dir"`
}

// TelemetryConfig enables the JSONL event stream when Path is set.
type TelemetryConfig struct {
	Path string `mapstructure:"path"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	// File receives log output instead of stderr when set. The live view
	// always logs to a file so output does not corrupt the screen.
	File string `mapstructure:"file"`
}

// Config holds all runtime configuration for parallax.
// Values are populated from .parallax.yaml, PARALLAX_* env vars, and CLI flags.
type Config struct {
	Journal   JournalConfig   `mapstructure:"journal"`
	Stream    bool            `mapstructure:"stream"`
	AutoScan  bool            `mapstructure:"auto_scan"`
	Ingest    IngestConfig    `mapstructure:"ingest"`
	Tail      TailConfig      `mapstructure:"tail"`
	Store     StoreConfig     `mapstructure:"store"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Log       LogConfig       `mapstructure:"log"`
	Verbose   bool            `mapstructure:"verbose"`
}

// DefaultJournalDir is where the game writes journals on Windows, relative to
// the user's home directory.
var DefaultJournalDir = filepath.Join("Saved Games", "Frontier Developments", "Elite Dangerous")

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags.
func Load() Config {
	home, _ := os.UserHomeDir()

	viper.SetDefault("journal.dir", filepath.Join(home, DefaultJournalDir))
	viper.SetDefault("journal.pattern", "Journal.*.log")
	viper.SetDefault("stream", false)
	viper.SetDefault("auto_scan", false)
	viper.SetDefault("ingest.workers", 4)
	viper.SetDefault("ingest.rescan_interval", 30*time.Second)
	viper.SetDefault("tail.poll_interval", 2*time.Second)
	viper.SetDefault("store.backend", "json")
	viper.SetDefault("store.dir", filepath.Join(home, ".parallax"))
	viper.SetDefault("telemetry.path", "")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "console")
	viper.SetDefault("log.file", "")
	viper.SetDefault("verbose", false)

	var cfg Config
	_ = viper.Unmarshal(&cfg)
	if cfg.Verbose {
		cfg.Log.Level = "debug"
	}
	if cfg.Ingest.Workers < 1 {
		cfg.Ingest.Workers = 1
	}
	return cfg
}

// Package config loads user configuration for sessiontop from
// ~/.sessiontop/config.toml. Every field has a default; a missing or
// unreadable config file is never an error.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// FileName is the TOML config file inside the base directory.
const FileName = "config.toml"

// EnvBaseDir overrides the base directory; used by tests and by users who
// keep state outside the home directory.
const EnvBaseDir = "SESSIONTOP_DIR"

// Config is the user-facing configuration.
type Config struct {
	// Retention bounds the session archive.
	Retention RetentionSettings `toml:"retention"`

	// Observer tunes the long-running watch loop.
	Observer ObserverSettings `toml:"observer"`

	// Logs tunes the diagnostic debug log.
	Logs LogSettings `toml:"logs"`
}

// RetentionSettings bounds the archive of ended sessions.
type RetentionSettings struct {
	// MaxAgeDays removes archive entries older than this many days.
	MaxAgeDays int `toml:"max_age_days"`
	// MaxEntries caps the archive after deduplication and age pruning.
	MaxEntries int `toml:"max_entries"`
	// MaxRecent caps the recent-projects listing.
	MaxRecent int `toml:"max_recent"`
}

// ObserverSettings tunes the watch loop.
type ObserverSettings struct {
	// PollIntervalSecs is the fallback rescan period when filesystem
	// notifications go quiet.
	PollIntervalSecs int `toml:"poll_interval_secs"`
}

// LogSettings tunes the rotating debug log.
type LogSettings struct {
	// Level is "debug", "info", "warn" or "error".
	Level string `toml:"level"`
	// Format is "json" or "text".
	Format string `toml:"format"`
	// MaxSizeMB rotates the debug log past this size.
	MaxSizeMB int `toml:"max_size_mb"`
	// MaxBackups keeps this many rotated files.
	MaxBackups int `toml:"max_backups"`
	// MaxAgeDays drops rotated files older than this.
	MaxAgeDays int `toml:"max_age_days"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Retention: RetentionSettings{
			MaxAgeDays: 30,
			MaxEntries: 50,
			MaxRecent:  10,
		},
		Observer: ObserverSettings{
			PollIntervalSecs: 2,
		},
		Logs: LogSettings{
			Level:      "info",
			Format:     "json",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 10,
		},
	}
}

// Load reads the config file under the base directory, applying defaults
// for anything absent. A missing or malformed file yields the defaults.
func Load() Config {
	cfg := Default()
	path := filepath.Join(BaseDir(), FileName)
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Default()
	}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	d := Default()
	if c.Retention.MaxAgeDays <= 0 {
		c.Retention.MaxAgeDays = d.Retention.MaxAgeDays
	}
	if c.Retention.MaxEntries <= 0 {
		c.Retention.MaxEntries = d.Retention.MaxEntries
	}
	if c.Retention.MaxRecent <= 0 {
		c.Retention.MaxRecent = d.Retention.MaxRecent
	}
	if c.Observer.PollIntervalSecs <= 0 {
		c.Observer.PollIntervalSecs = d.Observer.PollIntervalSecs
	}
	if c.Logs.Level == "" {
		c.Logs.Level = d.Logs.Level
	}
	if c.Logs.Format == "" {
		c.Logs.Format = d.Logs.Format
	}
	if c.Logs.MaxSizeMB <= 0 {
		c.Logs.MaxSizeMB = d.Logs.MaxSizeMB
	}
	if c.Logs.MaxBackups <= 0 {
		c.Logs.MaxBackups = d.Logs.MaxBackups
	}
	if c.Logs.MaxAgeDays <= 0 {
		c.Logs.MaxAgeDays = d.Logs.MaxAgeDays
	}
}

// MaxAge returns the retention age threshold as a duration.
func (r RetentionSettings) MaxAge() time.Duration {
	return time.Duration(r.MaxAgeDays) * 24 * time.Hour
}

// PollInterval returns the observer fallback period as a duration.
func (o ObserverSettings) PollInterval() time.Duration {
	return time.Duration(o.PollIntervalSecs) * time.Second
}

// BaseDir returns the sessiontop state directory: $SESSIONTOP_DIR when
// set, else ~/.sessiontop, falling back to the system temp directory when
// the home directory cannot be resolved.
func BaseDir() string {
	if dir := os.Getenv(EnvBaseDir); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".sessiontop")
	}
	return filepath.Join(home, ".sessiontop")
}

// SessionsDir returns the active session record directory.
func SessionsDir() string {
	return filepath.Join(BaseDir(), "sessions")
}

// ArchiveDir returns the ended-session archive directory.
func ArchiveDir() string {
	return filepath.Join(BaseDir(), "archive")
}

// LogsDir returns the per-session hook log directory.
func LogsDir() string {
	return filepath.Join(BaseDir(), "logs")
}

// Path returns the config file location inside the state directory.
func Path() string {
	return filepath.Join(BaseDir(), FileName)
}

// Save writes the config file, creating the base directory if needed.
// Used by `sessiontop print-config --write` to seed an editable file.
func Save(cfg Config) error {
	if err := os.MkdirAll(BaseDir(), 0o755); err != nil {
		return err
	}
	f, err := os.Create(Path())
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}

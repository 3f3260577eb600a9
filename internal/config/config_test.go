package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 30, cfg.Retention.MaxAgeDays)
	assert.Equal(t, 50, cfg.Retention.MaxEntries)
	assert.Equal(t, 10, cfg.Retention.MaxRecent)
	assert.Equal(t, 30*24*time.Hour, cfg.Retention.MaxAge())
	assert.Equal(t, 2*time.Second, cfg.Observer.PollInterval())
	assert.Equal(t, "info", cfg.Logs.Level)
	assert.Equal(t, "json", cfg.Logs.Format)
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	t.Setenv(EnvBaseDir, t.TempDir())
	cfg := Load()
	assert.Equal(t, Default(), cfg)
}

func TestLoadPartialFileFillsDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvBaseDir, dir)

	doc := `
[retention]
max_age_days = 7

[logs]
level = "debug"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(doc), 0o644))

	cfg := Load()
	assert.Equal(t, 7, cfg.Retention.MaxAgeDays)
	assert.Equal(t, 50, cfg.Retention.MaxEntries, "unset field takes the default")
	assert.Equal(t, "debug", cfg.Logs.Level)
	assert.Equal(t, "json", cfg.Logs.Format)
	assert.Equal(t, 2, cfg.Observer.PollIntervalSecs)
}

func TestLoadMalformedFileYieldsDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvBaseDir, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("not [valid toml"), 0o644))
	assert.Equal(t, Default(), Load())
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvBaseDir, dir)

	cfg := Default()
	cfg.Retention.MaxEntries = 25
	cfg.Logs.Format = "text"
	require.NoError(t, Save(cfg))
	require.FileExists(t, Path())

	assert.Equal(t, cfg, Load())
}

func TestBaseDirEnvOverride(t *testing.T) {
	t.Setenv(EnvBaseDir, "/tmp/sessiontop-test")
	assert.Equal(t, "/tmp/sessiontop-test", BaseDir())
	assert.Equal(t, filepath.Join("/tmp/sessiontop-test", "sessions"), SessionsDir())
	assert.Equal(t, filepath.Join("/tmp/sessiontop-test", "archive"), ArchiveDir())
	assert.Equal(t, filepath.Join("/tmp/sessiontop-test", "logs"), LogsDir())
}

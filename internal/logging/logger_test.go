package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoggerBeforeInitDiscards(t *testing.T) {
	Shutdown()
	if Logger() == nil {
		t.Fatal("Logger() must never return nil")
	}
	// Must not panic with no Init.
	ForComponent(CompStore).Info("pre-init message")
}

func TestInitWritesDebugLog(t *testing.T) {
	dir := t.TempDir()
	Init(Config{LogDir: dir, Level: "debug", Format: "json"})
	defer Shutdown()

	ForComponent(CompReaper).Info("session_reaped", "pid", 42)

	data, err := os.ReadFile(filepath.Join(dir, "debug.log"))
	if err != nil {
		t.Fatalf("read debug log: %v", err)
	}
	for _, want := range []string{"session_reaped", `"component":"reaper"`, `"pid":42`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("log output missing %q: %s", want, data)
		}
	}
}

func TestInitWithoutDirDiscards(t *testing.T) {
	Init(Config{})
	defer Shutdown()
	// No destination configured; logging must be a no-op, not a crash.
	Logger().Info("discarded")
}

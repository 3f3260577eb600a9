package procinfo

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// psTimeout bounds every process-table subprocess call.
const psTimeout = 2 * time.Second

// OSInspector reads the real process table via ps(1) and the zero-signal
// probe. ps is used instead of /proc so the same code serves macOS and
// Linux; every query is bounded and failure-tolerant.
type OSInspector struct{}

// NewOSInspector returns an Inspector backed by the operating system.
func NewOSInspector() *OSInspector {
	return &OSInspector{}
}

func psField(pid int, field string) string {
	if pid <= 0 {
		return ""
	}
	ctx, cancel := context.WithTimeout(context.Background(), psTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, "ps", "-o", field+"=", "-p", strconv.Itoa(pid)).Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

// Parent returns the parent PID from the process table.
func (*OSInspector) Parent(pid int) int {
	ppid, err := strconv.Atoi(psField(pid, "ppid"))
	if err != nil || ppid < 0 {
		return 0
	}
	return ppid
}

// Command returns the process image basename.
func (*OSInspector) Command(pid int) string {
	comm := psField(pid, "comm")
	if comm == "" {
		return ""
	}
	// macOS ps reports the full executable path; normalize to the
	// basename and drop a login-shell dash prefix.
	return strings.TrimPrefix(filepath.Base(comm), "-")
}

// StartTime returns the process start time in seconds since epoch. The
// lstart format is locale-stable: "Mon Jan  2 15:04:05 2006".
func (*OSInspector) StartTime(pid int) float64 {
	raw := psField(pid, "lstart")
	if raw == "" {
		return 0
	}
	t, err := time.ParseInLocation("Mon Jan 2 15:04:05 2006", normalizeSpaces(raw), time.Local)
	if err != nil {
		return 0
	}
	return float64(t.Unix())
}

// Alive probes pid with a zero signal. Success means alive; EPERM means a
// live process in another permission context, which still counts as alive.
// Anything else, notably ESRCH, means the process is gone.
func (*OSInspector) Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, 0)
	if err == nil {
		return true
	}
	return errors.Is(err, syscall.EPERM)
}

// TTY returns the controlling terminal path, or "" when the process has
// none (ps prints "?" or "??" for detached processes).
func (*OSInspector) TTY(pid int) string {
	tty := psField(pid, "tty")
	if tty == "" || strings.HasPrefix(tty, "?") || tty == "-" {
		return ""
	}
	if !strings.HasPrefix(tty, "/dev/") {
		tty = "/dev/" + tty
	}
	return tty
}

// Self returns this process's PID and parent PID.
func Self() (pid, ppid int) {
	return os.Getpid(), os.Getppid()
}

func normalizeSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

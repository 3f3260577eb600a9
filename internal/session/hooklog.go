package session

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// hookLogTimeFormat matches the diagnostic line format consumed by
// humans tailing a session's log.
const hookLogTimeFormat = "2006-01-02T15:04:05.000Z"

// HookLog is the per-session diagnostic log surface: one append-only file
// per session identifier plus a shared error log for failures that happen
// before a session identifier is known. It is never authoritative state,
// so every write failure is silently dropped.
type HookLog struct {
	dir string
}

// NewHookLog returns a hook log rooted at dir.
func NewHookLog(dir string) *HookLog {
	return &HookLog{dir: dir}
}

// Label renders the "<project>:<short-id>" tag used in log lines.
func Label(projectPath, sessionID string) string {
	return fmt.Sprintf("%s:%s", ExtractProjectName(projectPath), ShortID(sessionID))
}

func (l *HookLog) path(sessionID string) string {
	return filepath.Join(l.dir, SanitizeSessionID(sessionID)+".log")
}

// Append records one processed event:
// <timestamp> HOOK <event> <project>:<short-id> <old> -> <new> [note]
func (l *HookLog) Append(sessionID, event, label string, oldStatus, newStatus Status, note string) {
	extra := ""
	if note != "" {
		extra = fmt.Sprintf(" (%s)", note)
	}
	line := fmt.Sprintf("%s HOOK %s %s %s -> %s%s\n",
		time.Now().UTC().Format(hookLogTimeFormat),
		event, label, oldStatus, newStatus, extra)
	l.appendLine(l.path(sessionID), line)
}

// Error records a failure that occurred before the session identifier was
// known, in the shared _errors.log.
func (l *HookLog) Error(msg string) {
	line := fmt.Sprintf("%s ERROR %s\n", time.Now().UTC().Format(hookLogTimeFormat), msg)
	l.appendLine(filepath.Join(l.dir, "_errors.log"), line)
}

func (l *HookLog) appendLine(path, line string) {
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = f.WriteString(line)
}

// Remove deletes a session's log file. Called alongside session record
// removal so logs do not outlive their sessions.
func (l *HookLog) Remove(sessionID string) {
	_ = os.Remove(l.path(sessionID))
}

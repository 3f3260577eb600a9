// Package procinfo resolves which process owns a lifecycle event and
// fingerprints processes against PID reuse. Every lookup degrades to a
// zero value on failure; nothing here may abort the caller.
package procinfo

import "math"

// Inspector is the narrow capability the engine needs from the OS process
// table. The liveness and ownership logic is written against this
// interface so tests can run on a fake table of PIDs.
type Inspector interface {
	// Parent returns the parent PID, or 0 when unknown.
	Parent(pid int) int
	// Command returns the process image name (basename, no path), or ""
	// when unknown.
	Command(pid int) string
	// StartTime returns the process start time in seconds since epoch,
	// or 0 when unknown.
	StartTime(pid int) float64
	// Alive reports whether the PID refers to a running process. A
	// process we lack permission to signal still counts as alive.
	Alive(pid int) bool
	// TTY returns the controlling terminal path, or "" when the process
	// has none.
	TTY(pid int) string
}

// shells are wrapper processes to skip when resolving the owning agent:
// hooks are frequently invoked through a shell, and the shell's PID would
// otherwise masquerade as the agent's.
var shells = map[string]bool{
	"sh":   true,
	"bash": true,
	"zsh":  true,
	"fish": true,
	"dash": true,
}

const (
	// maxShellHops bounds the parent walk when skipping shell wrappers.
	maxShellHops = 4
	// maxTTYHops bounds the parent walk when looking for a controlling
	// terminal.
	maxTTYHops = 6
	// startTimeTolerance absorbs rounding between two observations of
	// the same process's start time, in seconds.
	startTimeTolerance = 1.0
)

// ResolveOwner walks up from pid past known shell wrappers and returns the
// first non-shell ancestor, or the last PID seen when the walk exhausts.
// Returns pid unchanged when it is not a shell.
func ResolveOwner(ins Inspector, pid int) int {
	current := pid
	for hop := 0; hop < maxShellHops; hop++ {
		if current <= 0 || !shells[ins.Command(current)] {
			break
		}
		parent := ins.Parent(current)
		if parent <= 0 {
			break
		}
		current = parent
	}
	if current <= 0 {
		return pid
	}
	return current
}

// FindTTY walks up the parent chain from pid looking for the first
// ancestor that reports a controlling terminal. The event-source process
// itself typically has none because its input is a piped document.
func FindTTY(ins Inspector, pid int) string {
	current := pid
	for hop := 0; hop < maxTTYHops && current > 0; hop++ {
		if tty := ins.TTY(current); tty != "" {
			return tty
		}
		current = ins.Parent(current)
	}
	return ""
}

// SameProcess reports whether two start-time observations belong to the
// same process, within tolerance. A zero observation never matches: an
// unknown start time must not be mistaken for a fingerprint match.
func SameProcess(t1, t2 float64) bool {
	if t1 == 0 || t2 == 0 {
		return false
	}
	return math.Abs(t1-t2) <= startTimeTolerance
}

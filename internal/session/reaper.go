package session

import (
	"log/slog"
	"time"

	"github.com/sessiontop/sessiontop/internal/logging"
	"github.com/sessiontop/sessiontop/internal/procinfo"
)

var reaperLog = logging.ForComponent(logging.CompReaper)

// noPIDMaxAge is the age-based fallback for legacy records written before
// PID keying existed: with no process to probe, only staleness can retire
// them.
const noPIDMaxAge = 24 * time.Hour

// Reaper detects and removes session records whose owning process is gone
// or was replaced. This is the only path by which session end is observed:
// the owning process can be killed ungracefully, so no terminating event
// can be relied on to ever arrive.
type Reaper struct {
	store   *Store
	ins     procinfo.Inspector
	hookLog *HookLog
	archive *Archive
}

// NewReaper wires a reaper over a store and a process inspector. hookLog
// and archive may be nil; a nil archive skips archival and a nil hookLog
// skips log cleanup.
func NewReaper(store *Store, ins procinfo.Inspector, hookLog *HookLog, archive *Archive) *Reaper {
	return &Reaper{store: store, ins: ins, hookLog: hookLog, archive: archive}
}

// IsDead classifies a record. A PID-keyed record is dead when its PID no
// longer resolves to a live process, or when the PID is alive but the
// recorded start-time fingerprint no longer matches (PID reuse). A legacy
// record with no PID is dead only once its last activity exceeds the age
// fallback.
func (r *Reaper) IsDead(sess *Session, now time.Time) bool {
	if sess.PID <= 0 {
		return now.Sub(sess.LastActivity) > noPIDMaxAge
	}
	if !r.ins.Alive(sess.PID) {
		return true
	}
	if sess.PIDStartTime != 0 {
		if current := r.ins.StartTime(sess.PID); current != 0 && !procinfo.SameProcess(sess.PIDStartTime, current) {
			return true
		}
	}
	return false
}

// LiveSessions lists the store, reaps dead records, and returns the
// survivors. Dead records are archived (when an archive is wired), their
// files deleted, and their hook logs removed.
func (r *Reaper) LiveSessions() ([]*Session, error) {
	sessions, err := r.store.List()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	live := sessions[:0]
	for _, sess := range sessions {
		if !r.IsDead(sess, now) {
			live = append(live, sess)
			continue
		}
		r.reap(sess)
	}
	return live, nil
}

func (r *Reaper) reap(sess *Session) {
	if r.archive != nil {
		if err := r.archive.Write(sess); err != nil {
			reaperLog.Warn("archive_failed",
				slog.String("session", ShortID(sess.SessionID)),
				slog.String("error", err.Error()))
		}
	}
	if err := r.store.RemoveRecord(sess); err != nil {
		reaperLog.Warn("remove_failed",
			slog.String("session", ShortID(sess.SessionID)),
			slog.String("error", err.Error()))
		return
	}
	if r.hookLog != nil {
		r.hookLog.Remove(sess.SessionID)
	}
	reaperLog.Info("session_reaped",
		slog.String("session", ShortID(sess.SessionID)),
		slog.Int("pid", sess.PID),
		slog.String("project", sess.ProjectName))
}

// CleanupProject removes dead records sharing the given project path,
// sparing currentSessionID. Run at session start so stale siblings do not
// accumulate when many sessions churn in one project directory.
func (r *Reaper) CleanupProject(projectPath, currentSessionID string) {
	sessions, err := r.store.List()
	if err != nil {
		return
	}
	now := time.Now().UTC()
	for _, sess := range sessions {
		if sess.ProjectPath != projectPath || sess.SessionID == currentSessionID {
			continue
		}
		if r.IsDead(sess, now) {
			r.reap(sess)
		}
	}
}

// CleanupPID removes records claiming the given PID under a different
// session identifier. Run at session start to clear records left by an
// unrelated process that previously held the PID.
func (r *Reaper) CleanupPID(pid int, currentSessionID string) {
	sessions, err := r.store.List()
	if err != nil {
		return
	}
	for _, sess := range sessions {
		if sess.PID == pid && sess.SessionID != currentSessionID {
			r.reap(sess)
		}
	}
}

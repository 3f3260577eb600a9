package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/sessiontop/sessiontop/internal/config"
	"github.com/sessiontop/sessiontop/internal/git"
	"github.com/sessiontop/sessiontop/internal/logging"
	"github.com/sessiontop/sessiontop/internal/procinfo"
	"github.com/sessiontop/sessiontop/internal/session"
)

var eventLog = logging.ForComponent(logging.CompHook)

// sourceTag marks records produced by this integration. The store admits
// multiple event sources; readers can tell them apart by this tag.
const sourceTag = "claude"

// hookInput is the event document the agent pipes to the hook. Unknown
// fields are ignored; every field beyond the first three is optional.
type hookInput struct {
	SessionID        string          `json:"session_id"`
	CWD              string          `json:"cwd"`
	HookEventName    string          `json:"hook_event_name"`
	Prompt           string          `json:"prompt,omitempty"`
	ToolName         string          `json:"tool_name,omitempty"`
	ToolInput        json.RawMessage `json:"tool_input,omitempty"`
	NotificationType string          `json:"notification_type,omitempty"`
	Message          string          `json:"message,omitempty"`
	Title            string          `json:"title,omitempty"`
	Trigger          string          `json:"trigger,omitempty"`
}

func decodeHookInput(data []byte) (*hookInput, error) {
	var in hookInput
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("parse event document: %w", err)
	}
	if in.SessionID == "" {
		return nil, fmt.Errorf("event document missing session_id")
	}
	return &in, nil
}

// toolInputStrings decodes the tool argument map, keeping string-valued
// entries only. Non-string values are dropped, not rejected: the detail
// extraction only ever wants a string field.
func toolInputStrings(raw json.RawMessage) map[string]string {
	if len(raw) == 0 {
		return nil
	}
	var generic map[string]json.RawMessage
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil
	}
	out := make(map[string]string, len(generic))
	for k, v := range generic {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			out[k] = s
		}
	}
	return out
}

// handler owns the storage wiring for one hook invocation.
type handler struct {
	store   *session.Store
	archive *session.Archive
	reaper  *session.Reaper
	hookLog *session.HookLog
	ins     procinfo.Inspector
}

func newHandler(hookLog *session.HookLog) *handler {
	store := session.NewStore(config.SessionsDir())
	archive := session.NewArchive(config.ArchiveDir())
	ins := procinfo.NewOSInspector()
	return &handler{
		store:   store,
		archive: archive,
		reaper:  session.NewReaper(store, ins, hookLog, archive),
		hookLog: hookLog,
		ins:     ins,
	}
}

// handle applies one lifecycle event to the owning session's record.
func (h *handler) handle(hookName string, in *hookInput) error {
	kind := session.ClassifyEvent(hookName, in.NotificationType)

	// SessionEnd never mutates state: liveness detection is the sole
	// authority on session end, because an ungracefully killed agent
	// fires no hooks at all.
	if kind == session.EventSessionEnd {
		return nil
	}

	safeID := session.SanitizeSessionID(in.SessionID)
	ownerPID := h.resolveOwner()
	fingerprint := h.ins.StartTime(ownerPID)

	sess, err := h.loadOrCreate(safeID, ownerPID, fingerprint, in)
	if err != nil {
		return err
	}

	oldStatus := sess.Status
	preserved := sess.Apply(session.Event{
		Kind:             kind,
		Prompt:           in.Prompt,
		ToolName:         in.ToolName,
		ToolInput:        toolInputStrings(in.ToolInput),
		Message:          in.Message,
		Title:            in.Title,
		NotificationType: in.NotificationType,
	})

	// Context refreshed on every event: the branch can change mid
	// session and the terminal descriptor follows wherever the agent is
	// now hosted. Empty lookups never clobber accumulated context.
	if branch := git.CurrentBranch(in.CWD); branch != "" {
		sess.Branch = branch
	}
	if term := h.captureTerminal(); term.Program != "" {
		sess.Terminal = term
	}
	sess.Source = sourceTag

	if kind == session.EventSessionStart {
		sess.PID = ownerPID
		sess.PIDStartTime = fingerprint
		sess.Workspace = in.CWD
		// Scoped cleanup: retire dead siblings in this project and any
		// record another session left behind under our PID.
		h.reaper.CleanupProject(in.CWD, safeID)
		if ownerPID > 0 {
			h.reaper.CleanupPID(ownerPID, safeID)
		}
	}

	if err := h.store.Save(sess); err != nil {
		return err
	}

	note := ""
	if preserved {
		note = "preserved"
	}
	h.hookLog.Append(safeID, hookName, session.Label(in.CWD, safeID), oldStatus, sess.Status, note)
	eventLog.Debug("event_applied",
		slog.String("session", session.ShortID(safeID)),
		slog.String("event", hookName),
		slog.String("old_status", string(oldStatus)),
		slog.String("status", string(sess.Status)))
	return nil
}

// loadOrCreate addresses the record by owning PID. An existing record with
// a different session identifier but a matching fingerprint is the same
// process resumed under a new identifier: it is renamed in place with all
// accumulated state preserved. A fingerprint mismatch means PID reuse and
// the stale record is discarded.
func (h *handler) loadOrCreate(safeID string, ownerPID int, fingerprint float64, in *hookInput) (*session.Session, error) {
	if ownerPID > 0 {
		sess, err := h.store.Load(ownerPID)
		if err == nil && sess != nil {
			if sess.SessionID == safeID {
				return sess, nil
			}
			if procinfo.SameProcess(sess.PIDStartTime, fingerprint) {
				h.hookLog.Remove(sess.SessionID)
				sess.SessionID = safeID
				return sess, nil
			}
			// PID reused by an unrelated process; the old record is
			// stale and must not leak state into the new session. Its
			// hook log goes with it, as on every record-removal path.
			h.hookLog.Remove(sess.SessionID)
			_ = h.store.Remove(ownerPID)
		}
	}

	sess := session.New(safeID, in.CWD, git.CurrentBranch(in.CWD), h.captureTerminal())
	sess.PID = ownerPID
	sess.PIDStartTime = fingerprint
	sess.Source = sourceTag
	return sess, nil
}

// resolveOwner finds the agent process that invoked this hook: the parent
// PID, walked up past any shell wrapper the hook command ran through.
func (h *handler) resolveOwner() int {
	_, ppid := procinfo.Self()
	return procinfo.ResolveOwner(h.ins, ppid)
}

// captureTerminal collects the opaque terminal descriptor: program and
// handle from the environment, controlling terminal from the nearest
// ancestor that has one (the hook itself reads a pipe, not a tty).
func (h *handler) captureTerminal() session.Terminal {
	handle := os.Getenv("ITERM_SESSION_ID")
	if handle == "" {
		handle = os.Getenv("KITTY_WINDOW_ID")
	}
	tty := os.Getenv("TTY")
	if tty == "" {
		pid, _ := procinfo.Self()
		tty = procinfo.FindTTY(h.ins, pid)
	}
	return session.Terminal{
		Program:       os.Getenv("TERM_PROGRAM"),
		SessionHandle: handle,
		TTY:           tty,
	}
}

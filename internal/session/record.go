package session

import "time"

// Terminal is an opaque descriptor of where a session is hosted. The
// engine records it verbatim and never interprets it.
type Terminal struct {
	Program       string `json:"program"`
	SessionHandle string `json:"session_id,omitempty"`
	TTY           string `json:"tty,omitempty"`
}

// Session is the persisted record of one coding-agent session. Every
// field added after the first release is optional, so records written
// by any older version still decode with defaults.
type Session struct {
	SessionID    string    `json:"session_id"`
	ProjectPath  string    `json:"project_path"`
	ProjectName  string    `json:"project_name"`
	Branch       string    `json:"branch"`
	Status       Status    `json:"status"`
	LastActivity time.Time `json:"last_activity"`
	StartedAt    time.Time `json:"started_at"`
	Terminal     Terminal  `json:"terminal"`

	// PID is the agent process that owns this record; PIDStartTime is
	// its start-time fingerprint, which tells a reused PID apart from
	// the original owner. Zero on legacy records.
	PID          int     `json:"pid,omitempty"`
	PIDStartTime float64 `json:"pid_start_time,omitempty"`

	LastPrompt          string    `json:"last_prompt,omitempty"`
	LastTool            string    `json:"last_tool,omitempty"`
	LastToolDetail      string    `json:"last_tool_detail,omitempty"`
	NotificationMessage string    `json:"notification_message,omitempty"`
	SessionName         string    `json:"session_name,omitempty"`
	Workspace           string    `json:"workspace,omitempty"`
	EndedAt             time.Time `json:"ended_at,omitzero"`

	// ContextCompacted predates the compacting status and is kept for
	// decode compatibility only.
	ContextCompacted bool   `json:"context_compacted,omitempty"`
	Source           string `json:"source,omitempty"`
}

// New creates a fresh idle session record.
func New(sessionID, projectPath, branch string, terminal Terminal) *Session {
	now := time.Now().UTC()
	return &Session{
		SessionID:    sessionID,
		ProjectPath:  projectPath,
		ProjectName:  ExtractProjectName(projectPath),
		Branch:       branch,
		Status:       StatusIdle,
		LastActivity: now,
		StartedAt:    now,
		Terminal:     terminal,
	}
}

// Reset forces the session back to idle and drops transient context.
// Used by the operator when a record is stuck.
func (s *Session) Reset() {
	s.Status = StatusIdle
	s.LastTool = ""
	s.LastToolDetail = ""
	s.NotificationMessage = ""
	s.LastActivity = time.Now().UTC()
}

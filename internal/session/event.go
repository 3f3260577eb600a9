package session

import (
	"fmt"
	"time"
)

// EventKind is the closed set of classified lifecycle events. Raw hook
// names plus an optional notification sub-type map into exactly one kind.
type EventKind int

const (
	EventUnknown EventKind = iota
	EventSessionStart
	EventUserPromptSubmit
	EventPreToolUse
	EventPostToolUse
	EventStop
	EventPermissionRequest
	EventNotificationIdle
	EventNotificationPermission
	EventNotificationOther
	EventPreCompact
	EventSessionEnd
)

// AllEventKinds lists every classified kind, for exhaustive table checks.
var AllEventKinds = []EventKind{
	EventUnknown,
	EventSessionStart,
	EventUserPromptSubmit,
	EventPreToolUse,
	EventPostToolUse,
	EventStop,
	EventPermissionRequest,
	EventNotificationIdle,
	EventNotificationPermission,
	EventNotificationOther,
	EventPreCompact,
	EventSessionEnd,
}

func (k EventKind) String() string {
	switch k {
	case EventSessionStart:
		return "SessionStart"
	case EventUserPromptSubmit:
		return "UserPromptSubmit"
	case EventPreToolUse:
		return "PreToolUse"
	case EventPostToolUse:
		return "PostToolUse"
	case EventStop:
		return "Stop"
	case EventPermissionRequest:
		return "PermissionRequest"
	case EventNotificationIdle:
		return "Notification(idle)"
	case EventNotificationPermission:
		return "Notification(permission)"
	case EventNotificationOther:
		return "Notification"
	case EventPreCompact:
		return "PreCompact"
	case EventSessionEnd:
		return "SessionEnd"
	default:
		return "Unknown"
	}
}

// ClassifyEvent maps a raw hook event name plus an optional notification
// sub-type into an EventKind. Unrecognized names classify as EventUnknown,
// which never changes status.
func ClassifyEvent(hookName, notificationType string) EventKind {
	switch hookName {
	case "SessionStart":
		return EventSessionStart
	case "UserPromptSubmit":
		return EventUserPromptSubmit
	case "PreToolUse":
		return EventPreToolUse
	case "PostToolUse":
		return EventPostToolUse
	case "Stop":
		return EventStop
	case "PermissionRequest":
		return EventPermissionRequest
	case "PreCompact":
		return EventPreCompact
	case "SessionEnd":
		return EventSessionEnd
	case "Notification":
		switch notificationType {
		case "idle_prompt", "idle":
			return EventNotificationIdle
		case "permission_prompt", "permission", "elicitation_dialog":
			return EventNotificationPermission
		default:
			return EventNotificationOther
		}
	default:
		return EventUnknown
	}
}

// MaxToolDetailLen caps the extracted tool-argument summary and
// MaxPromptLen caps the recorded prompt text.
const (
	MaxToolDetailLen = 120
	MaxPromptLen     = 100
)

// toolDetailField maps a tool name to the tool_input field that best
// summarizes the invocation. Tools not listed here yield no detail.
var toolDetailField = map[string]string{
	"Bash":      "command",
	"Edit":      "file_path",
	"Write":     "file_path",
	"Read":      "file_path",
	"Grep":      "pattern",
	"Glob":      "pattern",
	"WebFetch":  "url",
	"WebSearch": "query",
	"Task":      "description",
}

// ExtractToolDetail pulls the most relevant argument out of a tool's input
// map and truncates it. The map carries string values only; the event
// decoder drops anything else.
func ExtractToolDetail(toolName string, toolInput map[string]string) string {
	field, ok := toolDetailField[toolName]
	if !ok {
		return ""
	}
	value := toolInput[field]
	if value == "" {
		return ""
	}
	return truncateRunes(value, MaxToolDetailLen)
}

// Event carries a classified lifecycle event plus the context fields the
// side-effect pass consumes.
type Event struct {
	Kind             EventKind
	Prompt           string
	ToolName         string
	ToolInput        map[string]string
	Message          string
	Title            string
	NotificationType string
}

// Apply applies an event to a session: the transition table decides the
// status, then event-kind side effects update the context fields. Returns
// true when the status was preserved rather than changed.
func (s *Session) Apply(ev Event) (preserved bool) {
	next, changed := Transition(s.Status, ev.Kind)
	if changed {
		s.Status = next
	}
	s.LastActivity = time.Now().UTC()

	switch ev.Kind {
	case EventSessionStart:
		s.LastTool = ""
		s.LastToolDetail = ""
		s.NotificationMessage = ""

	case EventUserPromptSubmit:
		s.LastTool = ""
		s.LastToolDetail = ""
		s.NotificationMessage = ""
		if ev.Prompt != "" {
			s.LastPrompt = TruncatePrompt(ev.Prompt, MaxPromptLen)
		}

	case EventPreToolUse:
		if ev.ToolName != "" {
			s.LastTool = ev.ToolName
			s.LastToolDetail = ExtractToolDetail(ev.ToolName, ev.ToolInput)
		}

	case EventPermissionRequest:
		// Tool context is deliberately kept: once the permission resolves
		// into working, the card can still show what is running.
		s.NotificationMessage = permissionMessage(ev)

	case EventNotificationIdle, EventNotificationOther:
		s.LastTool = ""
		s.LastToolDetail = ""
		if ev.Message != "" {
			s.NotificationMessage = ev.Message
		}

	case EventNotificationPermission:
		// Redundant async echo of PermissionRequest; must not clobber a
		// status or tool context that already moved on.
		if ev.Message != "" && s.NotificationMessage == "" {
			s.NotificationMessage = ev.Message
		}

	case EventStop:
		s.LastTool = ""
		s.LastToolDetail = ""
		s.NotificationMessage = ""

	case EventPostToolUse, EventPreCompact, EventSessionEnd, EventUnknown:
	}

	return !changed
}

func permissionMessage(ev Event) string {
	if ev.Title != "" {
		return ev.Title
	}
	if ev.ToolName == "" {
		return ev.Message
	}
	if detail := ExtractToolDetail(ev.ToolName, ev.ToolInput); detail != "" {
		return fmt.Sprintf("%s: %s", ev.ToolName, detail)
	}
	return ev.ToolName
}

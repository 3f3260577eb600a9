package session

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// ExtractProjectName returns the last path component of a project path, or
// "unknown" when there is none.
func ExtractProjectName(path string) string {
	base := filepath.Base(filepath.Clean(path))
	if base == "." || base == string(filepath.Separator) || base == "" {
		return "unknown"
	}
	return base
}

// SanitizeSessionID strips characters that are unsafe in filenames from an
// externally supplied session identifier.
func SanitizeSessionID(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '-'
		}
	}, id)
}

// TruncatePrompt normalizes whitespace to single spaces and truncates to
// maxLen runes with a "..." suffix.
func TruncatePrompt(prompt string, maxLen int) string {
	normalized := strings.Join(strings.Fields(prompt), " ")
	return truncateRunes(normalized, maxLen)
}

func truncateRunes(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return "..."
	}
	return string(runes[:maxLen-3]) + "..."
}

// ShortID abbreviates a session identifier for labels and log lines.
func ShortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

// FormatRelativeTime renders a timestamp as "12s ago", "5m ago", "2h ago"
// or "3d ago". Future timestamps render as "just now".
func FormatRelativeTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < 0:
		return "just now"
	case d >= 24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours())/24)
	case d >= time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d >= time.Minute:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	default:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	}
}

// FormatToolDisplay renders a tool name plus optional detail as a short
// human-readable activity line, truncated to maxLen runes.
func FormatToolDisplay(tool, detail string, maxLen int) string {
	var out string
	switch {
	case detail == "":
		out = tool + "..."
	case tool == "Bash":
		out = "Running: " + detail
	case tool == "Edit" || tool == "Write" || tool == "Read":
		verb := map[string]string{"Edit": "Editing", "Write": "Writing", "Read": "Reading"}[tool]
		out = verb + " " + filepath.Base(detail)
	case tool == "Grep" || tool == "WebSearch":
		out = "Searching: " + detail
	case tool == "Glob":
		out = "Finding: " + detail
	case tool == "WebFetch":
		out = "Fetching: " + detail
	case tool == "Task":
		out = "Task: " + detail
	default:
		out = tool + ": " + detail
	}
	return truncateRunes(out, maxLen)
}

// Package session implements the session state engine: the status
// transition automaton over classified lifecycle events, the PID-keyed
// atomic record store shared by many uncoordinated writers and one
// reader, the liveness reaper, and the bounded archive of ended
// sessions.
package session

import "encoding/json"

// Status is the lifecycle state a session is currently in. It is a
// closed set with one designated fallback: any status string this
// version does not recognize decodes as StatusNeedsAttention, so
// records written by newer versions keep decoding.
type Status string

const (
	StatusIdle              Status = "idle"
	StatusWorking           Status = "working"
	StatusWaitingPermission Status = "waiting_permission"
	StatusWaitingInput      Status = "waiting_input"
	StatusCompacting        Status = "compacting"
	StatusNeedsAttention    Status = "needs_attention"
)

var knownStatuses = map[Status]bool{
	StatusIdle:              true,
	StatusWorking:           true,
	StatusWaitingPermission: true,
	StatusWaitingInput:      true,
	StatusCompacting:        true,
	StatusNeedsAttention:    true,
}

// UnmarshalJSON decodes a status string, mapping anything unrecognized
// to StatusNeedsAttention instead of failing.
func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if knownStatuses[Status(raw)] {
		*s = Status(raw)
	} else {
		*s = StatusNeedsAttention
	}
	return nil
}

// NeedsAttention reports whether the session is blocked on the user.
func (s Status) NeedsAttention() bool {
	return s == StatusWaitingPermission || s == StatusWaitingInput || s == StatusNeedsAttention
}

// SortPriority orders statuses for display: states blocked on the user
// first, then active work, idle last.
func (s Status) SortPriority() int {
	switch s {
	case StatusWaitingPermission:
		return 0
	case StatusWaitingInput:
		return 1
	case StatusNeedsAttention:
		return 2
	case StatusWorking:
		return 3
	case StatusCompacting:
		return 4
	default:
		return 5
	}
}

// Indicator returns a one-glyph marker for list output.
func (s Status) Indicator() string {
	switch s {
	case StatusWorking:
		return "●"
	case StatusCompacting:
		return "◆"
	case StatusWaitingPermission:
		return "⚠"
	case StatusWaitingInput:
		return "?"
	case StatusNeedsAttention:
		return "!"
	default:
		return "○"
	}
}

// GroupByStatus buckets sessions by status, preserving input order
// within each bucket.
func GroupByStatus(sessions []*Session) map[Status][]*Session {
	groups := make(map[Status][]*Session)
	for _, sess := range sessions {
		groups[sess.Status] = append(groups[sess.Status], sess)
	}
	return groups
}

package session

import (
	"fmt"
	"sort"
	"strings"
)

// Transition is the total status transition function. Given the current
// status and a classified event it returns the next status and whether the
// status actually changes; (current, false) means "preserve". Every
// (status, kind) pair has a defined answer.
//
// The table is deliberately insensitive to the current status for the
// forcing events: SessionStart and Stop are explicit reset points to idle,
// and the activity events force their target state no matter what came
// before, so an out-of-order or replayed event converges rather than
// wedging a session.
func Transition(current Status, kind EventKind) (Status, bool) {
	switch kind {
	case EventSessionStart, EventStop:
		return change(current, StatusIdle)
	case EventUserPromptSubmit, EventPreToolUse, EventPostToolUse:
		return change(current, StatusWorking)
	case EventNotificationIdle:
		return change(current, StatusWaitingInput)
	case EventPermissionRequest:
		return change(current, StatusWaitingPermission)
	case EventPreCompact:
		return change(current, StatusCompacting)
	case EventNotificationPermission:
		// Redundant async echo of a PermissionRequest. By the time it
		// arrives the status may already have moved to working via
		// PreToolUse; it must never race that transition back.
		return current, false
	case EventNotificationOther, EventSessionEnd, EventUnknown:
		return current, false
	default:
		return current, false
	}
}

func change(current, next Status) (Status, bool) {
	if current == next {
		return current, false
	}
	return next, true
}

// AllStatuses lists every status the transition table is defined over.
var AllStatuses = []Status{
	StatusIdle,
	StatusWorking,
	StatusWaitingPermission,
	StatusWaitingInput,
	StatusCompacting,
	StatusNeedsAttention,
}

// DotDiagram renders the transition table as a Graphviz digraph, one edge
// per (event, target) pair. Self-preserving events are omitted.
func DotDiagram() string {
	type edge struct{ from, to, label string }
	var edges []edge
	for _, from := range AllStatuses {
		for _, kind := range AllEventKinds {
			if to, changed := Transition(from, kind); changed {
				edges = append(edges, edge{string(from), string(to), kind.String()})
			}
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].from != edges[j].from {
			return edges[i].from < edges[j].from
		}
		if edges[i].to != edges[j].to {
			return edges[i].to < edges[j].to
		}
		return edges[i].label < edges[j].label
	})

	var b strings.Builder
	b.WriteString("digraph session_status {\n")
	b.WriteString("  rankdir=LR;\n")
	for _, s := range AllStatuses {
		fmt.Fprintf(&b, "  %q;\n", string(s))
	}
	for _, e := range edges {
		fmt.Fprintf(&b, "  %q -> %q [label=%q];\n", e.from, e.to, e.label)
	}
	b.WriteString("}\n")
	return b.String()
}

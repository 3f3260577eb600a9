package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/sessiontop/sessiontop/internal/config"
	"github.com/sessiontop/sessiontop/internal/session"
)

func handleList(cfg config.Config, args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "emit sessions as a JSON array")
	fs.Parse(args)

	_, reaper, _ := wire()
	sessions, err := reaper.LiveSessions()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	session.SortForDisplay(sessions)

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(sessions); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if len(sessions) == 0 {
		fmt.Println("No live sessions.")
		return
	}
	printSessionTable(sessions)
}

// statusSummary renders the grouped status counts, e.g.
// "2 working, 1 waiting_permission".
func statusSummary(sessions []*session.Session) string {
	groups := session.GroupByStatus(sessions)
	var parts []string
	for _, st := range session.AllStatuses {
		if n := len(groups[st]); n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, st))
		}
	}
	return strings.Join(parts, ", ")
}

func printSessionTable(sessions []*session.Session) {
	fmt.Printf("%d session(s): %s\n\n", len(sessions), statusSummary(sessions))

	fmt.Printf("%-2s %-20s %-18s %-15s %s\n", "", "PROJECT", "STATUS", "BRANCH", "ACTIVITY")
	for _, s := range sessions {
		activity := session.FormatRelativeTime(s.LastActivity)
		var detail string
		if s.LastTool != "" {
			detail = session.FormatToolDisplay(s.LastTool, s.LastToolDetail, 60)
		}
		if s.Status.NeedsAttention() && s.NotificationMessage != "" {
			detail = s.NotificationMessage
		}
		if detail != "" {
			activity = activity + "  " + detail
		}
		fmt.Printf("%-2s %-20s %-18s %-15s %s\n",
			s.Status.Indicator(), truncateCol(s.ProjectName, 20),
			string(s.Status), truncateCol(s.Branch, 15), activity)
	}
}

func truncateCol(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}

func handleWatch(cfg config.Config, args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	interval := fs.Duration("interval", cfg.Observer.PollInterval(), "poll interval fallback")
	fs.Parse(args)

	store, reaper, _ := wire()
	obs := session.NewObserver(store, reaper, *interval)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	enc := json.NewEncoder(os.Stdout)
	err := obs.Run(ctx, func(sessions []*session.Session) {
		enc.Encode(sessions)
	})
	if err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func handleRecent(cfg config.Config, args []string) {
	fs := flag.NewFlagSet("recent", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "emit projects as a JSON array")
	fs.Parse(args)

	_, reaper, archive := wire()
	live, err := reaper.LiveSessions()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	active := make(map[string]bool, len(live))
	for _, s := range live {
		active[s.ProjectPath] = true
	}

	policy := session.RetentionPolicy{MaxAge: cfg.Retention.MaxAge(), MaxEntries: cfg.Retention.MaxEntries}
	if _, err := archive.Prune(policy); err != nil {
		fmt.Fprintf(os.Stderr, "Error pruning archive: %v\n", err)
		os.Exit(1)
	}

	entries, err := archive.List()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	recent := session.RecentProjects(entries, active, cfg.Retention.MaxRecent)

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(recent)
		return
	}
	if len(recent) == 0 {
		fmt.Println("No recent projects.")
		return
	}
	for _, p := range recent {
		name := p.ProjectName
		if p.Workspace != "" {
			name = p.Workspace + "/" + name
		}
		fmt.Printf("%-30s %2d session(s)  last %s\n",
			truncateCol(name, 30), p.Sessions, session.FormatRelativeTime(p.LastEndedAt))
	}
}

func handleCleanup(cfg config.Config) {
	store, reaper, archive := wire()
	before, err := store.List()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	live, err := reaper.LiveSessions()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	reaped := len(before) - len(live)

	policy := session.RetentionPolicy{MaxAge: cfg.Retention.MaxAge(), MaxEntries: cfg.Retention.MaxEntries}
	pruned, err := archive.Prune(policy)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error pruning archive: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Reaped %d dead session(s), pruned %d archive entrie(s), %d live.\n",
		reaped, pruned, len(live))
}

func handleReset(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: sessiontop reset <session-id-prefix>")
		os.Exit(1)
	}
	prefix := args[0]

	store, _, _ := wire()
	sessions, err := store.List()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	matches := matchPrefix(sessions, prefix)
	switch len(matches) {
	case 0:
		fmt.Fprintf(os.Stderr, "No session matches prefix %q\n", prefix)
		os.Exit(1)
	case 1:
	default:
		fmt.Fprintf(os.Stderr, "Prefix %q is ambiguous, matches:\n", prefix)
		for _, s := range matches {
			fmt.Fprintf(os.Stderr, "  %s  %s\n", session.ShortID(s.SessionID), s.ProjectName)
		}
		os.Exit(1)
	}

	sess := matches[0]
	sess.Reset()
	if err := store.Save(sess); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Reset %s (%s) to %s\n", session.ShortID(sess.SessionID), sess.ProjectName, sess.Status)
}

func matchPrefix(sessions []*session.Session, prefix string) []*session.Session {
	var matches []*session.Session
	for _, s := range sessions {
		if strings.HasPrefix(s.SessionID, prefix) {
			matches = append(matches, s)
		}
	}
	return matches
}

// handleCheck inspects the delivery chain: state directories, the hook
// binary, and how fresh the newest record is.
func handleCheck() {
	ok := true
	report := func(pass bool, format string, a ...any) {
		mark := "ok"
		if !pass {
			mark = "FAIL"
			ok = false
		}
		fmt.Printf("[%4s] %s\n", mark, fmt.Sprintf(format, a...))
	}

	base := config.BaseDir()
	if err := os.MkdirAll(config.SessionsDir(), 0o755); err != nil {
		report(false, "state directory %s: %v", base, err)
	} else {
		report(true, "state directory %s writable", base)
	}

	if path, err := exec.LookPath("sessiontop-hook"); err != nil {
		report(false, "sessiontop-hook not on PATH")
	} else {
		report(true, "hook binary at %s", path)
	}

	store, _, _ := wire()
	sessions, err := store.List()
	if err != nil {
		report(false, "session store: %v", err)
	} else {
		report(true, "%d session record(s) on disk", len(sessions))
		var newest time.Time
		for _, s := range sessions {
			if s.LastActivity.After(newest) {
				newest = s.LastActivity
			}
		}
		if !newest.IsZero() {
			report(true, "newest activity %s", session.FormatRelativeTime(newest))
		}
	}

	if !ok {
		os.Exit(1)
	}
}

func handlePrintConfig(cfg config.Config, args []string) {
	fs := flag.NewFlagSet("print-config", flag.ExitOnError)
	write := fs.Bool("write", false, "write the effective config to the config file")
	fs.Parse(args)

	if *write {
		if err := config.Save(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s\n", config.Path())
		return
	}
	if err := toml.NewEncoder(os.Stdout).Encode(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

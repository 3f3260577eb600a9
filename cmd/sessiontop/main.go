// sessiontop is the long-running observer over coding-agent sessions: it
// aggregates the session records written by sessiontop-hook, discards the
// dead ones, and republishes the live set.
package main

import (
	"fmt"
	"os"

	"github.com/sessiontop/sessiontop/internal/config"
	"github.com/sessiontop/sessiontop/internal/logging"
	"github.com/sessiontop/sessiontop/internal/procinfo"
	"github.com/sessiontop/sessiontop/internal/session"
)

const version = "1.2.0"

func main() {
	cfg := config.Load()
	logging.Init(logging.Config{
		LogDir:     config.BaseDir(),
		Level:      cfg.Logs.Level,
		Format:     cfg.Logs.Format,
		MaxSizeMB:  cfg.Logs.MaxSizeMB,
		MaxBackups: cfg.Logs.MaxBackups,
		MaxAgeDays: cfg.Logs.MaxAgeDays,
	})
	defer logging.Shutdown()

	if len(os.Args) < 2 {
		handleList(cfg, os.Args[1:])
		return
	}

	switch os.Args[1] {
	case "version", "--version", "-v":
		fmt.Printf("sessiontop %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	case "list", "ls":
		handleList(cfg, os.Args[2:])
	case "watch":
		handleWatch(cfg, os.Args[2:])
	case "recent":
		handleRecent(cfg, os.Args[2:])
	case "cleanup":
		handleCleanup(cfg)
	case "reset":
		handleReset(os.Args[2:])
	case "check":
		handleCheck()
	case "dot":
		fmt.Print(session.DotDiagram())
	case "print-config":
		handlePrintConfig(cfg, os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// wire builds the standard store/reaper pair over the real process table.
func wire() (*session.Store, *session.Reaper, *session.Archive) {
	store := session.NewStore(config.SessionsDir())
	archive := session.NewArchive(config.ArchiveDir())
	hookLog := session.NewHookLog(config.LogsDir())
	reaper := session.NewReaper(store, procinfo.NewOSInspector(), hookLog, archive)
	return store, reaper, archive
}

func printUsage() {
	fmt.Printf(`sessiontop %s - coding-agent session monitor

USAGE:
    sessiontop <command> [flags]

COMMANDS:
    list, ls        List live sessions (default). --json for machine output
    watch           Run the observer loop, one JSON snapshot line per change
    recent          List recently ended projects from the archive
    cleanup         Reap dead sessions and prune the archive once
    reset <prefix>  Reset a session's status to idle by session-id prefix
    check           Check hook delivery chain health
    dot             Print the status transition table as Graphviz DOT
    print-config    Print the loaded configuration. --write to seed a file
    version         Print version

Environment:
    %s   Override the state directory (default ~/.sessiontop)
`, version, config.EnvBaseDir)
}

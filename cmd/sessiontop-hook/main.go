// sessiontop-hook is the one-shot event source: invoked by a coding
// agent's hook mechanism once per lifecycle event, it reads the event
// document from stdin and updates the session record keyed by the owning
// agent PID.
//
// Usage: sessiontop-hook <HookName>
//
// The process always exits 0. It is run inline by the agent and must
// never block or fail the caller; every internal failure degrades to "no
// observable change" plus a line in the shared error log.
package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sessiontop/sessiontop/internal/config"
	"github.com/sessiontop/sessiontop/internal/logging"
	"github.com/sessiontop/sessiontop/internal/session"
)

const version = "1.2.0"

// stdinTimeout bounds the read of the event document. If the caller never
// closes stdin the hook abandons the event rather than hanging the agent.
const stdinTimeout = 5 * time.Second

func main() {
	args := os.Args[1:]

	if len(args) >= 1 {
		switch args[0] {
		case "--version", "-V":
			fmt.Printf("sessiontop-hook %s\n", version)
			return
		case "--help", "-h":
			printHelp()
			return
		}
	}

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

	hookLog := session.NewHookLog(config.LogsDir())

	if len(args) < 1 {
		hookLog.Error("missing hook name argument")
		return
	}
	hookName := args[0]

	data, err := readStdin(stdinTimeout)
	if err != nil {
		hookLog.Error(fmt.Sprintf("%s: %v", hookName, err))
		return
	}

	input, err := decodeHookInput(data)
	if err != nil {
		hookLog.Error(fmt.Sprintf("%s: %v", hookName, err))
		return
	}

	h := newHandler(hookLog)
	if err := h.handle(hookName, input); err != nil {
		hookLog.Error(fmt.Sprintf("%s: %v", hookName, err))
	}
}

// readStdin reads all of stdin in a goroutine and abandons the event when
// the timeout expires before EOF.
func readStdin(timeout time.Duration) ([]byte, error) {
	type result struct {
		data []byte
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		data, err := io.ReadAll(os.Stdin)
		ch <- result{data, err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return nil, fmt.Errorf("read stdin: %w", r.err)
		}
		return r.data, nil
	case <-time.After(timeout):
		return nil, fmt.Errorf("stdin read timed out after %s", timeout)
	}
}

func printHelp() {
	fmt.Printf(`sessiontop-hook %s
Coding-agent hook handler for sessiontop session tracking.

Reads one lifecycle event document from stdin and updates the session
record for the owning agent process.

USAGE:
    sessiontop-hook <HOOK_NAME>

HOOK NAMES:
    SessionStart, UserPromptSubmit, PreToolUse, PostToolUse,
    Stop, Notification, PermissionRequest, PreCompact, SessionEnd

OPTIONS:
    -h, --help       Print this help message
    -V, --version    Print version
`, version)
}

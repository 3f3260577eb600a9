// Package git wraps the one git lookup the engine needs: the current
// branch of a project directory.
package git

import (
	"context"
	"os/exec"
	"strings"
	"time"
)

const lookupTimeout = 2 * time.Second

// CurrentBranch returns the branch checked out at dir, or "" when dir is
// not a git repository or the lookup fails. Failure is never surfaced;
// branch is decorative context on a session record.
func CurrentBranch(dir string) string {
	ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, "git", "-C", dir, "rev-parse", "--abbrev-ref", "HEAD").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

package session

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sessiontop/sessiontop/internal/logging"
)

var archiveLog = logging.ForComponent(logging.CompArchive)

// RetentionPolicy bounds the archive by age and count on top of the
// per-project deduplication stage.
type RetentionPolicy struct {
	MaxAge     time.Duration
	MaxEntries int
}

// DefaultRetention keeps one entry per project for up to 30 days, capped
// at 50 entries overall.
var DefaultRetention = RetentionPolicy{
	MaxAge:     30 * 24 * time.Hour,
	MaxEntries: 50,
}

// maxArchiveFilenameLen caps generated archive file names (without the
// .json extension).
const maxArchiveFilenameLen = 100

// Archive is the append-only history of ended sessions, one snapshot file
// per archived session.
type Archive struct {
	dir string
}

// NewArchive returns an archive rooted at dir.
func NewArchive(dir string) *Archive {
	return &Archive{dir: dir}
}

// Dir returns the archive directory.
func (a *Archive) Dir() string {
	return a.dir
}

// Entry is one archived snapshot plus the file backing it, so pruning can
// map a removal decision back to a path.
type Entry struct {
	Path    string
	Session *Session
}

// endedAt is the recency key for an entry: EndedAt when set, else the
// session's last activity.
func (e Entry) endedAt() time.Time {
	if !e.Session.EndedAt.IsZero() {
		return e.Session.EndedAt
	}
	return e.Session.LastActivity
}

// Write snapshots an ended session into the archive. EndedAt is stamped
// if the caller has not set it. Uses the same temp-file-plus-rename
// protocol as the active store.
func (a *Archive) Write(sess *Session) error {
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return fmt.Errorf("create archive dir: %w", err)
	}

	snapshot := *sess
	if snapshot.EndedAt.IsZero() {
		snapshot.EndedAt = time.Now().UTC()
	}

	data, err := json.MarshalIndent(&snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encode archive snapshot: %w", err)
	}

	final := filepath.Join(a.dir, archiveFilename(snapshot.ProjectName, snapshot.EndedAt))
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write archive temp file: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		return fmt.Errorf("rename archive file: %w", err)
	}
	return nil
}

// archiveFilename derives "<sanitized-project>-<timestamp>.json" with
// filename-unsafe characters normalized out and the stem length capped.
func archiveFilename(projectName string, endedAt time.Time) string {
	ts := strings.NewReplacer(":", "-", ".", "-").Replace(endedAt.UTC().Format(time.RFC3339))
	stem := SanitizeSessionID(projectName) + "-" + ts
	if len(stem) > maxArchiveFilenameLen {
		stem = stem[:maxArchiveFilenameLen]
	}
	return stem + ".json"
}

// List decodes every archived snapshot, newest first. Corrupt entries are
// skipped and logged, never fatal.
func (a *Archive) List() ([]Entry, error) {
	dirEntries, err := os.ReadDir(a.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read archive dir: %w", err)
	}

	var entries []Entry
	for _, de := range dirEntries {
		name := de.Name()
		if de.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		path := filepath.Join(a.dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var sess Session
		if err := json.Unmarshal(data, &sess); err != nil {
			archiveLog.Warn("archive_file_skipped",
				slog.String("file", name),
				slog.String("error", err.Error()))
			continue
		}
		entries = append(entries, Entry{Path: path, Session: &sess})
	}

	sortByRecency(entries)
	return entries, nil
}

func sortByRecency(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].endedAt().After(entries[j].endedAt())
	})
}

// PruneCandidates computes which archive entries to remove, as the union
// of three stages over the sorted-by-recency listing:
//
//  1. per project path, keep only the most recent entry;
//  2. of the survivors, remove entries older than the age threshold;
//  3. if the survivors still exceed the count cap, remove the oldest
//     excess.
//
// Pure: no I/O, deterministic for a given now.
func PruneCandidates(entries []Entry, policy RetentionPolicy, now time.Time) []Entry {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sortByRecency(sorted)

	remove := make(map[string]bool, len(sorted))

	// Stage 1: per-project deduplication, newest wins.
	seen := make(map[string]bool)
	var survivors []Entry
	for _, e := range sorted {
		if seen[e.Session.ProjectPath] {
			remove[e.Path] = true
			continue
		}
		seen[e.Session.ProjectPath] = true
		survivors = append(survivors, e)
	}

	// Stage 2: age cutoff.
	var inBudget []Entry
	for _, e := range survivors {
		if now.Sub(e.endedAt()) > policy.MaxAge {
			remove[e.Path] = true
			continue
		}
		inBudget = append(inBudget, e)
	}

	// Stage 3: count cap, oldest excess first.
	if policy.MaxEntries > 0 && len(inBudget) > policy.MaxEntries {
		for _, e := range inBudget[policy.MaxEntries:] {
			remove[e.Path] = true
		}
	}

	var out []Entry
	for _, e := range entries {
		if remove[e.Path] {
			out = append(out, e)
		}
	}
	return out
}

// Prune applies the retention policy, deleting marked files. Returns the
// number removed.
func (a *Archive) Prune(policy RetentionPolicy) (int, error) {
	entries, err := a.List()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, e := range PruneCandidates(entries, policy, time.Now().UTC()) {
		if err := os.Remove(e.Path); err != nil {
			archiveLog.Warn("prune_remove_failed",
				slog.String("file", filepath.Base(e.Path)),
				slog.String("error", err.Error()))
			continue
		}
		removed++
	}
	return removed, nil
}

// RecentProject is a read-only projection over the archive: one row per
// distinct project path, built from that path's most recent snapshot.
type RecentProject struct {
	ProjectPath string    `json:"project_path"`
	ProjectName string    `json:"project_name"`
	Workspace   string    `json:"workspace,omitempty"`
	Sessions    int       `json:"sessions"`
	LastEndedAt time.Time `json:"last_ended_at"`
}

// DefaultRecentLimit caps the display listing when the caller passes no
// positive limit.
const DefaultRecentLimit = 10

// RecentProjects groups archive entries by project path, keeps the most
// recent entry and a count per path, excludes currently active paths,
// sorts by recency and truncates to limit. Pure over the in-memory
// listing.
func RecentProjects(entries []Entry, activePaths map[string]bool, limit int) []RecentProject {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sortByRecency(sorted)

	index := make(map[string]int)
	var out []RecentProject
	for _, e := range sorted {
		path := e.Session.ProjectPath
		if activePaths[path] {
			continue
		}
		if i, ok := index[path]; ok {
			out[i].Sessions++
			continue
		}
		index[path] = len(out)
		out = append(out, RecentProject{
			ProjectPath: path,
			ProjectName: e.Session.ProjectName,
			Workspace:   e.Session.Workspace,
			Sessions:    1,
			LastEndedAt: e.endedAt(),
		})
	}

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

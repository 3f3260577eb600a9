package session

import (
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func archEntry(path, projectPath string, endedAt time.Time) Entry {
	return Entry{
		Path: path,
		Session: &Session{
			SessionID:   path,
			ProjectPath: projectPath,
			ProjectName: ExtractProjectName(projectPath),
			EndedAt:     endedAt,
		},
	}
}

func TestPruneCandidatesDedupesPerProject(t *testing.T) {
	now := time.Now().UTC()
	entries := []Entry{
		archEntry("a0", "/p/alpha", now.Add(-1*time.Hour)),
		archEntry("a1", "/p/alpha", now.Add(-2*time.Hour)),
		archEntry("a2", "/p/alpha", now.Add(-3*time.Hour)),
		archEntry("b0", "/p/beta", now.Add(-1*time.Hour)),
	}

	removed := PruneCandidates(entries, DefaultRetention, now)
	paths := removalSet(removed)
	assert.True(t, paths["a1"], "older duplicate should be removed")
	assert.True(t, paths["a2"], "oldest duplicate should be removed")
	assert.False(t, paths["a0"], "newest entry per project survives")
	assert.False(t, paths["b0"], "other project untouched")
}

func TestPruneCandidatesAgeCutoff(t *testing.T) {
	now := time.Now().UTC()
	entries := []Entry{
		archEntry("fresh", "/p/fresh", now.Add(-24*time.Hour)),
		archEntry("stale", "/p/stale", now.Add(-31*24*time.Hour)),
	}
	removed := PruneCandidates(entries, DefaultRetention, now)
	paths := removalSet(removed)
	assert.True(t, paths["stale"])
	assert.False(t, paths["fresh"])
}

func TestPruneCandidatesCountCap(t *testing.T) {
	now := time.Now().UTC()
	var entries []Entry
	for i := 0; i < 55; i++ {
		entries = append(entries, archEntry(
			fmt.Sprintf("e%02d", i),
			fmt.Sprintf("/p/proj%02d", i),
			now.Add(-time.Duration(i)*time.Minute)))
	}

	removed := PruneCandidates(entries, DefaultRetention, now)
	require.Len(t, removed, 5)
	paths := removalSet(removed)
	// The five oldest distinct projects fall off the cap.
	for i := 50; i < 55; i++ {
		assert.True(t, paths[fmt.Sprintf("e%02d", i)], "e%02d should be removed", i)
	}
}

func TestPruneCandidatesStagesUnion(t *testing.T) {
	now := time.Now().UTC()
	entries := []Entry{
		archEntry("dup-old", "/p/alpha", now.Add(-40*24*time.Hour)),
		archEntry("dup-new", "/p/alpha", now.Add(-35*24*time.Hour)),
	}
	removed := PruneCandidates(entries, DefaultRetention, now)
	paths := removalSet(removed)
	// dup-old falls to deduplication, dup-new to the age stage; both go.
	assert.True(t, paths["dup-old"])
	assert.True(t, paths["dup-new"])
}

func removalSet(entries []Entry) map[string]bool {
	out := make(map[string]bool, len(entries))
	for _, e := range entries {
		out[e.Path] = true
	}
	return out
}

func TestArchiveWriteStampsEndedAt(t *testing.T) {
	archive := NewArchive(t.TempDir())
	sess := New("done-1", "/p/demo", "main", Terminal{})
	require.NoError(t, archive.Write(sess))

	entries, err := archive.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Session.EndedAt.IsZero(), "EndedAt should be stamped")
	// The live record is untouched; the stamp lands on the snapshot.
	assert.True(t, sess.EndedAt.IsZero())
}

func TestArchiveFilenameSanitized(t *testing.T) {
	endedAt := time.Date(2026, 8, 26, 10, 30, 0, 0, time.UTC)
	name := archiveFilename("my proj/../x", endedAt)
	assert.False(t, strings.ContainsAny(name, ": /"), "name %q carries unsafe characters", name)
	assert.True(t, strings.HasSuffix(name, ".json"))

	long := archiveFilename(strings.Repeat("p", 300), endedAt)
	assert.LessOrEqual(t, len(strings.TrimSuffix(long, ".json")), maxArchiveFilenameLen)
}

func TestArchivePruneDeletesFiles(t *testing.T) {
	dir := t.TempDir()
	archive := NewArchive(dir)

	old := New("old", "/p/demo", "", Terminal{})
	old.EndedAt = time.Now().UTC().Add(-40 * 24 * time.Hour)
	require.NoError(t, archive.Write(old))

	fresh := New("fresh", "/p/other", "", Terminal{})
	fresh.EndedAt = time.Now().UTC().Add(-time.Hour)
	require.NoError(t, archive.Write(fresh))

	removed, err := archive.Prune(DefaultRetention)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	entries, err := archive.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "fresh", entries[0].Session.SessionID)

	dirEntries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, dirEntries, 1)
}

func TestRecentProjects(t *testing.T) {
	now := time.Now().UTC()
	entries := []Entry{
		archEntry("a0", "/p/alpha", now.Add(-1*time.Hour)),
		archEntry("a1", "/p/alpha", now.Add(-2*time.Hour)),
		archEntry("b0", "/p/beta", now.Add(-30*time.Minute)),
		archEntry("c0", "/p/gamma", now.Add(-3*time.Hour)),
	}

	recent := RecentProjects(entries, map[string]bool{"/p/gamma": true}, 0)
	require.Len(t, recent, 2)
	// Sorted by recency: beta first.
	assert.Equal(t, "/p/beta", recent[0].ProjectPath)
	assert.Equal(t, 1, recent[0].Sessions)
	assert.Equal(t, "/p/alpha", recent[1].ProjectPath)
	assert.Equal(t, 2, recent[1].Sessions)
}

func TestRecentProjectsCapped(t *testing.T) {
	now := time.Now().UTC()
	var entries []Entry
	for i := 0; i < 25; i++ {
		entries = append(entries, archEntry(
			fmt.Sprintf("e%d", i),
			fmt.Sprintf("/p/proj%d", i),
			now.Add(-time.Duration(i)*time.Minute)))
	}

	recent := RecentProjects(entries, nil, 0)
	assert.Len(t, recent, DefaultRecentLimit, "non-positive limit falls back to the default")
	assert.Equal(t, "/p/proj0", recent[0].ProjectPath)

	// A configured limit above the default must govern, not be clipped.
	assert.Len(t, RecentProjects(entries, nil, 15), 15)
	assert.Len(t, RecentProjects(entries, nil, 3), 3)
}

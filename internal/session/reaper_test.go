package session

import (
	"testing"
	"time"

	"github.com/sessiontop/sessiontop/internal/procinfo"
)

func newTestReaper(t *testing.T) (*Reaper, *Store, *procinfo.FakeInspector, *Archive) {
	t.Helper()
	store := NewStore(t.TempDir())
	archive := NewArchive(t.TempDir())
	hookLog := NewHookLog(t.TempDir())
	ins := procinfo.NewFakeInspector()
	return NewReaper(store, ins, hookLog, archive), store, ins, archive
}

func TestIsDead(t *testing.T) {
	reaper, _, ins, _ := newTestReaper(t)
	now := time.Now().UTC()
	ins.Add(100, procinfo.FakeProcess{Command: "claude", StartTime: 1700000000})

	tests := []struct {
		name string
		sess *Session
		want bool
	}{
		{
			name: "alive with matching fingerprint",
			sess: &Session{PID: 100, PIDStartTime: 1700000000, LastActivity: now},
			want: false,
		},
		{
			name: "fingerprint within tolerance",
			sess: &Session{PID: 100, PIDStartTime: 1700000000.9, LastActivity: now},
			want: false,
		},
		{
			name: "process gone",
			sess: &Session{PID: 101, PIDStartTime: 1700000000, LastActivity: now},
			want: true,
		},
		{
			name: "pid reused by another process",
			sess: &Session{PID: 100, PIDStartTime: 1600000000, LastActivity: now},
			want: true,
		},
		{
			name: "no fingerprint recorded, alive pid trusted",
			sess: &Session{PID: 100, LastActivity: now},
			want: false,
		},
		{
			name: "legacy record, fresh",
			sess: &Session{SessionID: "legacy", LastActivity: now.Add(-time.Hour)},
			want: false,
		},
		{
			name: "legacy record, stale",
			sess: &Session{SessionID: "legacy", LastActivity: now.Add(-25 * time.Hour)},
			want: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := reaper.IsDead(tt.sess, now); got != tt.want {
				t.Errorf("IsDead = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLiveSessionsReapsAndArchives(t *testing.T) {
	reaper, store, ins, archive := newTestReaper(t)
	ins.Add(200, procinfo.FakeProcess{Command: "claude", StartTime: 1700000000})

	alive := testSession("alive-1", 200)
	alive.PIDStartTime = 1700000000
	if err := store.Save(alive); err != nil {
		t.Fatal(err)
	}
	dead := testSession("dead-1", 201)
	if err := store.Save(dead); err != nil {
		t.Fatal(err)
	}

	live, err := reaper.LiveSessions()
	if err != nil {
		t.Fatalf("LiveSessions: %v", err)
	}
	if len(live) != 1 || live[0].SessionID != "alive-1" {
		t.Fatalf("live = %d sessions, want only alive-1", len(live))
	}

	remaining, _ := store.List()
	if len(remaining) != 1 {
		t.Errorf("store still holds %d records, want 1", len(remaining))
	}

	entries, err := archive.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Session.SessionID != "dead-1" {
		t.Fatalf("archive = %d entries, want the reaped session", len(entries))
	}
	if entries[0].Session.EndedAt.IsZero() {
		t.Error("archived session missing EndedAt")
	}
}

func TestCleanupProjectSparesCurrentAndLive(t *testing.T) {
	reaper, store, ins, _ := newTestReaper(t)
	ins.Add(300, procinfo.FakeProcess{Command: "claude", StartTime: 1700000000})

	current := testSession("current", 0)
	current.PID = 0
	current.LastActivity = time.Now().UTC().Add(-48 * time.Hour)
	liveSibling := testSession("sibling-live", 300)
	liveSibling.PIDStartTime = 1700000000
	deadSibling := testSession("sibling-dead", 301)
	otherProject := testSession("other", 302)
	otherProject.ProjectPath = "/work/elsewhere"

	for _, s := range []*Session{current, liveSibling, deadSibling, otherProject} {
		if err := store.Save(s); err != nil {
			t.Fatal(err)
		}
	}

	reaper.CleanupProject("/work/demo", "current")

	remaining, _ := store.List()
	ids := make(map[string]bool)
	for _, s := range remaining {
		ids[s.SessionID] = true
	}
	if !ids["current"] {
		t.Error("current session must be spared even when stale")
	}
	if !ids["sibling-live"] {
		t.Error("live sibling must survive")
	}
	if ids["sibling-dead"] {
		t.Error("dead sibling must be reaped")
	}
	if !ids["other"] {
		t.Error("other project must be untouched")
	}
}

func TestCleanupPIDRemovesUsurpedRecord(t *testing.T) {
	reaper, store, ins, _ := newTestReaper(t)
	ins.Add(400, procinfo.FakeProcess{Command: "claude", StartTime: 1700000500})

	stale := testSession("previous-owner", 400)
	if err := store.Save(stale); err != nil {
		t.Fatal(err)
	}

	reaper.CleanupPID(400, "new-owner")

	remaining, _ := store.List()
	if len(remaining) != 0 {
		t.Errorf("stale record under reused PID survived: %d records", len(remaining))
	}
}

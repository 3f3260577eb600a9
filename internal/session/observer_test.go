package session

import (
	"testing"
	"time"

	"github.com/sessiontop/sessiontop/internal/procinfo"
)

func TestSnapshotExcludesDeadSessions(t *testing.T) {
	store := NewStore(t.TempDir())
	ins := procinfo.NewFakeInspector()
	ins.Add(500, procinfo.FakeProcess{Command: "claude", StartTime: 1700000000})
	reaper := NewReaper(store, ins, nil, nil)
	obs := NewObserver(store, reaper, 0)

	alive := testSession("alive", 500)
	alive.PIDStartTime = 1700000000
	dead := testSession("dead", 501)
	for _, s := range []*Session{alive, dead} {
		if err := store.Save(s); err != nil {
			t.Fatal(err)
		}
	}

	live, err := obs.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(live) != 1 || live[0].SessionID != "alive" {
		t.Fatalf("snapshot = %d sessions, want only the live one", len(live))
	}
}

func TestSortForDisplay(t *testing.T) {
	now := time.Now().UTC()
	sessions := []*Session{
		{SessionID: "idle-new", Status: StatusIdle, LastActivity: now},
		{SessionID: "working", Status: StatusWorking, LastActivity: now.Add(-time.Hour)},
		{SessionID: "perm", Status: StatusWaitingPermission, LastActivity: now.Add(-2 * time.Hour)},
		{SessionID: "idle-old", Status: StatusIdle, LastActivity: now.Add(-time.Minute)},
	}

	SortForDisplay(sessions)

	want := []string{"perm", "working", "idle-new", "idle-old"}
	for i, id := range want {
		if sessions[i].SessionID != id {
			t.Errorf("position %d = %s, want %s", i, sessions[i].SessionID, id)
		}
	}
}

package session

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/sessiontop/sessiontop/internal/logging"
)

var observerLog = logging.ForComponent(logging.CompObserver)

// Observer is the long-running side: it watches the session directory and
// republishes the set of live sessions whenever it changes. It holds no
// authority over records beyond reaping dead ones; the event source owns
// all writes.
type Observer struct {
	reaper   *Reaper
	store    *Store
	interval time.Duration

	// limiter bounds rescan frequency when a burst of hook events lands;
	// sf collapses rescans that overlap in flight.
	limiter *rate.Limiter
	sf      singleflight.Group
}

// NewObserver wires an observer over a reaper. interval is the poll
// fallback period for the filesystem-notification path going quiet.
func NewObserver(store *Store, reaper *Reaper, interval time.Duration) *Observer {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Observer{
		reaper:   reaper,
		store:    store,
		interval: interval,
		limiter:  rate.NewLimiter(rate.Every(250*time.Millisecond), 1),
	}
}

// Snapshot returns the current live sessions sorted for display: most
// urgent status first, then most recent activity.
func (o *Observer) Snapshot() ([]*Session, error) {
	v, err, _ := o.sf.Do("scan", func() (interface{}, error) {
		live, err := o.reaper.LiveSessions()
		if err != nil {
			return nil, err
		}
		SortForDisplay(live)
		return live, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]*Session), nil
}

// SortForDisplay orders sessions by status priority, then recency.
func SortForDisplay(sessions []*Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		pi, pj := sessions[i].Status.SortPriority(), sessions[j].Status.SortPriority()
		if pi != pj {
			return pi < pj
		}
		return sessions[i].LastActivity.After(sessions[j].LastActivity)
	})
}

// Run watches the session directory and calls publish with a fresh
// snapshot after every relevant change, plus once per poll interval as a
// fallback for missed notifications. Blocks until ctx is done.
func (o *Observer) Run(ctx context.Context, publish func([]*Session)) error {
	// The directory must exist before it can be watched.
	if err := os.MkdirAll(o.store.Dir(), 0o755); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	notify := make(chan struct{}, 1)
	if err := watcher.Add(o.store.Dir()); err != nil {
		observerLog.Warn("watch_add_failed",
			slog.String("dir", o.store.Dir()),
			slog.String("error", err.Error()))
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				// Temp files are invisible to readers by protocol; only
				// renames onto final paths and removals matter.
				if filepath.Ext(ev.Name) != ".json" {
					continue
				}
				if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
					continue
				}
				select {
				case notify <- struct{}{}:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				observerLog.Warn("watch_error", slog.String("error", err.Error()))
			}
		}
	}()

	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()

	rescan := func() {
		if !o.limiter.Allow() {
			return
		}
		live, err := o.Snapshot()
		if err != nil {
			observerLog.Warn("scan_failed", slog.String("error", err.Error()))
			return
		}
		publish(live)
	}

	rescan()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-notify:
			rescan()
		case <-ticker.C:
			rescan()
		}
	}
}

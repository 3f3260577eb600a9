package session

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sessiontop/sessiontop/internal/logging"
)

var storeLog = logging.ForComponent(logging.CompStore)

// Store persists session records as one JSON file per owning PID inside a
// single directory. The PID is the file name, so two live sessions can
// never collide on a key: the operating system never assigns one PID to
// two simultaneously-live processes.
//
// No locking is done anywhere. Callers must serialize writes per PID; in
// practice the owning agent process invokes the event source one event at
// a time, so the worker chain for a PID is the only writer of that PID's
// file. Atomic rename keeps partial writes invisible to the reader side.
type Store struct {
	dir string
}

// NewStore returns a store rooted at dir. The directory is created lazily
// on first write.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the session directory.
func (s *Store) Dir() string {
	return s.dir
}

// Key returns the file stem a record is stored under: the PID in decimal,
// or the sanitized session identifier for legacy records with no PID.
func Key(sess *Session) string {
	if sess.PID > 0 {
		return strconv.Itoa(sess.PID)
	}
	return SanitizeSessionID(sess.SessionID)
}

// PathFor returns the file path for a PID's record.
func (s *Store) PathFor(pid int) string {
	return filepath.Join(s.dir, strconv.Itoa(pid)+".json")
}

func (s *Store) pathForKey(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Load reads the record for a PID. Returns (nil, nil) when no record
// exists.
func (s *Store) Load(pid int) (*Session, error) {
	return s.loadFile(s.PathFor(pid))
}

func (s *Store) loadFile(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decode session file %s: %w", filepath.Base(path), err)
	}
	return &sess, nil
}

// Save writes a record durably: encode, write a sibling temp file, rename
// onto the final path. Rename is the only operation assumed atomic, and a
// reader only ever opens the final path.
func (s *Store) Save(sess *Session) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	final := s.pathForKey(Key(sess))
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp session file: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		return fmt.Errorf("rename session file: %w", err)
	}
	return nil
}

// Remove deletes a PID's record. Removing an absent record is not an
// error.
func (s *Store) Remove(pid int) error {
	return s.removePath(s.PathFor(pid))
}

// RemoveRecord deletes the file backing a record, whichever key it is
// stored under.
func (s *Store) RemoveRecord(sess *Session) error {
	return s.removePath(s.pathForKey(Key(sess)))
}

func (s *Store) removePath(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

// List decodes every record in the session directory. A record that fails
// to decode is skipped and logged; one corrupt file must never abort a
// full listing. A missing directory lists as empty.
func (s *Store) List() ([]*Session, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session dir: %w", err)
	}

	var sessions []*Session
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		sess, err := s.loadFile(filepath.Join(s.dir, name))
		if err != nil {
			storeLog.Warn("session_file_skipped",
				slog.String("file", name),
				slog.String("error", err.Error()))
			continue
		}
		if sess != nil {
			sessions = append(sessions, sess)
		}
	}
	return sessions, nil
}

package dashboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileSessionStore persists the session as a single JSON file so the
// credential survives process restarts, mirroring the browser-storage
// lifecycle: written on login, removed on logout or 401.
type FileSessionStore struct {
	path string
	mu   sync.Mutex
}

// NewFileSessionStore builds a store rooted at path.
func NewFileSessionStore(path string) *FileSessionStore {
	return &FileSessionStore{path: path}
}

// Load reads the persisted session. The second return is false when no
// session exists.
func (s *FileSessionStore) Load() (Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Session{}, false, nil
		}
		return Session{}, false, fmt.Errorf("dashboard: read session: %w", err)
	}
	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		// A corrupt session file is treated as logged out rather than a
		// fatal state; the next login overwrites it.
		return Session{}, false, nil
	}
	if session.Token == "" {
		return Session{}, false, nil
	}
	return session, true, nil
}

// Save writes the session, creating parent directories as needed. The
// file carries the bearer token, so it is not group or world readable.
func (s *FileSessionStore) Save(session Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("dashboard: session dir: %w", err)
	}
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("dashboard: encode session: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("dashboard: write session: %w", err)
	}
	return nil
}

// Clear removes the persisted session. Clearing an absent session is not
// an error.
func (s *FileSessionStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("dashboard: clear session: %w", err)
	}
	return nil
}

// MemorySessionStore keeps the session in process memory. Tests and the
// demo backend use it in place of the file store.
type MemorySessionStore struct {
	mu      sync.Mutex
	session Session
	present bool
}

// NewMemorySessionStore builds an empty in-memory store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{}
}

// Load returns the stored session, if any.
func (s *MemorySessionStore) Load() (Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session, s.present, nil
}

// Save stores the session.
func (s *MemorySessionStore) Save(session Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = session
	s.present = true
	return nil
}

// Clear drops the stored session.
func (s *MemorySessionStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = Session{}
	s.present = false
	return nil
}

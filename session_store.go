package auth

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// SessionSnapshot is the client-held persisted state: serialized principal,
// role tag, and both tokens. It is written and cleared as one unit so a
// token can never outlive its principal or vice versa.
type SessionSnapshot struct {
	Principal    *SessionObject `json:"principal,omitempty"`
	Role         Role           `json:"role,omitempty"`
	AccessToken  string         `json:"access_token,omitempty"`
	RefreshToken string         `json:"refresh_token,omitempty"`
	SavedAt      time.Time      `json:"saved_at,omitempty"`
}

// IsZero reports whether the snapshot holds no session at all.
func (s SessionSnapshot) IsZero() bool {
	return s.Principal == nil && s.AccessToken == "" && s.RefreshToken == ""
}

// SessionStore persists the client-side session snapshot. Save replaces the
// whole snapshot and Clear removes it entirely; there is no partial update.
type SessionStore interface {
	Save(snapshot SessionSnapshot) error
	Load() (SessionSnapshot, bool, error)
	Clear() error
}

// NewMemorySessionStore returns an in-process store, the default for tests
// and embedded hosts.
func NewMemorySessionStore() SessionStore {
	return &memorySessionStore{}
}

type memorySessionStore struct {
	mu       sync.Mutex
	snapshot SessionSnapshot
	present  bool
}

func (m *memorySessionStore) Save(snapshot SessionSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot = snapshot
	m.present = true
	return nil
}

func (m *memorySessionStore) Load() (SessionSnapshot, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.present || m.snapshot.IsZero() {
		return SessionSnapshot{}, false, nil
	}
	return m.snapshot, true, nil
}

func (m *memorySessionStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot = SessionSnapshot{}
	m.present = false
	return nil
}

// NewFileSessionStore persists the snapshot as JSON at path. Writes go
// through a temp file and rename so readers never observe a torn snapshot.
func NewFileSessionStore(path string) SessionStore {
	return &fileSessionStore{path: path}
}

type fileSessionStore struct {
	mu   sync.Mutex
	path string
}

func (f *fileSessionStore) Save(snapshot SessionSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return err
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	return os.Rename(tmp.Name(), f.path)
}

func (f *fileSessionStore) Load() (SessionSnapshot, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return SessionSnapshot{}, false, nil
		}
		return SessionSnapshot{}, false, err
	}

	var snapshot SessionSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return SessionSnapshot{}, false, err
	}

	if snapshot.IsZero() {
		return SessionSnapshot{}, false, nil
	}

	return snapshot, true, nil
}

func (f *fileSessionStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

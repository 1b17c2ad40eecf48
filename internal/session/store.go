package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileStore persists the session cookie for command-line use. It applies the
// same one-week lifetime the browser cookie has.
type FileStore struct {
	path string
	now  func() time.Time

	mu sync.Mutex
}

type storedSession struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewFileStore creates a store backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, now: time.Now}
}

// Save writes token with a fresh expiry.
func (s *FileStore) Save(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("Save: create session dir: %w", err)
	}
	data, err := json.Marshal(storedSession{Token: token, ExpiresAt: s.now().Add(MaxAge)})
	if err != nil {
		return fmt.Errorf("Save: encode session: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("Save: write session: %w", err)
	}
	return nil
}

// Clear removes the stored session. A missing file is not an error.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("Clear: remove session: %w", err)
	}
	return nil
}

// Token implements CredentialAccessor. Missing, unreadable or expired sessions yield "".
func (s *FileStore) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return ""
	}
	var stored storedSession
	if err := json.Unmarshal(data, &stored); err != nil {
		return ""
	}
	if !stored.ExpiresAt.IsZero() && !s.now().Before(stored.ExpiresAt) {
		return ""
	}
	return stored.Token
}

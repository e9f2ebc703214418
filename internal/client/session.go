package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"staywise/internal/app/dto"
)

// Session is the signed-in state of one API consumer. Path is where Save
// writes it; an empty Path keeps the session in memory only.
type Session struct {
	Path  string          `json:"-"`
	Token string          `json:"token"`
	User  dto.UserProfile `json:"user"`
}

// LoadSession reads a saved session. A missing file yields an empty session
// bound to path.
func LoadSession(path string) (*Session, error) {
	s := &Session{Path: path}
	if path == "" {
		return s, nil
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("client: read session: %w", err)
	}
	if err := json.Unmarshal(raw, s); err != nil {
		return nil, fmt.Errorf("client: decode session %s: %w", path, err)
	}
	s.Path = path
	return s, nil
}

func (s *Session) LoggedIn() bool {
	return s != nil && s.Token != ""
}

func (s *Session) IsAdmin() bool {
	return s.LoggedIn() && s.User.Role == "admin"
}

func (s *Session) Set(token string, user dto.UserProfile) {
	s.Token = token
	s.User = user
}

// Save persists the session with owner-only permissions.
func (s *Session) Save() error {
	if s.Path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return fmt.Errorf("client: create session dir: %w", err)
	}
	raw, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.Path, raw, 0o600)
}

// Clear forgets the credential and removes the saved file.
func (s *Session) Clear() error {
	s.Token = ""
	s.User = dto.UserProfile{}
	if s.Path == "" {
		return nil
	}
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("client: remove session: %w", err)
	}
	return nil
}

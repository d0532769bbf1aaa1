package auth

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

const (
	credFileName = "credentials.json"
	TokenEnv     = "PORTAL_TOKEN"
)

const (
	SourceEnv  = "env"
	SourceFile = "file"
)

type TokenInfo struct {
	Token     string     `json:"token"`
	Source    string     `json:"source"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// Store keeps the session token in <dir>/credentials.json, with the
// PORTAL_TOKEN environment variable taking precedence.
type Store struct {
	dir string
}

// NewStore returns a store rooted at dir. An empty dir means ~/.portal.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, goerr.Wrap(err, "failed to resolve home directory")
		}
		dir = filepath.Join(home, ".portal")
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path() string { return filepath.Join(s.dir, credFileName) }

// Get returns nil, nil when no token is stored.
func (s *Store) Get() (*TokenInfo, error) {
	if env := strings.TrimSpace(os.Getenv(TokenEnv)); env != "" {
		return &TokenInfo{Token: stripBearer(env), Source: SourceEnv}, nil
	}

	b, err := os.ReadFile(s.path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to read credentials", goerr.V("path", s.path()))
	}
	var ti TokenInfo
	if err := json.Unmarshal(b, &ti); err != nil {
		return nil, goerr.Wrap(err, "failed to parse credentials", goerr.V("path", s.path()))
	}
	ti.Token = stripBearer(ti.Token)
	return &ti, nil
}

// Set persists token with owner-only permissions.
func (s *Store) Set(token string, expires *time.Time) error {
	token = stripBearer(strings.TrimSpace(token))
	if token == "" {
		return ErrEmptyToken
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return goerr.Wrap(err, "failed to create credentials directory", goerr.V("dir", s.dir))
	}
	ti := TokenInfo{
		Token:     token,
		Source:    SourceFile,
		CreatedAt: time.Now(),
		ExpiresAt: expires,
	}
	b, err := json.MarshalIndent(ti, "", "  ")
	if err != nil {
		return goerr.Wrap(err, "failed to encode credentials")
	}
	if err := os.WriteFile(s.path(), b, 0o600); err != nil {
		return goerr.Wrap(err, "failed to write credentials", goerr.V("path", s.path()))
	}
	return nil
}

func (s *Store) Delete() error {
	if err := os.Remove(s.path()); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return goerr.Wrap(err, "failed to remove credentials", goerr.V("path", s.path()))
	}
	return nil
}

func stripBearer(s string) string {
	if strings.HasPrefix(strings.ToLower(s), "bearer ") {
		return strings.TrimSpace(s[7:])
	}
	return s
}

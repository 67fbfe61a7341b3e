package tokenstore

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/medforce/activity-agent/pkg/logger"
)

// StorageKey is the key the dashboard stores its bearer token under.
const StorageKey = "access_token"

// Store provides the current bearer token, if any. An empty string means no
// token is available and submissions must be skipped.
type Store interface {
	Token() string
}

// FileStore reads the token from <dir>/<StorageKey> on every call, so an
// external login flow can rotate it without restarting the agent.
type FileStore struct {
	dir    string
	logger *logger.Logger

	mu         sync.Mutex
	warnedExp  string
	lastLoaded string
}

func NewFileStore(dir string, log *logger.Logger) *FileStore {
	return &FileStore{
		dir:    dir,
		logger: log.WithComponent("tokenstore"),
	}
}

func (s *FileStore) Token() string {
	data, err := os.ReadFile(filepath.Join(s.dir, StorageKey))
	if err != nil {
		return ""
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return ""
	}

	s.mu.Lock()
	changed := token != s.lastLoaded
	s.lastLoaded = token
	s.mu.Unlock()
	if changed {
		s.warnIfExpired(token)
	}
	return token
}

// Save writes a token, creating the directory if needed. Used by tests and
// by login tooling that provisions the agent.
func (s *FileStore) Save(token string) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.dir, StorageKey), []byte(token), 0o600)
}

// Clear removes the stored token.
func (s *FileStore) Clear() error {
	err := os.Remove(filepath.Join(s.dir, StorageKey))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// warnIfExpired does an unverified claims parse. The token is opaque to the
// agent; this only exists to make a stale token visible in the logs instead
// of surfacing as a string of 401s from the backend.
func (s *FileStore) warnIfExpired(token string) {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return
	}
	if time.Now().After(exp.Time) {
		s.mu.Lock()
		already := s.warnedExp == token
		s.warnedExp = token
		s.mu.Unlock()
		if !already {
			s.logger.Warn("stored access token is expired",
				"expired_at", exp.Time.Format(time.RFC3339))
		}
	}
}

// StaticStore returns a fixed token. Tests use it.
type StaticStore string

func (s StaticStore) Token() string { return string(s) }

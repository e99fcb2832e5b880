package sessions

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

var _ Store = (*FileStore)(nil)

// FileStore persists the session as a small JSON document so it survives
// restarts of the CLI for the same user profile.
type FileStore struct {
	path   string
	mu     sync.Mutex
	logger zerolog.Logger
}

type FileStoreOption func(*FileStore)

func WithLogger(logger zerolog.Logger) FileStoreOption {
	return func(f *FileStore) {
		f.logger = logger
	}
}

func NewFileStore(path string, options ...FileStoreOption) *FileStore {
	f := &FileStore{
		path:   path,
		logger: zerolog.Nop(),
	}
	for _, opt := range options {
		opt(f)
	}
	return f
}

// Path returns the location of the session document.
func (f *FileStore) Path() string {
	return f.path
}

func (f *FileStore) Save(accessToken, refreshToken string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	current, err := f.load()
	if err != nil {
		return err
	}
	next := Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Generation:   current.Generation + 1,
	}
	return f.write(next)
}

func (f *FileStore) SaveRole(role string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	current, err := f.load()
	if err != nil {
		return err
	}
	current.Role = role
	return f.write(current)
}

func (f *FileStore) Read() (Session, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, err := f.load()
	if err != nil {
		return Session{}, false, err
	}
	if s.AccessToken == "" && s.RefreshToken == "" {
		return Session{}, false, nil
	}
	return s, true, nil
}

func (f *FileStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	current, err := f.load()
	if err != nil {
		f.logger.Warn().Err(err).Str("path", f.path).Msg("discarding unreadable session file")
		return f.write(Session{})
	}
	if current.AccessToken == "" && current.RefreshToken == "" && current.Role == "" {
		return nil
	}
	return f.write(Session{Generation: current.Generation + 1})
}

func (f *FileStore) ReplaceAccess(generation uint64, accessToken string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	current, err := f.load()
	if err != nil {
		return err
	}
	if current.Generation != generation || current.RefreshToken == "" {
		return ErrSessionCleared
	}
	current.AccessToken = accessToken
	return f.write(current)
}

func (f *FileStore) load() (Session, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return Session{}, nil
	}
	if err != nil {
		return Session{}, fmt.Errorf("FileStore.load read %s: %w", f.path, err)
	}
	if len(data) == 0 {
		return Session{}, nil
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return Session{}, fmt.Errorf("FileStore.load decode %s: %w", f.path, err)
	}
	return s, nil
}

// write replaces the document atomically: temp file in the same directory,
// fsync, rename.
func (f *FileStore) write(s Session) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("FileStore.write mkdir: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("FileStore.write encode: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*.json")
	if err != nil {
		return fmt.Errorf("FileStore.write temp: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("FileStore.write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("FileStore.write sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("FileStore.write close: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return fmt.Errorf("FileStore.write chmod: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("FileStore.write rename: %w", err)
	}
	f.logger.Debug().Str("path", f.path).Uint64("generation", s.Generation).Msg("session written")
	return nil
}

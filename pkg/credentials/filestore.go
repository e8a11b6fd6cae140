package credentials

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Persisted state keys. These mirror the storage keys the Skedlii web client
// uses, so the names are stable identifiers, not Go-style constants.
const (
	KeyAuthStorage  = "skedlii-auth-storage"
	KeyTeamStorage  = "skedlii-team-storage"
	KeyOrgStorage   = "skedlii-organization-storage"
	KeyTheme        = "skedlii-theme"
	KeyAccessToken  = "skedlii_access_token"
	KeyRefreshToken = "skedlii_refresh_token"
	KeyV1Token      = "skedlii_auth_token"
)

// FileStore is a file-per-key store under a state directory. Writes go
// through a temp file and rename so readers never observe partial documents.
type FileStore struct {
	dir string
	log *logrus.Logger

	mu    sync.RWMutex
	cache map[string][]byte

	watcher  *fsnotify.Watcher
	onChange func(key string)
	done     chan struct{}
}

// NewFileStore creates the state directory if needed and returns a store
// rooted there
func NewFileStore(dir string, log *logrus.Logger) (*FileStore, error) {
	if log == nil {
		log = logrus.New()
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	return &FileStore{
		dir:   dir,
		log:   log,
		cache: make(map[string][]byte),
	}, nil
}

// Dir returns the state directory path
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Get returns the raw bytes stored under key and whether the key exists
func (s *FileStore) Get(key string) ([]byte, bool, error) {
	s.mu.RLock()
	if data, ok := s.cache[key]; ok {
		s.mu.RUnlock()
		return data, true, nil
	}
	s.mu.RUnlock()

	data, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read state key %s: %w", key, err)
	}

	s.mu.Lock()
	s.cache[key] = data
	s.mu.Unlock()
	return data, true, nil
}

// GetJSON unmarshals the value stored under key into out. Returns false with
// no error when the key is absent.
func (s *FileStore) GetJSON(key string, out any) (bool, error) {
	data, ok, err := s.Get(key)
	if err != nil || !ok {
		return ok, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return true, fmt.Errorf("failed to decode state key %s: %w", key, err)
	}
	return true, nil
}

// Set writes raw bytes under key atomically
func (s *FileStore) Set(key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, key+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to stage state key %s: %w", key, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write state key %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write state key %s: %w", key, err)
	}
	if err := os.Rename(tmpName, s.path(key)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to commit state key %s: %w", key, err)
	}

	s.cache[key] = data
	return nil
}

// SetJSON marshals v and stores it under key
func (s *FileStore) SetJSON(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode state key %s: %w", key, err)
	}
	return s.Set(key, data)
}

// Delete removes a key. Deleting an absent key is a no-op.
func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.cache, key)
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete state key %s: %w", key, err)
	}
	return nil
}

// ClearAll removes every persisted key. Used by logout, which clears state
// unconditionally and must never fail: individual removal errors are logged
// and swallowed.
func (s *FileStore) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache = make(map[string][]byte)
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.log.WithError(err).Warn("failed to list state directory during clear")
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil {
			s.log.WithError(err).WithField("file", entry.Name()).Warn("failed to remove state file during clear")
		}
	}
}

// Watch starts an fsnotify watch on the state directory and invokes onChange
// with the affected key whenever another process rewrites a state file. The
// in-memory cache entry is dropped first so the next Get rereads from disk.
func (s *FileStore) Watch(onChange func(key string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create state watcher: %w", err)
	}
	if err := watcher.Add(s.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch state directory: %w", err)
	}

	s.mu.Lock()
	s.watcher = watcher
	s.onChange = onChange
	s.done = make(chan struct{})
	s.mu.Unlock()

	go s.watchLoop(watcher)
	return nil
}

func (s *FileStore) watchLoop(watcher *fsnotify.Watcher) {
	for {
		select {
		case <-s.done:
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) {
				continue
			}
			name := filepath.Base(event.Name)
			if !strings.HasSuffix(name, ".json") {
				continue
			}
			key := strings.TrimSuffix(name, ".json")

			s.mu.Lock()
			delete(s.cache, key)
			onChange := s.onChange
			s.mu.Unlock()

			if onChange != nil {
				onChange(key)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.log.WithError(err).Warn("state watcher error")
		}
	}
}

// Close stops the watcher if one is running
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.watcher == nil {
		return nil
	}
	close(s.done)
	err := s.watcher.Close()
	s.watcher = nil
	return err
}

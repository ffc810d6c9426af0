package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/openbusser/internal/store"
)

const (
	stateFile    = "state.json"
	stateVersion = 1
)

var _ store.KVStore = (*KVStore)(nil)

// state is the on-disk document.
type state struct {
	Version int               `json:"version"`
	Values  map[string]string `json:"values"`
}

// KVStore implements store.KVStore as a JSON document on the local filesystem.
// Values are stored unencrypted and never expire.
type KVStore struct {
	mu      sync.Mutex
	baseDir string
}

// NewKVStore creates a file backed store.
// If baseDir is empty, uses ~/.openbusser/
func NewKVStore(baseDir string) (*KVStore, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		baseDir = filepath.Join(home, ".openbusser")
	}

	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	s := &KVStore{baseDir: baseDir}

	if err := s.ensureState(); err != nil {
		return nil, err
	}

	log.Debug().Str("baseDir", baseDir).Msg("state store initialized")

	return s, nil
}

// Path returns the location of the state file.
func (s *KVStore) Path() string {
	return filepath.Join(s.baseDir, stateFile)
}

func (s *KVStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.load()
	if err != nil {
		return "", err
	}

	value, ok := st.Values[key]
	if !ok {
		return "", store.ErrKeyNotFound
	}
	return value, nil
}

func (s *KVStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.load()
	if err != nil {
		return err
	}

	st.Values[key] = value

	return s.save(st)
}

// Delete removes key. Deleting a missing key is not an error.
func (s *KVStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.load()
	if err != nil {
		return err
	}

	if _, ok := st.Values[key]; !ok {
		return nil
	}
	delete(st.Values, key)

	return s.save(st)
}

func (s *KVStore) ensureState() error {
	if _, err := os.Stat(s.Path()); err == nil {
		return nil
	}

	return s.save(&state{
		Version: stateVersion,
		Values:  make(map[string]string),
	})
}

func (s *KVStore) load() (*state, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		return nil, fmt.Errorf("failed to read state: %w", err)
	}

	var st state
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to parse state: %w", err)
	}

	if st.Values == nil {
		st.Values = make(map[string]string)
	}

	return &st, nil
}

// save writes the state file atomically.
func (s *KVStore) save(st *state) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	path := s.Path()
	tempPath := path + ".tmp"

	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to save state: %w", err)
	}

	return nil
}

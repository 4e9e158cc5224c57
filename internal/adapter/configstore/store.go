// Package configstore persists the switching configuration as a JSON file.
package configstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"routerswitcher/internal/pkg/logging"
	"routerswitcher/internal/port"
	"routerswitcher/internal/types"
)

// FileName is the config file name inside the per-user config directory.
const FileName = "config.json"

// DefaultPath returns <user config dir>/routerswitcher/config.json.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve user config directory: %w", err)
	}
	return filepath.Join(dir, "routerswitcher", FileName), nil
}

// Store is a ConfigStore backed by a JSON file written atomically.
type Store struct {
	path    string
	fileMgr port.FileManager

	mu     sync.Mutex
	cached *types.Config
}

// Ensure Store implements the ConfigStore port
var _ port.ConfigStore = (*Store)(nil)

// New creates a store for the file at path.
func New(path string, fileMgr port.FileManager) *Store {
	return &Store{path: path, fileMgr: fileMgr}
}

// Path returns the backing file location.
func (s *Store) Path() string {
	return s.path
}

// Load implements port.ConfigStore.
func (s *Store) Load() (types.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	logger := logging.WithComponent("configstore").WithField("path", s.path)

	data, err := s.fileMgr.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return types.DefaultConfig(), fmt.Errorf("%w: %s", types.ErrNotFound, s.path)
		}
		if s.cached != nil {
			logger.WithError(err).Warn("Failed to read config file, using last good value")
			return *s.cached, nil
		}
		return types.DefaultConfig(), fmt.Errorf("%w: failed to read %s: %v", types.ErrCorrupt, s.path, err)
	}

	cfg, err := decode(data)
	if err != nil {
		logger.WithError(err).Warn("Stored config is unusable, falling back to defaults")
		return types.DefaultConfig(), fmt.Errorf("%w: %s: %v", types.ErrCorrupt, s.path, err)
	}

	s.cached = &cfg
	return cfg, nil
}

// Save implements port.ConfigStore.
func (s *Store) Save(cfg types.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fileMgr.WriteFileAtomic(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	s.cached = &cfg
	logging.WithComponent("configstore").WithField("path", s.path).Info("Config saved")
	return nil
}

func decode(data []byte) (types.Config, error) {
	cfg := types.DefaultConfig()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return types.Config{}, fmt.Errorf("failed to parse JSON: %w", err)
	}
	cfg.IPMode = types.NormalizeIPMode(cfg.IPMode)
	if err := cfg.Validate(); err != nil {
		return types.Config{}, err
	}
	return cfg, nil
}

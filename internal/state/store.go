// Package state persists the engine state between runs.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/j-veylop/pacewatch-tui/internal/logger"
	"github.com/j-veylop/pacewatch-tui/internal/models"
)

// Store reads and writes the engine state as JSON at a fixed path.
type Store struct {
	path string
}

// NewStore creates a store backed by the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load returns the persisted state. A missing or corrupt file yields a fresh
// empty state so a bad shutdown never blocks startup.
func (s *Store) Load() *models.EngineState {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warn("failed to read state file, starting fresh", "path", s.path, "error", err)
		}
		return &models.EngineState{}
	}

	var st models.EngineState
	if err := json.Unmarshal(data, &st); err != nil {
		logger.Warn("corrupt state file, starting fresh", "path", s.path, "error", err)
		return &models.EngineState{}
	}
	return &st
}

// Save writes the state atomically via a temp file and rename.
func (s *Store) Save(st *models.EngineState) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".engine-state-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp state file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}

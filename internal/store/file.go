package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dandantas/starling/internal/model"
)

// FileScheduleStore persists the schedule as a single JSON document. Writes
// go through a temp file and rename so a crash mid-write cannot leave a
// half-written schedule behind.
type FileScheduleStore struct {
	path string
}

// NewFileScheduleStore creates a file-backed schedule store
func NewFileScheduleStore(path string) *FileScheduleStore {
	return &FileScheduleStore{path: path}
}

// Load reads the persisted schedule
func (s *FileScheduleStore) Load(ctx context.Context) (*model.Schedule, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read schedule file: %w", err)
	}

	var schedule model.Schedule
	if err := json.Unmarshal(data, &schedule); err != nil {
		return nil, fmt.Errorf("failed to parse schedule file: %w", err)
	}

	return &schedule, nil
}

// Save writes the schedule atomically
func (s *FileScheduleStore) Save(ctx context.Context, schedule *model.Schedule) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create schedule directory: %w", err)
	}

	data, err := json.MarshalIndent(schedule, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal schedule: %w", err)
	}

	tmp := fmt.Sprintf("%s.tmp-%d", s.path, time.Now().UTC().UnixNano())
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write schedule file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace schedule file: %w", err)
	}

	return nil
}

// Delete removes the persisted schedule
func (s *FileScheduleStore) Delete(ctx context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete schedule file: %w", err)
	}
	return nil
}

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/dandantas/starling/internal/model"
)

// profilesDocument is the on-disk shape of the profile list
type profilesDocument struct {
	Profiles []model.Profile `json:"profiles"`
}

// FileProfileStore loads profiles from a JSON document
type FileProfileStore struct {
	path string
}

// NewFileProfileStore creates a file-backed profile store
func NewFileProfileStore(path string) *FileProfileStore {
	return &FileProfileStore{path: path}
}

// List reads and validates the profile list. Invalid records are skipped
// with a warning rather than failing the whole load.
func (s *FileProfileStore) List(ctx context.Context) ([]model.Profile, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profiles file: %w", err)
	}

	var doc profilesDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse profiles file: %w", err)
	}

	out := make([]model.Profile, 0, len(doc.Profiles))
	for _, p := range doc.Profiles {
		if err := p.Validate(); err != nil {
			slog.Warn("Skipping invalid profile", "error", err)
			continue
		}
		out = append(out, p)
	}

	return out, nil
}

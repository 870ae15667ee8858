package state

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// FileSnapshotter persists the identity collection as a single JSON document.
// Saves are atomic: written to a temp file then renamed over the target.
type FileSnapshotter struct {
	path string
}

// NewFileSnapshotter creates the parent directory if needed.
func NewFileSnapshotter(path string) (*FileSnapshotter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return &FileSnapshotter{path: path}, nil
}

func (f *FileSnapshotter) Save(_ context.Context, snap Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}

// Load returns an empty snapshot when the document does not exist yet.
func (f *FileSnapshotter) Load(_ context.Context) (Snapshot, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Snapshot{}, nil
		}
		return Snapshot{}, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

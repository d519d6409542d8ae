package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/natserract/aukro/pkg/aukro"
)

// File keeps the session as JSON on disk so it survives process restarts
type File struct {
	mu   sync.Mutex
	path string
}

// NewFile creates a store backed by the file at path. The file is created on first Store.
func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Load(_ context.Context) (aukro.SessionRecord, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return aukro.SessionRecord{}, false, nil
	}
	if err != nil {
		return aukro.SessionRecord{}, false, fmt.Errorf("failed to read session file: %w", err)
	}

	var record aukro.SessionRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return aukro.SessionRecord{}, false, fmt.Errorf("failed to parse session file %s: %w", f.path, err)
	}
	return record, true, nil
}

// Store writes to a temp file in the same directory and renames it over the target
func (f *File) Store(_ context.Context, record aukro.SessionRecord) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create session file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to chmod session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}

func (f *File) Clear(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	fileMode = 0o600
	dirMode  = 0o700
)

// FileBackend keeps slots in a single JSON document on disk.
//
// Put writes a temporary file next to the target and renames it into place,
// so a crash leaves either the old document or the new one.
type FileBackend struct {
	path string
}

// NewFileBackend creates a [FileBackend] persisting to path.
func NewFileBackend(path string) (*FileBackend, error) {
	if path == "" {
		return nil, errors.New("session file path is empty")
	}
	return &FileBackend{path: filepath.Clean(path)}, nil
}

// Path returns the document location.
func (f *FileBackend) Path() string {
	return f.path
}

func (f *FileBackend) Put(_ context.Context, slots Slots) error {
	data, err := json.Marshal(slots)
	if err != nil {
		return err
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("create temp session file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp session file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp session file: %w", err)
	}
	if err := os.Chmod(tmpName, fileMode); err != nil {
		return fmt.Errorf("chmod temp session file: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}

	return nil
}

func (f *FileBackend) Get(context.Context) (Slots, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Slots{}, nil
	}
	if err != nil {
		return Slots{}, err
	}

	var slots Slots
	if err := json.Unmarshal(data, &slots); err != nil {
		return Slots{}, fmt.Errorf("decode session file: %w", err)
	}
	return slots, nil
}

func (f *FileBackend) Delete(context.Context) error {
	err := os.Remove(f.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

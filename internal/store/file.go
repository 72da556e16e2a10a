package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// file keeps the state document in one JSON file.
// The mutex serializes Update within this process only; two processes
// sharing the file still race, last writer wins.
type file struct {
	mu   sync.Mutex
	path string
}

// NewFile returns a Store backed by the JSON file at path.
// The file is created on first Save.
func NewFile(path string) Store {
	return &file{path: path}
}

func (f *file) Load(ctx context.Context) (*State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.read()
}

func (f *file) Save(ctx context.Context, s *State) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.write(s)
}

func (f *file) Update(ctx context.Context, fn func(*State) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, err := f.read()
	if err != nil {
		return err
	}
	if err := fn(s); err != nil {
		return err
	}
	return f.write(s)
}

func (f *file) Close() error { return nil }

func (f *file) read() (*State, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return decode(nil)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}
	return decode(raw)
}

// write replaces the file atomically via a temp file in the same directory.
func (f *file) write(s *State) error {
	raw, err := encode(s)
	if err != nil {
		return err
	}
	dir := filepath.Dir(f.path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("rename to %s: %w", f.path, err)
	}
	return nil
}

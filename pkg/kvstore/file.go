package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/golang/snappy"
)

const filePermissions = 0600

// File keeps the whole store in memory and rewrites a snappy-compressed
// JSON snapshot on every change. The snapshot is written to a temp file and
// renamed into place, so a crash leaves either the old or the new file.
type File struct {
	mu     sync.RWMutex
	path   string
	data   map[string][]byte
	closed bool
}

// OpenFile loads the snapshot at path, or starts empty when it does not exist
func OpenFile(path string) (*File, error) {
	if path == "" {
		return nil, errors.New("kvstore: file backend requires a path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	f := &File{path: path, data: make(map[string][]byte)}
	if err := f.load(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *File) load() error {
	compressed, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}
	if len(compressed) == 0 {
		return nil
	}

	raw, err := snappy.Decode(nil, compressed)
	if err != nil {
		return fmt.Errorf("failed to decompress snapshot: %w", err)
	}
	if err := json.Unmarshal(raw, &f.data); err != nil {
		return fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	if f.data == nil {
		f.data = make(map[string][]byte)
	}
	return nil
}

// flush writes the snapshot; callers hold the write lock
func (f *File) flush() error {
	raw, err := json.Marshal(f.data)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	compressed := snappy.Encode(nil, raw)

	tmpPath := f.path + ".tmp"
	if err := os.WriteFile(tmpPath, compressed, filePermissions); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		return fmt.Errorf("failed to rename snapshot: %w", err)
	}
	return nil
}

func (f *File) Get(ctx context.Context, key string) ([]byte, bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		return nil, false, ErrClosed
	}
	v, ok := f.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (f *File) Set(ctx context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}

	prev, had := f.data[key]
	f.data[key] = append([]byte(nil), value...)
	if err := f.flush(); err != nil {
		// Keep memory consistent with disk.
		if had {
			f.data[key] = prev
		} else {
			delete(f.data, key)
		}
		return err
	}
	return nil
}

func (f *File) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}

	prev, had := f.data[key]
	if !had {
		return nil
	}
	delete(f.data, key)
	if err := f.flush(); err != nil {
		f.data[key] = prev
		return err
	}
	return nil
}

func (f *File) Keys(ctx context.Context, prefix string) ([]string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		return nil, ErrClosed
	}
	return sortedKeys(f.data, prefix), nil
}

func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

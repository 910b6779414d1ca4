// Package kvstore provides the key-value boundary the persistence adapter
// writes through, with in-memory, snapshot-file, SQLite and PostgreSQL
// backends.
package kvstore

import (
	"context"
	"errors"
	"sort"
	"strings"
)

// ErrClosed is returned by every operation on a closed store
var ErrClosed = errors.New("kvstore: store is closed")

// Store is a durable string-keyed byte store
type Store interface {
	// Get returns the value for key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Keys returns every key with the prefix in sorted order.
	Keys(ctx context.Context, prefix string) ([]string, error)
	// Close releases the store's resources.
	Close() error
}

// Backend names accepted by Open
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Backends lists every supported backend name
func Backends() []string {
	return []string{BackendMemory, BackendFile, BackendSQLite, BackendPostgres}
}

// Options selects and configures a backend
type Options struct {
	Backend     string
	Path        string // file and sqlite backends
	DatabaseURL string // postgres backend
}

// Open creates the store named by opts.Backend
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case BackendMemory, "":
		return NewMemory(), nil
	case BackendFile:
		return OpenFile(opts.Path)
	case BackendSQLite:
		return OpenSQLite(ctx, opts.Path)
	case BackendPostgres:
		return OpenPostgres(ctx, opts.DatabaseURL)
	default:
		return nil, errors.New("kvstore: unknown backend " + opts.Backend)
	}
}

func sortedKeys[V any](m map[string]V, prefix string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

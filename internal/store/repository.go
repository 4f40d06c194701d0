package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	RepositoryBackendFile   = "file"
	RepositoryBackendBbolt  = "bbolt"
	RepositoryBackendSQLite = "sqlite"
)

// Well-known blob keys. An absent key means the value was never written.
const (
	KeyHistory  = "routinetimer.history"
	KeyAppState = "routinetimer.app_state"
)

var (
	ErrUnsupportedBackend = errors.New("unsupported repository backend")
	errKeyRequired        = errors.New("blob key is required")
)

// BlobStore keeps opaque values under string keys. Get reports ok=false when
// the key has never been written.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

type Repository interface {
	Blobs() BlobStore
	AppState() AppStateStore
	Backend() string
	Close() error
}

type RepositoryPaths struct {
	DBPath     string
	SQLitePath string
	FileDir    string
}

func OpenRepository(paths RepositoryPaths, backend string) (Repository, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", RepositoryBackendBbolt:
		if strings.TrimSpace(paths.DBPath) == "" {
			return nil, errors.New("db path is required for bbolt repository")
		}
		return NewBboltRepository(paths.DBPath)
	case RepositoryBackendSQLite:
		if strings.TrimSpace(paths.SQLitePath) == "" {
			return nil, errors.New("db path is required for sqlite repository")
		}
		return NewSQLiteRepository(paths.SQLitePath)
	case RepositoryBackendFile:
		if strings.TrimSpace(paths.FileDir) == "" {
			return nil, errors.New("directory is required for file repository")
		}
		return NewFileRepository(paths.FileDir), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedBackend, backend)
	}
}

var seedKeys = []string{KeyHistory, KeyAppState}

// SeedRepositoryFromFiles copies blobs written by the file backend into dst
// for every well-known key dst does not have yet. Switching from the file
// backend to a database keeps existing history this way.
func SeedRepositoryFromFiles(ctx context.Context, dst Repository, fileDir string) error {
	if dst == nil || dst.Backend() == RepositoryBackendFile || strings.TrimSpace(fileDir) == "" {
		return nil
	}
	src := NewFileRepository(fileDir)
	defer src.Close()

	for _, key := range seedKeys {
		if err := seedBlob(ctx, dst.Blobs(), src.Blobs(), key); err != nil {
			return fmt.Errorf("seed %s: %w", key, err)
		}
	}
	return nil
}

func seedBlob(ctx context.Context, dst, src BlobStore, key string) error {
	_, ok, err := dst.Get(ctx, key)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	legacy, ok, err := src.Get(ctx, key)
	if err != nil || !ok {
		return err
	}
	return dst.Put(ctx, key, legacy)
}

func validateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return errKeyRequired
	}
	return nil
}

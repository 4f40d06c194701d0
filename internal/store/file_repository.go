package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

type fileRepository struct {
	blobs    BlobStore
	appState AppStateStore
}

// NewFileRepository keeps every blob as <dir>/<key>.json.
func NewFileRepository(dir string) Repository {
	blobs := &fileBlobStore{dir: dir}
	return &fileRepository{
		blobs:    blobs,
		appState: NewBlobAppStateStore(blobs),
	}
}

func (r *fileRepository) Blobs() BlobStore {
	return r.blobs
}

func (r *fileRepository) AppState() AppStateStore {
	return r.appState
}

func (r *fileRepository) Backend() string {
	return RepositoryBackendFile
}

func (r *fileRepository) Close() error {
	return nil
}

type fileBlobStore struct {
	dir string
	mu  sync.Mutex
}

func (s *fileBlobStore) path(key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	if strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return "", errors.New("blob key must not contain path separators")
	}
	return filepath.Join(s.dir, key+".json"), nil
}

func (s *fileBlobStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

func (s *fileBlobStore) Put(ctx context.Context, key string, value []byte) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeFileAtomic(path, value)
}

func (s *fileBlobStore) Delete(ctx context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

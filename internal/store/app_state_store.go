package store

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"routinetimer/internal/types"
)

type AppStateStore interface {
	Load(ctx context.Context) (*types.AppState, error)
	Save(ctx context.Context, state *types.AppState) error
}

type BlobAppStateStore struct {
	blobs BlobStore
	mu    sync.Mutex
}

func NewBlobAppStateStore(blobs BlobStore) *BlobAppStateStore {
	return &BlobAppStateStore{blobs: blobs}
}

func (s *BlobAppStateStore) Load(ctx context.Context) (*types.AppState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := &types.AppState{}
	raw, ok, err := s.blobs.Get(ctx, KeyAppState)
	if err != nil {
		return nil, err
	}
	if !ok || len(raw) == 0 {
		return state, nil
	}
	if err := json.Unmarshal(raw, state); err != nil {
		return nil, err
	}
	return state, nil
}

func (s *BlobAppStateStore) Save(ctx context.Context, state *types.AppState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if state == nil {
		return errors.New("state is required")
	}
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.blobs.Put(ctx, KeyAppState, raw)
}

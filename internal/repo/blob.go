// Package repo contains the on-device persistence for the travel diary.
// Offline data lives in a small key/value blob store; each key holds one JSON
// array. No business logic lives here beyond record validation and the
// derived trip dates.
package repo

import (
	"context"
	"maps"
	"sync"
)

// Storage keys. The names and value shapes are shared with earlier app
// versions, so they must not change.
const (
	KeyOfflineMarkers = "offlineMarkers"
	KeyTripInfo       = "tripInfo"
	KeyTripImages     = "tripImages"
	KeyTripMarkers    = "tripMarkers"
)

// BlobStore is a string-keyed store of opaque values.
type BlobStore interface {
	// Get returns the value for key. ok is false when the key was never set.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Update runs fn inside a single transaction. Every Put made by fn becomes
	// visible together when fn returns nil, and none of them do otherwise.
	Update(ctx context.Context, fn func(tx BlobTx) error) error
}

// BlobTx is the view of a BlobStore inside Update.
type BlobTx interface {
	Get(key string) (value []byte, ok bool, err error)
	Put(key string, value []byte) error
}

// MemoryBlobStore is an in-process BlobStore used in tests and when the
// daemon runs without a data directory.
type MemoryBlobStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

// NewMemoryBlobStore returns an empty MemoryBlobStore.
func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{data: make(map[string][]byte)}
}

func (s *MemoryBlobStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return clone(v), ok, nil
}

func (s *MemoryBlobStore) Update(ctx context.Context, fn func(tx BlobTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memoryTx{base: s.data, staged: make(map[string][]byte)}
	if err := fn(tx); err != nil {
		return err
	}
	maps.Copy(s.data, tx.staged)
	return nil
}

type memoryTx struct {
	base   map[string][]byte
	staged map[string][]byte
}

func (tx *memoryTx) Get(key string) ([]byte, bool, error) {
	if v, ok := tx.staged[key]; ok {
		return clone(v), true, nil
	}
	v, ok := tx.base[key]
	return clone(v), ok, nil
}

func (tx *memoryTx) Put(key string, value []byte) error {
	tx.staged[key] = clone(value)
	return nil
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}

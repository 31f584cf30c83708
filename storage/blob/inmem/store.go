// Package inmemblob is a map-backed core.BlobStore for tests. Keys iterates
// in lexical order to match the bolt store.
package inmemblob

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/shuleapp/shule/core"
)

type Store struct {
	mu    sync.RWMutex
	blobs map[string][]byte

	// FailWrites, when set, makes Add/Put return this error without storing.
	FailWrites error
}

var _ core.BlobStore = (*Store)(nil)

func New() *Store {
	return &Store{blobs: make(map[string][]byte)}
}

func (s *Store) Add(blob []byte) (string, error) {
	key := uuid.NewString()
	if err := s.Put(key, blob); err != nil {
		return "", err
	}
	return key, nil
}

func (s *Store) Put(key string, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites != nil {
		return s.FailWrites
	}
	s.blobs[key] = append([]byte(nil), blob...)
	return nil
}

func (s *Store) Get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	blob, ok := s.blobs[key]
	if !ok {
		return nil, core.ErrNotFound
	}
	return append([]byte(nil), blob...), nil
}

func (s *Store) Keys() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.blobs))
	for k := range s.blobs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, key)
	return nil
}

// Package inmemkv is a map-backed core.KeyValueStore for tests and throwaway
// environments. Behavior mirrors the bolt store minus the file on disk.
package inmemkv

import (
	"encoding/json"
	"sync"

	"github.com/pkg/errors"

	"github.com/shuleapp/shule/core"
)

type Store struct {
	mu     sync.RWMutex
	data   map[string][]byte
	subs   map[string][]*subscription
	nextID int

	// FailWrites, when set, makes every Set/Update return this error without
	// touching stored data. Tests use it to exercise write-failure paths.
	FailWrites error
}

type subscription struct {
	id int
	fn func()
}

var _ core.KeyValueStore = (*Store)(nil)

func New() *Store {
	return &Store{
		data: make(map[string][]byte),
		subs: make(map[string][]*subscription),
	}
}

func (s *Store) Get(key string, out interface{}) error {
	s.mu.RLock()
	raw, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return nil
	}
	return errors.Wrapf(json.Unmarshal(raw, out), "inmemkv: decode %q", key)
}

func (s *Store) Set(key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return errors.Wrapf(err, "inmemkv: encode %q", key)
	}
	return s.commit(key, func([]byte) ([]byte, error) { return raw, nil })
}

func (s *Store) Update(key string, fn func(raw []byte) ([]byte, error)) error {
	return s.commit(key, fn)
}

func (s *Store) Subscribe(key string, fn func()) (cancel func()) {
	s.mu.Lock()
	s.nextID++
	sub := &subscription{id: s.nextID, fn: fn}
	s.subs[key] = append(s.subs[key], sub)
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		subs := s.subs[key]
		for i, other := range subs {
			if other.id == sub.id {
				s.subs[key] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
	}
}

func (s *Store) commit(key string, fn func(raw []byte) ([]byte, error)) error {
	s.mu.Lock()
	if s.FailWrites != nil {
		s.mu.Unlock()
		return s.FailWrites
	}
	raw, err := fn(s.data[key])
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.data[key] = raw
	subs := append([]*subscription(nil), s.subs[key]...)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn()
	}
	return nil
}

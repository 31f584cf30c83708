// Package boltkv implements core.KeyValueStore on top of a bbolt database.
// Snapshots are JSON-encoded values in a single bucket; an in-memory mirror
// loaded at open time serves reads and keeps every consumer of the store
// instance in sync.
package boltkv

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	"github.com/shuleapp/shule/core"
)

var bucketName = []byte("kv")

type Store struct {
	db *bolt.DB

	mu     sync.RWMutex
	mirror map[string][]byte
	subs   map[string][]*subscription
	nextID int
}

type subscription struct {
	id int
	fn func()
}

var _ core.KeyValueStore = (*Store)(nil)

// Open opens (creating if needed) the database at path and loads the mirror.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "boltkv: open %s", path)
	}
	s := &Store{
		db:     db,
		mirror: make(map[string][]byte),
		subs:   make(map[string][]*subscription),
	}
	err = db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketName)
		if err != nil {
			return err
		}
		return b.ForEach(func(k, v []byte) error {
			s.mirror[string(k)] = append([]byte(nil), v...)
			return nil
		})
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "boltkv: load mirror")
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Get(key string, out interface{}) error {
	s.mu.RLock()
	raw, ok := s.mirror[key]
	s.mu.RUnlock()
	if !ok {
		return nil // caller's zero value is the default
	}
	return errors.Wrapf(json.Unmarshal(raw, out), "boltkv: decode %q", key)
}

func (s *Store) Set(key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return errors.Wrapf(err, "boltkv: encode %q", key)
	}
	s.mu.Lock()
	if err := s.persist(key, raw); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mirror[key] = raw
	subs := s.subscribers(key)
	s.mu.Unlock()

	notify(subs)
	return nil
}

func (s *Store) Update(key string, fn func(raw []byte) ([]byte, error)) error {
	s.mu.Lock()
	prev := s.mirror[key] // nil when absent
	raw, err := fn(prev)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if err := s.persist(key, raw); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mirror[key] = raw
	subs := s.subscribers(key)
	s.mu.Unlock()

	notify(subs)
	return nil
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

// persist writes raw under key; caller holds the write lock.
func (s *Store) persist(key string, raw []byte) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(key), raw)
	})
	return errors.Wrapf(err, "boltkv: persist %q", key)
}

// subscribers snapshots the subscriber list; caller holds a lock. Callbacks
// run after the lock is released so they may freely read the store.
func (s *Store) subscribers(key string) []*subscription {
	return append([]*subscription(nil), s.subs[key]...)
}

func notify(subs []*subscription) {
	for _, sub := range subs {
		sub.fn()
	}
}

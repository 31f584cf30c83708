// Package boltblob implements core.BlobStore on top of a bbolt database.
// One database file hosts several named buckets so entity photos and gallery
// images keep separate key spaces. Store-generated keys are uuids, so Keys
// (bolt cursor order, lexical) bears no relation to insertion order;
// business orderings live elsewhere.
package boltblob

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	"github.com/shuleapp/shule/core"
)

// Default bucket names used by the application.
const (
	PhotosBucket  = "photos"
	GalleryBucket = "gallery"
)

// DB is an open asset database; individual buckets are exposed as
// core.BlobStore instances via Bucket.
type DB struct {
	db *bolt.DB
}

// Open opens (creating if needed) the asset database at path.
func Open(path string) (*DB, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "boltblob: open %s", path)
	}
	return &DB{db: db}, nil
}

func (d *DB) Close() error { return d.db.Close() }

// Bucket returns the blob store backed by the named bucket, creating the
// bucket on first use.
func (d *DB) Bucket(name string) (*Store, error) {
	err := d.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(name))
		return err
	})
	if err != nil {
		return nil, errors.Wrapf(err, "boltblob: create bucket %q", name)
	}
	return &Store{db: d.db, bucket: []byte(name)}, nil
}

type Store struct {
	db     *bolt.DB
	bucket []byte
}

var _ core.BlobStore = (*Store)(nil)

func (s *Store) Add(blob []byte) (string, error) {
	key := uuid.NewString()
	if err := s.Put(key, blob); err != nil {
		return "", err
	}
	return key, nil
}

func (s *Store) Put(key string, blob []byte) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Put([]byte(key), blob)
	})
	return errors.Wrapf(err, "boltblob: put %q", key)
}

func (s *Store) Get(key string) ([]byte, error) {
	var blob []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(s.bucket).Get([]byte(key))
		if v == nil {
			return core.ErrNotFound
		}
		blob = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "boltblob: get %q", key)
	}
	return blob, nil
}

func (s *Store) Keys() ([]string, error) {
	var keys []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, "boltblob: keys")
	}
	return keys, nil
}

func (s *Store) Delete(key string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Delete([]byte(key))
	})
	return errors.Wrapf(err, "boltblob: delete %q", key)
}

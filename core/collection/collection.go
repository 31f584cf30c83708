// Package collection layers the persisted-collection pattern over a
// KeyValueStore: each domain collection is a JSON list of records stored
// under one key, with a case-insensitive unique-key invariant and a
// max-plus-one ID sequence per key prefix.
package collection

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/shuleapp/shule/core"
)

// Keyed is any record exposing its identifying key. Keys are compared
// case-insensitively for uniqueness and lookups.
type Keyed interface {
	Key() string
}

// Collection is a persisted list of records of one domain type bound to a
// KeyValueStore key.
type Collection[T Keyed] struct {
	store core.KeyValueStore
	name  string
}

func New[T Keyed](store core.KeyValueStore, name string) *Collection[T] {
	return &Collection[T]{store: store, name: name}
}

// Name returns the persistence key this collection is stored under.
func (c *Collection[T]) Name() string { return c.name }

func (c *Collection[T]) All() ([]T, error) {
	var items []T
	if err := c.store.Get(c.name, &items); err != nil {
		return nil, errors.Wrapf(err, "collection %q: load", c.name)
	}
	return items, nil
}

// Get returns the record whose key matches id case-insensitively, or
// core.ErrNotFound.
func (c *Collection[T]) Get(id string) (T, error) {
	var zero T
	items, err := c.All()
	if err != nil {
		return zero, err
	}
	for _, it := range items {
		if strings.EqualFold(it.Key(), id) {
			return it, nil
		}
	}
	return zero, core.ErrNotFound
}

// Replace overwrites the whole collection after checking key uniqueness.
func (c *Collection[T]) Replace(items []T) error {
	if err := checkUnique(items); err != nil {
		return err
	}
	if err := c.store.Set(c.name, items); err != nil {
		return errors.Wrapf(err, "collection %q: save", c.name)
	}
	return nil
}

// Mutate applies fn to the current record list as a single read-modify-write
// under the store lock. The resulting list is checked for key uniqueness
// before commit; any error from fn aborts without writing.
func (c *Collection[T]) Mutate(fn func(items []T) ([]T, error)) error {
	err := c.store.Update(c.name, func(raw []byte) ([]byte, error) {
		var items []T
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &items); err != nil {
				return nil, errors.Wrapf(err, "collection %q: decode", c.name)
			}
		}
		out, err := fn(items)
		if err != nil {
			return nil, err
		}
		if err := checkUnique(out); err != nil {
			return nil, err
		}
		return json.Marshal(out)
	})
	return errors.Wrapf(err, "collection %q", c.name)
}

// Subscribe registers fn to run after every committed mutation of this
// collection, from this or any other consumer of the same store.
func (c *Collection[T]) Subscribe(fn func()) (cancel func()) {
	return c.store.Subscribe(c.name, fn)
}

// NextID generates the next ID for the given prefix: records whose key does
// not start with prefix or whose suffix is not numeric are ignored, and the
// result is 1 + the highest surviving suffix, zero-padded to 3 digits
// (overflow to 4+ digits is valid, e.g. EMP1000).
//
// The sequence is derived from surviving records only, so an ID freed by a
// deletion may be reassigned later.
func NextID[T Keyed](items []T, prefix string) string {
	var max int
	for _, it := range items {
		key := it.Key()
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		n, err := strconv.Atoi(key[len(prefix):])
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return fmt.Sprintf("%s%03d", prefix, max+1)
}

func checkUnique[T Keyed](items []T) error {
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		key := strings.ToLower(it.Key())
		if _, ok := seen[key]; ok {
			return errors.Wrap(core.ErrDuplicateKey, it.Key())
		}
		seen[key] = struct{}{}
	}
	return nil
}

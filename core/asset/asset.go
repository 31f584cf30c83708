// Package asset ties blob writes to entity photo/logo flags and manages
// transient preview handles.
//
// The binding rule is write-then-flag: a record's photo flag may be set only
// after the blob write succeeded, and a failed write must leave both the flag
// and the record untouched. Services enforce this by calling Write before
// committing the flag change.
package asset

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/shuleapp/shule/core"
)

// WriteError wraps a failed blob write so callers can surface it as an asset
// notification and abandon the triggering entity mutation.
type WriteError struct {
	Key string
	Err error
}

func (e *WriteError) Error() string { return "asset write failed for " + e.Key + ": " + e.Err.Error() }
func (e *WriteError) Unwrap() error { return e.Err }

// Write stores blob under key, wrapping any failure as a *WriteError.
func Write(blobs core.BlobStore, key string, blob []byte) error {
	if err := blobs.Put(key, blob); err != nil {
		return &WriteError{Key: key, Err: err}
	}
	return nil
}

// IsWriteError reports whether err (or its cause) is a *WriteError.
func IsWriteError(err error) bool {
	var we *WriteError
	return errors.As(err, &we)
}

// Preview is a transient handle over freshly selected image bytes, shown
// before commit. It is never derived from the store. Holders must Release it
// when it is superseded, the form is reset, or the owning view goes away;
// Release is idempotent.
type Preview struct {
	mu       sync.Mutex
	data     []byte
	released bool
}

func NewPreview(data []byte) *Preview {
	return &Preview{data: append([]byte(nil), data...)}
}

// Bytes returns the preview content, or nil after Release.
func (p *Preview) Bytes() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return nil
	}
	return p.data
}

func (p *Preview) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.released = true
	p.data = nil
}

// Released reports whether the handle has been released.
func (p *Preview) Released() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.released
}

// Slot owns at most one live Preview and guarantees release on every exit
// path: replacement, reset, and Close.
type Slot struct {
	mu      sync.Mutex
	current *Preview
}

func NewSlot() *Slot { return &Slot{} }

// Set installs a new preview over data, releasing the previous one.
func (s *Slot) Set(data []byte) *Preview {
	p := NewPreview(data)
	s.mu.Lock()
	prev := s.current
	s.current = p
	s.mu.Unlock()
	if prev != nil {
		prev.Release()
	}
	return p
}

// Current returns the live preview, or nil.
func (s *Slot) Current() *Preview {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Reset releases the live preview, if any.
func (s *Slot) Reset() {
	s.mu.Lock()
	prev := s.current
	s.current = nil
	s.mu.Unlock()
	if prev != nil {
		prev.Release()
	}
}

// Close releases the live preview; it exists so a Slot can be deferred at
// view teardown.
func (s *Slot) Close() error {
	s.Reset()
	return nil
}

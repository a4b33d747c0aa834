package store

import (
	"context"
	"encoding/json"
	"os"
	"sync"

	"github.com/pkg/errors"
)

// MemoryStore keeps encoded documents in memory. Documents go through the
// same JSON encoding as FileStore, so callers never share memory with the
// store.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[Kind][]byte
}

var _ Store = (*MemoryStore)(nil)
var _ Bootstrapper = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: map[Kind][]byte{},
	}
}

func (s *MemoryStore) Load(ctx context.Context, kind Kind, v interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	b, ok := s.docs[kind]
	s.mu.RUnlock()
	if !ok {
		return unavailable(kind, "load", "", os.ErrNotExist)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return unavailable(kind, "load", "", errors.Wrap(err, "could not decode document"))
	}
	return nil
}

func (s *MemoryStore) Save(ctx context.Context, kind Kind, v interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := kind.FileName(); err != nil {
		return err
	}
	b, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return errors.Wrapf(err, "could not encode %s document", kind)
	}
	s.mu.Lock()
	s.docs[kind] = b
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Bootstrap(ctx context.Context, defaults map[Kind]interface{}) error {
	for kind, v := range defaults {
		s.mu.RLock()
		_, ok := s.docs[kind]
		s.mu.RUnlock()
		if ok {
			continue
		}
		if err := s.Save(ctx, kind, v); err != nil {
			return err
		}
	}
	return nil
}

// Raw returns a copy of the encoded document, or nil if it was never saved.
func (s *MemoryStore) Raw(kind Kind) []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.docs[kind]
	if !ok {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

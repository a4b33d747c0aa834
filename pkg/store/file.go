package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// FileStore persists each document kind as an indented JSON file in a
// single directory. Saves go through a temporary file that is renamed over
// the target.
type FileStore struct {
	mu      sync.RWMutex
	dir     string
	schemas map[Kind][]byte
}

var _ Store = (*FileStore)(nil)
var _ Bootstrapper = (*FileStore)(nil)

type FileStoreOption func(*FileStore)

// WithSchema validates documents of the given kind against a JSON schema
// when they are loaded.
func WithSchema(kind Kind, schema []byte) FileStoreOption {
	return func(s *FileStore) {
		s.schemas[kind] = schema
	}
}

// WithDefaultSchemas enables validation for every built-in document kind.
func WithDefaultSchemas() FileStoreOption {
	return func(s *FileStore) {
		for kind, schema := range DefaultSchemas() {
			s.schemas[kind] = schema
		}
	}
}

func NewFileStore(dir string, options ...FileStoreOption) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("file store directory is required")
	}
	s := &FileStore{
		dir:     dir,
		schemas: map[Kind][]byte{},
	}
	for _, o := range options {
		o(s)
	}
	return s, nil
}

// Path returns the file backing the given document kind.
func (s *FileStore) Path(kind Kind) (string, error) {
	name, err := kind.FileName()
	if err != nil {
		return "", err
	}
	return filepath.Join(s.dir, name), nil
}

func (s *FileStore) Load(ctx context.Context, kind Kind, v interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.Path(kind)
	if err != nil {
		return err
	}

	s.mu.RLock()
	b, err := os.ReadFile(path)
	s.mu.RUnlock()
	if err != nil {
		return unavailable(kind, "load", path, err)
	}

	if schema, ok := s.schemas[kind]; ok {
		if err := validateDocument(schema, b); err != nil {
			return unavailable(kind, "load", path, err)
		}
	}

	if err := json.Unmarshal(b, v); err != nil {
		return unavailable(kind, "load", path, errors.Wrap(err, "could not decode document"))
	}
	return nil
}

func (s *FileStore) Save(ctx context.Context, kind Kind, v interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.Path(kind)
	if err != nil {
		return err
	}

	b, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return errors.Wrapf(err, "could not encode %s document", kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writeLocked(path, b); err != nil {
		return unavailable(kind, "save", path, err)
	}

	log.Trace().Str("kind", string(kind)).Str("path", path).Int("bytes", len(b)).Msg("saved document")
	return nil
}

// Bootstrap writes the default document for every kind whose file does not
// exist yet. Existing documents are left alone.
func (s *FileStore) Bootstrap(ctx context.Context, defaults map[Kind]interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for kind, v := range defaults {
		path, err := s.Path(kind)
		if err != nil {
			return err
		}
		_, err = os.Stat(path)
		if err == nil {
			continue
		}
		if !os.IsNotExist(err) {
			return unavailable(kind, "bootstrap", path, err)
		}

		b, err := json.MarshalIndent(v, "", "    ")
		if err != nil {
			return errors.Wrapf(err, "could not encode default %s document", kind)
		}
		if err := s.writeLocked(path, b); err != nil {
			return unavailable(kind, "bootstrap", path, err)
		}
		log.Info().Str("kind", string(kind)).Str("path", path).Msg("created default document")
	}
	return nil
}

func (s *FileStore) writeLocked(path string, b []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

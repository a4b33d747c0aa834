package store

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrUnknownKind        = errors.New("unknown document kind")
)

// StorageError reports a document that could not be read or written.
type StorageError struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	if e == nil {
		return ErrStorageUnavailable.Error()
	}
	if e.Path == "" {
		return fmt.Sprintf("%s: %s %s: %v", ErrStorageUnavailable, e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s %s (%s): %v", ErrStorageUnavailable, e.Op, e.Kind, e.Path, e.Err)
}

func (e *StorageError) Is(target error) bool { return target == ErrStorageUnavailable }

func (e *StorageError) Unwrap() error { return e.Err }

func unavailable(kind Kind, op string, path string, err error) error {
	return &StorageError{Kind: kind, Op: op, Path: path, Err: err}
}

// Package store persists the relay's structured documents.
//
// Each document kind (conversation history, bot persona) lives in its own
// JSON document. Writers always replace a whole document; readers never see
// a partially written one.
package store

import (
	"context"
)

// Kind identifies one of the independently stored documents.
type Kind string

const (
	KindHistory Kind = "history"
	KindPersona Kind = "persona"
)

// Kinds lists every document kind the relay persists.
var Kinds = []Kind{KindHistory, KindPersona}

// FileName returns the on-disk file name for a document kind.
func (k Kind) FileName() (string, error) {
	switch k {
	case KindHistory:
		return "history.json", nil
	case KindPersona:
		return "about.json", nil
	default:
		return "", ErrUnknownKind
	}
}

// Store loads and saves whole documents.
//
// Load decodes the stored document into v. Save encodes v and replaces the
// stored document. Both fail with ErrStorageUnavailable when the backing
// storage cannot serve the request.
type Store interface {
	Load(ctx context.Context, kind Kind, v interface{}) error
	Save(ctx context.Context, kind Kind, v interface{}) error
}

// Bootstrapper creates missing documents from defaults.
type Bootstrapper interface {
	Bootstrap(ctx context.Context, defaults map[Kind]interface{}) error
}

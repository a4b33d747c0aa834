package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type personaDoc struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func TestFileStore_SaveAndReload(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, KindPersona, personaDoc{Name: "Lilly", Description: "friendly"}))

	reloaded, err := NewFileStore(dir)
	require.NoError(t, err)
	var got personaDoc
	require.NoError(t, reloaded.Load(ctx, KindPersona, &got))
	assert.Equal(t, personaDoc{Name: "Lilly", Description: "friendly"}, got)

	_, err = os.Stat(filepath.Join(dir, "about.json.tmp"))
	assert.True(t, os.IsNotExist(err), "temporary file must not survive a save")
}

func TestFileStore_MissingDocumentIsUnavailable(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	var got personaDoc
	err = s.Load(context.Background(), KindHistory, &got)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStorageUnavailable))

	var se *StorageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, KindHistory, se.Kind)
	assert.Equal(t, "load", se.Op)
}

func TestFileStore_UndecodableDocumentIsUnavailable(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "about.json"), []byte("{not json"), 0o644))

	s, err := NewFileStore(dir)
	require.NoError(t, err)
	var got personaDoc
	err = s.Load(context.Background(), KindPersona, &got)
	assert.True(t, errors.Is(err, ErrStorageUnavailable))
}

func TestFileStore_SchemaValidation(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "history.json"), []byte(`{"current": {"1": {"response": "hi"}}, "archived": []}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "about.json"), []byte(`{"name": "Lilly", "description": "x"}`), 0o644))

	s, err := NewFileStore(dir, WithDefaultSchemas())
	require.NoError(t, err)

	var history map[string]interface{}
	err = s.Load(ctx, KindHistory, &history)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStorageUnavailable))
	assert.Contains(t, err.Error(), "user_input")

	var persona personaDoc
	require.NoError(t, s.Load(ctx, KindPersona, &persona))
	assert.Equal(t, "Lilly", persona.Name)
}

func TestFileStore_BootstrapKeepsExistingDocuments(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	existing := []byte(`{"name": "Oliver", "description": "kept"}`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "about.json"), existing, 0o644))

	s, err := NewFileStore(filepath.Join(dir))
	require.NoError(t, err)
	err = s.Bootstrap(ctx, map[Kind]interface{}{
		KindPersona: personaDoc{Name: "Lilly"},
		KindHistory: map[string]interface{}{"current": map[string]interface{}{}, "archived": []interface{}{}},
	})
	require.NoError(t, err)

	b, err := os.ReadFile(filepath.Join(dir, "about.json"))
	require.NoError(t, err)
	assert.Equal(t, existing, b)

	var history map[string]interface{}
	require.NoError(t, s.Load(ctx, KindHistory, &history))
	assert.Contains(t, history, "current")
	assert.Contains(t, history, "archived")
}

func TestFileStore_BootstrapCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "chat", "data")
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, s.Bootstrap(context.Background(), map[Kind]interface{}{
		KindPersona: personaDoc{Name: "Lilly"},
	}))
	_, err = os.Stat(filepath.Join(dir, "about.json"))
	require.NoError(t, err)
}

func TestFileStore_UnknownKind(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	err = s.Save(context.Background(), Kind("settings"), personaDoc{})
	assert.True(t, errors.Is(err, ErrUnknownKind))
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	var got personaDoc
	assert.True(t, errors.Is(s.Load(ctx, KindPersona, &got), ErrStorageUnavailable))

	require.NoError(t, s.Save(ctx, KindPersona, personaDoc{Name: "Lilly"}))
	require.NoError(t, s.Load(ctx, KindPersona, &got))
	assert.Equal(t, "Lilly", got.Name)
	assert.Contains(t, string(s.Raw(KindPersona)), `"name": "Lilly"`)
	assert.Nil(t, s.Raw(KindHistory))
}

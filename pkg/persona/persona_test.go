package persona

import (
	"context"
	"testing"

	"github.com/go-go-golems/chatrelay/pkg/store"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (*Service, *store.MemoryStore) {
	t.Helper()
	s := store.NewMemoryStore()
	require.NoError(t, s.Bootstrap(context.Background(), map[store.Kind]interface{}{
		store.KindPersona: Default(),
	}))
	return NewService(s), s
}

func TestService_SetDescription(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	p, err := svc.SetDescription(ctx, "A grumpy pirate.")
	require.NoError(t, err)
	assert.Equal(t, &Persona{Name: DefaultName, Description: "A grumpy pirate."}, p)

	got, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "A grumpy pirate.", got.Description)
}

func TestService_SetName(t *testing.T) {
	svc, s := newService(t)
	ctx := context.Background()

	_, err := svc.SetName(ctx, "  Oliver ")
	require.NoError(t, err)
	got, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Oliver", got.Name)

	before := s.Raw(store.KindPersona)
	_, err = svc.SetName(ctx, "   ")
	require.Error(t, err)
	assert.Equal(t, before, s.Raw(store.KindPersona))
}

func TestService_MissingDocument(t *testing.T) {
	svc := NewService(store.NewMemoryStore())
	_, err := svc.Get(context.Background())
	assert.True(t, errors.Is(err, store.ErrStorageUnavailable))
}

func TestPersona_CloneIsIndependent(t *testing.T) {
	p := Default()
	c := p.Clone()
	c.Name = "Other"
	assert.Equal(t, DefaultName, p.Name)
}

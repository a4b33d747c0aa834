// Package persona stores the assistant's name and character description.
package persona

import (
	"context"
	"strings"
	"sync"

	"github.com/go-go-golems/chatrelay/pkg/store"
	"github.com/huandu/go-clone"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	DefaultName        = "Lilly"
	DefaultDescription = "A helpful and friendly AI assistant."
)

type Persona struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func Default() *Persona {
	return &Persona{Name: DefaultName, Description: DefaultDescription}
}

func (p *Persona) Clone() *Persona {
	return clone.Clone(p).(*Persona)
}

// Service reads and updates the persona document.
type Service struct {
	mu    sync.Mutex
	store store.Store
}

func NewService(s store.Store) *Service {
	return &Service{store: s}
}

func (s *Service) Get(ctx context.Context) (*Persona, error) {
	p := &Persona{}
	if err := s.store.Load(ctx, store.KindPersona, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) SetDescription(ctx context.Context, description string) (*Persona, error) {
	return s.update(ctx, func(p *Persona) error {
		p.Description = description
		return nil
	})
}

func (s *Service) SetName(ctx context.Context, name string) (*Persona, error) {
	name = strings.TrimSpace(name)
	return s.update(ctx, func(p *Persona) error {
		if name == "" {
			return errors.New("persona name cannot be empty")
		}
		p.Name = name
		return nil
	})
}

func (s *Service) update(ctx context.Context, f func(p *Persona) error) (*Persona, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	if err := f(p); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, store.KindPersona, p); err != nil {
		return nil, err
	}

	log.Info().Str("name", p.Name).Int("description_length", len(p.Description)).Msg("persona updated")
	return p.Clone(), nil
}

// Package relay connects chat messages to the conversation engine and
// exposes the administrative operations of the bot.
package relay

import (
	"context"
	"strings"

	"github.com/go-go-golems/chatrelay/pkg/control"
	"github.com/go-go-golems/chatrelay/pkg/engine"
	"github.com/go-go-golems/chatrelay/pkg/events"
	"github.com/go-go-golems/chatrelay/pkg/ledger"
	"github.com/go-go-golems/chatrelay/pkg/persona"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	StatusThinking = "*Thinking...*"
	DefaultPrefix  = "!"
)

// Message is an inbound chat message.
type Message struct {
	ID        string
	ChannelID string
	AuthorID  string
	AuthorBot bool
	Content   string
}

type Settings struct {
	// Prefix marks messages meant for another command handler.
	Prefix string
	// ChannelID restricts the relay to a single channel. Empty means all
	// channels.
	ChannelID string
}

type Service struct {
	settings  Settings
	surface   control.Surface
	engine    *engine.Engine
	controls  *control.Manager
	ledger    *ledger.Ledger
	personas  *persona.Service
	publisher events.Publisher
}

type Option func(*Service)

func WithSettings(s Settings) Option {
	return func(svc *Service) {
		svc.settings = s
	}
}

func WithPublisher(p events.Publisher) Option {
	return func(svc *Service) {
		svc.publisher = p
	}
}

func NewService(
	surface control.Surface,
	e *engine.Engine,
	controls *control.Manager,
	l *ledger.Ledger,
	personas *persona.Service,
	options ...Option,
) *Service {
	ret := &Service{
		settings: Settings{Prefix: DefaultPrefix},
		surface:  surface,
		engine:   e,
		controls: controls,
		ledger:   l,
		personas: personas,
	}
	for _, o := range options {
		o(ret)
	}
	return ret
}

// Accepts reports whether m should be answered.
func (s *Service) Accepts(m Message) bool {
	if m.AuthorBot {
		return false
	}
	if strings.TrimSpace(m.Content) == "" {
		return false
	}
	if s.settings.Prefix != "" && strings.HasPrefix(m.Content, s.settings.Prefix) {
		return false
	}
	if s.settings.ChannelID != "" && m.ChannelID != s.settings.ChannelID {
		return false
	}
	return true
}

// HandleMessage answers m. A placeholder reply is posted first and the
// exchange is stored under the placeholder's id. A failed completion is
// shown in the reply and is not an error of HandleMessage.
func (s *Service) HandleMessage(ctx context.Context, m Message) error {
	if !s.Accepts(m) {
		return nil
	}

	reply, err := s.surface.Post(ctx, m.ChannelID, StatusThinking)
	if err != nil {
		return errors.Wrapf(err, "could not post reply in channel %s", m.ChannelID)
	}
	logger := log.With().
		Str("channel_id", m.ChannelID).
		Str("user_message_id", m.ID).
		Str("message_id", reply.MessageID).
		Logger()
	logger.Debug().Msg("answering message")

	response, err := s.engine.Generate(ctx, reply.MessageID, m.Content)
	if err != nil {
		if rerr := s.surface.Render(ctx, reply, engine.UserMessage(err), ""); rerr != nil {
			logger.Warn().Err(rerr).Msg("could not show error")
		}
		if errors.Is(err, engine.ErrCompletionFailed) {
			return nil
		}
		return err
	}

	if _, err := s.controls.Attach(ctx, reply, response); err != nil {
		// the exchange is stored, show the answer without controls
		logger.Warn().Err(err).Msg("could not attach controls")
		if rerr := s.surface.Render(ctx, reply, response, ""); rerr != nil {
			return errors.Wrapf(rerr, "could not show response in reply %s", reply.MessageID)
		}
	}
	return nil
}

func (s *Service) SetDescription(ctx context.Context, description string) (*persona.Persona, error) {
	p, err := s.personas.SetDescription(ctx, description)
	if err != nil {
		return nil, err
	}
	s.publishPersona(p)
	return p, nil
}

func (s *Service) SetName(ctx context.Context, name string) (*persona.Persona, error) {
	p, err := s.personas.SetName(ctx, name)
	if err != nil {
		return nil, err
	}
	s.publishPersona(p)
	return p, nil
}

func (s *Service) Persona(ctx context.Context) (*persona.Persona, error) {
	return s.personas.Get(ctx)
}

// Reset archives the live conversation and starts a new one.
func (s *Service) Reset(ctx context.Context) (int, error) {
	n, err := s.ledger.Reset(ctx)
	if err != nil {
		return 0, err
	}
	log.Info().Int("archived", n).Msg("conversation reset")
	events.PublishBlind(s.publisher, events.NewEvent(events.EventTypeConversationReset,
		events.WithData("archived", n),
	))
	return n, nil
}

func (s *Service) publishPersona(p *persona.Persona) {
	events.PublishBlind(s.publisher, events.NewEvent(events.EventTypePersonaUpdated,
		events.WithData("name", p.Name),
		events.WithData("description", p.Description),
	))
}

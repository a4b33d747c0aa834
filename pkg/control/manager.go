package control

import (
	"context"
	"sync"
	"time"

	"github.com/go-go-golems/chatrelay/pkg/engine"
	"github.com/go-go-golems/chatrelay/pkg/events"
	"github.com/go-go-golems/chatrelay/pkg/ledger"
	"github.com/lithammer/shortuuid/v3"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	NoticeNotFound = "Unable to find the original message in history!"
	NoticeExpired  = "These controls have expired."
	NoticeBusy     = "Already working on it."
	NoticeUnknown  = "Unknown action."

	StatusRegenerating = "*Regenerating...*"
)

var ErrClosed = errors.New("control manager closed")

// Generator produces a fresh response for a known user input.
type Generator interface {
	Regenerate(ctx context.Context, messageID string, userInput string) (string, error)
}

type Manager struct {
	ledger    *ledger.Ledger
	generator Generator
	surface   Surface
	publisher events.Publisher
	timeout   time.Duration

	// timeouts run outside of any request, under this context
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	controls map[string]*Control
	byReply  map[string]*Control
	closed   bool
}

type ManagerOption func(*Manager)

func WithTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) {
		m.timeout = d
	}
}

func WithPublisher(p events.Publisher) ManagerOption {
	return func(m *Manager) {
		m.publisher = p
	}
}

func NewManager(l *ledger.Ledger, g Generator, s Surface, options ...ManagerOption) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		ledger:    l,
		generator: g,
		surface:   s,
		timeout:   DefaultTimeout,
		ctx:       ctx,
		cancel:    cancel,
		controls:  map[string]*Control{},
		byReply:   map[string]*Control{},
	}
	for _, o := range options {
		o(m)
	}
	return m
}

// Attach renders content into reply together with a fresh Active control
// and schedules the control's timeout. A control still bound to the same
// reply is disabled first.
func (m *Manager) Attach(ctx context.Context, reply Reply, content string) (*Control, error) {
	now := time.Now()
	c := &Control{
		ID:        shortuuid.New(),
		Reply:     reply,
		CreatedAt: now,
		ExpiresAt: now.Add(m.timeout),
		state:     StateActive,
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	previous := m.byReply[reply.MessageID]
	m.controls[c.ID] = c
	m.byReply[reply.MessageID] = c
	m.mu.Unlock()

	if previous != nil {
		m.retire(previous)
	}

	if err := m.surface.Render(ctx, reply, content, c.ID); err != nil {
		m.retire(c)
		return nil, errors.Wrapf(err, "could not render reply %s", reply.MessageID)
	}
	c.schedule(m.timeout, func() { m.expire(c) })

	log.Debug().Str("control_id", c.ID).Str("message_id", reply.MessageID).Time("expires_at", c.ExpiresAt).Msg("control attached")
	events.PublishBlind(m.publisher, events.NewEvent(events.EventTypeControlAttached,
		events.WithMessageID(reply.MessageID),
		events.WithControlID(c.ID),
	))
	return c, nil
}

// Get returns a registered control. Disabled controls are unregistered.
func (m *Manager) Get(id string) (*Control, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.controls[id]
	return c, ok
}

// Len returns the number of registered controls.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.controls)
}

// Handle runs the action of a button press. Presses by bots are ignored.
// Every other press is acknowledged before anything else happens, and every
// outcome that is not a rendered reply ends in a notice to the actor.
func (m *Manager) Handle(ctx context.Context, in Interaction) error {
	if in.Actor.Bot {
		log.Debug().Str("actor", in.Actor.ID).Str("control_id", in.ControlID).Msg("ignoring interaction from bot")
		return nil
	}
	if err := in.Responder.Acknowledge(ctx); err != nil {
		return errors.Wrap(err, "could not acknowledge interaction")
	}

	c, ok := m.Get(in.ControlID)
	if !ok || !c.Enabled() {
		return m.notify(ctx, in, NoticeExpired)
	}
	if !c.begin() {
		return m.notify(ctx, in, NoticeBusy)
	}
	defer c.end()

	logger := log.With().
		Str("control_id", c.ID).
		Str("message_id", c.Reply.MessageID).
		Str("action", string(in.Action)).
		Str("actor", in.Actor.ID).
		Logger()
	logger.Debug().Msg("handling interaction")

	switch in.Action {
	case ActionRegenerate:
		return m.regenerate(ctx, c, in)
	case ActionDelete:
		return m.delete(ctx, c, in)
	default:
		return m.notify(ctx, in, NoticeUnknown)
	}
}

func (m *Manager) regenerate(ctx context.Context, c *Control, in Interaction) error {
	id := c.Reply.MessageID
	e, err := m.ledger.Remove(ctx, id)
	if errors.Is(err, ledger.ErrNotFound) {
		// the control stays Active until its own timeout
		return m.notify(ctx, in, NoticeNotFound)
	}
	if err != nil {
		_ = m.notify(ctx, in, engine.UserMessage(err))
		return err
	}
	m.retire(c)
	events.PublishBlind(m.publisher, events.NewEvent(events.EventTypeExchangeRemoved,
		events.WithMessageID(id),
		events.WithData("reason", string(ActionRegenerate)),
	))

	if err := m.surface.Render(ctx, c.Reply, StatusRegenerating, ""); err != nil {
		log.Warn().Err(err).Str("message_id", id).Msg("could not show regenerating status")
	}

	response, err := m.generator.Regenerate(ctx, id, e.UserInput)
	if err != nil {
		if rerr := m.surface.Render(ctx, c.Reply, engine.UserMessage(err), ""); rerr != nil {
			log.Warn().Err(rerr).Str("message_id", id).Msg("could not show regeneration error")
		}
		if errors.Is(err, engine.ErrCompletionFailed) {
			return nil
		}
		return err
	}

	_, err = m.Attach(ctx, c.Reply, response)
	return err
}

func (m *Manager) delete(ctx context.Context, c *Control, in Interaction) error {
	id := c.Reply.MessageID
	_, err := m.ledger.Remove(ctx, id)
	if errors.Is(err, ledger.ErrNotFound) {
		return m.notify(ctx, in, NoticeNotFound)
	}
	if err != nil {
		_ = m.notify(ctx, in, engine.UserMessage(err))
		return err
	}
	m.retire(c)
	events.PublishBlind(m.publisher, events.NewEvent(events.EventTypeExchangeRemoved,
		events.WithMessageID(id),
		events.WithData("reason", string(ActionDelete)),
	))

	if err := m.surface.Delete(ctx, c.Reply); err != nil {
		return errors.Wrapf(err, "could not delete reply %s", id)
	}
	return nil
}

// expire is the timeout of an Active control. It only touches the control
// and the reply's buttons, never the ledger.
func (m *Manager) expire(c *Control) {
	if !m.retire(c) {
		return
	}
	if err := m.surface.ClearControls(m.ctx, c.Reply); err != nil {
		log.Warn().Err(err).Str("control_id", c.ID).Str("message_id", c.Reply.MessageID).Msg("could not clear expired controls")
	}
	log.Debug().Str("control_id", c.ID).Str("message_id", c.Reply.MessageID).Msg("control expired")
	events.PublishBlind(m.publisher, events.NewEvent(events.EventTypeControlExpired,
		events.WithMessageID(c.Reply.MessageID),
		events.WithControlID(c.ID),
	))
}

// retire disables c and unregisters it. It reports whether c was still
// Active.
func (m *Manager) retire(c *Control) bool {
	disabled := c.disable()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.controls[c.ID] == c {
		delete(m.controls, c.ID)
	}
	if m.byReply[c.Reply.MessageID] == c {
		delete(m.byReply, c.Reply.MessageID)
	}
	return disabled
}

func (m *Manager) notify(ctx context.Context, in Interaction, text string) error {
	if err := in.Responder.Notify(ctx, text); err != nil {
		return errors.Wrap(err, "could not send notice")
	}
	return nil
}

// Close disables every control and cancels all pending timeouts.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	controls := make([]*Control, 0, len(m.controls))
	for _, c := range m.controls {
		controls = append(controls, c)
	}
	m.controls = map[string]*Control{}
	m.byReply = map[string]*Control{}
	m.mu.Unlock()

	for _, c := range controls {
		c.disable()
	}
	m.cancel()
}

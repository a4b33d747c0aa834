package control

import (
	"context"
)

// Reply identifies a bot reply message on the chat surface.
type Reply struct {
	ChannelID string
	MessageID string
}

// Surface is the set of chat primitives the relay needs.
type Surface interface {
	// Post sends a new message to a channel and returns its reference.
	Post(ctx context.Context, channelID string, content string) (Reply, error)
	// Render replaces the content of a reply. A non-empty controlID attaches
	// the regenerate and delete buttons bound to that control; an empty one
	// renders the reply without buttons.
	Render(ctx context.Context, reply Reply, content string, controlID string) error
	// ClearControls removes the buttons from a reply and keeps its content.
	ClearControls(ctx context.Context, reply Reply) error
	// Delete removes a reply message.
	Delete(ctx context.Context, reply Reply) error
}

type Action string

const (
	ActionRegenerate Action = "regenerate"
	ActionDelete     Action = "delete"
)

// Label is the glyph shown on the button for an action.
func (a Action) Label() string {
	switch a {
	case ActionRegenerate:
		return "🔁"
	case ActionDelete:
		return "🗑️"
	default:
		return string(a)
	}
}

type Actor struct {
	ID  string
	Bot bool
}

// Responder answers a single interaction.
type Responder interface {
	// Acknowledge tells the surface the interaction was received.
	Acknowledge(ctx context.Context) error
	// Notify shows a notice only the acting user can see.
	Notify(ctx context.Context, text string) error
}

// Interaction is a button press on a control.
type Interaction struct {
	ControlID string
	Action    Action
	Actor     Actor
	Responder Responder
}

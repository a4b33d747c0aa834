// Package discord adapts a discordgo session to the relay: it renders
// replies and their buttons, and turns gateway events into relay calls.
package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"github.com/go-go-golems/chatrelay/pkg/control"
	"github.com/pkg/errors"
)

// API is the part of *discordgo.Session the adapter uses.
type API interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageDelete(channelID string, messageID string, options ...discordgo.RequestOption) error
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

var _ API = (*discordgo.Session)(nil)

// Surface renders relay replies as Discord messages.
type Surface struct {
	api API
}

var _ control.Surface = (*Surface)(nil)

func NewSurface(api API) *Surface {
	return &Surface{api: api}
}

func (s *Surface) Post(ctx context.Context, channelID string, content string) (control.Reply, error) {
	m, err := s.api.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
	if err != nil {
		return control.Reply{}, errors.Wrap(err, "could not send message")
	}
	return control.Reply{ChannelID: m.ChannelID, MessageID: m.ID}, nil
}

func (s *Surface) Render(ctx context.Context, reply control.Reply, content string, controlID string) error {
	components := controlComponents(controlID)
	_, err := s.api.ChannelMessageEditComplex(&discordgo.MessageEdit{
		ID:         reply.MessageID,
		Channel:    reply.ChannelID,
		Content:    &content,
		Components: &components,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return errors.Wrapf(err, "could not edit message %s", reply.MessageID)
	}
	return nil
}

func (s *Surface) ClearControls(ctx context.Context, reply control.Reply) error {
	components := []discordgo.MessageComponent{}
	_, err := s.api.ChannelMessageEditComplex(&discordgo.MessageEdit{
		ID:         reply.MessageID,
		Channel:    reply.ChannelID,
		Components: &components,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return errors.Wrapf(err, "could not clear components of message %s", reply.MessageID)
	}
	return nil
}

func (s *Surface) Delete(ctx context.Context, reply control.Reply) error {
	if err := s.api.ChannelMessageDelete(reply.ChannelID, reply.MessageID, discordgo.WithContext(ctx)); err != nil {
		return errors.Wrapf(err, "could not delete message %s", reply.MessageID)
	}
	return nil
}

// responder answers a component interaction: a deferred update first, then
// ephemeral follow-ups.
type responder struct {
	api         API
	interaction *discordgo.Interaction
}

var _ control.Responder = (*responder)(nil)

func (r *responder) Acknowledge(ctx context.Context) error {
	return r.api.InteractionRespond(r.interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	}, discordgo.WithContext(ctx))
}

func (r *responder) Notify(ctx context.Context, text string) error {
	_, err := r.api.FollowupMessageCreate(r.interaction, false, &discordgo.WebhookParams{
		Content: text,
		Flags:   discordgo.MessageFlagsEphemeral,
	}, discordgo.WithContext(ctx))
	return err
}

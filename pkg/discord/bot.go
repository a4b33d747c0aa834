package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/go-go-golems/chatrelay/pkg/control"
	"github.com/go-go-golems/chatrelay/pkg/relay"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	CommandDescription = "description"
	CommandReset       = "reset"

	Intents = discordgo.IntentsGuildMessages | discordgo.IntentsMessageContent
)

var commands = []*discordgo.ApplicationCommand{
	{
		Name:        CommandDescription,
		Description: "Set up the bot's description.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "desc",
				Description: "The new description",
				Required:    true,
			},
		},
	},
	{
		Name:        CommandReset,
		Description: "Reset the bot's conversation history",
	},
}

// NewSession creates a bot session with the intents the relay needs.
func NewSession(token string) (*discordgo.Session, error) {
	if token == "" {
		return nil, errors.New("a discord token is required")
	}
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, errors.Wrap(err, "could not create discord session")
	}
	s.Identify.Intents = Intents
	return s, nil
}

// Bot dispatches gateway events to the relay and the control manager.
type Bot struct {
	session  *discordgo.Session
	api      API
	relay    *relay.Service
	controls *control.Manager
	guildID  string

	ctx context.Context
}

func NewBot(session *discordgo.Session, r *relay.Service, controls *control.Manager, guildID string) *Bot {
	return &Bot{
		session:  session,
		api:      session,
		relay:    r,
		controls: controls,
		guildID:  guildID,
		ctx:      context.Background(),
	}
}

// Run opens the gateway connection, registers the slash commands and
// blocks until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	b.ctx = ctx
	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onMessageCreate)
	b.session.AddHandler(b.onInteractionCreate)

	if err := b.session.Open(); err != nil {
		return errors.Wrap(err, "could not open discord session")
	}
	defer func() {
		if err := b.session.Close(); err != nil {
			log.Warn().Err(err).Msg("could not close discord session")
		}
	}()

	for _, c := range commands {
		if _, err := b.session.ApplicationCommandCreate(b.session.State.User.ID, b.guildID, c); err != nil {
			return errors.Wrapf(err, "could not register command %s", c.Name)
		}
	}
	log.Info().Str("guild_id", b.guildID).Int("commands", len(commands)).Msg("discord bot running")

	<-ctx.Done()
	return nil
}

func (b *Bot) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	log.Info().Str("user", r.User.Username).Int("guilds", len(r.Guilds)).Msg("connected to discord")
}

func (b *Bot) onMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	msg := messageFromEvent(m)
	if err := b.relay.HandleMessage(b.ctx, msg); err != nil {
		log.Error().Err(err).Str("channel_id", msg.ChannelID).Str("user_message_id", msg.ID).Msg("could not answer message")
	}
}

func (b *Bot) onInteractionCreate(_ *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionMessageComponent:
		b.handleComponent(i.Interaction)
	case discordgo.InteractionApplicationCommand:
		b.handleCommand(i.Interaction)
	}
}

func (b *Bot) handleComponent(i *discordgo.Interaction) {
	data := i.MessageComponentData()
	r := &responder{api: b.api, interaction: i}
	action, controlID, err := ParseCustomID(data.CustomID)
	if err != nil {
		log.Warn().Err(err).Str("custom_id", data.CustomID).Msg("unknown component interaction")
		if err := r.Acknowledge(b.ctx); err != nil {
			log.Error().Err(err).Msg("could not acknowledge interaction")
			return
		}
		if err := r.Notify(b.ctx, control.NoticeExpired); err != nil {
			log.Error().Err(err).Msg("could not send notice")
		}
		return
	}
	err = b.controls.Handle(b.ctx, control.Interaction{
		ControlID: controlID,
		Action:    action,
		Actor:     actorFromInteraction(i),
		Responder: r,
	})
	if err != nil {
		log.Error().Err(err).Str("control_id", controlID).Str("action", string(action)).Msg("could not handle interaction")
	}
}

func (b *Bot) handleCommand(i *discordgo.Interaction) {
	data := i.ApplicationCommandData()
	var content string
	var flags discordgo.MessageFlags

	switch data.Name {
	case CommandDescription:
		desc := ""
		for _, o := range data.Options {
			if o.Name == "desc" {
				desc = o.StringValue()
			}
		}
		if _, err := b.relay.SetDescription(b.ctx, desc); err != nil {
			log.Error().Err(err).Msg("could not update description")
			content = "Error: " + err.Error()
		} else {
			content = fmt.Sprintf("Description updated to: %s", desc)
		}
	case CommandReset:
		if _, err := b.relay.Reset(b.ctx); err != nil {
			log.Error().Err(err).Msg("could not reset conversation")
			content = "Error: " + err.Error()
		} else {
			content = "Conversation history has been reset."
		}
	default:
		log.Warn().Str("command", data.Name).Msg("unknown command")
		content = "Unknown command."
		flags = discordgo.MessageFlagsEphemeral
	}

	err := b.api.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content, Flags: flags},
	}, discordgo.WithContext(b.ctx))
	if err != nil {
		log.Error().Err(err).Str("command", data.Name).Msg("could not answer command")
	}
}

func messageFromEvent(m *discordgo.MessageCreate) relay.Message {
	msg := relay.Message{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		Content:   m.Content,
	}
	if m.Author != nil {
		msg.AuthorID = m.Author.ID
		msg.AuthorBot = m.Author.Bot
	}
	return msg
}

func actorFromInteraction(i *discordgo.Interaction) control.Actor {
	u := i.User
	if i.Member != nil && i.Member.User != nil {
		u = i.Member.User
	}
	if u == nil {
		return control.Actor{}
	}
	return control.Actor{ID: u.ID, Bot: u.Bot}
}

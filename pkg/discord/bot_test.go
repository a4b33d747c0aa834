package discord

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/go-go-golems/chatrelay/pkg/control"
	"github.com/go-go-golems/chatrelay/pkg/engine"
	"github.com/go-go-golems/chatrelay/pkg/ledger"
	"github.com/go-go-golems/chatrelay/pkg/llm"
	"github.com/go-go-golems/chatrelay/pkg/persona"
	"github.com/go-go-golems/chatrelay/pkg/relay"
	"github.com/go-go-golems/chatrelay/pkg/store"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type botFixture struct {
	bot      *Bot
	api      *fakeAPI
	ledger   *ledger.Ledger
	personas *persona.Service
	controls *control.Manager
}

func newBotFixture(t *testing.T) *botFixture {
	t.Helper()
	ctx := context.Background()
	s := store.NewMemoryStore()
	require.NoError(t, s.Bootstrap(ctx, map[store.Kind]interface{}{
		store.KindHistory: ledger.NewHistory(),
		store.KindPersona: persona.Default(),
	}))
	l := ledger.New(s)
	personas := persona.NewService(s)
	e, err := engine.NewEngine(l, personas, llm.CompleterFunc(func(context.Context, string) (string, error) {
		return "again", nil
	}))
	require.NoError(t, err)

	api := &fakeAPI{}
	surface := NewSurface(api)
	controls := control.NewManager(l, e, surface, control.WithTimeout(time.Minute))
	t.Cleanup(controls.Close)

	return &botFixture{
		bot: &Bot{
			api:      api,
			relay:    relay.NewService(surface, e, controls, l, personas),
			controls: controls,
			ctx:      ctx,
		},
		api:      api,
		ledger:   l,
		personas: personas,
		controls: controls,
	}
}

func commandInteraction(name string, options ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		ID:   "i1",
		Type: discordgo.InteractionApplicationCommand,
		Data: discordgo.ApplicationCommandInteractionData{Name: name, Options: options},
	}}
}

func componentInteraction(customID string) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		ID:     "i2",
		Type:   discordgo.InteractionMessageComponent,
		Data:   discordgo.MessageComponentInteractionData{CustomID: customID},
		Member: &discordgo.Member{User: &discordgo.User{ID: "u1"}},
	}}
}

func TestBot_DescriptionCommand(t *testing.T) {
	f := newBotFixture(t)

	f.bot.onInteractionCreate(nil, commandInteraction(CommandDescription, &discordgo.ApplicationCommandInteractionDataOption{
		Name:  "desc",
		Type:  discordgo.ApplicationCommandOptionString,
		Value: "a grumpy pirate",
	}))

	require.Len(t, f.api.responses, 1)
	assert.Equal(t, discordgo.InteractionResponseChannelMessageWithSource, f.api.responses[0].Type)
	assert.Equal(t, "Description updated to: a grumpy pirate", f.api.responses[0].Data.Content)

	p, err := f.personas.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a grumpy pirate", p.Description)
}

func TestBot_ResetCommand(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()
	require.NoError(t, f.ledger.AppendOrReplace(ctx, "m1", ledger.NewExchange("hello", "hi")))

	f.bot.onInteractionCreate(nil, commandInteraction(CommandReset))

	require.Len(t, f.api.responses, 1)
	assert.Equal(t, "Conversation history has been reset.", f.api.responses[0].Data.Content)

	h, err := f.ledger.Snapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, h.Entries())
	assert.Len(t, h.Archived, 1)
}

func TestBot_UnknownCommandIsAnswered(t *testing.T) {
	f := newBotFixture(t)

	f.bot.onInteractionCreate(nil, commandInteraction("explode"))

	require.Len(t, f.api.responses, 1)
	assert.Equal(t, "Unknown command.", f.api.responses[0].Data.Content)
	assert.Equal(t, discordgo.MessageFlagsEphemeral, f.api.responses[0].Data.Flags)
}

func TestBot_DeleteButton(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()
	reply := control.Reply{ChannelID: "chan", MessageID: "m1"}
	require.NoError(t, f.ledger.AppendOrReplace(ctx, "m1", ledger.NewExchange("hello", "hi")))
	c, err := f.controls.Attach(ctx, reply, "hi")
	require.NoError(t, err)

	f.bot.onInteractionCreate(nil, componentInteraction(CustomID(control.ActionDelete, c.ID)))

	require.Len(t, f.api.responses, 1)
	assert.Equal(t, discordgo.InteractionResponseDeferredMessageUpdate, f.api.responses[0].Type)
	assert.Equal(t, []string{"m1"}, f.api.deleted)
	_, err = f.ledger.Get(ctx, "m1")
	assert.True(t, errors.Is(err, ledger.ErrNotFound))
	_, ok := f.controls.Get(c.ID)
	assert.False(t, ok)
}

func TestBot_RegenerateButton(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()
	reply := control.Reply{ChannelID: "chan", MessageID: "m1"}
	require.NoError(t, f.ledger.AppendOrReplace(ctx, "m1", ledger.NewExchange("hello", "hi")))
	c, err := f.controls.Attach(ctx, reply, "hi")
	require.NoError(t, err)

	f.bot.onInteractionCreate(nil, componentInteraction(CustomID(control.ActionRegenerate, c.ID)))

	e, err := f.ledger.Get(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, ledger.NewExchange("hello", "again"), e)

	last := f.api.edits[len(f.api.edits)-1]
	assert.Equal(t, "again", *last.Content)
	require.Len(t, *last.Components, 1)
	assert.Empty(t, f.api.followups)
}

func TestBot_MalformedButtonIsAcknowledged(t *testing.T) {
	f := newBotFixture(t)

	f.bot.onInteractionCreate(nil, componentInteraction("bogus"))

	require.Len(t, f.api.responses, 1)
	assert.Equal(t, discordgo.InteractionResponseDeferredMessageUpdate, f.api.responses[0].Type)
	require.Len(t, f.api.followups, 1)
	assert.Equal(t, control.NoticeExpired, f.api.followups[0].Content)
	assert.Equal(t, discordgo.MessageFlagsEphemeral, f.api.followups[0].Flags)
}

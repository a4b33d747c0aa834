package cmds

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-go-golems/chatrelay/pkg/config"
	"github.com/go-go-golems/chatrelay/pkg/control"
	"github.com/go-go-golems/chatrelay/pkg/discord"
	"github.com/go-go-golems/chatrelay/pkg/engine"
	"github.com/go-go-golems/chatrelay/pkg/events"
	"github.com/go-go-golems/chatrelay/pkg/ledger"
	"github.com/go-go-golems/chatrelay/pkg/llm"
	"github.com/go-go-golems/chatrelay/pkg/persona"
	"github.com/go-go-golems/chatrelay/pkg/relay"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Connect to Discord and answer messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, s)
		},
	}

	flags := cmd.Flags()
	flags.String("discord-token", "", "Discord bot token")
	flags.String("channel-id", "", "Only answer messages in this channel")
	flags.String("guild-id", "", "Register slash commands in this guild only (default: global)")
	flags.String("prefix", relay.DefaultPrefix, "Messages starting with this prefix are not answered")
	flags.Duration("control-timeout", control.DefaultTimeout, "How long the regenerate and delete buttons stay usable")
	flags.String("prompt-template", "", "Path to a prompt template file")
	flags.String("ai-api-type", string(llm.ApiTypeOllama), "Model backend (ollama, openai, echo)")
	flags.String("ai-engine", llm.DefaultEngine, "Model name")
	flags.String("ai-base-url", "", "Base URL of the model API")
	flags.String("ai-api-key", "", "API key of the model API")
	flags.Float64("ai-temperature", 0, "Sampling temperature")
	flags.Int("ai-max-response-tokens", 0, "Maximum number of tokens in a response")
	flags.Duration("ai-timeout", config.DefaultAITimeout, "Bound on a single completion")
	flags.Bool("events-redis-enabled", false, "Publish relay events to a Redis stream")
	flags.String("events-redis-addr", "localhost:6379", "Redis address")
	flags.String("events-stream", config.DefaultStream, "Stream the relay events are published on")

	return cmd
}

func serve(ctx context.Context, s *config.Settings) error {
	fs, err := openStore(ctx, s)
	if err != nil {
		return err
	}

	completer, err := llm.NewCompleter(s.AI)
	if err != nil {
		return err
	}
	prompt, err := engine.LoadPrompt(s.PromptTemplate)
	if err != nil {
		return err
	}

	router, err := events.BuildRouter(ctx, s.Events, viper.GetBool("verbose"))
	if err != nil {
		return err
	}
	router.AddEventHandler("audit", events.LogEvent)
	sink := router.Sink()

	l := ledger.New(fs)
	personas := persona.NewService(fs)

	engineOptions := []engine.Option{
		engine.WithPrompt(prompt),
		engine.WithPublisher(sink),
	}
	if s.AI.Timeout != nil {
		engineOptions = append(engineOptions, engine.WithCompletionTimeout(*s.AI.Timeout))
	}
	e, err := engine.NewEngine(l, personas, completer, engineOptions...)
	if err != nil {
		return err
	}

	session, err := discord.NewSession(s.DiscordToken)
	if err != nil {
		return err
	}
	surface := discord.NewSurface(session)

	controls := control.NewManager(l, e, surface,
		control.WithTimeout(s.ControlTimeout),
		control.WithPublisher(sink),
	)
	defer controls.Close()

	r := relay.NewService(surface, e, controls, l, personas,
		relay.WithSettings(s.RelaySettings()),
		relay.WithPublisher(sink),
	)
	bot := discord.NewBot(session, r, controls, s.GuildID)

	log.Info().
		Str("data_dir", s.DataDir).
		Str("api_type", string(s.AI.ApiType)).
		Str("engine", s.AI.Engine).
		Str("channel_id", s.ChannelID).
		Dur("control_timeout", s.ControlTimeout).
		Bool("redis_events", s.Events.Enabled).
		Msg("starting relay")

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return router.Run(ctx)
	})
	eg.Go(func() error {
		select {
		case <-router.Running():
		case <-ctx.Done():
			return nil
		}
		return bot.Run(ctx)
	})

	err = eg.Wait()
	if cerr := router.Close(); cerr != nil {
		log.Warn().Err(cerr).Msg("could not close event router")
	}
	if err != nil {
		return err
	}
	log.Info().Msg("relay stopped")
	return nil
}

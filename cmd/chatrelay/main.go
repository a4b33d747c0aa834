package main

import (
	"os"

	"github.com/go-go-golems/chatrelay/cmd/chatrelay/cmds"
	"github.com/go-go-golems/chatrelay/pkg/config"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "chatrelay",
	Short: "chatrelay relays a Discord channel to a language model",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// reinitialize the logger because we can now parse --log-level and co
		// from the command line flag
		initLogger()
	},
}

func initLogger() {
	logLevel := viper.GetString("log-level")
	verbose := viper.GetBool("verbose")
	if verbose && logLevel != "trace" {
		logLevel = "debug"
	}

	err := config.InitLogger(&config.LogConfig{
		Level:      logLevel,
		LogFile:    viper.GetString("log-file"),
		LogFormat:  viper.GetString("log-format"),
		WithCaller: viper.GetBool("with-caller"),
	})
	cobra.CheckErr(err)
}

func initCommands(rootCmd *cobra.Command, configFile string) error {
	v := viper.GetViper()
	config.SetDefaults(v)
	config.AddConfigPaths(v, configFile)
	if err := config.ReadConfig(v); err != nil {
		return err
	}

	// Bind the variables to the command-line flags
	err := v.BindPFlags(rootCmd.PersistentFlags())
	if err != nil {
		return err
	}

	// this still won't pick up on --verbose to show debug logging when the commands
	// are parsed, but at least it will configure it based on the config file
	initLogger()

	log.Debug().
		Str("config", v.ConfigFileUsed()).
		Msg("Loaded configuration")

	rootCmd.AddCommand(cmds.NewServeCommand())
	rootCmd.AddCommand(cmds.NewConfigCommand())
	rootCmd.AddCommand(cmds.NewPersonaCommand())
	rootCmd.AddCommand(cmds.NewHistoryCommand())

	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// logging flags
	rootCmd.PersistentFlags().Bool("with-caller", false, "Log caller")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (trace, debug, info, warn, error, fatal)")
	rootCmd.PersistentFlags().String("log-format", "", "Log format (json, text; default: text on a terminal)")
	rootCmd.PersistentFlags().String("log-file", "", "Log file (default: stderr)")

	rootCmd.PersistentFlags().String("config", "", "Path to config file (default ~/.chatrelay/config.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "Verbose output")
	rootCmd.PersistentFlags().String("data-dir", config.DefaultDataDir, "Directory holding history.json and about.json")

	// parse the flags one time just to catch --config
	configFile := ""
	for idx, arg := range os.Args {
		if arg == "--config" {
			if len(os.Args) > idx+1 {
				configFile = os.Args[idx+1]
			}
		}
	}

	err := initCommands(rootCmd, configFile)
	if err != nil {
		panic(err)
	}
}

package config

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

type LogConfig struct {
	WithCaller bool
	Level      string
	// LogFormat is json or text. Empty picks text on a terminal and json
	// otherwise.
	LogFormat string
	LogFile   string
}

func InitLogger(config *LogConfig) error {
	return initLogger(config, os.Stderr)
}

func initLogger(config *LogConfig, out *os.File) error {
	format := config.LogFormat
	if format == "" {
		format = "json"
		if isatty.IsTerminal(out.Fd()) || isatty.IsCygwinTerminal(out.Fd()) {
			format = "text"
		}
	}

	var logWriter io.Writer
	switch format {
	case "text":
		logWriter = zerolog.ConsoleWriter{Out: out}
	case "json":
		logWriter = out
	default:
		return errors.Errorf("unknown log format %q", config.LogFormat)
	}

	if config.LogFile != "" {
		logWriter = io.MultiWriter(
			logWriter,
			zerolog.ConsoleWriter{
				NoColor: true,
				Out: &lumberjack.Logger{
					Filename:   config.LogFile,
					MaxSize:    10, // megabytes
					MaxBackups: 3,
					MaxAge:     28, // days
				},
			})
	}

	logger := zerolog.New(logWriter).With().Timestamp().Logger()
	if config.WithCaller {
		logger = logger.With().Caller().Logger()
	}
	log.Logger = logger

	level := zerolog.InfoLevel
	if config.Level != "" {
		l, err := zerolog.ParseLevel(config.Level)
		if err != nil {
			return errors.Wrapf(err, "invalid log level %q", config.Level)
		}
		level = l
	}
	zerolog.SetGlobalLevel(level)

	return nil
}

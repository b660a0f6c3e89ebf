// Package logx configures the global zerolog logger for the bot.
package logx

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const defaultService = "autocheck-bot"

type Config struct {
	// Level is a zerolog level name. Debug forces "debug".
	Level        string `default:"info"`
	Debug        bool   `split_words:"true" default:"false"`
	PrettyFormat bool   `split_words:"true" default:"false"`
	Service      string `default:"autocheck-bot"`
}

var defaultConfig = Config{
	Level:   "info",
	Service: defaultService,
}

func Init(opts ...Config) {
	conf := defaultConfig
	if len(opts) > 0 {
		conf = opts[0]
	}

	var out io.Writer = os.Stdout
	if conf.PrettyFormat {
		out = zerolog.NewConsoleWriter()
	}
	log.Logger = New(conf, out)
}

// New builds a logger writing to out with the service field and level from
// conf. Unknown level names fall back to info.
func New(conf Config, out io.Writer) zerolog.Logger {
	service := strings.TrimSpace(conf.Service)
	if service == "" {
		service = defaultService
	}

	return zerolog.New(out).
		Level(level(conf)).
		With().
		Timestamp().
		Str("service", service).
		Caller().
		Stack().
		Logger()
}

func level(conf Config) zerolog.Level {
	if conf.Debug {
		return zerolog.DebugLevel
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(conf.Level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

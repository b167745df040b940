package zerologadapter

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/trickstertwo/xforward"
)

// Config is an explicit, code-first configuration for a zerolog-backed logger.
type Config struct {
	Writer            io.Writer // default: os.Stdout
	MinLevel          xforward.Level
	Console           bool   // zerolog.ConsoleWriter instead of JSON
	ConsoleTimeFormat string // default time.RFC3339Nano
	Caller            bool
	CallerSkip        int // default 5
	Node              string
}

func newZerolog(cfg Config) zerolog.Logger {
	w := cfg.Writer
	if w == nil {
		w = os.Stdout
	}
	var zl zerolog.Logger
	if cfg.Console {
		// the console timestamp column reads the "ts" the adapter writes
		zerolog.TimestampFieldName = "ts"
		cw := zerolog.ConsoleWriter{Out: w, TimeFormat: cfg.ConsoleTimeFormat}
		if cw.TimeFormat == "" {
			cw.TimeFormat = time.RFC3339Nano
		}
		if !cfg.Caller {
			cw.PartsExclude = append(cw.PartsExclude, zerolog.CallerFieldName)
		}
		zl = zerolog.New(cw)
	} else {
		zl = zerolog.New(w)
	}
	zl = zl.Level(mapLevel(cfg.MinLevel))
	if cfg.Caller {
		if cfg.CallerSkip <= 0 {
			cfg.CallerSkip = 5
		}
		zerolog.CallerSkipFrameCount = cfg.CallerSkip
		zl = zl.With().Caller().Logger()
	}
	return zl
}

// Build returns a zerolog-backed logger without touching the global one.
func Build(cfg Config) (*xforward.Logger, error) {
	b := xforward.NewBuilder().
		WithAdapter(New(newZerolog(cfg))).
		WithMinLevel(cfg.MinLevel)
	if cfg.Node != "" {
		b = b.WithNode(cfg.Node)
	}
	return b.Build()
}

// Use builds a zerolog-backed logger from cfg, installs it as the global
// logger and returns it.
func Use(cfg Config) *xforward.Logger {
	logger, err := Build(cfg)
	if err != nil {
		panic(err)
	}
	xforward.SetGlobal(logger)
	return logger
}

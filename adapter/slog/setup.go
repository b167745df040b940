package slogadapter

import (
	"io"
	"log/slog"
	"os"

	"github.com/trickstertwo/xforward"
)

// Format selects the slog handler.
type Format uint8

const (
	FormatJSON Format = iota + 1
	FormatText
)

// Config is an explicit, code-first configuration for a slog-backed logger.
type Config struct {
	Writer         io.Writer // default: os.Stdout
	MinLevel       xforward.Level
	Format         Format               // default FormatJSON
	HandlerOptions *slog.HandlerOptions // Level is managed through a LevelVar
	Node           string
}

// Build returns a slog-backed logger without touching the global one.
func Build(cfg Config) (*xforward.Logger, error) {
	w := cfg.Writer
	if w == nil {
		w = os.Stdout
	}
	opts := slog.HandlerOptions{}
	if cfg.HandlerOptions != nil {
		opts = *cfg.HandlerOptions
	}
	lv := new(slog.LevelVar)
	lv.Set(toSlog(cfg.MinLevel))
	opts.Level = lv

	var h slog.Handler
	if cfg.Format == FormatText {
		h = slog.NewTextHandler(w, &opts)
	} else {
		h = slog.NewJSONHandler(w, &opts)
	}

	b := xforward.NewBuilder().
		WithAdapter(NewWithLevelVar(slog.New(h), lv)).
		WithMinLevel(cfg.MinLevel)
	if cfg.Node != "" {
		b = b.WithNode(cfg.Node)
	}
	return b.Build()
}

// Use builds a slog-backed logger from cfg, installs it as the global logger
// and returns it.
func Use(cfg Config) *xforward.Logger {
	logger, err := Build(cfg)
	if err != nil {
		panic(err)
	}
	xforward.SetGlobal(logger)
	return logger
}

package main

import (
	"fmt"
	"io"

	"github.com/trickstertwo/xforward"
	slogadapter "github.com/trickstertwo/xforward/adapter/slog"
	zapadapter "github.com/trickstertwo/xforward/adapter/zap"
	zerologadapter "github.com/trickstertwo/xforward/adapter/zerolog"
	"github.com/trickstertwo/xforward/config"
)

// newDiagnostics builds the process's own logger on the configured backend.
// It never feeds a forwarder.
func newDiagnostics(w io.Writer, cfg config.Log, node string) (*xforward.Logger, error) {
	switch cfg.Backend {
	case "zap":
		return zapadapter.Build(zapadapter.Config{Writer: w, MinLevel: cfg.Level, Console: cfg.Console, Node: node})
	case "slog":
		f := slogadapter.FormatJSON
		if cfg.Console {
			f = slogadapter.FormatText
		}
		return slogadapter.Build(slogadapter.Config{Writer: w, MinLevel: cfg.Level, Format: f, Node: node})
	case "zerolog", "":
		return zerologadapter.Build(zerologadapter.Config{Writer: w, MinLevel: cfg.Level, Console: cfg.Console, Node: node})
	default:
		return nil, fmt.Errorf("unknown log backend %q", cfg.Backend)
	}
}

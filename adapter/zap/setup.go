package zapadapter

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/trickstertwo/xforward"
)

// Config is an explicit, code-first configuration for a zap-backed logger.
type Config struct {
	Writer   io.Writer // default: os.Stdout
	MinLevel xforward.Level
	Console  bool // console encoder instead of JSON
	Caller   bool
	// Node overrides the origin tag stamped on entries.
	Node string
}

// Build returns a zap-backed logger without touching the global one.
func Build(cfg Config) (*xforward.Logger, error) {
	w := cfg.Writer
	if w == nil {
		w = os.Stdout
	}
	encCfg := zapcore.EncoderConfig{
		TimeKey:        "", // entries carry their own "ts"
		LevelKey:       "level",
		MessageKey:     "message",
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		CallerKey:      "caller",
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	var enc zapcore.Encoder
	if cfg.Console {
		enc = zapcore.NewConsoleEncoder(encCfg)
	} else {
		enc = zapcore.NewJSONEncoder(encCfg)
	}

	al := zap.NewAtomicLevelAt(toZapLevel(cfg.MinLevel))
	opts := []zap.Option{zap.AddStacktrace(zapcore.FatalLevel + 1)}
	if cfg.Caller {
		// Logger.emit, Event.Msg and Adapter.Log sit between the caller and zap.
		opts = append(opts, zap.AddCaller(), zap.AddCallerSkip(3))
	}
	zl := zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), al), opts...)

	b := xforward.NewBuilder().
		WithAdapter(NewWithAtomicLevel(zl, &al)).
		WithMinLevel(cfg.MinLevel)
	if cfg.Node != "" {
		b = b.WithNode(cfg.Node)
	}
	return b.Build()
}

// Use builds a zap-backed logger from cfg, installs it as the global logger
// and returns it.
func Use(cfg Config) *xforward.Logger {
	logger, err := Build(cfg)
	if err != nil {
		panic(err)
	}
	xforward.SetGlobal(logger)
	return logger
}

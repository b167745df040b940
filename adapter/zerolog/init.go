package zerologadapter

import (
	"io"
	"os"
	"strconv"

	"github.com/trickstertwo/xforward"
)

// Env read by the default factory:
//
//	XFORWARD_LOG_LEVEL       trace|debug|info|warn|error|fatal (default info)
//	XFORWARD_LOG_CONSOLE=1   zerolog.ConsoleWriter instead of JSON
//	XFORWARD_LOG_CALLER=1    include caller
//	XFORWARD_LOG_CALLER_SKIP frames to skip (default 5)
func init() {
	xforward.RegisterDefaultAdapterFactory(func(w io.Writer) xforward.Adapter {
		level, err := xforward.ParseLevel(os.Getenv("XFORWARD_LOG_LEVEL"))
		if err != nil {
			level = xforward.LevelInfo
		}
		return New(newZerolog(Config{
			Writer:     w,
			MinLevel:   level,
			Console:    os.Getenv("XFORWARD_LOG_CONSOLE") == "1",
			Caller:     os.Getenv("XFORWARD_LOG_CALLER") == "1",
			CallerSkip: parseInt(os.Getenv("XFORWARD_LOG_CALLER_SKIP"), 5),
		}))
	})
}

func parseInt(s string, def int) int {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

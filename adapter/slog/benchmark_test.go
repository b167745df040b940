package slogadapter

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/trickstertwo/xforward"
)

func BenchmarkSlog_JSON_5Fields(b *testing.B) {
	a := New(slog.New(slog.NewJSONHandler(io.Discard, nil)))
	e := xforward.Entry{
		At:      time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC),
		Level:   xforward.LevelInfo,
		Message: "bench",
		Fields: []xforward.Field{
			xforward.FStr("a", "b"),
			xforward.FInt("i", 42),
			xforward.FBool("ok", true),
			xforward.FDur("dur", time.Millisecond),
			xforward.FFloat("f", 3.14),
		},
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		a.Log(e)
	}
}

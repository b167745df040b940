package zapadapter

import (
	"io"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/trickstertwo/xforward"
)

func newBenchZap() *zap.Logger {
	enc := zapcore.NewJSONEncoder(zapcore.EncoderConfig{
		LevelKey:       "level",
		MessageKey:     "message",
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	})
	return zap.New(zapcore.NewCore(enc, zapcore.AddSync(io.Discard), zapcore.InfoLevel))
}

func benchAdapter(b *testing.B, fields, bound []xforward.Field) {
	var a xforward.Adapter = New(newBenchZap())
	if len(bound) > 0 {
		a = a.With(bound)
	}
	e := xforward.Entry{
		At:      time.Date(2024, 12, 31, 23, 59, 59, 123456789, time.UTC),
		Level:   xforward.LevelInfo,
		Message: "bench",
		Fields:  fields,
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		a.Log(e)
	}
}

func BenchmarkZap_5Fields(b *testing.B) {
	benchAdapter(b, []xforward.Field{
		xforward.FStr("a", "b"),
		xforward.FInt("i", 42),
		xforward.FBool("ok", true),
		xforward.FDur("dur", time.Millisecond),
		xforward.FFloat("f", 3.14),
	}, nil)
}

func BenchmarkZap_WithBound(b *testing.B) {
	benchAdapter(b,
		[]xforward.Field{xforward.FStr("a", "b"), xforward.FInt("i", 42)},
		[]xforward.Field{xforward.FStr("svc", "api"), xforward.FStr("region", "eu-west-1")})
}

package forward

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trickstertwo/xclock"

	"github.com/trickstertwo/xforward"
	"github.com/trickstertwo/xforward/destination"
	"github.com/trickstertwo/xforward/format"
	"github.com/trickstertwo/xforward/settings"
)

var at = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type rig struct {
	reg   *destination.Registry
	store *settings.MemoryStore
	sink  *destination.Handle
}

func newRig(t *testing.T) *rig {
	t.Helper()
	r := &rig{reg: destination.NewRegistry(), store: settings.NewMemory()}
	r.sink = r.reg.Spawn(64)
	t.Cleanup(r.sink.Stop)
	return r
}

func (r *rig) start(t *testing.T, name string, initial settings.Options, opts ...Option) *Forwarder {
	t.Helper()
	opts = append([]Option{
		WithStore(r.store),
		WithRegistry(r.reg),
		WithNode("local"),
		WithInitial(initial),
		WithErrorHandler(func(error) {}),
	}, opts...)
	fw, err := Init(name, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = fw.Close(context.Background()) })
	return fw
}

func (r *rig) toSink() settings.Options {
	return settings.Options{}.WithDestination(destination.Direct(r.sink))
}

// received syncs fw and drains whatever reached h.
func received(t *testing.T, fw *Forwarder, h *destination.Handle) []destination.Message {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, fw.Sync(ctx))
	var out []destination.Message
	for {
		select {
		case m := <-h.Inbox():
			out = append(out, m)
		default:
			return out
		}
	}
}

func logs(msgs []destination.Message) []destination.LogMessage {
	var out []destination.LogMessage
	for _, m := range msgs {
		if lm, ok := m.(destination.LogMessage); ok {
			out = append(out, lm)
		}
	}
	return out
}

func entry(level xforward.Level, msg any, fs ...xforward.Field) xforward.Entry {
	return xforward.Entry{At: at, Level: level, Message: msg, Fields: fs}
}

func TestInit_RequiresName(t *testing.T) {
	_, err := Init("")
	assert.ErrorIs(t, err, ErrNoName)
}

func TestInit_Defaults(t *testing.T) {
	r := newRig(t)
	fw := r.start(t, "svc", settings.Options{})

	cfg := fw.Config()
	assert.Equal(t, "svc", cfg.Name)
	assert.Equal(t, DefaultLevel, cfg.Level)
	assert.True(t, cfg.Destination.IsZero())
	assert.False(t, cfg.Enabled())
	assert.Empty(t, cfg.Metadata)
	assert.Equal(t, format.Identity, cfg.Formatter)
}

func TestNoDestination_NothingSent(t *testing.T) {
	r := newRig(t)
	fw := r.start(t, "svc", settings.Options{})

	fw.Log(entry(xforward.LevelFatal, "boom"))
	assert.Empty(t, received(t, fw, r.sink))
	assert.Equal(t, uint64(1), fw.Stats().Dropped[DropNoDestination])
}

func TestBelowThreshold_NothingSent(t *testing.T) {
	r := newRig(t)
	fw := r.start(t, "svc", r.toSink().WithLevel(xforward.LevelWarn))

	fw.Log(entry(xforward.LevelInfo, "quiet"))
	assert.Empty(t, received(t, fw, r.sink))
	assert.Equal(t, uint64(1), fw.Stats().Dropped[DropLevel])
}

func TestAdmitted_ExactTuple(t *testing.T) {
	r := newRig(t)
	fw := r.start(t, "svc", r.toSink().
		WithLevel(xforward.LevelDebug).
		WithMetadata(xforward.Metadata{"env": "prod", "shared": "config"}))

	fw.Log(entry(xforward.LevelInfo, "hello",
		xforward.FStr("req", "r1"),
		xforward.FStr("shared", "event")))

	got := logs(received(t, fw, r.sink))
	require.Len(t, got, 1)
	assert.Equal(t, destination.LogMessage{
		Level:    xforward.LevelInfo,
		Message:  "hello",
		At:       at,
		Metadata: xforward.Metadata{"req": "r1", "env": "prod", "shared": "config"},
	}, got[0])
	assert.Equal(t, uint64(1), fw.Stats().Forwarded)
}

func TestArbitraryPayload_Untouched(t *testing.T) {
	r := newRig(t)
	fw := r.start(t, "svc", r.toSink())

	payload := map[string]int{"a": 1}
	fw.Log(entry(xforward.LevelError, payload))

	got := logs(received(t, fw, r.sink))
	require.Len(t, got, 1)
	assert.Equal(t, payload, got[0].Message)
}

func TestFormatter_Applied(t *testing.T) {
	r := newRig(t)
	var seen xforward.Metadata
	upper := format.Func(func(level xforward.Level, msg any, ts time.Time, md xforward.Metadata) (any, error) {
		seen = md
		return level.String() + ":" + msg.(string) + "@" + ts.Format(time.RFC3339), nil
	})
	fw := r.start(t, "svc", r.toSink().WithFormatter(upper).WithMetadata(xforward.Metadata{"k": "v"}))

	fw.Log(entry(xforward.LevelWarn, "disk"))
	got := logs(received(t, fw, r.sink))
	require.Len(t, got, 1)
	assert.Equal(t, "warn:disk@2025-03-01T12:00:00Z", got[0].Message)
	assert.Equal(t, xforward.Metadata{"k": "v"}, seen)
}

func TestFormatter_Named(t *testing.T) {
	r := newRig(t)
	fw := r.start(t, "svc", r.toSink().WithFormatter(format.Named(format.TextName)))

	fw.Log(entry(xforward.LevelError, "disk full", xforward.FInt("pct", 99)))
	got := logs(received(t, fw, r.sink))
	require.Len(t, got, 1)
	assert.Equal(t, "ERROR disk full pct=99", got[0].Message)
}

func TestFormatter_FailureDropsAndKeepsRunning(t *testing.T) {
	r := newRig(t)
	failing := format.Func(func(xforward.Level, any, time.Time, xforward.Metadata) (any, error) {
		return nil, errors.New("nope")
	})
	panicking := format.Func(func(xforward.Level, any, time.Time, xforward.Metadata) (any, error) {
		panic("formatter bug")
	})
	fw := r.start(t, "svc", r.toSink().WithFormatter(failing))

	for i := 0; i < 5; i++ {
		fw.Log(entry(xforward.LevelError, "x"))
	}
	assert.Empty(t, received(t, fw, r.sink))

	_, err := fw.Reconfigure(context.Background(), settings.Options{}.WithFormatter(panicking))
	require.NoError(t, err)
	fw.Log(entry(xforward.LevelError, "x"))
	assert.Empty(t, received(t, fw, r.sink))
	assert.Equal(t, uint64(6), fw.Stats().Dropped[DropFormat])

	_, err = fw.Reconfigure(context.Background(), settings.Options{}.WithFormatter(format.Identity))
	require.NoError(t, err)
	fw.Log(entry(xforward.LevelError, "ok"))
	got := logs(received(t, fw, r.sink))
	require.Len(t, got, 1)
	assert.Equal(t, "ok", got[0].Message)
}

func TestFormatter_UnregisteredNameDrops(t *testing.T) {
	r := newRig(t)
	fw := r.start(t, "svc", r.toSink().WithFormatter(format.Named("missing")))

	fw.Log(entry(xforward.LevelError, "x"))
	assert.Empty(t, received(t, fw, r.sink))
	assert.Equal(t, uint64(1), fw.Stats().Dropped[DropFormat])
}

func TestDeadDestination_Dropped(t *testing.T) {
	r := newRig(t)
	fw := r.start(t, "svc", r.toSink())
	r.sink.Stop()

	fw.Log(entry(xforward.LevelError, "x"))
	require.NoError(t, fw.Sync(context.Background()))
	assert.Equal(t, uint64(1), fw.Stats().Dropped[DropDead])
}

func TestNamedDestination_FollowsBinding(t *testing.T) {
	r := newRig(t)
	fw := r.start(t, "svc", settings.Options{}.WithDestination(destination.ByName("sink")))

	fw.Log(entry(xforward.LevelError, "unbound"))
	require.NoError(t, fw.Sync(context.Background()))
	assert.Equal(t, uint64(1), fw.Stats().Dropped[DropDead])

	require.NoError(t, r.reg.Register("sink", r.sink))
	fw.Log(entry(xforward.LevelError, "first"))
	require.Len(t, logs(received(t, fw, r.sink)), 1)

	r.sink.Stop()
	next := r.reg.Spawn(8)
	defer next.Stop()
	require.NoError(t, r.reg.Register("sink", next))
	fw.Log(entry(xforward.LevelError, "second"))
	got := logs(received(t, fw, next))
	require.Len(t, got, 1)
	assert.Equal(t, "second", got[0].Message)
}

func TestMailboxFull_Dropped(t *testing.T) {
	r := newRig(t)
	small := r.reg.Spawn(1)
	defer small.Stop()
	fw := r.start(t, "svc", settings.Options{}.WithDestination(destination.Direct(small)))

	fw.Log(entry(xforward.LevelError, "a"))
	fw.Log(entry(xforward.LevelError, "b"))
	require.Len(t, received(t, fw, small), 1)
	assert.Equal(t, uint64(1), fw.Stats().Dropped[DropMailboxFull])
}

func TestForeignOrigin_Dropped(t *testing.T) {
	r := newRig(t)
	fw := r.start(t, "svc", r.toSink())

	foreign := entry(xforward.LevelError, "remote")
	foreign.Origin = xforward.Origin{Node: "other"}
	local := entry(xforward.LevelError, "here")
	local.Origin = xforward.Origin{Node: "local"}
	fw.Log(foreign)
	fw.Log(local)
	fw.Log(entry(xforward.LevelError, "untagged"))

	got := logs(received(t, fw, r.sink))
	require.Len(t, got, 2)
	assert.Equal(t, "here", got[0].Message)
	assert.Equal(t, "untagged", got[1].Message)
	assert.Equal(t, uint64(1), fw.Stats().Dropped[DropForeign])
}

func TestFlush(t *testing.T) {
	t.Run("absent destination", func(t *testing.T) {
		r := newRig(t)
		fw := r.start(t, "svc", settings.Options{})
		fw.Flush()
		assert.Empty(t, received(t, fw, r.sink))
	})
	t.Run("dead destination", func(t *testing.T) {
		r := newRig(t)
		fw := r.start(t, "svc", r.toSink())
		r.sink.Stop()
		fw.Flush()
		require.NoError(t, fw.Sync(context.Background()))
		assert.Zero(t, fw.Stats().Flushed)
	})
	t.Run("live destination", func(t *testing.T) {
		r := newRig(t)
		fw := r.start(t, "svc", r.toSink())
		fw.Log(entry(xforward.LevelError, "before"))
		fw.Flush()
		got := received(t, fw, r.sink)
		require.Len(t, got, 2)
		assert.IsType(t, destination.LogMessage{}, got[0])
		assert.Equal(t, destination.FlushMessage{}, got[1])
		assert.Equal(t, uint64(1), fw.Stats().Flushed)
	})
}

func TestReconfigure_MergeLaw(t *testing.T) {
	r := newRig(t)
	fw := r.start(t, "svc", settings.Options{})
	ctx := context.Background()

	opts1 := r.toSink().WithLevel(xforward.LevelWarn).WithMetadata(xforward.Metadata{"a": 1})
	opts2 := settings.Options{}.WithLevel(xforward.LevelDebug).WithMetadata(xforward.Metadata{"b": 2})

	_, err := fw.Reconfigure(ctx, opts1)
	require.NoError(t, err)
	got, err := fw.Reconfigure(ctx, opts2)
	require.NoError(t, err)

	want := newAdapterConfig("svc", opts1.Merge(opts2))
	assert.Equal(t, *want, got)
	assert.Equal(t, "svc", got.Name)
	assert.Equal(t, xforward.Metadata{"b": 2}, got.Metadata)
	assert.Equal(t, got, fw.Config())

	persisted, ok, err := r.store.Get(ctx, "svc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, xforward.LevelDebug, *persisted.Level)
	assert.Equal(t, destination.Direct(r.sink), *persisted.Destination)
}

func TestReconfigure_DisableWithZeroRef(t *testing.T) {
	r := newRig(t)
	fw := r.start(t, "svc", r.toSink())

	cfg, err := fw.Reconfigure(context.Background(), settings.Options{}.WithDestination(destination.Ref{}))
	require.NoError(t, err)
	assert.False(t, cfg.Enabled())

	fw.Log(entry(xforward.LevelError, "x"))
	assert.Empty(t, received(t, fw, r.sink))
}

type failingStore struct {
	*settings.MemoryStore
	fail bool
}

func (s *failingStore) Update(ctx context.Context, name string, fn func(settings.Options) settings.Options) (settings.Options, error) {
	if s.fail {
		return settings.Options{}, errors.New("store down")
	}
	return s.MemoryStore.Update(ctx, name, fn)
}

func TestReconfigure_StoreFailureKeepsConfig(t *testing.T) {
	r := newRig(t)
	store := &failingStore{MemoryStore: settings.NewMemory()}
	fw := r.start(t, "svc", r.toSink().WithLevel(xforward.LevelWarn), WithStore(store))

	store.fail = true
	cfg, err := fw.Reconfigure(context.Background(), settings.Options{}.WithLevel(xforward.LevelTrace))
	require.Error(t, err)
	assert.Equal(t, xforward.LevelWarn, cfg.Level)
	assert.Equal(t, xforward.LevelWarn, fw.Config().Level)
}

func TestInit_StoreFailure(t *testing.T) {
	store := &failingStore{MemoryStore: settings.NewMemory(), fail: true}
	_, err := Init("svc", WithStore(store))
	assert.Error(t, err)
}

func TestRestart_RecoversPersistedSettings(t *testing.T) {
	r := newRig(t)
	ctx := context.Background()

	first := r.start(t, "svc", r.toSink())
	_, err := first.Reconfigure(ctx, settings.Options{}.WithLevel(xforward.LevelError).WithMetadata(xforward.Metadata{"v": 1}))
	require.NoError(t, err)
	require.NoError(t, first.Close(ctx))

	second := r.start(t, "svc", settings.Options{}.WithMetadata(xforward.Metadata{"v": 2}))
	cfg := second.Config()
	assert.Equal(t, xforward.LevelError, cfg.Level)
	assert.Equal(t, destination.Direct(r.sink), cfg.Destination)
	assert.Equal(t, xforward.Metadata{"v": 2}, cfg.Metadata)
}

func TestScenario_WarningThreshold(t *testing.T) {
	r := newRig(t)
	fw := r.start(t, "svc", r.toSink().WithLevel(xforward.LevelWarn))

	fw.Log(entry(xforward.LevelDebug, "x"))
	fw.Log(entry(xforward.LevelError, "y"))

	got := logs(received(t, fw, r.sink))
	require.Len(t, got, 1)
	assert.Equal(t, xforward.LevelError, got[0].Level)
	assert.Equal(t, "y", got[0].Message)
}

func TestScenario_ReconfigureMidStream(t *testing.T) {
	r := newRig(t)
	fw := r.start(t, "svc", r.toSink().WithLevel(xforward.LevelWarn))

	fw.Log(entry(xforward.LevelDebug, "early"))
	_, err := fw.Reconfigure(context.Background(), settings.Options{}.WithLevel(xforward.LevelDebug))
	require.NoError(t, err)
	fw.Log(entry(xforward.LevelDebug, "late"))

	got := logs(received(t, fw, r.sink))
	require.Len(t, got, 1)
	assert.Equal(t, "late", got[0].Message)
}

func TestWith_BoundFieldsBecomeMetadata(t *testing.T) {
	r := newRig(t)
	fw := r.start(t, "svc", r.toSink())

	child := fw.With([]xforward.Field{xforward.FStr("svc", "api")})
	child.Log(entry(xforward.LevelError, "x", xforward.FBool("hit", true)))
	fw.Log(entry(xforward.LevelError, "y"))

	got := logs(received(t, fw, r.sink))
	require.Len(t, got, 2)
	assert.Equal(t, xforward.Metadata{"svc": "api", "hit": true}, got[0].Metadata)
	assert.Equal(t, xforward.Metadata{}, got[1].Metadata)
}

func TestClose(t *testing.T) {
	r := newRig(t)
	fw := r.start(t, "svc", r.toSink())
	ctx := context.Background()

	fw.Log(entry(xforward.LevelError, "queued"))
	require.NoError(t, fw.Close(ctx))
	require.NoError(t, fw.Close(ctx))

	fw.Log(entry(xforward.LevelError, "late"))
	_, err := fw.Reconfigure(ctx, settings.Options{})
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, fw.Sync(ctx), ErrClosed)

	var got []destination.LogMessage
	for len(r.sink.Inbox()) > 0 {
		got = append(got, (<-r.sink.Inbox()).(destination.LogMessage))
	}
	require.Len(t, got, 1)
	assert.Equal(t, "queued", got[0].Message)
	assert.Equal(t, uint64(1), fw.Stats().Dropped[DropClosed])
	assert.True(t, r.sink.Alive())
}

func TestQueuePolicy_DropNewest(t *testing.T) {
	r := newRig(t)
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	slow := format.Func(func(_ xforward.Level, msg any, _ time.Time, _ xforward.Metadata) (any, error) {
		select {
		case entered <- struct{}{}:
		default:
		}
		<-release
		return msg, nil
	})
	var handled []error
	fw := r.start(t, "svc", r.toSink().WithFormatter(slow),
		WithQueueSize(1),
		WithQueuePolicy(DropNewest),
		WithErrorHandler(func(err error) { handled = append(handled, err) }))

	fw.Log(entry(xforward.LevelError, "1"))
	<-entered
	fw.Log(entry(xforward.LevelError, "2"))
	fw.Log(entry(xforward.LevelError, "3"))
	close(release)

	got := logs(received(t, fw, r.sink))
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].Message)
	assert.Equal(t, "2", got[1].Message)
	assert.Equal(t, uint64(1), fw.Stats().Dropped[DropQueueFull])
	assert.Len(t, handled, 1)
}

func TestLoggerIntegration(t *testing.T) {
	old := xclock.Default()
	xclock.SetDefault(xclock.NewFrozen(at))
	t.Cleanup(func() { xclock.SetDefault(old) })

	r := newRig(t)
	level := xforward.LevelInfo
	ref := destination.Direct(r.sink)
	logger, fw, err := Use(Config{
		Name:         "app",
		Level:        &level,
		Destination:  &ref,
		Metadata:     xforward.Metadata{"app": "demo"},
		Store:        r.store,
		Registry:     r.reg,
		Node:         "local",
		ErrorHandler: func(error) {},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = fw.Close(context.Background()) })
	assert.Same(t, logger, xforward.L())

	logger.Debug().Msg("filtered")
	logger.With(xforward.FStr("req", "r1")).Warn().Int("n", 3).Msg("slow")
	logger.Flush()

	got := received(t, fw, r.sink)
	require.Len(t, got, 2)
	assert.Equal(t, destination.LogMessage{
		Level:    xforward.LevelWarn,
		Message:  "slow",
		At:       at,
		Metadata: xforward.Metadata{"app": "demo", "req": "r1", "n": int64(3)},
	}, got[0])
	assert.Equal(t, destination.FlushMessage{}, got[1])
}

func TestPrometheusCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	pc := NewPrometheusCollector(reg)
	r := newRig(t)
	fw := r.start(t, "svc", r.toSink().WithLevel(xforward.LevelWarn), WithMetrics(pc))

	fw.Log(entry(xforward.LevelError, "x"))
	fw.Log(entry(xforward.LevelInfo, "y"))
	fw.Flush()
	received(t, fw, r.sink)

	assert.Equal(t, 1.0, testutil.ToFloat64(pc.forwarded.WithLabelValues("svc", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pc.dropped.WithLabelValues("svc", "level")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pc.flushed.WithLabelValues("svc")))
}

func TestInit_NameInUse(t *testing.T) {
	r := newRig(t)
	ctx := context.Background()
	first := r.start(t, "svc", r.toSink().WithLevel(xforward.LevelWarn))
	assert.True(t, Running("svc"))

	_, err := Init("svc", WithStore(r.store), WithRegistry(r.reg))
	require.ErrorIs(t, err, ErrNameInUse)

	_, err = first.Reconfigure(ctx, settings.Options{}.WithLevel(xforward.LevelDebug))
	require.NoError(t, err)
	assert.Equal(t, xforward.LevelDebug, first.Config().Level)

	require.NoError(t, first.Close(ctx))
	assert.False(t, Running("svc"))

	second := r.start(t, "svc", settings.Options{})
	assert.Equal(t, xforward.LevelDebug, second.Config().Level)
}

func TestInit_StoreFailureReleasesName(t *testing.T) {
	store := &failingStore{MemoryStore: settings.NewMemory(), fail: true}
	_, err := Init("svc", WithStore(store))
	require.Error(t, err)
	assert.False(t, Running("svc"))

	store.fail = false
	fw, err := Init("svc", WithStore(store), WithErrorHandler(func(error) {}))
	require.NoError(t, err)
	require.NoError(t, fw.Close(context.Background()))
}

func TestReconfigure_ConcurrentWithLog(t *testing.T) {
	r := newRig(t)
	sink := r.reg.Spawn(8192)
	t.Cleanup(sink.Stop)

	const (
		loggers      = 8
		perLogger    = 200
		reconfigurer = 4
		perReconfig  = 25
	)
	generation := func(g int) xforward.Metadata {
		return xforward.Metadata{"gen": g, "tag": fmt.Sprintf("g%d", g)}
	}
	levels := []xforward.Level{xforward.LevelTrace, xforward.LevelDebug, xforward.LevelInfo, xforward.LevelWarn}

	fw := r.start(t, "svc", settings.Options{}.
		WithDestination(destination.Direct(sink)).
		WithMetadata(generation(0)))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < loggers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < perLogger; j++ {
				fw.Log(entry(xforward.LevelError, "m", xforward.FInt("logger", int64(i))))
			}
		}(i)
	}
	for i := 0; i < reconfigurer; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < perReconfig; j++ {
				g := 1 + i*perReconfig + j
				_, err := fw.Reconfigure(ctx, settings.Options{}.
					WithLevel(levels[g%len(levels)]).
					WithMetadata(generation(g)))
				assert.NoError(t, err)
			}
		}(i)
	}
	wg.Wait()

	got := logs(received(t, fw, sink))
	require.Len(t, got, loggers*perLogger)
	for _, m := range got {
		g, ok := m.Metadata["gen"].(int)
		require.True(t, ok, "metadata %v", m.Metadata)
		want := generation(g)
		want["logger"] = m.Metadata["logger"]
		assert.Equal(t, want, m.Metadata)
	}

	stored, ok, err := r.store.Get(ctx, "svc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, *newAdapterConfig("svc", stored), fw.Config())
}

func TestClose_ConcurrentLogsAreAccounted(t *testing.T) {
	r := newRig(t)
	sink := r.reg.Spawn(8192)
	t.Cleanup(sink.Stop)
	fw := r.start(t, "svc", settings.Options{}.WithDestination(destination.Direct(sink)), WithQueueSize(16))

	const loggers, perLogger = 8, 500
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < loggers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			for j := 0; j < perLogger; j++ {
				fw.Log(entry(xforward.LevelError, "m"))
			}
		}()
	}
	close(start)
	require.NoError(t, fw.Close(context.Background()))
	wg.Wait()

	st := fw.Stats()
	assert.Equal(t, uint64(loggers*perLogger), st.Forwarded+st.TotalDropped())
	assert.Equal(t, int(st.Forwarded), len(sink.Inbox()))
}

func TestFlush_AfterCloseReportsError(t *testing.T) {
	r := newRig(t)
	var handled []error
	fw := r.start(t, "svc", r.toSink(), WithErrorHandler(func(err error) { handled = append(handled, err) }))
	require.NoError(t, fw.Close(context.Background()))

	fw.Flush()
	require.Len(t, handled, 1)
	assert.ErrorIs(t, handled[0], ErrClosed)
	assert.Empty(t, r.sink.Inbox())
}

func TestFormatter_MutationDoesNotLeak(t *testing.T) {
	r := newRig(t)
	meddling := format.Func(func(_ xforward.Level, msg any, _ time.Time, md xforward.Metadata) (any, error) {
		md["k"] = "changed"
		md["extra"] = true
		return msg, nil
	})
	fw := r.start(t, "svc", r.toSink().WithFormatter(meddling).WithMetadata(xforward.Metadata{"k": "v"}))

	fw.Log(entry(xforward.LevelError, "x"))
	got := logs(received(t, fw, r.sink))
	require.Len(t, got, 1)
	assert.Equal(t, xforward.Metadata{"k": "v"}, got[0].Metadata)
}

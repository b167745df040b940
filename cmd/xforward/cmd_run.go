package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/trickstertwo/xforward"
	"github.com/trickstertwo/xforward/adapter/forward"
	"github.com/trickstertwo/xforward/config"
	"github.com/trickstertwo/xforward/destination"
	"github.com/trickstertwo/xforward/settings"
)

const defaultSink = "console"

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Read log lines from stdin and forward them",
	Long: `Each stdin line is "LEVEL message" (LEVEL optional, default info) and is
logged through the adapter selected with --adapter. Reaching EOF or receiving
SIGINT/SIGTERM flushes and stops every adapter.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().String("node", "", "Local node name (default: hostname)")
	runCmd.Flags().String("adapter", "", "Adapter that receives stdin (default: first configured)")
	runCmd.Flags().String("store", "", "Settings store backend: memory, redis, sqlite, badger")
	runCmd.Flags().String("log-level", "", "Level of xforward's own logs")
	runCmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address")
	runCmd.Flags().Duration("shutdown-timeout", 5*time.Second, "How long to wait for queued events on exit")

	viper.BindPFlag("node", runCmd.Flags().Lookup("node"))
	viper.BindPFlag("adapter", runCmd.Flags().Lookup("adapter"))
	viper.BindPFlag("store", runCmd.Flags().Lookup("store"))
	viper.BindPFlag("log-level", runCmd.Flags().Lookup("log-level"))
	viper.BindPFlag("metrics-addr", runCmd.Flags().Lookup("metrics-addr"))
	viper.BindPFlag("shutdown-timeout", runCmd.Flags().Lookup("shutdown-timeout"))

	rootCmd.AddCommand(runCmd)
}

// loadConfig reads the config file (if any) and applies flag/env overrides.
func loadConfig() (*config.File, error) {
	cfg := config.Default()
	cfg.Log.Console = isatty.IsTerminal(os.Stderr.Fd())
	if path := viper.GetString("config"); path != "" {
		f, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = f
	}
	if v := viper.GetString("node"); v != "" {
		cfg.Node = v
	}
	if v := viper.GetString("store"); v != "" {
		cfg.Store.Backend = v
	}
	if v := viper.GetString("log-level"); v != "" {
		lvl, err := xforward.ParseLevel(v)
		if err != nil {
			return nil, err
		}
		cfg.Log.Level = lvl
	}
	if cfg.Node == "" {
		cfg.Node = xforward.LocalNode()
	}
	if len(cfg.Destinations) == 0 {
		cfg.Destinations = []config.Destination{{Name: defaultSink}}
	}
	if len(cfg.Adapters) == 0 {
		dest := defaultSink
		cfg.Adapters = []config.Adapter{{Name: "stdin", Destination: &dest}}
	}
	return cfg, cfg.Validate()
}

type runtime struct {
	diag       *xforward.Logger
	reg        *destination.Registry
	store      settings.Store
	sinks      map[string]*consoleSink
	forwarders map[string]*forward.Forwarder
	order      []string
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	diag, err := newDiagnostics(cmd.ErrOrStderr(), cfg.Log, cfg.Node)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := settings.Open(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	var metrics forward.MetricsCollector
	addr := viper.GetString("metrics-addr")
	promReg := prometheus.NewRegistry()
	if addr != "" {
		metrics = forward.NewPrometheusCollector(promReg)
	}

	rt := &runtime{
		diag:       diag,
		reg:        destination.Default(),
		store:      store,
		sinks:      make(map[string]*consoleSink),
		forwarders: make(map[string]*forward.Forwarder),
	}
	defer rt.shutdown(viper.GetDuration("shutdown-timeout"))

	if err := rt.spawnSinks(cfg.Destinations); err != nil {
		return err
	}
	for _, decl := range cfg.Adapters {
		if err := rt.startAdapter(ctx, cfg.Node, decl, metrics); err != nil {
			return err
		}
	}

	target := viper.GetString("adapter")
	if target == "" {
		target = rt.order[0]
	}
	fw, ok := rt.forwarders[target]
	if !ok {
		return fmt.Errorf("unknown adapter %q", target)
	}
	feed, err := xforward.NewBuilder().
		WithAdapter(fw).
		WithMinLevel(xforward.LevelTrace).
		WithNode(cfg.Node).
		Build()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		return readLines(ctx, cmd.InOrStdin(), feed)
	})
	if path := viper.GetString("config"); path != "" {
		g.Go(func() error {
			return config.Watch(ctx, path,
				func(f *config.File) { rt.reload(ctx, f) },
				func(err error) { diag.Warn().Err(err).Msg("config reload failed") })
		})
	}
	if addr != "" {
		g.Go(func() error { return serveMetrics(ctx, addr, promReg) })
	}

	diag.Info().
		Str("node", cfg.Node).
		Str("store", cfg.Store.Backend).
		Str("adapter", target).
		Msg("xforward running")
	return g.Wait()
}

func (rt *runtime) spawnSinks(decls []config.Destination) error {
	for _, decl := range decls {
		if _, ok := rt.sinks[decl.Name]; ok {
			continue
		}
		s, err := spawnSink(rt.reg, decl)
		if err != nil {
			return err
		}
		rt.sinks[decl.Name] = s
	}
	return nil
}

func (rt *runtime) startAdapter(ctx context.Context, node string, decl config.Adapter, metrics forward.MetricsCollector) error {
	opts, err := decl.Options()
	if err != nil {
		return err
	}
	fw, err := forward.InitContext(ctx, decl.Name,
		forward.WithStore(rt.store),
		forward.WithRegistry(rt.reg),
		forward.WithNode(node),
		forward.WithInitial(opts),
		forward.WithMetrics(metrics),
		forward.WithDiagnostics(rt.diag),
		forward.WithErrorHandler(func(err error) { rt.diag.Error().Err(err).Msg("forwarder error") }),
	)
	if err != nil {
		return err
	}
	rt.forwarders[decl.Name] = fw
	rt.order = append(rt.order, decl.Name)
	return nil
}

// reload applies a changed config file: new destinations are spawned and every
// known adapter is reconfigured. Adapters added or removed in the file need a
// restart.
func (rt *runtime) reload(ctx context.Context, f *config.File) {
	if err := rt.spawnSinks(f.Destinations); err != nil {
		rt.diag.Warn().Err(err).Msg("config reload: destination")
	}
	for _, decl := range f.Adapters {
		fw, ok := rt.forwarders[decl.Name]
		if !ok {
			rt.diag.Warn().Str("adapter", decl.Name).Msg("config reload: new adapter ignored until restart")
			continue
		}
		opts, err := decl.Options()
		if err != nil {
			rt.diag.Warn().Err(err).Msg("config reload: adapter")
			continue
		}
		cfg, err := fw.Reconfigure(ctx, opts)
		if err != nil {
			rt.diag.Warn().Err(err).Str("adapter", decl.Name).Msg("config reload: reconfigure failed")
			continue
		}
		rt.diag.Info().
			Str("adapter", cfg.Name).
			Str("level", cfg.Level.String()).
			Str("destination", cfg.Destination.String()).
			Msg("adapter reconfigured")
	}
}

func (rt *runtime) shutdown(timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	for _, name := range rt.order {
		fw := rt.forwarders[name]
		fw.Flush()
		if err := fw.Close(ctx); err != nil {
			rt.diag.Warn().Err(err).Str("adapter", name).Msg("close")
		}
	}
	for _, s := range rt.sinks {
		s.drain(ctx)
	}
	rt.diag.Flush()
}

// readLines logs each line of r through l until EOF or ctx is done.
func readLines(ctx context.Context, r io.Reader, l *xforward.Logger) error {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- sc.Err()
		close(lines)
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return <-errc
			}
			if level, msg, ok := parseLine(line); ok {
				l.Log(level, msg)
			}
		}
	}
}

// parseLine splits "LEVEL message"; a line without a known level is info.
func parseLine(line string) (xforward.Level, string, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return 0, "", false
	}
	head, rest, _ := strings.Cut(line, " ")
	if lvl, err := xforward.ParseLevel(head); err == nil {
		return lvl, strings.TrimSpace(rest), true
	}
	return xforward.LevelInfo, line, true
}

func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

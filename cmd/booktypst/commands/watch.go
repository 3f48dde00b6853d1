package commands

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/booktypst/internal/book"
	"git.home.luguber.info/inful/booktypst/internal/build"
	"git.home.luguber.info/inful/booktypst/internal/config"
	"git.home.luguber.info/inful/booktypst/internal/logfields"
	"git.home.luguber.info/inful/booktypst/internal/metrics"
	"git.home.luguber.info/inful/booktypst/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	BookFlags

	MetricsListen string `name:"metrics-listen" help:"Serve Prometheus metrics on this address (overrides monitoring.metrics)"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	req, err := w.request(cfg)
	if err != nil {
		return err
	}
	req.SkipIfUnchanged = true

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, shutdown := newService(cfg)
	defer shutdown()

	if addr, path := w.metricsEndpoint(cfg); addr != "" {
		reg := prom.NewRegistry()
		svc.WithRecorder(metrics.NewPrometheusRecorder(reg))
		srv := serveMetrics(addr, path, reg)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	bookCfg, err := book.LoadConfig(req.BookRoot)
	if err != nil {
		return err
	}

	r := &rebuilder{svc: svc, req: req, out: g}
	r.rebuild(ctx)

	watcher, err := watch.New(watch.Options{
		Tree:     filepath.Join(req.BookRoot, bookCfg.Src),
		Files:    []string{filepath.Join(req.BookRoot, book.ConfigFile), root.Config},
		Ignore:   []string{req.Output},
		Debounce: cfg.DebounceDuration(),
		OnChange: r.rebuild,
	})
	if err != nil {
		return err
	}
	return watcher.Run(ctx)
}

func (w *WatchCmd) metricsEndpoint(cfg *config.Config) (addr, path string) {
	m := cfg.Monitoring.Metrics
	switch {
	case w.MetricsListen != "":
		return w.MetricsListen, m.Path
	case m.Enabled:
		return m.Listen, m.Path
	}
	return "", ""
}

func serveMetrics(addr, path string, reg *prom.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(path, metrics.HTTPHandler(reg))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		slog.Info("Serving metrics", slog.String("addr", addr), logfields.Path(path))
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server failed", logfields.Error(err))
		}
	}()
	return srv
}

// rebuilder converts the book serially and remembers the last fingerprint
// so unchanged books are skipped.
type rebuilder struct {
	svc  build.Service
	req  build.Request
	out  *Global
	last string
}

func (r *rebuilder) rebuild(ctx context.Context) {
	req := r.req
	req.PreviousFingerprint = r.last

	res, err := r.svc.Run(ctx, req)
	if err != nil {
		if ctx.Err() == nil {
			fmt.Fprintf(r.out.out(), "Conversion failed: %v\n", err)
		}
		return
	}
	r.last = res.Fingerprint
	printResult(r.out.out(), res, false)
}

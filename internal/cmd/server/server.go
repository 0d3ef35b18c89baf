package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/rhettg/noteapi/internal/config"
	"github.com/rhettg/noteapi/internal/feed"
	"github.com/rhettg/noteapi/internal/mw"
	"github.com/rhettg/noteapi/internal/notes"
)

const shutdownTimeout = 10 * time.Second

var startTime time.Time

func init() {
	startTime = time.Now()
}

// Server serves the notes API. Build one with New.
type Server struct {
	store  notes.Store
	feed   *feed.Feed
	logger *slog.Logger

	registry     *prometheus.Registry
	requests     *prometheus.CounterVec
	notesCreated prometheus.Counter
	storeErrors  *prometheus.CounterVec
	feedErrors   prometheus.Counter
}

type Option func(*Server)

// WithFeed publishes every created note to f.
func WithFeed(f *feed.Feed) Option {
	return func(s *Server) { s.feed = f }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

func New(store notes.Store, opts ...Option) *Server {
	s := &Server{
		store:    store,
		feed:     feed.New(nil),
		logger:   slog.Default(),
		registry: prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(s)
	}

	factory := promauto.With(s.registry)
	s.requests = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "noteapi_requests_total",
		Help: "A counter for requests to the server.",
	}, []string{"code", "method"})
	s.notesCreated = factory.NewCounter(prometheus.CounterOpts{
		Name: "noteapi_notes_created_total",
		Help: "Notes persisted by the service.",
	})
	s.storeErrors = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "noteapi_store_errors_total",
		Help: "Failed store calls by error kind.",
	}, []string{"kind"})
	s.feedErrors = factory.NewCounter(prometheus.CounterOpts{
		Name: "noteapi_feed_errors_total",
		Help: "Created notes that could not be published to the feed.",
	})
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "noteapi_uptime_seconds",
		Help: "The uptime of the noteapi service",
	}, func() float64 {
		return time.Since(startTime).Seconds()
	})
	s.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return s
}

// Handler returns the API handler with every route wrapped in the access
// log and request counter.
func (s *Server) Handler() http.Handler {
	logmw := mw.NewLoggerMiddleware(s.logger)
	wrapper := func(next http.Handler) http.Handler {
		return promhttp.InstrumentHandlerCounter(s.requests, logmw(next))
	}

	mux := http.NewServeMux()
	for _, rt := range s.routes() {
		mux.Handle(rt.method+" "+rt.path+"{$}", wrapper(rt.handler))
	}
	return mux
}

// MetricsHandler serves the server's Prometheus registry.
func (s *Server) MetricsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return mux
}

// DoServer runs the server until the command's context is cancelled.
func DoServer(cmd *cobra.Command, args []string) error {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}

	if err := config.LoadDotEnv(".env"); err != nil {
		return fmt.Errorf("loading .env: %w", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	return Run(cmd.Context(), cfg)
}

// Run opens the store and feed described by cfg and serves until ctx is
// done, then shuts the listeners down gracefully.
func Run(ctx context.Context, cfg *config.Config) error {
	store, err := notes.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer store.Close()
	slog.Info("database connected", "driver", cfg.Database.Driver, "host", cfg.Database.Host, "name", cfg.Database.Name)

	f := feed.Connect(ctx, cfg.Redis.URL)
	defer f.Close()

	s := New(store, WithFeed(f))

	servers := []*http.Server{{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: s.Handler(),
	}}
	if cfg.MetricsPort != 0 {
		servers = append(servers, &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.MetricsPort),
			Handler: s.MetricsHandler(),
		})
	}

	errc := make(chan error, len(servers))
	for _, srv := range servers {
		go func(srv *http.Server) {
			slog.Info("starting", "addr", srv.Addr, "build", build)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errc <- fmt.Errorf("listen on %s: %w", srv.Addr, err)
			}
		}(srv)
	}

	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case err = <-errc:
		slog.Error("error from ListenAndServe", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for _, srv := range servers {
		if serr := srv.Shutdown(shutdownCtx); serr != nil {
			slog.Error("error shutting down", "addr", srv.Addr, "error", serr)
		}
	}

	return err
}

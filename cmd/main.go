package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/okian/matchday/internal/adapters/http/api"
	"github.com/okian/matchday/internal/adapters/http/site"
	"github.com/okian/matchday/internal/adapters/http/swagger"
	"github.com/okian/matchday/internal/adapters/repository"
	service "github.com/okian/matchday/internal/app"
	"github.com/okian/matchday/internal/config"
	"github.com/okian/matchday/pkg/logger"
	"github.com/okian/matchday/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Use stderr since logger isn't available yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat), logger.WithLevel(cfg.LogLevel)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	if err := run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "matchday stopped with error", logger.Error(err))
		os.Exit(1)
	}
}

// run wires the store, service and HTTP server and blocks until ctx is done.
func run(ctx context.Context, cfg *config.Config) error {
	log := logger.Get()
	// Before any component captures metrics.Default().
	m := metrics.Init(metricsOptions(cfg)...)

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn(ctx, "closing store", logger.Error(err))
		}
	}()

	svc := service.New(serviceOptions(cfg, store)...)
	// Workers outlive the signal context so queued matches drain on Stop.
	if err := svc.Start(context.Background()); err != nil {
		return fmt.Errorf("starting service: %w", err)
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx, m)
	go startServiceMetricsUpdater(ctx, svc, m.RefreshInterval())

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newRouter(ctx, svc, cfg),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr), logger.String("store", cfg.Store))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

// openStore builds the configured result store.
func openStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.Store {
	case config.StorePostgres:
		store, err := repository.NewPostgresStore(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("opening postgres store: %w", err)
		}
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("migrating postgres store: %w", err)
		}
		return store, nil
	default:
		return repository.NewMemoryStore(ctx, repository.WithSnapshotInterval(cfg.SnapshotInterval())), nil
	}
}

// metricsOptions maps the metrics_* settings onto manager options.
func metricsOptions(cfg *config.Config) []metrics.Option {
	return []metrics.Option{
		metrics.WithMetricsEnabled(cfg.MetricsEnabled),
		metrics.WithNamespace(cfg.MetricsNamespace),
		metrics.WithSubsystem(cfg.MetricsSubsystem),
		metrics.WithMetricPrefix(cfg.MetricsPrefix),
		metrics.WithRefreshInterval(cfg.MetricsRefreshInterval()),
		metrics.WithHistogramBuckets(cfg.MetricsBuckets),
		metrics.WithCustomLabels(cfg.MetricsLabels),
	}
}

func serviceOptions(cfg *config.Config, store repository.Store) []service.Option {
	return []service.Option{
		service.WithLogger(logger.Get()),
		service.WithMetrics(metrics.Default()),
		service.WithStore(store),
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithQueueSize(cfg.QueueSize),
		service.WithDedupeSize(cfg.DedupeSize),
		service.WithSeed(cfg.Seed),
	}
}

// newRouter registers the API, docs and landing page routes.
func newRouter(ctx context.Context, svc *service.Service, cfg *config.Config) *mux.Router {
	router := mux.NewRouter()
	api.NewServer(svc,
		api.WithMaxTableLimit(cfg.MaxTableLimit),
		api.WithMetrics(metrics.Default()),
	).Register(ctx, router)
	swagger.Register(ctx, router)
	site.Register(ctx, router)
	return router
}

// startSystemMetricsUpdater records runtime memory and goroutine gauges every
// m.RefreshInterval().
func startSystemMetricsUpdater(ctx context.Context, m *metrics.Manager) {
	ticker := time.NewTicker(m.RefreshInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics(m)
		}
	}
}

// startServiceMetricsUpdater refreshes the gauges GetStats maintains.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = svc.GetStats()
		}
	}
}

func updateSystemMetrics(m *metrics.Manager) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	var lastPauseMs float64
	if ms.NumGC > 0 {
		lastPauseMs = float64(ms.PauseNs[(ms.NumGC+255)%256]) / nanosecondsPerMillisecond
	}
	m.UpdateSystem(ms.HeapAlloc, runtime.NumGoroutine(), lastPauseMs)
}

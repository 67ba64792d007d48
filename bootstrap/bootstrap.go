// Package bootstrap wires configuration, logging, metrics and the
// connection pool into a running process with operational HTTP endpoints.
package bootstrap

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	apihttp "github.com/artpar/lifeguard/adapters/http"
	"github.com/artpar/lifeguard/adapters/metrics"
	"github.com/artpar/lifeguard/adapters/postgres"
	"github.com/artpar/lifeguard/adapters/sqlite"
	"github.com/artpar/lifeguard/config"
	"github.com/artpar/lifeguard/core/executor"
	"github.com/artpar/lifeguard/core/pool"
)

// ShutdownTimeout bounds graceful HTTP shutdown.
const ShutdownTimeout = 30 * time.Second

// App represents the running application.
type App struct {
	Logger     zerolog.Logger
	Metrics    *metrics.Collector
	Registry   *prometheus.Registry
	Pool       *pool.Pool
	HTTPServer *http.Server

	// Config is set only when the app was built with hot reload.
	Config *config.Holder

	cfg *config.Config
}

type options struct {
	version   string
	logOutput io.Writer
}

// Option configures New.
type Option func(*options)

// WithVersion sets the version reported by /version.
func WithVersion(v string) Option {
	return func(o *options) { o.version = v }
}

// WithLogOutput redirects the process logger (default: stdout).
func WithLogOutput(w io.Writer) Option {
	return func(o *options) { o.logOutput = w }
}

// New builds the application from a loaded configuration.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	o := buildOptions(opts)
	return newApp(ctx, cfg, NewLogger(cfg.Logging, o.logOutput), o)
}

// NewWithHotReload loads path through a config.Holder that follows file
// changes and SIGHUP. Only the log level takes effect without a restart.
func NewWithHotReload(ctx context.Context, path string, opts ...Option) (*App, error) {
	o := buildOptions(opts)

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger := NewLogger(cfg.Logging, o.logOutput)

	holder, err := config.NewHolder(path, logger)
	if err != nil {
		return nil, err
	}

	a, err := newApp(ctx, holder.Get(), logger, o)
	if err != nil {
		return nil, err
	}

	holder.OnChange(func(cfg *config.Config) {
		if level, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
			zerolog.SetGlobalLevel(level)
		}
		a.Metrics.ConfigReloads.Inc()
	})
	holder.OnError(func(error) {
		a.Metrics.ConfigReloadErrors.Inc()
	})
	if err := holder.WatchFile(); err != nil {
		a.Pool.Close()
		return nil, fmt.Errorf("watch config: %w", err)
	}
	holder.WatchSignals()

	a.Config = holder
	return a, nil
}

func buildOptions(opts []Option) options {
	o := options{version: "dev", logOutput: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger, o options) (*App, error) {
	logger.Info().
		Str("driver", cfg.Database.Driver).
		Int("max_connections", cfg.Database.MaxConnections).
		Msg("initializing lifeguard")

	a := &App{
		Logger:   logger,
		Registry: prometheus.NewRegistry(),
		cfg:      cfg,
	}
	a.Registry.MustRegister(collectors.NewGoCollector())
	a.Metrics = metrics.NewWithRegistry(a.Registry)

	p, err := OpenPool(ctx, cfg.Database, logger, a.Metrics)
	if err != nil {
		return nil, fmt.Errorf("init pool: %w", err)
	}
	a.Pool = p

	a.initHTTPServer(o.version)
	return a, nil
}

// OpenPool opens the pool described by cfg, bounded by cfg.PoolTimeout.
func OpenPool(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger, m executor.Metrics) (*pool.Pool, error) {
	if cfg.PoolTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.PoolTimeout)
		defer cancel()
	}

	opts := []pool.Option{
		pool.WithLogger(logger),
		pool.WithQueueCapacity(cfg.QueueCapacity),
	}
	if m != nil {
		opts = append(opts, pool.WithMetrics(m))
	}

	switch cfg.Driver {
	case pool.DriverSQLite:
		return sqlite.NewPool(ctx, cfg.URL, cfg.MaxConnections, opts...)
	case pool.DriverPostgres, "":
		return postgres.NewPool(ctx, cfg.URL, cfg.MaxConnections, opts...)
	default:
		return nil, fmt.Errorf("unsupported driver %q", cfg.Driver)
	}
}

func (a *App) initHTTPServer(version string) {
	rc := apihttp.RouterConfig{Version: version}
	if a.cfg.Metrics.Enabled {
		rc.MetricsHandler = promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{})
		rc.MetricsPath = a.cfg.Metrics.Path
		a.Logger.Info().Str("path", a.cfg.Metrics.Path).Msg("prometheus metrics enabled")
	}

	router := apihttp.NewRouter(apihttp.NewHealthHandler(a.Pool), a.Logger, rc)
	a.HTTPServer = &http.Server{
		Addr:         a.cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
	}
}

// Handler returns the operational HTTP handler.
func (a *App) Handler() http.Handler {
	return a.HTTPServer.Handler
}

// Run starts the HTTP server and blocks until shutdown.
func (a *App) Run() error {
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().
			Str("addr", a.HTTPServer.Addr).
			Msg("starting http server")
		if err := a.HTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		a.Shutdown()
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	return a.Shutdown()
}

// Shutdown gracefully stops the application. Jobs already queued on the
// pool finish before its connections close.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	if a.Config != nil {
		a.Config.Stop()
	}

	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("http server shutdown error")
		}
	}

	if a.Pool != nil {
		if err := a.Pool.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("pool close error")
			return fmt.Errorf("close pool: %w", err)
		}
	}

	a.Logger.Info().Msg("shutdown complete")
	return nil
}

// NewLogger builds the process logger and sets the global level.
func NewLogger(cfg config.LoggingConfig, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		output := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger()
	}
	return zerolog.New(w).With().Timestamp().Logger()
}

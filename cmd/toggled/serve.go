package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/adminkit/toggle/internal/api"
	"github.com/adminkit/toggle/internal/audit"
	"github.com/adminkit/toggle/internal/auth"
	"github.com/adminkit/toggle/internal/config"
	"github.com/adminkit/toggle/internal/db"
	"github.com/adminkit/toggle/internal/db/migrations"
	"github.com/adminkit/toggle/internal/dbpool"
	"github.com/adminkit/toggle/internal/registry"
	"github.com/adminkit/toggle/internal/security"
	"github.com/adminkit/toggle/internal/service"
	"github.com/adminkit/toggle/internal/store"
	"github.com/adminkit/toggle/internal/tracing"
	"github.com/adminkit/toggle/internal/ws"
)

const (
	shutdownTimeout   = 15 * time.Second
	readHeaderTimeout = 10 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 120 * time.Second
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

// closers collects cleanup funcs run in reverse order on exit.
type closers []func()

func (c *closers) add(f func()) { *c = append(*c, f) }

func (c closers) run() {
	for i := len(c) - 1; i >= 0; i-- {
		c[i]()
	}
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := newLogger(cfg)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var cleanup closers
	defer cleanup.run()

	pool, err := dbpool.NewPool(ctx, cfg.DatabaseURL.Value(), cfg.DBMaxConns)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	cleanup.add(pool.Close)

	if err := db.RunMigrations(ctx, pool, log, migrations.FS); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	base := store.Base{Pool: pool, Log: log}

	reg, err := registry.Load(cfg.RegistryPath, store.NewRecordStore(base))
	if err != nil {
		return err
	}

	if err := cfg.ValidateDrivers(reg.Guards().Drivers); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	var rdb *redis.Client
	if cfg.RedisURL.Value() != "" {
		opts, err := redis.ParseURL(cfg.RedisURL.Value())
		if err != nil {
			return fmt.Errorf("parsing REDIS_URL: %w", err)
		}
		rdb = redis.NewClient(opts)
		cleanup.add(func() { rdb.Close() }) //nolint:errcheck // best-effort close on exit
	}

	// bgCtx outlives the signal context so workers can drain after the
	// server stops accepting requests.
	bgCtx, cancelBg := context.WithCancel(context.Background())
	defer cancelBg()

	guards, err := auth.Build(reg.Guards(), guardDeps(bgCtx, cfg, rdb, store.NewAPIKeyStore(base)))
	if err != nil {
		return fmt.Errorf("building guards: %w", err)
	}

	sinks, err := auditSinks(cfg, log, store.NewAuditStore(base))
	if err != nil {
		return err
	}
	for _, s := range sinks {
		if c, ok := s.(interface{ Close() error }); ok {
			cleanup.add(func() { c.Close() }) //nolint:errcheck // best-effort close on exit
		}
	}
	fanout := audit.NewFanout(log, sinks...)
	log.WithField("sinks", fanout.Sinks()).Info("audit pipeline ready")

	auditWorker := service.NewAuditWorker(fanout, log, cfg.AuditQueueSize)
	runWorker(&cleanup, cancelBg, log, func() { auditWorker.Run(bgCtx) })

	hub := ws.NewHub(log)
	go hub.Run(bgCtx)

	if err := db.NewNotifyBridge(log, pool, hub).Start(bgCtx); err != nil {
		return err
	}

	tp, err := tracing.NewProvider(ctx, tracing.Config{
		Enabled:      cfg.OTelEnabled,
		Endpoint:     cfg.OTelEndpoint,
		SamplingRate: cfg.OTelSamplingRate,
		Version:      config.Version,
	}, log)
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}

	allowed := reg.AllowedGuards()

	toggles := service.NewToggleService(reg, service.ToggleOptions{
		AllowedGuards: allowed,
		Strict:        cfg.Strict,
	}, auditWorker, db.NewNotifier(log, pool), log)

	deps := &api.RouterDeps{
		Log:           log,
		Pool:          pool,
		Hub:           hub,
		Toggles:       toggles,
		Fields:        service.NewFieldService(reg, allowed),
		Audit:         service.NewAuditService(store.NewAuditStore(base), log),
		Resources:     reg,
		Guards:        guards,
		BruteForce:    security.NewBruteForceGuard(bgCtx, log),
		AllowedGuards: allowed,
		CORSOrigins:   cfg.CORSOrigins,
		Version:       config.Version,
		Tracing:       tp.Enabled(),
	}
	if rdb != nil {
		deps.Redis = rdb
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           api.NewRouter(bgCtx, deps),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.WithFields(logrus.Fields{
			"addr":      cfg.Addr(),
			"version":   config.Version,
			"resources": reg.Keys(),
			"guards":    allowed,
			"strict":    cfg.Strict,
		}).Info("server started")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		hub.Shutdown()

		err := srv.Shutdown(shutdownCtx)

		if terr := tp.Shutdown(shutdownCtx); terr != nil {
			log.WithError(terr).Warn("tracing shutdown failed")
		}

		return err
	})

	return g.Wait()
}

// runWorker starts run and registers a closer that cancels its context and
// waits for it to return. Closers added earlier, such as the pool, run after.
func runWorker(cleanup *closers, cancel context.CancelFunc, log *logrus.Logger, run func()) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		run()
	}()

	cleanup.add(func() {
		cancel()
		<-done
		log.Info("audit queue drained")
	})
}

// guardDeps assembles the backends the configured guard drivers may need.
func guardDeps(ctx context.Context, cfg *config.Config, rdb *redis.Client, keys auth.KeyLookup) auth.Deps {
	deps := auth.Deps{
		Keys:              auth.NewCachedKeyLookup(ctx, keys),
		SessionCookie:     cfg.SessionCookie,
		JWTSecret:         cfg.JWTSecret.Value(),
		JWTPreviousSecret: cfg.JWTPreviousSecret.Value(),
	}
	if rdb != nil {
		deps.Redis = rdb
	}

	return deps
}

// auditSinks returns the Postgres store plus any configured external sinks.
func auditSinks(cfg *config.Config, log *logrus.Logger, pg audit.Sink) ([]audit.Sink, error) {
	sinks := []audit.Sink{pg}

	if url := cfg.AuditAMQPURL.Value(); url != "" {
		s, err := audit.NewAMQPSink(url, cfg.AuditAMQPExchange, log)
		if err != nil {
			return nil, fmt.Errorf("connecting audit publisher: %w", err)
		}
		sinks = append(sinks, s)
	}

	if cfg.AuditESURL != "" {
		s, err := audit.NewElasticsearchSink(cfg.AuditESURL, cfg.AuditESIndex)
		if err != nil {
			return nil, fmt.Errorf("creating audit indexer: %w", err)
		}
		sinks = append(sinks, s)
	}

	return sinks, nil
}

// Package app provides application initialization and lifecycle management.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/garyellow/degree-planner/internal/backup"
	"github.com/garyellow/degree-planner/internal/buildinfo"
	"github.com/garyellow/degree-planner/internal/config"
	"github.com/garyellow/degree-planner/internal/data"
	"github.com/garyellow/degree-planner/internal/keylock"
	"github.com/garyellow/degree-planner/internal/logger"
	"github.com/garyellow/degree-planner/internal/metrics"
	"github.com/garyellow/degree-planner/internal/profile"
	"github.com/garyellow/degree-planner/internal/r2client"
	"github.com/garyellow/degree-planner/internal/ratelimit"
	"github.com/garyellow/degree-planner/internal/requirements"
	"github.com/garyellow/degree-planner/internal/schedule"
	"github.com/garyellow/degree-planner/internal/sentry"
	"github.com/garyellow/degree-planner/internal/storage"
)

// Application manages the application lifecycle and dependencies.
type Application struct {
	cfg         *config.Config
	logger      *logger.Logger
	store       storage.Store
	catalog     *requirements.Source
	profiles    *profile.Service
	schedules   *schedule.Service
	metrics     *metrics.Metrics
	registry    *prometheus.Registry
	userLimiter *ratelimit.PerKey
	backups     *backup.Manager // nil when R2 backup is disabled
	readiness   *readinessState
	router      *gin.Engine
	server      *http.Server
	wg          sync.WaitGroup // Track background goroutines for graceful shutdown
}

// Initialize creates and initializes a new application with all dependencies.
func Initialize(ctx context.Context, cfg *config.Config) (*Application, error) {
	log := logger.NewWithOptions(cfg.LogLevel, os.Stdout, logger.Options{
		BetterStackToken:    cfg.BetterStackToken,
		BetterStackEndpoint: cfg.BetterStackEndpoint,
	})

	log = log.WithField("service", "degree-planner")
	if host, err := os.Hostname(); err == nil && host != "" {
		log = log.WithField("instance_id", host)
	}

	// Set as default logger so repositories can log through slog.*Context()
	// with user_id and request_id attached by the ContextHandler.
	slog.SetDefault(log.Logger)

	log.WithField("version", buildinfo.Summary()).Info("Initializing application...")
	if cfg.BetterStackToken != "" {
		log.WithField("endpoint", cfg.BetterStackEndpoint).Info("Better Stack logging enabled")
	}

	if cfg.SentryEnabled {
		err := sentry.Initialize(sentry.Config{
			Token:       cfg.SentryToken,
			Host:        cfg.SentryHost,
			Environment: cfg.SentryEnvironment,
			Release:     buildinfo.Release(),
			SampleRate:  cfg.SentrySampleRate,
		})
		if err != nil {
			return nil, fmt.Errorf("sentry: %w", err)
		}
		log.WithField("environment", cfg.SentryEnvironment).Info("Sentry error reporting enabled")
	}

	store, err := storage.Open(ctx, cfg.StorageBackend, cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	log.WithField("backend", cfg.StorageBackend).WithField("data_dir", cfg.DataDir).Info("Storage opened")

	loader := requirements.BytesLoader(data.DefaultCatalog)
	if cfg.CatalogPath != "" {
		loader = requirements.FileLoader(cfg.CatalogPath)
	}
	loadCtx, cancel := context.WithTimeout(ctx, config.CatalogReload)
	source, err := requirements.NewSource(loadCtx, loader)
	cancel()
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("catalog: %w", err)
	}
	log.WithField("path", cfg.CatalogPath).
		WithField("programs", len(source.Catalog().ProgramNames())).
		Info("Requirements catalog loaded")

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewBuildInfoCollector(),
	)
	m := metrics.New(registry)

	var backups *backup.Manager
	if cfg.R2Enabled {
		db, ok := store.(*storage.DB)
		if !ok {
			_ = store.Close()
			return nil, fmt.Errorf("backup: requires the %s storage backend", config.BackendSQLite)
		}
		client, err := r2client.New(ctx, r2client.Config{
			Endpoint:    cfg.R2Endpoint(),
			AccessKeyID: cfg.R2AccessKeyID,
			SecretKey:   cfg.R2SecretAccessKey,
			BucketName:  cfg.R2BucketName,
		})
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("r2: %w", err)
		}
		backups = backup.NewManager(db, client, cfg.R2BackupKey, m, log.WithModule("backup"))
		log.WithField("bucket", cfg.R2BucketName).
			WithField("key", cfg.R2BackupKey).
			WithField("interval", cfg.R2BackupInterval.String()).
			Info("R2 backup enabled")
	}

	gin.SetMode(gin.ReleaseMode)
	app := newApplication(cfg, log, store, source, registry, m)
	app.backups = backups

	app.server = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.router,
		ReadHeaderTimeout: config.HTTPRead,
		ReadTimeout:       config.HTTPRead,
		WriteTimeout:      config.HTTPWrite,
		IdleTimeout:       config.HTTPIdle,
	}

	app.readiness.MarkReady()
	log.Info("Initialization complete")
	return app, nil
}

// newApplication wires services, limiter and router around already opened
// dependencies.
func newApplication(cfg *config.Config, log *logger.Logger, store storage.Store, source *requirements.Source,
	registry *prometheus.Registry, m *metrics.Metrics) *Application {
	// Profile and schedule writes for one user share a lock.
	locks := keylock.New()
	programs := func() profile.Programs { return source.Catalog() }

	app := &Application{
		cfg:       cfg,
		logger:    log,
		store:     store,
		catalog:   source,
		profiles:  profile.NewService(store, programs, locks, m, log),
		schedules: schedule.NewService(store, locks, m, log),
		metrics:   m,
		registry:  registry,
		userLimiter: ratelimit.NewPerKey(ratelimit.Config{
			Name:       "user",
			Burst:      cfg.UserRateBurst,
			RefillRate: cfg.UserRateRefill,
			SweepEvery: config.RateLimiterCleanupInterval,
			Metrics:    m,
		}),
		readiness: newReadinessState(),
	}
	app.router = app.buildRouter()
	return app
}

func (a *Application) buildRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if sentry.IsEnabled() {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(securityHeadersMiddleware())
	router.Use(requestIDMiddleware())
	router.Use(loggingMiddleware(a.logger))
	router.Use(metricsMiddleware(a.metrics))

	router.GET("/livez", a.livenessCheck)
	router.HEAD("/livez", a.livenessCheck)
	router.GET("/readyz", a.readinessCheck)
	router.HEAD("/readyz", a.readinessCheck)

	adminAuth := basicAuthMiddleware(a.cfg.MetricsAuthEnabled(), "metrics", a.cfg.MetricsUsername, a.cfg.MetricsPassword)
	router.GET("/metrics", adminAuth, gin.WrapH(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))

	api := router.Group("/api/v1")
	api.GET("/requirements", a.getRequirements)
	api.GET("/requirements/:program", a.getRequirements)
	api.POST("/catalog/reload", adminAuth, a.reloadCatalogHandler)

	users := api.Group("/users/:user", a.userMiddleware())
	users.GET("/profile", a.getProfile)
	users.PATCH("/profile", a.updateProfile)
	users.GET("/progress", a.getProgress)
	users.GET("/schedule", a.viewSchedule)
	users.POST("/schedule", a.addCourse)
	users.DELETE("/schedule", a.clearSchedule)
	users.DELETE("/schedule/:crn", a.removeCourse)

	return router
}

// Handler returns the HTTP handler serving every route.
func (a *Application) Handler() http.Handler {
	return a.router
}

func (a *Application) livenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}

func (a *Application) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), config.ReadinessCheckTimeout)
	defer cancel()

	if !a.readiness.IsReady() {
		status := a.readiness.Status()
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": status.Reason,
		})
		return
	}

	if err := a.store.Ping(ctx); err != nil {
		a.logger.WithError(err).Warn("Readiness check failed: storage unavailable")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "storage unavailable",
		})
		return
	}

	if !a.catalog.Loaded() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "catalog not loaded",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "ready",
		"storage": "connected",
		"catalog": gin.H{
			"programs":  len(a.catalog.Catalog().ProgramNames()),
			"loaded_at": a.catalog.LoadedAt().UTC().Format(time.RFC3339),
		},
		"users":   a.userStats(ctx),
		"uptime":  a.readiness.Status().UptimeSeconds,
		"version": buildinfo.Release(),
	})
}

// userStats reports stored user counts. The file backend has no cheap way to
// count, so it reports nothing.
func (a *Application) userStats(ctx context.Context) map[string]int {
	stats := make(map[string]int)
	db, ok := a.store.(*storage.DB)
	if !ok {
		return stats
	}
	profiles, calendars, err := db.CountUsers(ctx)
	if err != nil {
		a.logger.WithError(err).Warn("Failed to count users in readiness stats")
		return stats
	}
	stats["profiles"] = profiles
	stats["calendars"] = calendars
	return stats
}

// Run starts the HTTP server and background jobs.
//
// Graceful shutdown sequence:
//  1. Receive shutdown signal (SIGINT/SIGTERM) and fail readiness
//  2. Cancel context so background jobs stop
//  3. Wait for background jobs to complete
//  4. Close resources in order (HTTP server, final backup, storage, limiter, log shipping)
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	a.startBackgroundJobs(ctx, hup)
	a.startHTTPServer()

	sig := a.waitForShutdownSignal()
	a.logger.WithField("signal", sig.String()).Info("Received shutdown signal")
	a.readiness.MarkDraining()

	cancel()

	a.logger.Info("Waiting for background jobs to finish...")
	start := time.Now()
	a.wg.Wait()
	a.logger.WithField("duration_ms", time.Since(start).Milliseconds()).
		Info("All background jobs completed")

	return a.shutdown()
}

// startBackgroundJobs starts all background goroutines tracked by WaitGroup.
func (a *Application) startBackgroundJobs(ctx context.Context, hup <-chan os.Signal) {
	a.wg.Go(func() {
		a.reloadOnSignal(ctx, hup)
	})
	if a.backups != nil {
		a.wg.Go(func() {
			a.periodicBackup(ctx)
		})
	}
}

// startHTTPServer starts the HTTP server in a goroutine.
func (a *Application) startHTTPServer() {
	go func() {
		a.logger.WithField("port", a.cfg.Port).Info("Starting HTTP server")
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.WithError(err).Error("HTTP server error")
		}
	}()
}

// waitForShutdownSignal blocks until SIGINT/SIGTERM is received.
func (a *Application) waitForShutdownSignal() os.Signal {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)
	return <-quit
}

// shutdown stops the HTTP server and releases resources. It must run after
// background jobs have stopped.
func (a *Application) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	a.logger.Info("Stopping HTTP server...")
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Error("HTTP server shutdown error")
	}

	// Capture writes made since the last periodic backup.
	if a.backups != nil {
		a.logger.Info("Running final backup...")
		_, _ = a.backups.Run(shutdownCtx)
	}

	a.logger.Info("Closing resources...")
	if err := a.store.Close(); err != nil {
		a.logger.WithError(err).WithField("component", "storage").Error("Component close error")
	}

	if a.userLimiter != nil {
		a.userLimiter.Stop()
	}

	if sentry.IsEnabled() {
		sentry.Flush(config.SentryFlush)
	}

	a.logger.Info("Shutdown complete")
	if n := a.logger.Dropped(); n > 0 {
		a.logger.Warnf("Remote log queue dropped %d records", n)
	}
	if err := a.logger.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Warn("Logger shutdown timed out")
	}
	return nil
}

// reloadOnSignal reloads the catalog on every SIGHUP until ctx is canceled.
func (a *Application) reloadOnSignal(ctx context.Context, hup <-chan os.Signal) {
	a.logger.Debug("Catalog reload job started")
	defer a.logger.Debug("Catalog reload job stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			reloadCtx, cancel := context.WithTimeout(ctx, config.CatalogReload)
			_, _, _ = a.reloadCatalog(reloadCtx, "signal")
			cancel()
		}
	}
}

// periodicBackup uploads a snapshot after BackupInitialDelay, then every
// R2BackupInterval, and exits on context cancellation.
func (a *Application) periodicBackup(ctx context.Context) {
	a.logger.Debug("Backup job started")
	defer a.logger.Debug("Backup job stopped")

	select {
	case <-ctx.Done():
		return
	case <-time.After(config.BackupInitialDelay):
	}

	ticker := time.NewTicker(a.cfg.R2BackupInterval)
	defer ticker.Stop()

	for {
		backupCtx, cancel := context.WithTimeout(ctx, config.BackupTimeout)
		_, _ = a.backups.Run(backupCtx)
		cancel()

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/streamgate/streamgate/internal/access"
	"github.com/streamgate/streamgate/internal/config"
	"github.com/streamgate/streamgate/internal/extract"
	"github.com/streamgate/streamgate/internal/httpserver"
	"github.com/streamgate/streamgate/internal/httpserver/deps"
	"github.com/streamgate/streamgate/internal/httpserver/mw"
	"github.com/streamgate/streamgate/internal/logger"
	"github.com/streamgate/streamgate/internal/platforms"
	"github.com/streamgate/streamgate/internal/relay"
	"github.com/streamgate/streamgate/internal/resolver"
	"github.com/streamgate/streamgate/internal/scheduler"
	"github.com/streamgate/streamgate/internal/security"
	"github.com/streamgate/streamgate/internal/urlstore"
	"github.com/streamgate/streamgate/internal/version"
)

type App struct {
	cfg      *config.Config
	logger   logger.Logger
	server   *httpserver.Server
	store    *urlstore.Store
	sweeper  *scheduler.StoreSweeper
	reloader *scheduler.PlatformReloader
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	store := urlstore.New(cfg.StoreTTL, cfg.StoreMaxRecords)
	validator := security.New(cfg.MaxURLLength, cfg.RequireDomain)
	accessCtrl := access.New(cfg.APIKeys, cfg.AllowedOrigins)

	// Registry starts from built-in defaults; the reloader replaces the
	// snapshot with platforms.yaml content on startup and on schedule.
	registry := platforms.NewRegistry(platforms.Defaults())

	rel := relay.New(registry, store, loggerClient, cfg.HeaderTimeout, cfg.MetadataTimeout)
	res := resolver.New(registry, cfg.MetadataTimeout)

	extractors := extract.NewRegistry()
	extractors.Register(extract.DirectLink{})

	// Create manual reload trigger channel
	reloadTrigger := make(chan struct{}, 1)

	reloader := scheduler.NewPlatformReloader(
		cfg.PlatformFile,
		registry,
		loggerClient,
		cfg.ReloadInterval,
		reloadTrigger,
	)

	sweeper := scheduler.NewStoreSweeper(store, loggerClient, cfg.StoreSweepInterval)

	var rateLimit func(http.Handler) http.Handler
	if cfg.RateLimitRequests > 0 {
		rateLimit = mw.RateLimit(mw.RateLimitConfig{
			Requests:      cfg.RateLimitRequests,
			Window:        cfg.RateLimitWindow,
			MaxEntries:    cfg.RateLimitMaxEntries,
			SweepInterval: cfg.RateLimitSweep,
			TrustProxy:    cfg.TrustProxy,
		})
	}

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:        loggerClient,
		StartTime:     time.Now(),
		Version:       version.Version,
		Commit:        version.Commit,
		BuildDate:     version.BuildDate,
		GoVersion:     version.GoVersion,
		Store:         store,
		Validator:     validator,
		Access:        accessCtrl,
		Registry:      registry,
		Relay:         rel,
		Resolver:      res,
		Extractors:    extractors,
		RateLimit:     rateLimit,
		ReloadTrigger: reloadTrigger,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:      cfg,
		logger:   loggerClient,
		server:   server,
		store:    store,
		sweeper:  sweeper,
		reloader: reloader,
	}
}

func (a *App) Run() error {
	a.logger.Infof("Starting streamgate v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("streamgate %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start platform reloader (loads platforms.yaml and starts periodic refresh)
	if err := a.reloader.Start(ctx); err != nil {
		return fmt.Errorf("failed to start platform reloader: %w", err)
	}
	a.logger.Info("platform reloader started",
		logger.Duration("interval", a.cfg.ReloadInterval))

	// Start URL store sweeper
	if err := a.sweeper.Start(ctx); err != nil {
		return fmt.Errorf("failed to start store sweeper: %w", err)
	}
	a.logger.Info("store sweeper started",
		logger.Duration("interval", a.cfg.StoreSweepInterval))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	a.reloader.Stop()
	a.sweeper.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	a.logger.Info("streamgate stopped cleanly")
	return nil
}

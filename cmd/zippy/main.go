package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zippy-delivery/zippy-console/internal/app"
	"github.com/zippy-delivery/zippy-console/internal/auth"
	"github.com/zippy-delivery/zippy-console/internal/baas"
	"github.com/zippy-delivery/zippy-console/internal/calls"
	"github.com/zippy-delivery/zippy-console/internal/categories"
	"github.com/zippy-delivery/zippy-console/internal/connectivity"
	"github.com/zippy-delivery/zippy-console/internal/console"
	"github.com/zippy-delivery/zippy-console/internal/notify"
	"github.com/zippy-delivery/zippy-console/internal/observability"
	"github.com/zippy-delivery/zippy-console/internal/platform/cache"
	"github.com/zippy-delivery/zippy-console/internal/platform/db"
	"github.com/zippy-delivery/zippy-console/internal/rbac"
	"github.com/zippy-delivery/zippy-console/internal/shared"
	"github.com/zippy-delivery/zippy-console/internal/view"
	"github.com/zippy-delivery/zippy-console/internal/wallet"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PoolConfig())
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.CacheOptions())
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	table, err := rbac.LoadTable(cfg.PermissionsFile)
	if err != nil {
		logger.Error("load permission table", slog.String("path", cfg.PermissionsFile), slog.Any("error", err))
		os.Exit(1)
	}

	if err := console.ConfigureStatusBar(ctx, nil, console.DefaultStatusBar); err != nil && !errors.Is(err, shared.ErrPlatformUnavailable) {
		logger.Warn("configure status bar", slog.Any("error", err))
	}

	sessionManager := shared.NewSessionManager(redisClient, "zippy_session", cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(dbpool)

	authService := auth.NewService(auth.NewRepository(dbpool))
	provider := auth.NewProvider(authService, sessionManager, auditLogger, logger)
	guard := rbac.NewGuard(table, provider, logger, metrics.Registerer())

	baasClient := baas.NewClient(cfg.BaaSURL, cfg.BaaSAPIKey, cfg.BaaSTimeout)
	monitor := connectivity.NewMonitor(ctx, baasClient.Ping(ctx) == nil, notify.Log{Logger: logger}, logger, metrics.Registerer())
	prober := connectivity.NewProber(baasClient, monitor, cfg.ConnectivityInterval, logger)
	dialers := calls.NewRegistry(baasClient, notify.Session{Logger: logger}, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		SessionManager:     sessionManager,
		CSRFManager:        csrfManager,
		Metrics:            metrics,
		Connectivity:       monitor,
		AuthHandler:        auth.NewHandler(logger, provider, templates, csrfManager),
		ConsoleHandler:     console.NewHandler(logger, templates, csrfManager, guard),
		CategoriesHandler:  categories.NewHandler(logger, categories.NewService(categories.NewRepository(dbpool)), templates, csrfManager, guard),
		WalletHandler:      wallet.NewHandler(logger, wallet.NewRepository(dbpool), templates, csrfManager, guard),
		CallsHandler:       calls.NewHandler(logger, dialers, guard),
		PermissionsHandler: rbac.NewPermissionsHandler(logger, guard, templates, csrfManager),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return prober.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("console stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/multistock/multistock/internal/app"
	"github.com/multistock/multistock/internal/audit"
	"github.com/multistock/multistock/internal/auth"
	"github.com/multistock/multistock/internal/customers"
	"github.com/multistock/multistock/internal/dashboard"
	"github.com/multistock/multistock/internal/observability"
	"github.com/multistock/multistock/internal/permissions"
	"github.com/multistock/multistock/internal/platform/cache"
	"github.com/multistock/multistock/internal/platform/db"
	"github.com/multistock/multistock/internal/pos"
	"github.com/multistock/multistock/internal/products"
	"github.com/multistock/multistock/internal/shared"
	"github.com/multistock/multistock/internal/users"
	"github.com/multistock/multistock/internal/view"
	"github.com/multistock/multistock/internal/warehouses"
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

	dbpool, err := db.NewPool(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.NewClient(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "multistock_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	// Every session minted before this boot is unusable; all users must
	// log in again.
	if err := sessionManager.InvalidateAll(ctx); err != nil {
		logger.Warn("invalidate sessions at boot", slog.Any("error", err))
	}

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo)

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, templates, sessionManager, csrfManager)

	auditRepo := audit.NewRepository(dbpool)
	geolocator := audit.NewGeolocator(cfg.GeoIPEndpoint, cfg.GeoIPTimeout)
	auditSink := audit.NewSink(logger, auditRepo, geolocator, 256, metrics.Registerer())
	auditSink.Start(ctx)
	defer auditSink.Close()
	auditHandler := audit.NewHandler(logger, auditRepo, templates)

	idempotencyStore := shared.NewIdempotencyStore(dbpool)

	productsRepo := products.NewRepository(dbpool)
	productsService := products.NewService(productsRepo)
	productsHandler := products.NewHandler(logger, productsService, templates, csrfManager)

	warehousesRepo := warehouses.NewRepository(dbpool)
	warehousesHandler := warehouses.NewHandler(logger, warehousesRepo, templates, csrfManager)

	customersRepo := customers.NewRepository(dbpool)
	customersHandler := customers.NewHandler(logger, customersRepo, templates, csrfManager)

	posRepo := pos.NewRepository(dbpool)
	posService := pos.NewService(posRepo, idempotencyStore)
	posHandler := pos.NewHandler(logger, posService)

	dashboardRepo := dashboard.NewRepository(dbpool)
	dashboardService := dashboard.NewService(dashboardRepo, redisClient)
	dashboardHandler := dashboard.NewHandler(logger, dashboardService, templates)

	permissionsHandler := permissions.NewHandler(logger, usersService, templates, csrfManager)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		Templates:          templates,
		SessionManager:     sessionManager,
		CSRFManager:        csrfManager,
		PrincipalLoader:    usersService,
		AuthHandler:        authHandler,
		ProductsHandler:    productsHandler,
		WarehousesHandler:  warehousesHandler,
		CustomersHandler:   customersHandler,
		POSHandler:         posHandler,
		DashboardHandler:   dashboardHandler,
		PermissionsHandler: permissionsHandler,
		AuditHandler:       auditHandler,
		AuditSink:          auditSink,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

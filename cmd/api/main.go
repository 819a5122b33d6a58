package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/clinicore/hospital-platform/internal/api/router"
	"github.com/clinicore/hospital-platform/internal/audit"
	appconfig "github.com/clinicore/hospital-platform/internal/config"
	"github.com/clinicore/hospital-platform/internal/directory"
	"github.com/clinicore/hospital-platform/internal/identity"
	"github.com/clinicore/hospital-platform/internal/observability/metrics"
	"github.com/clinicore/hospital-platform/internal/patients"
	"github.com/clinicore/hospital-platform/internal/realtime"
	"github.com/clinicore/hospital-platform/internal/session"
	"github.com/clinicore/hospital-platform/pkg/logging"
)

func main() {
	// Load .env in local development; ignore when absent.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	if cfg.AuthJWTSecret == "" {
		logger.Error("AUTH_JWT_SECRET is required")
		os.Exit(1)
	}
	logger.Info("starting hospital-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Storage
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create pgx pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	auditDB, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open audit db", "error", err)
		os.Exit(1)
	}
	defer func() { _ = auditDB.Close() }()

	redisOpts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	rdb := redis.NewClient(redisOpts)
	defer func() { _ = rdb.Close() }()

	// Observability
	workflowMetrics := metrics.NewWorkflowMetrics(nil)

	// Realtime
	hub := realtime.NewHub(workflowMetrics, logger)
	publisher := realtime.NewPublisher(hub, rdb, cfg.RealtimeChannel, workflowMetrics, logger)
	bridge := realtime.NewBridge(rdb, cfg.RealtimeChannel, hub, logger)
	go func() {
		if err := bridge.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("realtime bridge stopped", "error", err)
		}
	}()

	// Identity and directory
	gateway := identity.NewLocalGateway(
		identity.NewPostgresCredentials(pool),
		cfg.AuthJWTSecret,
		cfg.AuthTokenTTL,
		logger,
		identity.WithRevocationList(identity.NewRedisRevocationList(rdb)),
		identity.WithBcryptCost(cfg.BcryptCost),
	)
	auditService := audit.NewService(auditDB, logger)
	directoryService := directory.NewService(directory.NewPostgresRepository(pool), gateway, publisher, auditService, logger)

	// Patient workflow
	patientsService := patients.NewService(patients.NewPostgresRepository(pool), publisher, auditService, workflowMetrics, logger)

	guard := session.NewGuard(gateway, directoryService, logger)

	r := router.New(&router.Config{
		Logger:             logger,
		Guard:              guard,
		PatientsHandler:    patients.NewHandler(patientsService, logger),
		DirectoryHandler:   directory.NewHandler(directoryService, logger),
		RealtimeHandler:    realtime.NewHandler(hub, logger),
		MetricsHandler:     promhttp.Handler(),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		AuthRateLimit:      cfg.AuthRateLimit,
		AuthRateBurst:      cfg.AuthRateBurst,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

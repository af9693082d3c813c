package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/jmcallister/riskgate/internal/auth"
	"github.com/jmcallister/riskgate/internal/background"
	"github.com/jmcallister/riskgate/internal/config"
	"github.com/jmcallister/riskgate/internal/database"
	"github.com/jmcallister/riskgate/internal/handlers"
	"github.com/jmcallister/riskgate/internal/history"
	"github.com/jmcallister/riskgate/internal/lockout"
	middlewareCustom "github.com/jmcallister/riskgate/internal/middleware"
	"github.com/jmcallister/riskgate/internal/repositories"
	"github.com/jmcallister/riskgate/internal/risk"
	"github.com/jmcallister/riskgate/internal/routes"
	"github.com/jmcallister/riskgate/internal/services"
	pkghttp "github.com/jmcallister/riskgate/pkg/http"
	pkglogger "github.com/jmcallister/riskgate/pkg/logger"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	riskConfig := risk.Config{
		NewDeviceWeight:          cfg.Risk.NewDeviceWeight,
		NewLocationWeight:        cfg.Risk.NewLocationWeight,
		ImpossibleTravelWeight:   cfg.Risk.ImpossibleTravelWeight,
		OddTimeWeight:            cfg.Risk.OddTimeWeight,
		ExcessiveFailuresWeight:  cfg.Risk.ExcessiveFailuresWeight,
		MFAThreshold:             cfg.Risk.MFAThreshold,
		BlockThreshold:           cfg.Risk.BlockThreshold,
		KnownLocationRadiusKm:    cfg.Risk.KnownLocationRadiusKm,
		MaxTravelSpeedKmh:        cfg.Risk.MaxTravelSpeedKmh,
		MinSamplesForTimeProfile: cfg.Risk.MinSamplesForTimeProfile,
		UnusualHourFrequency:     cfg.Risk.UnusualHourFrequency,
		FailureThreshold:         cfg.Lockout.FailureThreshold,
		ClockSkewTolerance:       cfg.Risk.ClockSkewTolerance,
	}
	if err := riskConfig.Validate(); err != nil {
		logger.Error("invalid risk configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// In-memory login history, the engine's working set
	store := history.NewStore(history.Config{
		MaxRecordsPerUser: cfg.History.MaxRecordsPerUser,
		MaxRecordAge:      cfg.History.MaxRecordAge,
	})

	// Failed-attempt counter: Redis when configured so multiple instances
	// share one view of an identity's failures, otherwise in-process
	var counter lockout.Counter
	var counterSweeper background.CounterSweeper
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			cancel()
			logger.Error("failed to connect to redis", slog.Any("error", err))
			os.Exit(1)
		}
		cancel()

		counter = lockout.NewRedisCounter(redisClient, cfg.Lockout.Window)
		logger.Info("failed-attempt counter backed by redis", slog.String("addr", cfg.Redis.Addr))
	} else {
		memCounter := lockout.NewMemoryCounter(cfg.Lockout.Window)
		counter = memCounter
		counterSweeper = memCounter
	}

	// Optional durable archive of login records
	var archiver services.RecordArchiver
	var archivePruner background.ArchivePruner
	var db *database.DB
	if cfg.Database.Enabled {
		db, err = database.NewConnection(&cfg.Database, logger)
		if err != nil {
			logger.Error("failed to connect to database", slog.Any("error", err))
			os.Exit(1)
		}
		defer db.Close()

		if err := runMigrations(context.Background(), db); err != nil {
			logger.Error("failed to run migrations", slog.Any("error", err))
			os.Exit(1)
		}

		recordRepo := repositories.NewLoginRecordRepository(db)
		archiver = recordRepo
		archivePruner = recordRepo

		// Rebuild the in-memory working set from the archive so a restart
		// does not blind the analyzers
		hydrateCtx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		if err := hydrateHistory(hydrateCtx, recordRepo, store, cfg.History, logger); err != nil {
			logger.Error("failed to hydrate history from archive", slog.Any("error", err))
		}
		cancel()
	}

	engine := risk.NewEngine(store, counter, riskConfig, logger)

	auditLogger := pkglogger.NewAuditLogger(logger)
	riskService := services.NewRiskService(
		engine,
		store,
		counter,
		archiver,
		services.RiskServiceConfig{FailureThreshold: cfg.Lockout.FailureThreshold},
		logger,
		auditLogger,
	)

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry)

	ipConfig := &pkghttp.IPConfig{TrustedProxies: cfg.Server.TrustedProxies}
	riskHandler := handlers.NewRiskHandler(riskService, ipConfig)

	sweeper := background.NewSweeper(
		store,
		counterSweeper,
		archivePruner,
		cfg.History.MaxRecordAge,
		cfg.History.SweepInterval,
		logger,
	)

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders())
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(30 * time.Second))

	routes.RegisterRoutes(router, riskHandler, tokenManager)

	router.Handle("/metrics", promhttp.Handler())

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()

			if err := db.HealthCheck(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status":"unhealthy","archive":"down"}`))
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start retention sweeper
	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	defer sweepCancel()

	go sweeper.Start(sweepCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	sweepCancel()
	sweeper.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

// runMigrations brings the archive schema up to date on startup
func runMigrations(ctx context.Context, db *database.DB) error {
	sqlDB := stdlib.OpenDB(*db.Pool.Config().ConnConfig)
	defer sqlDB.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	return goose.UpContext(ctx, sqlDB, "migrations")
}

// hydrateHistory reloads each recently active user's records from the archive
// into the in-memory store
func hydrateHistory(
	ctx context.Context,
	repo *repositories.LoginRecordRepository,
	store *history.Store,
	cfg config.HistoryConfig,
	logger *slog.Logger,
) error {
	since := time.Now().Add(-cfg.MaxRecordAge)

	userIDs, err := repo.ActiveUserIDs(ctx, since)
	if err != nil {
		return err
	}

	var loaded int
	for _, userID := range userIDs {
		records, err := repo.RecentRecords(ctx, userID, cfg.MaxRecordsPerUser)
		if err != nil {
			logger.Error("failed to load records for user",
				slog.String("user_id", userID),
				slog.Any("error", err))
			continue
		}
		store.Hydrate(userID, records)
		loaded += len(records)
	}

	logger.Info("history hydrated from archive",
		slog.Int("users", len(userIDs)),
		slog.Int("records", loaded))
	return nil
}

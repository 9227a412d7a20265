// Package main is the entry point for the attendance API server.
//
// The architecture follows Clean Architecture and DDD:
// - Domain: section catalog, roster files, attendance records, accounts
// - Application: commands (submissions, uploads) and the report engine
// - Infrastructure: PostgreSQL store, Redis roster cache, roster directory
// - Interface: HTTP API with token authentication
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/Nooor786/SJCET-Smart-Attendance-System/config"

	// Application layer
	"github.com/Nooor786/SJCET-Smart-Attendance-System/internal/application/command"
	"github.com/Nooor786/SJCET-Smart-Attendance-System/internal/application/report"

	// Domain layer
	"github.com/Nooor786/SJCET-Smart-Attendance-System/internal/domain/roster"
	"github.com/Nooor786/SJCET-Smart-Attendance-System/internal/domain/section"

	// Infrastructure layer
	"github.com/Nooor786/SJCET-Smart-Attendance-System/internal/infrastructure/persistence/postgres"
	"github.com/Nooor786/SJCET-Smart-Attendance-System/internal/infrastructure/persistence/redis"
	"github.com/Nooor786/SJCET-Smart-Attendance-System/internal/infrastructure/rosterdir"

	// Interface layer
	httpserver "github.com/Nooor786/SJCET-Smart-Attendance-System/internal/interface/http"

	// Packages
	"github.com/Nooor786/SJCET-Smart-Attendance-System/pkg/logger"
	"github.com/Nooor786/SJCET-Smart-Attendance-System/pkg/retry"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────

	// A missing .env file is fine; the environment may be set directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := logger.New(logger.Options{
		Output:    os.Stdout,
		Level:     logger.ParseLevel(cfg.Observability.LogLevel),
		AddCaller: cfg.Observability.AddCaller,
	})
	log.Info("starting attendance server",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
		logger.Bool("debug", cfg.App.Debug),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. DATABASE (PostgreSQL)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")

	var dbConn *postgres.Connection
	connectCfg := retry.DefaultConfig()
	connectCfg.MaxAttempts = cfg.Database.ConnectRetries
	connectCfg.InitialDelay = cfg.Database.ConnectDelay
	err = retry.Do(ctx, connectCfg, func(ctx context.Context) error {
		var connErr error
		dbConn, connErr = postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
		return connErr
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		dbConn.Close()
	}()
	log.Info("database connection established")

	// ─────────────────────────────────────────────────────────────────────────
	// 4. MIGRATIONS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("running database migrations...")
	migrator := postgres.NewMigrator(dbConn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("migrations completed")

	// ─────────────────────────────────────────────────────────────────────────
	// 5. REDIS (optional roster cache)
	// ─────────────────────────────────────────────────────────────────────────
	var rosterCacheBackend *redis.Cache
	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis...")
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

		cache, err := redis.NewCache(redisCfg)
		if err != nil {
			log.Warn("failed to connect to Redis, roster caching disabled", logger.Err(err))
		} else {
			defer cache.Close()
			rosterCacheBackend = cache
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. DOMAIN AND INFRASTRUCTURE WIRING
	// ─────────────────────────────────────────────────────────────────────────
	catalog := section.Default()

	var rosters roster.Source = rosterdir.New(cfg.Roster.Dir, catalog)
	rosters = redis.NewRosterCache(rosters, rosterCacheBackend, log)

	store := postgres.NewAttendanceRepository(dbConn)
	users := postgres.NewUserRepository(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. APPLICATION LAYER
	// ─────────────────────────────────────────────────────────────────────────
	engine := report.NewEngine(store, nil)
	submitAttendance := command.NewSubmitAttendanceHandler(catalog, store, rosters, log)
	uploadRoster := command.NewUploadRosterHandler(catalog, rosters, log)

	// ─────────────────────────────────────────────────────────────────────────
	// 8. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	httpConfig := httpserver.DefaultConfig()
	httpConfig.Host = cfg.HTTP.Host
	httpConfig.Port = cfg.HTTP.Port
	httpConfig.ReadTimeout = cfg.HTTP.ReadTimeout
	httpConfig.WriteTimeout = cfg.HTTP.WriteTimeout
	httpConfig.IdleTimeout = cfg.HTTP.IdleTimeout
	httpConfig.EnableCORS = cfg.HTTP.EnableCORS
	httpConfig.AllowedOrigins = cfg.HTTP.AllowedOrigins
	httpConfig.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute
	httpConfig.JWTSecret = cfg.Auth.JWTSecret
	httpConfig.TokenTTL = cfg.Auth.TokenTTL

	httpDeps := httpserver.Dependencies{
		SubmitAttendance: submitAttendance,
		UploadRoster:     uploadRoster,
		Engine:           engine,
		Catalog:          catalog,
		Rosters:          rosters,
		Users:            users,
		Logger:           log,
		Database:         dbConn,
	}

	srv := httpserver.NewServer(httpConfig, httpDeps)

	// ─────────────────────────────────────────────────────────────────────────
	// 9. START AND GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting HTTP server", logger.String("address", httpConfig.Address()))
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", logger.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("service error", logger.Err(err))
		return err
	}

	log.Info("starting graceful shutdown...",
		logger.Duration("timeout", cfg.App.ShutdownTimeout))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop HTTP server gracefully", logger.Err(err))
		return err
	}

	log.Info("shutdown completed successfully")
	return nil
}

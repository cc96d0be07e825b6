package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/tribalbenefits/backend/internal/api/pipeline"
	"github.com/tribalbenefits/backend/internal/api/rest"
	"github.com/tribalbenefits/backend/internal/auth"
	"github.com/tribalbenefits/backend/internal/config"
	"github.com/tribalbenefits/backend/internal/csrf"
	"github.com/tribalbenefits/backend/internal/pkg/logger"
	"github.com/tribalbenefits/backend/internal/pkg/validate"
	"github.com/tribalbenefits/backend/internal/ratelimit"
	"github.com/tribalbenefits/backend/internal/repository"
	"github.com/tribalbenefits/backend/migrations"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.LogLevel)
	log.Info("starting benefits backend", "port", cfg.Port, "db", cfg.DatabasePath)

	if cfg.AuthJWTSecret == "" {
		return fmt.Errorf("auth_jwt_secret is required (BENEFITS_AUTH_JWT_SECRET)")
	}
	if cfg.CSRFSecret == "" {
		return fmt.Errorf("csrf_secret is required (BENEFITS_CSRF_SECRET)")
	}

	// Database
	repo, err := repository.NewSQLiteRepository(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer repo.Close()

	schema, err := migrations.FS.ReadFile("001_initial_schema.sql")
	if err != nil {
		return fmt.Errorf("read migration: %w", err)
	}
	if err := repo.RunMigrations(string(schema)); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	log.Info("database migrations completed")

	// Rate limit store: distributed when redis is configured, in-process
	// otherwise.
	var store ratelimit.Store
	if cfg.RedisAddr != "" {
		rds := ratelimit.NewRedis(ratelimit.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rds.Close()
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := rds.Ping(pingCtx); err != nil {
			log.Warn("redis unreachable at startup; rate limiting will degrade per fail policy", "error", err.Error())
		}
		cancel()
		store = rds
		log.Info("rate limit store: redis", "addr", cfg.RedisAddr)
	} else {
		mem := ratelimit.NewMemory(time.Minute)
		defer mem.Close()
		store = mem
		log.Info("rate limit store: in-process")
	}

	limiter := ratelimit.New(store, ratelimit.Config{
		Window: time.Duration(cfg.RateLimitWindowSec) * time.Second,
		Quotas: map[ratelimit.Class]int{
			ratelimit.ClassAPI:       cfg.RateLimitAPIPerWin,
			ratelimit.ClassAdmin:     cfg.RateLimitAdminPerWin,
			ratelimit.ClassAdminBulk: cfg.RateLimitBulkPerWin,
		},
		FailOpen:     cfg.RateLimitFailOpen,
		StoreTimeout: time.Duration(cfg.StoreTimeoutMs) * time.Millisecond,
	}, log)

	guard, err := csrf.New(cfg.CSRFSecret, time.Duration(cfg.CSRFTTLSec)*time.Second)
	if err != nil {
		return fmt.Errorf("csrf guard: %w", err)
	}

	verifier, err := auth.NewJWTVerifier(cfg.AuthJWTSecret)
	if err != nil {
		return fmt.Errorf("jwt verifier: %w", err)
	}
	resolver := auth.NewResolver(verifier, repo, time.Duration(cfg.AuthTimeoutSec)*time.Second)

	p := pipeline.New(limiter, guard, resolver, validate.New(), log, cfg.DevMode)

	// Router
	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	rest.SetupRoutes(router, p, rest.NewHandler(repo, guard))

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", pipeline.CSRFTokenHeader, pipeline.RequestIDHeader},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      c.Handler(router),
		ReadTimeout:  time.Duration(cfg.RequestTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.RequestTimeoutSec) * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case sig := <-quit:
		log.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeoutSec)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("server exited gracefully")
	return nil
}

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/medisched/clinic-scheduling/internal/api"
	"github.com/medisched/clinic-scheduling/internal/config"
	"github.com/medisched/clinic-scheduling/internal/consultation"
	"github.com/medisched/clinic-scheduling/internal/db"
	"github.com/medisched/clinic-scheduling/internal/identity"
	"github.com/medisched/clinic-scheduling/internal/logger"
	"github.com/medisched/clinic-scheduling/internal/reconsult"
	redisclient "github.com/medisched/clinic-scheduling/internal/redis"
	"github.com/medisched/clinic-scheduling/internal/reservation"
	"github.com/medisched/clinic-scheduling/internal/schedule"
)

const version = "0.3.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	zlog, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	zlog.Info("api-server starting up",
		zap.String("env", cfg.Env),
		zap.String("http_port", cfg.HTTPPort))

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		zlog.Fatal("postgres connection error", zap.Error(err))
	}
	defer pgPool.Close()
	zlog.Info("connected to Postgres")

	// Connect Redis
	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		zlog.Fatal("redis connection error", zap.Error(err))
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			zlog.Warn("error closing redis", zap.Error(err))
		}
	}()
	zlog.Info("connected to Redis")

	// Wire the core
	reservationStore := reservation.NewPgStore(pgPool)
	locker := redisclient.NewRedisAgendaLocker(rdb, cfg.LockTTL)

	templates := schedule.NewPgTemplateSource(pgPool)
	resolver := schedule.NewResolver(templates, reservationStore)

	reservations := reservation.NewService(reservationStore, locker, resolver, zlog)

	sessionStore := consultation.NewPgStore(pgPool)
	history := consultation.NewPgHistoryStore(pgPool)
	consultations := consultation.NewService(sessionStore, history, reservations, zlog)

	planner := reconsult.NewPlanner(resolver, reservations, sessionStore, zlog)

	directory := identity.NewPgDirectory(pgPool)

	var metrics *api.Metrics
	if cfg.MetricsEnabled {
		metrics = api.NewMetrics("clinic-scheduling")
		zlog.Info("prometheus metrics enabled at /metrics")
	}

	router := api.NewRouter(api.RouterConfig{
		Resolver:      resolver,
		Reservations:  reservations,
		Consultations: consultations,
		Planner:       planner,
		Directory:     directory,
		PgPool:        pgPool,
		Redis:         rdb,
		Log:           zlog,
		Metrics:       metrics,
		Env:           cfg.Env,
		Version:       version,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zlog.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server failed", zap.Error(err))
		}
	}()

	<-rootCtx.Done()
	zlog.Info("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("server forced to shutdown", zap.Error(err))
	}

	zlog.Info("api-server stopped")
}

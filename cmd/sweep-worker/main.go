package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/medisched/clinic-scheduling/internal/config"
	"github.com/medisched/clinic-scheduling/internal/db"
	"github.com/medisched/clinic-scheduling/internal/logger"
	redisclient "github.com/medisched/clinic-scheduling/internal/redis"
	"github.com/medisched/clinic-scheduling/internal/reservation"
	"github.com/medisched/clinic-scheduling/internal/schedule"
)

// The sweep worker cancels pending reservations whose date came and went
// without doctor confirmation. It touches reservations only; consultation
// session expiry stays advisory and is never enforced here.
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

	zlog.Info("sweep-worker starting up",
		zap.String("env", cfg.Env),
		zap.Duration("interval", cfg.SweepInterval))

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		zlog.Fatal("postgres connection error", zap.Error(err))
	}
	defer pgPool.Close()
	zlog.Info("connected to Postgres")

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

	store := reservation.NewPgStore(pgPool)
	locker := redisclient.NewRedisAgendaLocker(rdb, cfg.LockTTL)
	resolver := schedule.NewResolver(schedule.NewPgTemplateSource(pgPool), store)
	svc := reservation.NewService(store, locker, resolver, zlog)

	// Run once at startup
	runOnce(rootCtx, svc, zlog)

	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			zlog.Info("shutting down sweep-worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, svc, zlog)
		}
	}
}

func runOnce(ctx context.Context, svc *reservation.Service, zlog *zap.Logger) {
	today := time.Now().Truncate(24 * time.Hour)

	cancelled, err := svc.CancelStalePending(ctx, today)
	if err != nil {
		zlog.Error("sweep run failed", zap.Error(err))
		return
	}
	if cancelled > 0 {
		zlog.Info("swept stale reservations", zap.Int("cancelled", cancelled))
	}
}

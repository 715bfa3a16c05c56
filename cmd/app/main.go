// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/jackc/pgx/v4/pgxpool"

	"billing-service/internal/config"
	"billing-service/internal/domain/ports/repository"
	pg "billing-service/internal/infra/db/postgres"
	"billing-service/internal/infra/logging"
	"billing-service/internal/infra/metrics"
	red "billing-service/internal/infra/redis"
	"billing-service/internal/infra/web"
	"billing-service/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logging, insecure cookies)")
	flag.Parse()

	// .env is optional; real deployments set env vars directly.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("dev mode enabled")
	}

	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()
	go reportPoolStats(ctx, pool)

	// ---- Redis (optional) ----
	var (
		deduper usecase.EventDeduper
		locker  usecase.UserLocker
		cache   red.RedisClient
	)
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connect failed")
		}
		defer redisClient.Close()
		deduper = red.NewEventDeduper(redisClient, cfg.Provider.DedupTTL)
		locker = red.NewLocker(redisClient)
		cache = redisClient
	} else {
		logger.Warn().Msg("redis.url is empty; event dedup, user locks and plan cache are disabled")
	}

	// ---- Repositories ----
	subRepo := pg.NewSubscriptionRepo(pool)
	creditRepo := pg.NewCreditUsageRepo(pool)
	paymentRepo := pg.NewPaymentHistoryRepo(pool)
	var plans repository.SubscriptionPlanRepository = pg.NewPlanRepo(pool)
	if cache != nil {
		plans = pg.NewPlanRepoCacheDecorator(plans, cache, cfg.Redis.TTL)
	}

	// ---- Use cases ----
	txm := pg.NewTxManager(pool)
	reconcileUC := usecase.NewReconcileUseCase(subRepo, creditRepo, paymentRepo, txm, deduper, locker, logger)
	planUC := usecase.NewPlanUseCase(plans, logger)
	billingUC := usecase.NewBillingUseCase(subRepo, creditRepo, paymentRepo, logger)

	// ---- HTTP server ----
	srv := web.NewServer(cfg, reconcileUC, planUC, billingUC, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown failed")
	}
	cancel()
}

func reportPoolStats(ctx context.Context, pool *pgxpool.Pool) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st := pool.Stat()
			metrics.SetDBPoolStats(st.TotalConns(), st.IdleConns(), st.AcquiredConns())
		}
	}
}

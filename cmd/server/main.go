package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	httpapi "github.com/primedepthlabs/Loan-Admin-sub000/internal/http"
	"github.com/primedepthlabs/Loan-Admin-sub000/internal/placement/events"
	"github.com/primedepthlabs/Loan-Admin-sub000/internal/placement/handler"
	placementmetrics "github.com/primedepthlabs/Loan-Admin-sub000/internal/placement/metrics"
	"github.com/primedepthlabs/Loan-Admin-sub000/internal/placement/ownership"
	"github.com/primedepthlabs/Loan-Admin-sub000/internal/placement/plans"
	"github.com/primedepthlabs/Loan-Admin-sub000/internal/placement/service"
	"github.com/primedepthlabs/Loan-Admin-sub000/internal/placement/store"
	"github.com/primedepthlabs/Loan-Admin-sub000/internal/platform/config"
	"github.com/primedepthlabs/Loan-Admin-sub000/internal/platform/httpserver"
	"github.com/primedepthlabs/Loan-Admin-sub000/internal/platform/kafka"
	"github.com/primedepthlabs/Loan-Admin-sub000/internal/platform/logger"
	"github.com/primedepthlabs/Loan-Admin-sub000/internal/platform/metrics"
	"github.com/primedepthlabs/Loan-Admin-sub000/internal/platform/postgres"
	"github.com/primedepthlabs/Loan-Admin-sub000/internal/platform/redis"
)

// main wires dependencies and runs the HTTP server until SIGINT or SIGTERM.
// Business logic lives in internal/placement.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("placement service stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	if cfg.Database.MigrateOnStart {
		if err := postgres.Migrate(cfg.Database.URL, log); err != nil {
			return err
		}
	}
	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(db, "placement"),
	)
	checks := map[string]httpapi.HealthCheck{"postgres": db.PingContext}

	var planSource service.PlanLookup = plans.NewPostgresLookup(db)
	cache, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if cache != nil {
		defer cache.Close()
		planSource = plans.NewRedisCache(cache.Client, planSource,
			plans.WithTTL(cfg.Redis.PlanCacheTTL),
			plans.WithCacheLogger(log),
		)
		checks["redis"] = cache.Health
		log.Info("plan settings cache enabled", "ttl", cfg.Redis.PlanCacheTTL.String())
	}

	var publisher events.Publisher = events.Nop{}
	if cfg.EventsEnabled() {
		producer, err := kafka.NewProducer(cfg.Kafka.Brokers)
		if err != nil {
			return err
		}
		defer producer.Close()
		publisher = events.NewBreaker(
			events.NewKafkaPublisher(producer, cfg.Kafka.Topic),
			cfg.Kafka.BreakerThreshold,
			cfg.Kafka.BreakerCooldown,
		)
		checks["kafka"] = producer.Ping
		log.Info("placement events enabled", "topic", cfg.Kafka.Topic)
	}

	svc := newService(db, cfg, log, planSource, publisher, placementmetrics.New(registry))
	placements := handler.New(svc, log, metrics.New(registry), cfg.Server.AdminToken)

	router := httpapi.NewRouter(httpapi.Options{
		Logger:   log,
		Gatherer: registry,
		Checks:   checks,
	}, placements)

	return httpserver.Run(ctx, httpserver.New(cfg.Server.Addr, router), log)
}

func newService(db *sql.DB, cfg *config.Config, log *slog.Logger, planSource service.PlanLookup, publisher events.Publisher, m *placementmetrics.Metrics) *service.Service {
	return service.New(
		store.NewPostgresTree(db),
		store.NewPostgresCommissions(db),
		store.NewPostgresRewards(db),
		store.NewPostgresTx(db,
			store.WithTxTimeout(cfg.Placement.TxTimeout),
			store.WithLockTimeout(cfg.Placement.LockTimeout),
		),
		planSource,
		ownership.NewPostgres(db),
		service.WithLogger(log),
		service.WithMetrics(m),
		service.WithPublisher(publisher),
		service.WithRetryPolicy(service.RetryPolicy{
			MaxAttempts:     cfg.Placement.MaxAttempts,
			InitialInterval: cfg.Placement.InitialBackoff,
			MaxInterval:     cfg.Placement.MaxBackoff,
		}),
	)
}

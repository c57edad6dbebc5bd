package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spacesedan/moodreel/config"
	"github.com/spacesedan/moodreel/internal/clients"
	"github.com/spacesedan/moodreel/internal/clients/kafka_client"
	"github.com/spacesedan/moodreel/internal/consumers"
	"github.com/spacesedan/moodreel/internal/db"
	"github.com/spacesedan/moodreel/internal/logging"
	"github.com/spacesedan/moodreel/internal/metrics"
	"github.com/spacesedan/moodreel/internal/monitoring"
	"github.com/spacesedan/moodreel/internal/pipeline"
)

func main() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	config.LoadEnv(env)
	logging.InitLogger()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	appCfg := config.GetAppConfig()
	metrics.StartServer(appCfg.MetricsAddr)

	p, err := pipeline.Build(appCfg)
	if err != nil {
		slog.Error("[Main] Failed to build pipeline", slog.String("error", err.Error()))
		os.Exit(1)
	}

	pg, err := clients.GetPostgresClient(ctx)
	if err != nil {
		slog.Error("[Main] Failed to connect to PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pg.Close()

	store := db.NewCatalogStore(pg.DB)
	if err := store.EnsureSchema(ctx); err != nil {
		slog.Error("[Main] Failed to prepare schema", slog.String("error", err.Error()))
		os.Exit(1)
	}

	catalog := consumers.NewCatalogSnapshot(nil)
	if err := catalog.Refresh(ctx, store); err != nil {
		slog.Error("[Main] Failed to load catalog", slog.String("error", err.Error()))
		os.Exit(1)
	}
	go catalog.RunRefresh(ctx, store, appCfg.CatalogRefresh)

	storeHealthy := &atomic.Bool{}
	storeHealthy.Store(true)
	go monitoring.MonitorHealth(ctx, "postgres", monitoring.HEALTHCHECK_INTERVAL, pg.Healthy, storeHealthy)

	deps := consumers.HandlerDeps{
		Pipeline:     p,
		Catalog:      catalog,
		Ratings:      store,
		Moods:        store,
		StoreHealthy: storeHealthy,
		DefaultLimit: appCfg.DefaultLimit,
		CacheTTL:     appCfg.CacheTTL,
	}

	// the cache is optional; requests are still served without it
	if cache, err := clients.InitValkey(); err != nil {
		slog.Warn("[Main] Valkey unavailable, caching disabled", slog.String("error", err.Error()))
	} else {
		defer clients.CloseValkey()
		cacheHealthy := &atomic.Bool{}
		cacheHealthy.Store(true)
		go monitoring.MonitorHealth(ctx, "valkey", monitoring.HEALTHCHECK_INTERVAL, cache.Healthy, cacheHealthy)
		deps.Cache = cache
		deps.CacheHealthy = cacheHealthy
	}

	var history consumers.HistoryWriter
	if dynamo, err := clients.GetDynamoDBClient(ctx); err != nil {
		slog.Warn("[Main] DynamoDB unavailable, history disabled", slog.String("error", err.Error()))
	} else {
		history = db.NewHistoryStore(dynamo)
	}

	kafkaCfg := kafka_client.GetKafkaConfig()
	var producer *kafka_client.Producer
	for {
		producer, err = kafka_client.NewProducer(ctx, kafkaCfg)
		if err == nil {
			break
		}
		slog.Warn("Kafka init failed, retrying...", slog.String("error", err.Error()))
		select {
		case <-ctx.Done():
			return
		case <-time.After(5 * time.Second):
		}
	}
	defer producer.Close()

	handler := consumers.NewRecommendationHandler(deps)
	kafka_client.RegisterConsumer(kafka_client.KAFKA_TOPIC_RECOMMENDATION_REQUESTS,
		handler.Consumer(producer, history, kafkaCfg.ResultsTopic))

	if err := kafka_client.StartConsumer(ctx, kafkaCfg); err != nil {
		slog.Error("[Main] Failed to start consumer",
			slog.String("error", err.Error()))
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/openflix/catalog-admin/internal/encoder"
	"github.com/openflix/catalog-admin/internal/video"
	"github.com/openflix/catalog-admin/pkg/config"
	"github.com/openflix/catalog-admin/pkg/db"
	"github.com/openflix/catalog-admin/pkg/logger"
	"github.com/openflix/catalog-admin/pkg/metrics"
	"github.com/openflix/catalog-admin/pkg/migrate"
	"github.com/openflix/catalog-admin/pkg/outbox"
	"github.com/openflix/catalog-admin/pkg/outbox/idempotency"
	"github.com/openflix/catalog-admin/pkg/pubsub"
	"github.com/openflix/catalog-admin/pkg/redis"
	"github.com/openflix/catalog-admin/pkg/storage/gcs"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "encoder-worker"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	cfg.Service.Kind = "encoder-worker"

	logg = logger.New(logger.Options{
		ServiceName: "encoder-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		requireResource(ctx, logg, "dev migrations", err)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer redisClient.Close()

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer pubsubClient.Close()

	gcsClient, err := gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
	requireResource(ctx, logg, "gcs", err)
	defer gcsClient.Close()

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	videoRepo := video.NewRepository(dbClient, outboxService)
	videoService, err := video.NewService(video.ServiceParams{
		Config:     cfg,
		Logger:     logg,
		Repository: videoRepo,
		Storage:    gcsClient,
	})
	requireResource(ctx, logg, "video service", err)

	guard, err := idempotency.NewManager(redisClient, cfg.Eventing.IdempotencyTTL)
	requireResource(ctx, logg, "idempotency manager", err)

	consumer, err := encoder.NewConsumer(
		videoService,
		pubsubClient.EncoderSubscription(),
		guard,
		logg,
		metrics.NewConsumerMetrics(prometheus.DefaultRegisterer),
	)
	requireResource(ctx, logg, "encoder consumer", err)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"serviceKind": cfg.Service.Kind,
		"env":         cfg.App.Env,
	})
	logg.Info(runCtx, "encoder worker ready")

	if err := consumer.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "encoder worker not working", err)
		os.Exit(1)
	}

	logg.Info(runCtx, "encoder worker shutting down gracefully")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}

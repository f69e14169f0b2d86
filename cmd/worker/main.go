package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/youdescribe-sfsu/video-pipeline/internal/domain/port"
	"github.com/youdescribe-sfsu/video-pipeline/internal/infra/config"
	"github.com/youdescribe-sfsu/video-pipeline/internal/infra/email"
	"github.com/youdescribe-sfsu/video-pipeline/internal/infra/metrics"
	miniostorage "github.com/youdescribe-sfsu/video-pipeline/internal/infra/minio"
	"github.com/youdescribe-sfsu/video-pipeline/internal/infra/postgres"
	"github.com/youdescribe-sfsu/video-pipeline/internal/infra/rabbitmq"
	redisprogress "github.com/youdescribe-sfsu/video-pipeline/internal/infra/redis"
	"github.com/youdescribe-sfsu/video-pipeline/internal/infra/tracing"
	"github.com/youdescribe-sfsu/video-pipeline/internal/usecase"
	"github.com/youdescribe-sfsu/video-pipeline/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	fatalOnErr(err, "load config")

	log, err := logger.New(cfg.LogLevel)
	fatalOnErr(err, "init logger")
	defer log.Sync()

	log.Info("starting scene-segmentation-service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tracing (non-fatal if Jaeger unavailable)
	tp, err := tracing.InitTracer(ctx, cfg.JaegerEndpoint)
	if err != nil {
		log.Warn("tracing init failed, continuing without tracing", zap.Error(err))
	} else {
		defer tp.Shutdown(ctx)
	}

	// Database
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	fatalOnErr(err, "connect to postgres")
	defer pool.Close()

	// Migrations
	err = postgres.RunMigrations(cfg.DatabaseURL, "migrations")
	if err != nil {
		log.Warn("migration warning", zap.Error(err))
	}

	// MinIO
	storage, err := miniostorage.NewStorage(miniostorage.StorageConfig{
		Endpoint:       cfg.MinIOEndpoint,
		AccessKey:      cfg.MinIOAccessKey,
		SecretKey:      cfg.MinIOSecretKey,
		UseSSL:         cfg.MinIOUseSSL,
		FeatureBucket:  cfg.MinIOFeatureBucket,
		ArtifactBucket: cfg.MinIOArtifactBucket,
	})
	fatalOnErr(err, "create minio storage")
	fatalOnErr(storage.EnsureBuckets(ctx), "ensure minio buckets")

	// Redis progress markers (non-fatal; jobs still process without them)
	progress, err := redisprogress.NewProgressTracker(cfg.RedisAddr, cfg.RedisDoneSet)
	if err != nil {
		log.Warn("redis unavailable, continuing without progress markers", zap.Error(err))
		progress = nil
	} else {
		defer progress.Close()
	}

	// RabbitMQ publisher connection
	rmqConn, err := amqp.Dial(cfg.RabbitMQURL)
	fatalOnErr(err, "connect to rabbitmq for publisher")
	defer rmqConn.Close()

	pub, err := rabbitmq.NewPublisher(rmqConn, cfg.RabbitMQExchange)
	fatalOnErr(err, "create rabbitmq publisher")

	statusPub := rabbitmq.NewStatusPublisher(pub)
	dlqPub := rabbitmq.NewDLQPublisher(pub, cfg.RabbitMQDLQ)

	// Infra adapters
	repo := postgres.NewJobRepository(pool)
	notifier := email.NewSMTPNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, log)

	// Use case
	uc := usecase.NewSegmentScenesUseCase(
		repo, storage, trackerOrNil(progress),
		statusPub, dlqPub, notifier,
		log,
		usecase.SegmentScenesConfig{
			TempDir:             cfg.TempDir,
			MaxRetries:          cfg.MaxRetries,
			SceneTimeLimit:      cfg.SceneTimeLimit,
			SimilarityThreshold: cfg.SimilarityThreshold,
		},
	)

	// Metrics server
	metricsSrv := metrics.StartMetricsServer(ctx, cfg.MetricsPort, log)

	// Consumer (worker pool)
	consumer, err := rabbitmq.NewConsumer(rabbitmq.ConsumerConfig{
		URL:         cfg.RabbitMQURL,
		Queue:       cfg.RabbitMQSceneQueue,
		Exchange:    cfg.RabbitMQExchange,
		DLQ:         cfg.RabbitMQDLQ,
		StatusQueue: cfg.RabbitMQStatusQueue,
		Prefetch:    cfg.RabbitMQPrefetch,
		WorkerCount: cfg.WorkerCount,
		BaseDelayMs: cfg.RetryBaseDelayMs,
	}, uc.Execute, log)
	fatalOnErr(err, "create consumer")

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info("received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	log.Info("scene-segmentation-service started, consuming messages")

	if err := consumer.Start(ctx); err != nil {
		log.Error("consumer error", zap.Error(err))
	}

	// Shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	metricsSrv.Shutdown(shutdownCtx)

	consumer.Close()
	log.Info("scene-segmentation-service stopped")
}

// trackerOrNil keeps a typed nil *ProgressTracker from sneaking into the
// interface value when redis is down.
func trackerOrNil(p *redisprogress.ProgressTracker) port.ProgressTracker {
	if p == nil {
		return nil
	}
	return p
}

func fatalOnErr(err error, msg string) {
	if err != nil {
		panic(msg + ": " + err.Error())
	}
}

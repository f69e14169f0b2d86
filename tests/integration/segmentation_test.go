package integration

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcminio "github.com/testcontainers/testcontainers-go/modules/minio"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcrabbitmq "github.com/testcontainers/testcontainers-go/modules/rabbitmq"

	"github.com/youdescribe-sfsu/video-pipeline/internal/domain/entity"
	"github.com/youdescribe-sfsu/video-pipeline/internal/infra/email"
	miniostorage "github.com/youdescribe-sfsu/video-pipeline/internal/infra/minio"
	"github.com/youdescribe-sfsu/video-pipeline/internal/infra/postgres"
	"github.com/youdescribe-sfsu/video-pipeline/internal/infra/rabbitmq"
	"github.com/youdescribe-sfsu/video-pipeline/internal/usecase"
	"github.com/youdescribe-sfsu/video-pipeline/pkg/logger"
)

// featureTableCSV builds a 10-frame feature table with a sharp visual cut
// at frame position 6: vectors flip from (1,0) to (0,1), so the adjacent
// and both wide-window similarities drop to 0 at position 5 (timestamp 20).
func featureTableCSV(t *testing.T) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	require.NoError(t, w.Write([]string{"frameindex", "timestamp", "isKeyFrame", "description", "feature_0", "feature_1"}))

	for i := 0; i < 10; i++ {
		isKey, desc := "False", ""
		if i == 3 {
			isKey, desc = "True", "a dog"
		}
		f0, f1 := "1", "0"
		if i >= 6 {
			f0, f1 = "0", "1"
		}
		record := []string{
			fmt.Sprintf("%d", i*3),
			fmt.Sprintf("%d", i*4),
			isKey, desc, f0, f1,
		}
		require.NoError(t, w.Write(record))
	}
	w.Flush()
	require.NoError(t, w.Error())
	return buf.Bytes()
}

func TestSegmentScenesEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// Start PostgreSQL container
	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("scenes"),
		tcpostgres.WithUsername("scene_user"),
		tcpostgres.WithPassword("scene_pass"),
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	defer pgContainer.Terminate(ctx)

	pgConnStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	// Start RabbitMQ container
	rmqContainer, err := tcrabbitmq.Run(ctx,
		"rabbitmq:3.12-management-alpine",
	)
	require.NoError(t, err)
	defer rmqContainer.Terminate(ctx)

	rmqURL, err := rmqContainer.AmqpURL(ctx)
	require.NoError(t, err)

	// Start MinIO container
	minioContainer, err := tcminio.Run(ctx,
		"minio/minio:latest",
		tcminio.WithUsername("minioadmin"),
		tcminio.WithPassword("minioadmin"),
	)
	require.NoError(t, err)
	defer minioContainer.Terminate(ctx)

	minioEndpoint, err := minioContainer.ConnectionString(ctx)
	require.NoError(t, err)

	// Run migrations
	err = postgres.RunMigrations(pgConnStr, "../../migrations")
	require.NoError(t, err)

	// Setup MinIO storage
	storage, err := miniostorage.NewStorage(miniostorage.StorageConfig{
		Endpoint:       minioEndpoint,
		AccessKey:      "minioadmin",
		SecretKey:      "minioadmin",
		UseSSL:         false,
		FeatureBucket:  "frame-features",
		ArtifactBucket: "scene-tables",
	})
	require.NoError(t, err)
	require.NoError(t, storage.EnsureBuckets(ctx))

	// Upload feature table to MinIO
	minioClient, err := miniogo.New(minioEndpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
		Secure: false,
	})
	require.NoError(t, err)

	table := featureTableCSV(t)
	featureKey := "testuser/upSnt11tngE/features.csv"
	_, err = minioClient.PutObject(ctx, "frame-features", featureKey,
		bytes.NewReader(table), int64(len(table)),
		miniogo.PutObjectOptions{ContentType: "text/csv"},
	)
	require.NoError(t, err)

	// Setup RabbitMQ publisher connection
	rmqConn, err := amqp.Dial(rmqURL)
	require.NoError(t, err)
	defer rmqConn.Close()

	pub, err := rabbitmq.NewPublisher(rmqConn, "ydx.scenes")
	require.NoError(t, err)

	statusPub := rabbitmq.NewStatusPublisher(pub)
	dlqPub := rabbitmq.NewDLQPublisher(pub, "scene.segmentation.dlq")

	// Setup DB pool
	pool, err := pgxpool.New(ctx, pgConnStr)
	require.NoError(t, err)
	defer pool.Close()

	// Setup use case (no redis here; progress markers are optional)
	log, _ := logger.New("debug")
	repo := postgres.NewJobRepository(pool)
	notifier := email.NewSMTPNotifier("localhost", 1025, "test@test.local", log)

	uc := usecase.NewSegmentScenesUseCase(
		repo, storage, nil,
		statusPub, dlqPub, notifier,
		log,
		usecase.SegmentScenesConfig{
			TempDir:             t.TempDir(),
			MaxRetries:          3,
			SceneTimeLimit:      10,
			SimilarityThreshold: 0.75,
		},
	)

	// Setup consumer
	consumer, err := rabbitmq.NewConsumer(rabbitmq.ConsumerConfig{
		URL:         rmqURL,
		Queue:       "scene.segmentation",
		Exchange:    "ydx.scenes",
		DLQ:         "scene.segmentation.dlq",
		StatusQueue: "scene.status",
		Prefetch:    1,
		WorkerCount: 1,
		BaseDelayMs: 100,
	}, uc.Execute, log)
	require.NoError(t, err)
	defer consumer.Close()

	// Start consumer in background
	consumerCtx, consumerCancel := context.WithCancel(ctx)
	defer consumerCancel()

	go func() {
		consumer.Start(consumerCtx)
	}()

	// Give consumer time to start
	time.Sleep(500 * time.Millisecond)

	// Publish segmentation message
	jobID := uuid.New()
	segMsg := entity.SceneSegmentationMessage{
		JobID:      jobID,
		UserID:     "testuser",
		VideoID:    "upSnt11tngE",
		FeatureKey: featureKey,
		UserEmail:  "test@test.local",
	}
	msgBody, err := json.Marshal(segMsg)
	require.NoError(t, err)

	pubCh, err := rmqConn.Channel()
	require.NoError(t, err)
	err = pubCh.PublishWithContext(ctx,
		"ydx.scenes",
		"scene.segmentation",
		false, false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        msgBody,
		},
	)
	require.NoError(t, err)
	pubCh.Close()

	// Wait for status message on scene.status queue
	statusCh, err := rmqConn.Channel()
	require.NoError(t, err)
	defer statusCh.Close()

	statusMsgs, err := statusCh.Consume("scene.status", "", true, false, false, false, nil)
	require.NoError(t, err)

	var statusMsg entity.SceneStatusMessage
	select {
	case delivery := <-statusMsgs:
		err = json.Unmarshal(delivery.Body, &statusMsg)
		require.NoError(t, err)
	case <-time.After(2 * time.Minute):
		t.Fatal("timeout waiting for status message")
	}

	// Assert status
	assert.Equal(t, jobID, statusMsg.JobID)
	assert.Equal(t, entity.JobStatusCompleted, statusMsg.Status)
	assert.Equal(t, 10, statusMsg.FrameCount)
	assert.Equal(t, 1, statusMsg.SceneCount)
	assert.NotEmpty(t, statusMsg.SceneKey)
	assert.NotEmpty(t, statusMsg.EnrichedKey)

	// Verify scene table contents in MinIO
	sceneObj, err := minioClient.GetObject(ctx, "scene-tables", statusMsg.SceneKey, miniogo.GetObjectOptions{})
	require.NoError(t, err)

	records, err := csv.NewReader(sceneObj).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"start_time", "end_time", "description"}, records[0])
	assert.Equal(t, "0", records[1][0])
	assert.Equal(t, "20", records[1][1])
	assert.True(t, strings.Contains(records[1][2], "a dog"))

	// Verify enriched table exists alongside it
	enrichedObj, err := minioClient.GetObject(ctx, "scene-tables", statusMsg.EnrichedKey, miniogo.GetObjectOptions{})
	require.NoError(t, err)
	enrichedRecords, err := csv.NewReader(enrichedObj).ReadAll()
	require.NoError(t, err)
	assert.Len(t, enrichedRecords, 8) // header + positions 2..8

	// Verify job record in database
	var dbStatus string
	var dbSceneCount int
	err = pool.QueryRow(ctx,
		"SELECT status, scene_count FROM segmentation_jobs WHERE id=$1", jobID,
	).Scan(&dbStatus, &dbSceneCount)
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", dbStatus)
	assert.Equal(t, 1, dbSceneCount)
}

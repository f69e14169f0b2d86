package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/youdescribe-sfsu/video-pipeline/internal/domain/entity"
	"github.com/youdescribe-sfsu/video-pipeline/internal/domain/port"
	"github.com/youdescribe-sfsu/video-pipeline/internal/infra/csvcodec"
	"github.com/youdescribe-sfsu/video-pipeline/internal/infra/metrics"
	"github.com/youdescribe-sfsu/video-pipeline/internal/segmentation"
)

type SegmentScenesUseCase struct {
	repo      port.JobRepository
	storage   port.TableStorage
	progress  port.ProgressTracker
	publisher port.StatusPublisher
	dlq       port.DLQPublisher
	notifier  port.FailureNotifier
	logger    *zap.Logger
	tempDir   string
	maxRetry  int
	params    segmentation.Params
}

type SegmentScenesConfig struct {
	TempDir             string
	MaxRetries          int
	SceneTimeLimit      float64
	SimilarityThreshold float64
}

func NewSegmentScenesUseCase(
	repo port.JobRepository,
	storage port.TableStorage,
	progress port.ProgressTracker,
	publisher port.StatusPublisher,
	dlq port.DLQPublisher,
	notifier port.FailureNotifier,
	logger *zap.Logger,
	cfg SegmentScenesConfig,
) *SegmentScenesUseCase {
	return &SegmentScenesUseCase{
		repo:      repo,
		storage:   storage,
		progress:  progress,
		publisher: publisher,
		dlq:       dlq,
		notifier:  notifier,
		logger:    logger,
		tempDir:   cfg.TempDir,
		maxRetry:  cfg.MaxRetries,
		params: segmentation.Params{
			SceneTimeLimit: cfg.SceneTimeLimit,
			Threshold:      cfg.SimilarityThreshold,
		},
	}
}

func (uc *SegmentScenesUseCase) Execute(ctx context.Context, rawMsg []byte) error {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "SegmentScenesUseCase.Execute")
	defer span.End()

	totalTimer := time.Now()

	var msg entity.SceneSegmentationMessage
	if err := json.Unmarshal(rawMsg, &msg); err != nil {
		uc.logger.Error("failed to unmarshal message", zap.Error(err), zap.ByteString("body", rawMsg))
		_ = uc.dlq.PublishToDLQ(ctx, rawMsg, "unmarshal_error: "+err.Error())
		return nil
	}

	span.SetAttributes(
		attribute.String("job.id", msg.JobID.String()),
		attribute.String("job.video_id", msg.VideoID),
	)

	log := uc.logger.With(zap.String("job_id", msg.JobID.String()), zap.String("video_id", msg.VideoID))

	if uc.progress != nil {
		done, err := uc.progress.IsDone(ctx, msg.VideoID)
		if err != nil {
			log.Warn("progress check failed, processing anyway", zap.Error(err))
		} else if done {
			log.Info("scene table already produced for video, skipping")
			metrics.JobsProcessedTotal.WithLabelValues("skipped").Inc()
			return nil
		}
	}

	job, err := uc.repo.FindByID(ctx, msg.JobID)
	if err != nil {
		job = entity.NewSegmentationJob(msg.UserID, msg.VideoID, msg.FeatureKey, uc.maxRetry)
		job.ID = msg.JobID
		if err := uc.repo.Create(ctx, job); err != nil {
			log.Error("failed to create job record", zap.Error(err))
			return fmt.Errorf("create job: %w", err)
		}
	}

	if !job.CanRetry() {
		log.Warn("job exhausted retries, sending to DLQ")
		_ = uc.handlePermanentFailure(ctx, job, msg, rawMsg, "max retries exceeded")
		return nil
	}

	job.MarkProcessing()
	if err := uc.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to PROCESSING", zap.Error(err))
		return fmt.Errorf("update job: %w", err)
	}

	metrics.ActiveWorkers.Inc()
	defer metrics.ActiveWorkers.Dec()

	if err := uc.segmentationPipeline(ctx, job, msg, rawMsg, log); err != nil {
		return err
	}

	metrics.JobsProcessedTotal.WithLabelValues("completed").Inc()
	metrics.JobProcessingDuration.WithLabelValues("total").Observe(time.Since(totalTimer).Seconds())

	return nil
}

// jobParams merges the per-message overrides with the configured defaults.
func (uc *SegmentScenesUseCase) jobParams(msg entity.SceneSegmentationMessage) segmentation.Params {
	p := uc.params
	if msg.SceneTimeLimit > 0 {
		p.SceneTimeLimit = msg.SceneTimeLimit
	}
	if msg.SimilarityThreshold > 0 {
		p.Threshold = msg.SimilarityThreshold
	}
	return p
}

func (uc *SegmentScenesUseCase) segmentationPipeline(
	ctx context.Context,
	job *entity.SegmentationJob,
	msg entity.SceneSegmentationMessage,
	rawMsg []byte,
	log *zap.Logger,
) error {
	tracer := otel.Tracer("usecase")

	workDir := filepath.Join(uc.tempDir, job.ID.String())
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return fmt.Errorf("create workdir: %w", err)
	}
	defer os.RemoveAll(workDir)

	// Download feature table from MinIO
	dlStart := time.Now()
	ctx2, spanDl := tracer.Start(ctx, "download_feature_table")
	tablePath := filepath.Join(workDir, "features.csv")
	if err := uc.storage.DownloadFeatureTable(ctx2, msg.FeatureKey, tablePath); err != nil {
		spanDl.End()
		log.Error("failed to download feature table", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "download_feature_table: "+err.Error(), log)
	}
	spanDl.End()
	metrics.JobProcessingDuration.WithLabelValues("download").Observe(time.Since(dlStart).Seconds())

	// Parse and enrich with similarity scores
	simStart := time.Now()
	_, spanSim := tracer.Start(ctx, "compute_similarities")
	frames, err := uc.parseFeatureTable(tablePath)
	if err != nil {
		spanSim.End()
		log.Error("feature table parse failed", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "parse_feature_table: "+err.Error(), log)
	}
	enriched, err := segmentation.ComputeSimilarities(frames)
	if err != nil {
		spanSim.End()
		log.Error("similarity computation failed", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "compute_similarities: "+err.Error(), log)
	}
	spanSim.End()
	metrics.JobProcessingDuration.WithLabelValues("similarity").Observe(time.Since(simStart).Seconds())
	metrics.FramesEnrichedTotal.Add(float64(len(enriched)))
	for _, r := range enriched {
		if r.SimAdjacent.Skip {
			metrics.SkipFramesTotal.Inc()
		}
	}

	// Upload enriched similarity table
	upEnStart := time.Now()
	ctx4, spanUpEn := tracer.Start(ctx, "upload_enriched_table")
	enrichedKey := fmt.Sprintf("%s/%s/similarity.csv", msg.UserID, msg.VideoID)
	var enrichedBuf bytes.Buffer
	if err := csvcodec.WriteEnrichedTable(&enrichedBuf, enriched); err != nil {
		spanUpEn.End()
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "encode_enriched_table: "+err.Error(), log)
	}
	if err := uc.storage.UploadTable(ctx4, enrichedKey, &enrichedBuf, int64(enrichedBuf.Len())); err != nil {
		spanUpEn.End()
		log.Error("enriched table upload failed", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "upload_enriched_table: "+err.Error(), log)
	}
	spanUpEn.End()
	metrics.JobProcessingDuration.WithLabelValues("upload_enriched").Observe(time.Since(upEnStart).Seconds())

	// Segment into scenes
	segStart := time.Now()
	_, spanSeg := tracer.Start(ctx, "segment_scenes")
	params := uc.jobParams(msg)
	scenes := segmentation.Segment(enriched, params)
	spanSeg.End()
	metrics.JobProcessingDuration.WithLabelValues("segment").Observe(time.Since(segStart).Seconds())
	metrics.ScenesDetectedTotal.Add(float64(len(scenes)))

	// Upload scene table
	upScStart := time.Now()
	ctx5, spanUpSc := tracer.Start(ctx, "upload_scene_table")
	sceneKey := fmt.Sprintf("%s/%s/scenes.csv", msg.UserID, msg.VideoID)
	var sceneBuf bytes.Buffer
	if err := csvcodec.WriteSceneTable(&sceneBuf, scenes); err != nil {
		spanUpSc.End()
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "encode_scene_table: "+err.Error(), log)
	}
	if err := uc.storage.UploadTable(ctx5, sceneKey, &sceneBuf, int64(sceneBuf.Len())); err != nil {
		spanUpSc.End()
		log.Error("scene table upload failed", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "upload_scene_table: "+err.Error(), log)
	}
	spanUpSc.End()
	metrics.JobProcessingDuration.WithLabelValues("upload_scenes").Observe(time.Since(upScStart).Seconds())

	// Mark completed
	job.MarkCompleted(enrichedKey, sceneKey, len(frames), len(scenes))
	if err := uc.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to COMPLETED", zap.Error(err))
		return fmt.Errorf("update job completed: %w", err)
	}

	if uc.progress != nil {
		if err := uc.progress.MarkDone(ctx, msg.VideoID); err != nil {
			log.Warn("failed to record progress marker", zap.Error(err))
		}
	}

	uc.publishStatus(ctx, job, log)

	log.Info("job completed successfully",
		zap.Int("frame_count", len(frames)),
		zap.Int("scene_count", len(scenes)),
		zap.Float64("scene_time_limit", params.SceneTimeLimit),
		zap.Float64("threshold", params.Threshold),
		zap.String("scene_key", sceneKey),
	)

	return nil
}

func (uc *SegmentScenesUseCase) parseFeatureTable(path string) ([]entity.FrameFeatures, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open feature table: %w", err)
	}
	defer f.Close()
	return csvcodec.ParseFeatureTable(f)
}

func (uc *SegmentScenesUseCase) handleRetryableFailure(
	ctx context.Context,
	job *entity.SegmentationJob,
	msg entity.SceneSegmentationMessage,
	rawMsg []byte,
	errMsg string,
	log *zap.Logger,
) error {
	job.MarkFailed(errMsg)
	_ = uc.repo.Update(ctx, job)

	if !job.CanRetry() {
		return uc.handlePermanentFailure(ctx, job, msg, rawMsg, errMsg)
	}

	metrics.RetryTotal.WithLabelValues(strconv.Itoa(job.Attempt)).Inc()
	uc.publishStatus(ctx, job, log)

	return fmt.Errorf("retryable failure (attempt %d/%d): %s", job.Attempt, job.MaxAttempts, errMsg)
}

func (uc *SegmentScenesUseCase) handlePermanentFailure(
	ctx context.Context,
	job *entity.SegmentationJob,
	msg entity.SceneSegmentationMessage,
	rawMsg []byte,
	errMsg string,
) error {
	job.MarkFailed(errMsg)
	_ = uc.repo.Update(ctx, job)

	_ = uc.dlq.PublishToDLQ(ctx, rawMsg, errMsg)

	uc.publishStatus(ctx, job, uc.logger)

	metrics.JobsProcessedTotal.WithLabelValues("dlq").Inc()

	if msg.UserEmail != "" {
		_ = uc.notifier.NotifyFailure(ctx, msg.UserEmail, job.ID.String(), msg.VideoID, errMsg)
	}

	return nil
}

func (uc *SegmentScenesUseCase) publishStatus(ctx context.Context, job *entity.SegmentationJob, log *zap.Logger) {
	statusMsg := entity.SceneStatusMessage{
		JobID:        job.ID,
		UserID:       job.UserID,
		VideoID:      job.VideoID,
		Status:       job.Status,
		FeatureKey:   job.FeatureKey,
		EnrichedKey:  job.EnrichedKey,
		SceneKey:     job.SceneKey,
		FrameCount:   job.FrameCount,
		SceneCount:   job.SceneCount,
		ErrorMessage: job.ErrorMessage,
		Attempt:      job.Attempt,
		MaxAttempts:  job.MaxAttempts,
	}
	data, _ := json.Marshal(statusMsg)
	if err := uc.publisher.PublishStatus(ctx, data); err != nil {
		log.Error("failed to publish status", zap.Error(err))
	}
}

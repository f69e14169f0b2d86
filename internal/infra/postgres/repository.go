package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/youdescribe-sfsu/video-pipeline/internal/domain/entity"
)

type JobRepository struct {
	pool *pgxpool.Pool
}

func NewJobRepository(pool *pgxpool.Pool) *JobRepository {
	return &JobRepository{pool: pool}
}

func (r *JobRepository) Create(ctx context.Context, job *entity.SegmentationJob) error {
	query := `
		INSERT INTO segmentation_jobs (
			id, user_id, video_id, feature_key, enriched_key, scene_key,
			status, frame_count, scene_count, attempt, max_attempts,
			error_message, created_at, updated_at, completed_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`

	_, err := r.pool.Exec(ctx, query,
		job.ID, job.UserID, job.VideoID, job.FeatureKey, job.EnrichedKey, job.SceneKey,
		string(job.Status), job.FrameCount, job.SceneCount,
		job.Attempt, job.MaxAttempts, job.ErrorMessage,
		job.CreatedAt, job.UpdatedAt, job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

func (r *JobRepository) Update(ctx context.Context, job *entity.SegmentationJob) error {
	query := `
		UPDATE segmentation_jobs SET
			status=$2, enriched_key=$3, scene_key=$4, frame_count=$5,
			scene_count=$6, attempt=$7, error_message=$8, updated_at=$9,
			completed_at=$10
		WHERE id=$1`

	_, err := r.pool.Exec(ctx, query,
		job.ID, string(job.Status), job.EnrichedKey, job.SceneKey,
		job.FrameCount, job.SceneCount, job.Attempt, job.ErrorMessage,
		job.UpdatedAt, job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	return nil
}

func (r *JobRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.SegmentationJob, error) {
	query := `
		SELECT id, user_id, video_id, feature_key, enriched_key, scene_key,
			status, frame_count, scene_count, attempt, max_attempts,
			error_message, created_at, updated_at, completed_at
		FROM segmentation_jobs WHERE id=$1`

	job := &entity.SegmentationJob{}
	var status string
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&job.ID, &job.UserID, &job.VideoID, &job.FeatureKey, &job.EnrichedKey, &job.SceneKey,
		&status, &job.FrameCount, &job.SceneCount,
		&job.Attempt, &job.MaxAttempts, &job.ErrorMessage,
		&job.CreatedAt, &job.UpdatedAt, &job.CompletedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("find job by id: %w", err)
	}
	job.Status = entity.JobStatus(status)
	return job, nil
}

package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/youdescribe-sfsu/video-pipeline/internal/domain/entity"
)

type JobRepository interface {
	Create(ctx context.Context, job *entity.SegmentationJob) error
	Update(ctx context.Context, job *entity.SegmentationJob) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.SegmentationJob, error)
}

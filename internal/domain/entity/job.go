package entity

import (
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "PENDING"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusFailed     JobStatus = "FAILED"
)

type SegmentationJob struct {
	ID           uuid.UUID
	UserID       string
	VideoID      string
	FeatureKey   string
	EnrichedKey  string
	SceneKey     string
	Status       JobStatus
	FrameCount   int
	SceneCount   int
	Attempt      int
	MaxAttempts  int
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	CompletedAt  *time.Time
}

func NewSegmentationJob(userID, videoID, featureKey string, maxAttempts int) *SegmentationJob {
	now := time.Now().UTC()
	return &SegmentationJob{
		ID:          uuid.New(),
		UserID:      userID,
		VideoID:     videoID,
		FeatureKey:  featureKey,
		Status:      JobStatusPending,
		Attempt:     0,
		MaxAttempts: maxAttempts,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (j *SegmentationJob) MarkProcessing() {
	j.Status = JobStatusProcessing
	j.Attempt++
	j.UpdatedAt = time.Now().UTC()
}

func (j *SegmentationJob) MarkCompleted(enrichedKey, sceneKey string, frameCount, sceneCount int) {
	now := time.Now().UTC()
	j.Status = JobStatusCompleted
	j.EnrichedKey = enrichedKey
	j.SceneKey = sceneKey
	j.FrameCount = frameCount
	j.SceneCount = sceneCount
	j.UpdatedAt = now
	j.CompletedAt = &now
}

func (j *SegmentationJob) MarkFailed(errMsg string) {
	j.Status = JobStatusFailed
	j.ErrorMessage = errMsg
	j.UpdatedAt = time.Now().UTC()
}

func (j *SegmentationJob) CanRetry() bool {
	return j.Attempt < j.MaxAttempts
}

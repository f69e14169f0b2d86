package entity

import "github.com/google/uuid"

// SceneSegmentationMessage is the inbound message from the scene.segmentation
// queue. SceneTimeLimit/SimilarityThreshold are optional per-job overrides;
// zero means "use the configured default".
type SceneSegmentationMessage struct {
	JobID               uuid.UUID `json:"job_id"`
	UserID              string    `json:"user_id"`
	VideoID             string    `json:"video_id"`
	FeatureKey          string    `json:"feature_key"`
	UserEmail           string    `json:"user_email"`
	SceneTimeLimit      float64   `json:"scene_time_limit,omitempty"`
	SimilarityThreshold float64   `json:"similarity_threshold,omitempty"`
}

// SceneStatusMessage is the outbound message published to the scene.status queue.
type SceneStatusMessage struct {
	JobID        uuid.UUID `json:"job_id"`
	UserID       string    `json:"user_id"`
	VideoID      string    `json:"video_id"`
	Status       JobStatus `json:"status"`
	FeatureKey   string    `json:"feature_key"`
	EnrichedKey  string    `json:"enriched_key,omitempty"`
	SceneKey     string    `json:"scene_key,omitempty"`
	FrameCount   int       `json:"frame_count,omitempty"`
	SceneCount   int       `json:"scene_count,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	Attempt      int       `json:"attempt"`
	MaxAttempts  int       `json:"max_attempts"`
}

package port

import "context"

// ProgressTracker records which videos already have a scene table so a
// redelivered message can be acked without reprocessing.
type ProgressTracker interface {
	IsDone(ctx context.Context, videoID string) (bool, error)
	MarkDone(ctx context.Context, videoID string) error
}

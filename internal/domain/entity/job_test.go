package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentationJobLifecycle(t *testing.T) {
	job := NewSegmentationJob("user-1", "upSnt11tngE", "user-1/upSnt11tngE/features.csv", 3)

	assert.Equal(t, JobStatusPending, job.Status)
	assert.Zero(t, job.Attempt)
	assert.True(t, job.CanRetry())

	job.MarkProcessing()
	assert.Equal(t, JobStatusProcessing, job.Status)
	assert.Equal(t, 1, job.Attempt)

	job.MarkCompleted("u/v/similarity.csv", "u/v/scenes.csv", 42, 5)
	assert.Equal(t, JobStatusCompleted, job.Status)
	assert.Equal(t, "u/v/similarity.csv", job.EnrichedKey)
	assert.Equal(t, "u/v/scenes.csv", job.SceneKey)
	assert.Equal(t, 42, job.FrameCount)
	assert.Equal(t, 5, job.SceneCount)
	require.NotNil(t, job.CompletedAt)
}

func TestSegmentationJobRetryExhaustion(t *testing.T) {
	job := NewSegmentationJob("user-1", "vid", "key", 2)

	job.MarkProcessing()
	job.MarkFailed("download failed")
	assert.Equal(t, JobStatusFailed, job.Status)
	assert.True(t, job.CanRetry())

	job.MarkProcessing()
	job.MarkFailed("download failed")
	assert.False(t, job.CanRetry())
}

func TestSimilarityString(t *testing.T) {
	assert.Equal(t, "SKIP", SkipSimilarity().String())
	assert.Equal(t, "0.75", NewSimilarity(0.75).String())
	assert.Equal(t, "0", NewSimilarity(0).String())
}

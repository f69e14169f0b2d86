package segmentation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youdescribe-sfsu/video-pipeline/internal/domain/entity"
)

func makeFrames(vectors [][]float64) []entity.FrameFeatures {
	frames := make([]entity.FrameFeatures, len(vectors))
	for i, v := range vectors {
		frames[i] = entity.FrameFeatures{
			FrameIndex: i * 3,
			Timestamp:  float64(i) * 0.1,
			Features:   v,
		}
	}
	return frames
}

func constantVectors(n int, v []float64) [][]float64 {
	out := make([][]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestComputeSimilaritiesShortInput(t *testing.T) {
	for n := 0; n < 5; n++ {
		frames := makeFrames(constantVectors(n, []float64{1, 2, 3}))
		enriched, err := ComputeSimilarities(frames)
		require.NoError(t, err)
		assert.Empty(t, enriched, "n=%d should yield no rows", n)
	}
}

func TestComputeSimilaritiesIdenticalVectors(t *testing.T) {
	frames := makeFrames(constantVectors(7, []float64{0.5, 1.5, 2.5}))

	enriched, err := ComputeSimilarities(frames)
	require.NoError(t, err)
	require.Len(t, enriched, 4) // positions 2 through 5

	for _, row := range enriched {
		require.False(t, row.SimAdjacent.Skip)
		assert.InDelta(t, 1.0, row.SimAdjacent.Value, 1e-12)
	}
}

func TestComputeSimilaritiesZeroVectorsProduceSkip(t *testing.T) {
	frames := makeFrames(constantVectors(8, []float64{0, 0, 0}))

	enriched, err := ComputeSimilarities(frames)
	require.NoError(t, err)
	require.NotEmpty(t, enriched)

	for i, row := range enriched {
		assert.True(t, row.SimAdjacent.Skip, "row %d", i)
		assert.Equal(t, entity.SkipLiteral, row.SimAdjacent.String())
	}

	// Wide windows are never sentinel-converted: NaN where computed,
	// zero in the tail positions.
	assert.True(t, math.IsNaN(enriched[0].SimWide1))
	assert.True(t, math.IsNaN(enriched[0].SimWide2))
	last := enriched[len(enriched)-1]
	assert.Zero(t, last.SimWide1)
	assert.Zero(t, last.SimWide2)
}

func TestComputeSimilaritiesWideWindowTail(t *testing.T) {
	vectors := make([][]float64, 9)
	for i := range vectors {
		vectors[i] = []float64{float64(i + 1), 1}
	}
	frames := makeFrames(vectors)

	enriched, err := ComputeSimilarities(frames)
	require.NoError(t, err)
	require.Len(t, enriched, 6) // positions 2 through 7

	for _, row := range enriched {
		if row.Line1 < len(frames)-3 {
			assert.NotZero(t, row.SimWide1, "position %d", row.Line1)
			assert.NotZero(t, row.SimWide2, "position %d", row.Line1)
		} else {
			assert.Zero(t, row.SimWide1, "position %d", row.Line1)
			assert.Zero(t, row.SimWide2, "position %d", row.Line1)
		}
	}
}

func TestComputeSimilaritiesCarriesFrameMetadata(t *testing.T) {
	frames := makeFrames(constantVectors(6, []float64{1, 0}))
	frames[2].IsKeyFrame = true
	frames[2].Description = "a dog on a beach"

	enriched, err := ComputeSimilarities(frames)
	require.NoError(t, err)
	require.Len(t, enriched, 3)

	first := enriched[0]
	assert.Equal(t, frames[2].FrameIndex, first.FrameIndex)
	assert.Equal(t, frames[2].Timestamp, first.Timestamp)
	assert.Equal(t, 2, first.Line1)
	assert.Equal(t, 3, first.Line2)
	assert.True(t, first.IsKeyFrame)
	assert.Equal(t, "a dog on a beach", first.Description)
}

func TestComputeSimilaritiesMismatchedVectorLengths(t *testing.T) {
	frames := makeFrames(constantVectors(6, []float64{1, 2, 3}))
	frames[3].Features = []float64{1, 2}

	_, err := ComputeSimilarities(frames)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "feature vector length")
}

func TestComputeSimilaritiesRejectsDecreasingTimestamps(t *testing.T) {
	frames := makeFrames(constantVectors(6, []float64{1, 2, 3}))
	frames[4].Timestamp = frames[3].Timestamp - 1

	_, err := ComputeSimilarities(frames)
	require.Error(t, err)
}

func TestCosineSimilarityOrthogonalVectors(t *testing.T) {
	v, ok := cosineSimilarity([]float64{1, 0}, []float64{0, 1})
	require.True(t, ok)
	assert.InDelta(t, 0.0, v, 1e-12)

	v, ok = cosineSimilarity([]float64{1, 0}, []float64{-1, 0})
	require.True(t, ok)
	assert.InDelta(t, -1.0, v, 1e-12)
}

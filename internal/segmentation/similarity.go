package segmentation

import (
	"fmt"
	"math"

	"github.com/youdescribe-sfsu/video-pipeline/internal/domain/entity"
)

// minFrames is the smallest input that yields any enriched rows: the
// computation runs over positions 2..n-2 and each needs a neighbor at i+1.
const minFrames = 5

// wideWindowTail is how many trailing positions of the enriched range lack
// the neighbors needed for the wide-window similarities.
const wideWindowTail = 3

// ComputeSimilarities enriches a feature table with three pairwise cosine
// similarities per frame: adjacent (i, i+1) and two wider windows
// (i-1, i+2) and (i-2, i+3). Rows are produced for positions 2 through n-2.
// An undefined adjacent similarity (zero-norm vector) becomes the SKIP
// sentinel; undefined wide-window values stay NaN. Fewer than five frames
// yields an empty result.
func ComputeSimilarities(frames []entity.FrameFeatures) ([]entity.EnrichedFrame, error) {
	n := len(frames)
	if n < minFrames {
		return nil, nil
	}

	dim := len(frames[0].Features)
	for i, f := range frames {
		if len(f.Features) != dim {
			return nil, fmt.Errorf("frame %d: feature vector length %d, want %d", f.FrameIndex, len(f.Features), dim)
		}
		if i > 0 && f.Timestamp < frames[i-1].Timestamp {
			return nil, fmt.Errorf("frame %d: timestamp %v decreases from %v", f.FrameIndex, f.Timestamp, frames[i-1].Timestamp)
		}
	}

	enriched := make([]entity.EnrichedFrame, 0, n-3)
	for i := 2; i <= n-2; i++ {
		row := entity.EnrichedFrame{
			FrameIndex:  frames[i].FrameIndex,
			Timestamp:   frames[i].Timestamp,
			Line1:       i,
			Line2:       i + 1,
			IsKeyFrame:  frames[i].IsKeyFrame,
			Description: frames[i].Description,
		}

		if v, ok := cosineSimilarity(frames[i].Features, frames[i+1].Features); ok {
			row.SimAdjacent = entity.NewSimilarity(v)
		} else {
			row.SimAdjacent = entity.SkipSimilarity()
		}

		if i < n-wideWindowTail {
			row.SimWide1 = cosineOrNaN(frames[i-1].Features, frames[i+2].Features)
			row.SimWide2 = cosineOrNaN(frames[i-2].Features, frames[i+3].Features)
		}

		enriched = append(enriched, row)
	}
	return enriched, nil
}

// cosineSimilarity returns the dot product over norms, and false when
// either vector has zero norm.
func cosineSimilarity(a, b []float64) (float64, bool) {
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0, false
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), true
}

func cosineOrNaN(a, b []float64) float64 {
	v, ok := cosineSimilarity(a, b)
	if !ok {
		return math.NaN()
	}
	return v
}

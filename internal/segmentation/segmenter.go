package segmentation

import (
	"strings"

	"github.com/youdescribe-sfsu/video-pipeline/internal/domain/entity"
)

// DefaultSceneTimeLimit and DefaultThreshold are the tuned heuristics used
// when a job does not override them.
const (
	DefaultSceneTimeLimit = 10.0
	DefaultThreshold      = 0.75
)

// Params tunes the boundary heuristic. SceneTimeLimit is the minimum
// seconds between consecutive boundaries; Threshold is the highest
// similarity still treated as a scene change.
type Params struct {
	SceneTimeLimit float64
	Threshold      float64
}

func (p Params) withDefaults() Params {
	if p.SceneTimeLimit == 0 {
		p.SceneTimeLimit = DefaultSceneTimeLimit
	}
	if p.Threshold == 0 {
		p.Threshold = DefaultThreshold
	}
	return p
}

// scanState is the mutable state threaded through one segmentation pass.
type scanState struct {
	currentSceneStart float64
	pending           strings.Builder
	inSkipRun         bool
	skipRunStart      float64
}

// Segment walks the enriched rows in order and cuts a scene boundary when
// either sustained low similarity across all three windows, or the end of a
// sustained run of SKIP rows, is observed at least SceneTimeLimit seconds
// after the previous boundary.
//
// Two behaviors are inherited from the upstream pipeline and kept for
// output compatibility: the tail interval after the last boundary is never
// emitted as a closing scene, and a boundary cut by the skip-run rule
// resets the description accumulator to a single space rather than empty.
func Segment(rows []entity.EnrichedFrame, p Params) []entity.Scene {
	p = p.withDefaults()

	var scenes []entity.Scene
	st := scanState{}

	for _, r := range rows {
		// Keyframe descriptions accumulate before any boundary check,
		// each prefixed with a newline.
		if r.IsKeyFrame {
			st.pending.WriteString("\n")
			st.pending.WriteString(r.Description)
		}

		// Sustained low similarity across all three windows.
		if !r.SimAdjacent.Skip && r.SimAdjacent.Value < p.Threshold {
			if r.SimWide1 < p.Threshold && r.SimWide2 < p.Threshold &&
				r.Timestamp-st.currentSceneStart > p.SceneTimeLimit {
				scenes = append(scenes, entity.Scene{
					StartTime:   st.currentSceneStart,
					EndTime:     r.Timestamp,
					Description: st.pending.String(),
				})
				st.pending.Reset()
				st.currentSceneStart = r.Timestamp
			}
		}

		// End of a skip run. Evaluated independently of the rule above;
		// the same row can cut twice, the second cut seeing the state the
		// first one left behind.
		if !r.SimAdjacent.Skip && st.inSkipRun {
			if r.Timestamp-st.skipRunStart >= p.SceneTimeLimit {
				scenes = append(scenes, entity.Scene{
					StartTime:   st.currentSceneStart,
					EndTime:     r.Timestamp,
					Description: st.pending.String(),
				})
				st.pending.Reset()
				st.pending.WriteString(" ")
				st.currentSceneStart = r.Timestamp
			}
			st.inSkipRun = false
		}

		// First SKIP row of a run captures the run's start time.
		if r.SimAdjacent.Skip && !st.inSkipRun {
			st.inSkipRun = true
			st.skipRunStart = r.Timestamp
		}
	}

	return scenes
}

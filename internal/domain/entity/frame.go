package entity

import "strconv"

// SkipLiteral is the wire representation of an undefined similarity.
const SkipLiteral = "SKIP"

// Similarity is a cosine similarity that may be undefined (both feature
// vectors zero). An undefined value is carried as the SKIP sentinel,
// never as a numeric NaN.
type Similarity struct {
	Value float64
	Skip  bool
}

func NewSimilarity(v float64) Similarity {
	return Similarity{Value: v}
}

func SkipSimilarity() Similarity {
	return Similarity{Skip: true}
}

func (s Similarity) String() string {
	if s.Skip {
		return SkipLiteral
	}
	return strconv.FormatFloat(s.Value, 'f', -1, 64)
}

// FrameFeatures is one row of the per-frame feature table: a frame's
// visual feature vector plus its caption metadata.
type FrameFeatures struct {
	FrameIndex  int
	Timestamp   float64
	IsKeyFrame  bool
	Description string
	Features    []float64
}

// EnrichedFrame is one row of the similarity table. Line1/Line2 are the
// positions of the two frames compared for SimAdjacent. SimWide1/SimWide2
// are the wider-window similarities; they stay numeric (possibly NaN) and
// are never sentinel-converted.
type EnrichedFrame struct {
	FrameIndex  int
	Timestamp   float64
	Line1       int
	Line2       int
	SimAdjacent Similarity
	SimWide1    float64
	SimWide2    float64
	IsKeyFrame  bool
	Description string
}

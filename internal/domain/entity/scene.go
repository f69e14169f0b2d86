package entity

// Scene is a contiguous interval of the video with the aggregated
// descriptions of the keyframes inside it.
type Scene struct {
	StartTime   float64
	EndTime     float64
	Description string
}

package csvcodec

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/youdescribe-sfsu/video-pipeline/internal/domain/entity"
)

var sceneHeader = []string{"start_time", "end_time", "description"}

// WriteSceneTable encodes the final scene table with a header row.
func WriteSceneTable(w io.Writer, scenes []entity.Scene) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(sceneHeader); err != nil {
		return fmt.Errorf("write scene table header: %w", err)
	}
	for _, s := range scenes {
		record := []string{
			formatFloat(s.StartTime),
			formatFloat(s.EndTime),
			s.Description,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write scene table row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

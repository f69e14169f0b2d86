// Package csvcodec reads and writes the three tables the segmentation
// pipeline exchanges with object storage. Column order and header names
// match the upstream pipeline's files so artifacts stay interchangeable.
package csvcodec

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/youdescribe-sfsu/video-pipeline/internal/domain/entity"
)

// featureMetaColumns is the fixed prefix of the feature table:
// frameindex, timestamp, isKeyFrame, description. Everything after is the
// feature vector.
const featureMetaColumns = 4

// ParseFeatureTable decodes a per-frame feature table. Empty numeric cells
// parse as 0.0; a row with the wrong number of fields or an unparsable
// numeric cell aborts the whole parse.
func ParseFeatureTable(r io.Reader) ([]entity.FrameFeatures, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read feature table header: %w", err)
	}
	if len(header) < featureMetaColumns {
		return nil, fmt.Errorf("feature table has %d columns, want at least %d", len(header), featureMetaColumns)
	}
	featureDim := len(header) - featureMetaColumns

	var frames []entity.FrameFeatures
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("feature table line %d: %w", line, err)
		}

		frameIndex, err := parseCell(record[0])
		if err != nil {
			return nil, fmt.Errorf("feature table line %d: frameindex: %w", line, err)
		}
		timestamp, err := parseCell(record[1])
		if err != nil {
			return nil, fmt.Errorf("feature table line %d: timestamp: %w", line, err)
		}

		features := make([]float64, featureDim)
		for i := 0; i < featureDim; i++ {
			features[i], err = parseCell(record[featureMetaColumns+i])
			if err != nil {
				return nil, fmt.Errorf("feature table line %d: feature_%d: %w", line, i, err)
			}
		}

		frames = append(frames, entity.FrameFeatures{
			FrameIndex:  int(frameIndex),
			Timestamp:   timestamp,
			IsKeyFrame:  record[2] == "True",
			Description: record[3],
			Features:    features,
		})
	}
	return frames, nil
}

// parseCell parses a numeric cell, treating empty as 0.0.
func parseCell(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

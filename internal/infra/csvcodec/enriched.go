package csvcodec

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/youdescribe-sfsu/video-pipeline/internal/domain/entity"
)

var enrichedHeader = []string{"frame", "timestamp", "Line1", "Line2", "Similarity", "avgone", "avgtwo", "iskeyFrame", "description"}

// WriteEnrichedTable encodes the similarity table. The Similarity column
// carries either a float or the literal SKIP; undefined wide-window values
// serialize as NaN.
func WriteEnrichedTable(w io.Writer, rows []entity.EnrichedFrame) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(enrichedHeader); err != nil {
		return fmt.Errorf("write enriched table header: %w", err)
	}
	for _, r := range rows {
		record := []string{
			strconv.Itoa(r.FrameIndex),
			formatFloat(r.Timestamp),
			strconv.Itoa(r.Line1),
			strconv.Itoa(r.Line2),
			r.SimAdjacent.String(),
			formatFloat(r.SimWide1),
			formatFloat(r.SimWide2),
			formatBool(r.IsKeyFrame),
			r.Description,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write enriched table row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// ParseEnrichedTable decodes a similarity table back into rows, the inverse
// of WriteEnrichedTable. Used when the two pipeline stages run in separate
// invocations.
func ParseEnrichedTable(r io.Reader) ([]entity.EnrichedFrame, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(enrichedHeader)

	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("read enriched table header: %w", err)
	}

	var rows []entity.EnrichedFrame
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("enriched table line %d: %w", line, err)
		}

		row := entity.EnrichedFrame{
			IsKeyFrame:  record[7] == "True",
			Description: record[8],
		}

		frameIndex, err := parseCell(record[0])
		if err != nil {
			return nil, fmt.Errorf("enriched table line %d: frame: %w", line, err)
		}
		row.FrameIndex = int(frameIndex)
		if row.Timestamp, err = parseCell(record[1]); err != nil {
			return nil, fmt.Errorf("enriched table line %d: timestamp: %w", line, err)
		}
		line1, err := parseCell(record[2])
		if err != nil {
			return nil, fmt.Errorf("enriched table line %d: Line1: %w", line, err)
		}
		row.Line1 = int(line1)
		line2, err := parseCell(record[3])
		if err != nil {
			return nil, fmt.Errorf("enriched table line %d: Line2: %w", line, err)
		}
		row.Line2 = int(line2)

		if record[4] == entity.SkipLiteral {
			row.SimAdjacent = entity.SkipSimilarity()
		} else {
			v, err := parseCell(record[4])
			if err != nil {
				return nil, fmt.Errorf("enriched table line %d: Similarity: %w", line, err)
			}
			row.SimAdjacent = entity.NewSimilarity(v)
		}

		if row.SimWide1, err = parseCell(record[5]); err != nil {
			return nil, fmt.Errorf("enriched table line %d: avgone: %w", line, err)
		}
		if row.SimWide2, err = parseCell(record[6]); err != nil {
			return nil, fmt.Errorf("enriched table line %d: avgtwo: %w", line, err)
		}

		rows = append(rows, row)
	}
	return rows, nil
}

func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

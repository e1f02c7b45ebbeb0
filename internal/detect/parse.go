package detect

import (
	"encoding/csv"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"

	"vsd/internal/models"
)

// ParseRows decodes a raw text blob into the payload shape stored on a
// dataset: a []any of row objects for tabular formats, an arbitrary JSON
// value for TopoJSON.
func ParseRows(raw string, format models.Format) (any, error) {
	switch format {
	case models.FormatJSON:
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("parsing json payload: %w", err)
		}
		return v, nil
	case models.FormatTopoJSON:
		var v map[string]any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("parsing topojson payload: %w", err)
		}
		return v, nil
	case models.FormatCSV:
		return parseSeparated(raw, ',')
	case models.FormatTSV:
		return parseSeparated(raw, '\t')
	}
	return nil, fmt.Errorf("unrecognized format %q", format)
}

// parseSeparated turns delimited text into row objects keyed by the header
// line. Cell values stay strings; type interpretation is the column
// inferencer's job.
func parseSeparated(raw string, sep rune) (any, error) {
	r := csv.NewReader(strings.NewReader(strings.TrimSpace(raw)))
	r.Comma = sep
	r.LazyQuotes = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing delimited payload: %w", err)
	}
	if len(records) == 0 {
		return []any{}, nil
	}
	header := records[0]
	rows := make([]any, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(map[string]any, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = rec[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

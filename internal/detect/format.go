// Package detect classifies raw ingested data: whole-blob format detection
// with a coarse confidence label, and per-column type inference by sampling.
package detect

import (
	"encoding/csv"
	"net/url"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"

	"vsd/internal/models"
)

// Hint carries optional context about where a blob came from.
type Hint struct {
	Filename string
}

type Detection struct {
	Format     models.Format     `json:"format"`
	Confidence models.Confidence `json:"confidence"`
	// Remote is set when the input is an absolute URL; the format is then
	// decided later from the fetched payload, not from the URL string.
	Remote bool `json:"remote"`
}

const sampleLineCap = 20

// IsURL reports whether raw parses as an absolute http(s) URL.
func IsURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Detect classifies a raw text blob. It never fails: when nothing matches
// cleanly the result degrades to CSV at low confidence.
func Detect(raw string, hint Hint) Detection {
	trimmed := strings.TrimSpace(raw)

	if IsURL(trimmed) {
		return Detection{Remote: true, Confidence: models.ConfidenceHigh}
	}

	if d, ok := detectJSON(trimmed); ok {
		return d
	}

	lines := sampleLines(trimmed)
	if uniformColumns(lines, '\t') {
		return Detection{Format: models.FormatTSV, Confidence: models.ConfidenceHigh}
	}
	if uniformColumns(lines, ',') {
		return Detection{Format: models.FormatCSV, Confidence: models.ConfidenceHigh}
	}

	switch strings.ToLower(filepath.Ext(hint.Filename)) {
	case ".tsv":
		return Detection{Format: models.FormatTSV, Confidence: models.ConfidenceMedium}
	case ".csv":
		return Detection{Format: models.FormatCSV, Confidence: models.ConfidenceMedium}
	}

	if strings.Contains(trimmed, ",") {
		return Detection{Format: models.FormatCSV, Confidence: models.ConfidenceMedium}
	}
	return Detection{Format: models.FormatCSV, Confidence: models.ConfidenceLow}
}

// detectJSON recognizes arrays of objects and TopoJSON-shaped objects at
// high confidence. Other valid JSON containers still classify as JSON at
// medium confidence; scalars fall through to separator analysis.
func detectJSON(raw string) (Detection, bool) {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return Detection{}, false
	}
	switch t := v.(type) {
	case []any:
		if len(t) == 0 {
			return Detection{Format: models.FormatJSON, Confidence: models.ConfidenceHigh}, true
		}
		if _, ok := t[0].(map[string]any); ok {
			return Detection{Format: models.FormatJSON, Confidence: models.ConfidenceHigh}, true
		}
		return Detection{Format: models.FormatJSON, Confidence: models.ConfidenceMedium}, true
	case map[string]any:
		if t["type"] == "Topology" {
			return Detection{Format: models.FormatTopoJSON, Confidence: models.ConfidenceHigh}, true
		}
		return Detection{Format: models.FormatJSON, Confidence: models.ConfidenceMedium}, true
	}
	return Detection{}, false
}

func sampleLines(raw string) []string {
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
		if len(lines) == sampleLineCap {
			break
		}
	}
	return lines
}

// uniformColumns reports whether every sampled line splits on sep into the
// same column count, with more than one column. Quoted fields are handled
// by the csv reader rather than a naive separator count.
func uniformColumns(lines []string, sep rune) bool {
	if len(lines) == 0 {
		return false
	}
	r := csv.NewReader(strings.NewReader(strings.Join(lines, "\n")))
	r.Comma = sep
	r.LazyQuotes = true
	records, err := r.ReadAll()
	if err != nil || len(records) == 0 {
		return false
	}
	return len(records[0]) > 1
}

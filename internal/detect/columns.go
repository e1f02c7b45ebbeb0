package detect

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"vsd/internal/models"
)

const (
	// InferSampleCap bounds how many non-null values are examined per column.
	InferSampleCap = 100
	// inferThreshold is the fraction of sampled values a candidate type must
	// reach to win.
	inferThreshold = 0.8
)

var booleanVocabulary = map[string]bool{
	"true": true, "false": true, "yes": true, "no": true,
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
}

// InferColumnType classifies a column's values as number, date, boolean or
// text. Candidates are tried in fixed precedence order; the first to reach
// the 80% threshold over the sample wins, and text is the fallback.
func InferColumnType(values []any) models.ColumnType {
	var total, number, date, boolean int
	for _, v := range values {
		if v == nil {
			continue
		}
		s, native := stringify(v)
		if s == "" {
			continue
		}
		total++
		switch native {
		case nativeNumber:
			number++
		case nativeBool:
			boolean++
		default:
			if isNumeric(s) {
				number++
			} else if isDate(s) {
				date++
			}
			if booleanVocabulary[strings.ToLower(s)] {
				boolean++
			}
		}
		if total == InferSampleCap {
			break
		}
	}
	if total == 0 {
		return models.ColumnText
	}

	frac := func(n int) float64 { return float64(n) / float64(total) }
	switch {
	case frac(number) >= inferThreshold:
		return models.ColumnNumber
	case frac(date) >= inferThreshold:
		return models.ColumnDate
	case frac(boolean) >= inferThreshold:
		return models.ColumnBoolean
	}
	return models.ColumnText
}

type nativeKind int

const (
	nativeNone nativeKind = iota
	nativeNumber
	nativeBool
)

func stringify(v any) (string, nativeKind) {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), nativeNone
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64), nativeNumber
	case int, int64:
		return fmt.Sprintf("%d", t), nativeNumber
	case bool:
		return strconv.FormatBool(t), nativeBool
	default:
		return fmt.Sprintf("%v", t), nativeNone
	}
}

func isNumeric(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// isDate accepts permissive calendar-date forms but rejects anything that
// already parses as a number, so integer columns never misclassify as
// epoch-like dates.
func isDate(s string) bool {
	if isNumeric(s) {
		return false
	}
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

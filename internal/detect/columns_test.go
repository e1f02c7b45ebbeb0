package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"vsd/internal/models"
)

func anyValues(vals ...string) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = v
	}
	return out
}

func TestInferColumnType_NumberStrings(t *testing.T) {
	got := InferColumnType(anyValues("1", "2", "3", "4", "5"))
	assert.Equal(t, models.ColumnNumber, got)
}

func TestInferColumnType_BooleanAtThreshold(t *testing.T) {
	// 4 of 5 recognized is exactly 80%.
	got := InferColumnType(anyValues("true", "false", "yes", "no", "maybe"))
	assert.Equal(t, models.ColumnBoolean, got)
}

func TestInferColumnType_DatesBelowThreshold(t *testing.T) {
	// 2 of 3 parseable is 67%, below the threshold.
	got := InferColumnType(anyValues("2024-01-01", "not a date", "2024-01-03"))
	assert.Equal(t, models.ColumnText, got)
}

func TestInferColumnType_Dates(t *testing.T) {
	got := InferColumnType(anyValues("2024-01-01", "2024-02-15", "2024-03-31"))
	assert.Equal(t, models.ColumnDate, got)
}

func TestInferColumnType_NumericStringsAreNotDates(t *testing.T) {
	// Bare integers must never classify as epoch-like dates.
	got := InferColumnType(anyValues("20240101", "20240215", "20240331"))
	assert.Equal(t, models.ColumnNumber, got)
}

func TestInferColumnType_NumberBeatsDateOnMixed(t *testing.T) {
	got := InferColumnType(anyValues("1", "2", "3", "4", "2024-01-01"))
	assert.Equal(t, models.ColumnNumber, got)
}

func TestInferColumnType_NativeTypes(t *testing.T) {
	assert.Equal(t, models.ColumnNumber, InferColumnType([]any{float64(1), float64(2.5), float64(3)}))
	assert.Equal(t, models.ColumnBoolean, InferColumnType([]any{true, false, true}))
}

func TestInferColumnType_NullsSkipped(t *testing.T) {
	got := InferColumnType([]any{nil, "1", nil, "2", "3"})
	assert.Equal(t, models.ColumnNumber, got)
}

func TestInferColumnType_Empty(t *testing.T) {
	assert.Equal(t, models.ColumnText, InferColumnType(nil))
	assert.Equal(t, models.ColumnText, InferColumnType([]any{nil, nil}))
}

func TestInferColumnType_SampleCap(t *testing.T) {
	// First 100 values are numbers; the text past the cap is never seen.
	values := make([]any, 0, 150)
	for i := 0; i < InferSampleCap; i++ {
		values = append(values, "42")
	}
	for i := 0; i < 50; i++ {
		values = append(values, "words")
	}
	assert.Equal(t, models.ColumnNumber, InferColumnType(values))
}

func TestInferColumnType_Text(t *testing.T) {
	got := InferColumnType(anyValues("alpha", "beta", "gamma"))
	assert.Equal(t, models.ColumnText, got)
}

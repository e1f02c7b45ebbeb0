package resolve

import (
	"context"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vsd/internal/models"
	"vsd/internal/testutil"
)

type mapSource struct {
	datasets map[string]*models.Dataset
}

func (m *mapSource) GetByName(_ context.Context, name string) (*models.Dataset, error) {
	d, ok := m.datasets[name]
	if !ok {
		return nil, &models.DatasetNotFoundError{Name: name}
	}
	return d, nil
}

func newTestResolver(datasets ...*models.Dataset) ResolverInterface {
	src := &mapSource{datasets: make(map[string]*models.Dataset)}
	for _, d := range datasets {
		src.datasets[d.Name] = d
	}
	return NewResolver(src, &testutil.MockLogger{})
}

func salesDataset() *models.Dataset {
	return &models.Dataset{
		Name:   "sales",
		Data:   []any{map[string]any{"x": float64(1), "y": float64(2)}},
		Format: models.FormatJSON,
		Source: models.SourceInline,
	}
}

func TestResolve_InlineJSON(t *testing.T) {
	r := newTestResolver(salesDataset())

	out, err := r.Resolve(context.Background(), `{"data":{"name":"sales"},"mark":"bar"}`)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"values": []any{map[string]any{"x": float64(1), "y": float64(2)}},
	}, out["data"])
	assert.Equal(t, "bar", out["mark"])
}

func TestResolve_InlineCSVCarriesFormat(t *testing.T) {
	r := newTestResolver(&models.Dataset{
		Name:   "rows",
		Data:   []any{map[string]any{"a": "1"}},
		Format: models.FormatCSV,
		Source: models.SourceInline,
	})

	out, err := r.Resolve(context.Background(), `{"data":{"name":"rows"}}`)
	require.NoError(t, err)

	data := out["data"].(map[string]any)
	assert.Equal(t, []any{map[string]any{"a": "1"}}, data["values"])
	assert.Equal(t, map[string]any{"type": "csv"}, data["format"])
}

func TestResolve_URLIsLazy(t *testing.T) {
	r := newTestResolver(&models.Dataset{
		Name:   "remote",
		Data:   "https://example.com/data.csv",
		Format: models.FormatCSV,
		Source: models.SourceURL,
	})

	out, err := r.Resolve(context.Background(), `{"data":{"name":"remote"}}`)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"url":    "https://example.com/data.csv",
		"format": map[string]any{"type": "csv"},
	}, out["data"])
}

func TestResolve_TopoJSONCarriesFormat(t *testing.T) {
	topo := map[string]any{"type": "Topology", "objects": map[string]any{}}
	r := newTestResolver(&models.Dataset{
		Name:   "map",
		Data:   topo,
		Format: models.FormatTopoJSON,
		Source: models.SourceInline,
	})

	out, err := r.Resolve(context.Background(), `{"data":{"name":"map"}}`)
	require.NoError(t, err)

	data := out["data"].(map[string]any)
	assert.Equal(t, topo, data["values"])
	assert.Equal(t, map[string]any{"type": "topojson"}, data["format"])
}

func TestResolve_MissingReferenceFailsWhole(t *testing.T) {
	r := newTestResolver(salesDataset())

	_, err := r.Resolve(context.Background(), `{
		"layer": [
			{"data": {"name": "sales"}},
			{"data": {"name": "ghost"}}
		]
	}`)
	require.Error(t, err)

	var dangling *models.DatasetNotFoundError
	require.ErrorAs(t, err, &dangling)
	assert.Equal(t, "ghost", dangling.Name)
	assert.Contains(t, err.Error(), "ghost")
}

func TestResolve_NestedComposites(t *testing.T) {
	r := newTestResolver(salesDataset())

	out, err := r.Resolve(context.Background(), `{
		"vconcat": [
			{"hconcat": [{"data": {"name": "sales"}}]},
			{"spec": {"data": {"name": "sales"}}}
		]
	}`)
	require.NoError(t, err)

	first := out["vconcat"].([]any)[0].(map[string]any)
	inner := first["hconcat"].([]any)[0].(map[string]any)
	assert.Contains(t, inner["data"].(map[string]any), "values")

	second := out["vconcat"].([]any)[1].(map[string]any)
	facet := second["spec"].(map[string]any)
	assert.Contains(t, facet["data"].(map[string]any), "values")
}

func TestResolve_Idempotent(t *testing.T) {
	r := newTestResolver(salesDataset())

	once, err := r.Resolve(context.Background(), `{"data":{"name":"sales"}}`)
	require.NoError(t, err)

	twice, err := r.ResolveTree(context.Background(), once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestResolve_InlineValuesPassThrough(t *testing.T) {
	r := newTestResolver()

	out, err := r.Resolve(context.Background(), `{"data":{"values":[{"x":1}]}}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"values": []any{map[string]any{"x": float64(1)}}}, out["data"])
}

func TestResolve_DoesNotMutateInputTree(t *testing.T) {
	r := newTestResolver(salesDataset())

	text := `{"data":{"name":"sales"}}`
	var tree map[string]any
	require.NoError(t, json.Unmarshal([]byte(text), &tree))

	_, err := r.ResolveTree(context.Background(), tree)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "sales"}, tree["data"])
}

func TestResolve_UnrecognizedFormat(t *testing.T) {
	r := newTestResolver(&models.Dataset{
		Name:   "weird",
		Data:   []any{},
		Format: models.Format("xml"),
		Source: models.SourceInline,
	})

	_, err := r.Resolve(context.Background(), `{"data":{"name":"weird"}}`)
	assert.Error(t, err)
}

func TestResolve_InvalidSpecText(t *testing.T) {
	r := newTestResolver()
	_, err := r.Resolve(context.Background(), "{broken")
	assert.Error(t, err)
}

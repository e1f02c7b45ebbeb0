// Package transfer moves snippets and datasets across store boundaries:
// whole-store export and additive import from native envelopes, bare record
// arrays or foreign raw payloads.
package transfer

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"vsd/internal/datasets"
	"vsd/internal/detect"
	"vsd/internal/models"
	"vsd/internal/providers"
	"vsd/internal/snippets"
	"vsd/internal/spectree"
)

// Hint aliases the detection hint so callers only import one package.
type Hint = detect.Hint

// Result counts the outcome of one import batch.
type Result struct {
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
	Renamed  int `json:"renamed"`
}

type EngineInterface interface {
	ImportSnippets(raw string, hint detect.Hint) (*Result, error)
	ImportDatasets(ctx context.Context, raw string, hint detect.Hint) (*Result, error)
	Export(ctx context.Context) (*models.ExportEnvelope, error)
}

type Engine struct {
	snippets snippets.StoreInterface
	datasets datasets.StoreInterface
	logger   providers.Logger
}

func NewEngine(sn snippets.StoreInterface, ds datasets.StoreInterface, logger providers.Logger) EngineInterface {
	return &Engine{snippets: sn, datasets: ds, logger: logger}
}

// ImportSnippets merges foreign snippets additively. Input that fails every
// decode shape aborts before any write; once decoding succeeds, corrupt
// records are skipped and counted rather than failing the batch.
func (e *Engine) ImportSnippets(raw string, hint detect.Hint) (*Result, error) {
	records, err := decodeSnippets([]byte(raw), hint)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	for _, sn := range records {
		if sn == nil || sn.Spec == "" && sn.DraftSpec == nil {
			res.Skipped++
			continue
		}
		fillSnippetDefaults(sn)
		renamed, err := e.snippets.Import(sn)
		if err != nil {
			e.logger.Warnf(providers.TypeApp, "Skipping snippet %q: %s", sn.Name, err)
			res.Skipped++
			continue
		}
		res.Inserted++
		if renamed {
			res.Renamed++
		}
	}
	return res, nil
}

// decodeSnippets tries the decode shapes in order: versioned envelope, bare
// record array, single record, then a bare visualization spec wrapped into
// a new record tagged "imported".
func decodeSnippets(raw []byte, hint Hint) ([]*models.Snippet, error) {
	// A versioned envelope wins even when its snippet list is empty, so a
	// datasets-only export never misreads as a bare visualization spec.
	var archive models.SnippetArchive
	if err := json.Unmarshal(raw, &archive); err == nil && archive.Version >= 1 {
		return archive.Snippets, nil
	}

	var list []*models.Snippet
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}

	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, &models.MalformedInputError{Err: err}
	}
	if _, ok := obj["spec"].(string); ok {
		var one models.Snippet
		if err := json.Unmarshal(raw, &one); err != nil {
			return nil, &models.MalformedInputError{Err: err}
		}
		return []*models.Snippet{&one}, nil
	}

	if _, err := spectree.Parse(string(raw)); err != nil {
		return nil, &models.MalformedInputError{Err: err}
	}
	now := time.Now().UTC()
	name := hintName(hint)
	if name == "" {
		name = models.DefaultSnippetName(now)
	}
	return []*models.Snippet{{
		ID:       models.NewRecordID(),
		Name:     name,
		Created:  now,
		Modified: now,
		Spec:     string(raw),
		Tags:     []string{"imported"},
	}}, nil
}

func fillSnippetDefaults(sn *models.Snippet) {
	now := time.Now().UTC()
	if sn.ID == 0 {
		sn.ID = models.NewRecordID()
	}
	if sn.Name == "" {
		sn.Name = models.DefaultSnippetName(now)
	}
	if sn.Created.IsZero() {
		sn.Created = now
	}
	sn.Modified = now
	if sn.Tags == nil {
		sn.Tags = []string{}
	}
}

// ImportDatasets merges foreign datasets additively. Besides the native
// envelope and record array shapes, a raw tabular or TopoJSON blob imports
// as one dataset named after the filename hint.
func (e *Engine) ImportDatasets(ctx context.Context, raw string, hint detect.Hint) (*Result, error) {
	records, err := decodeDatasets(raw, hint)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	for _, d := range records {
		if d == nil {
			res.Skipped++
			continue
		}
		renamed, err := e.datasets.Import(ctx, d)
		if err != nil {
			e.logger.Warnf(providers.TypeApp, "Skipping dataset %q: %s", d.Name, err)
			res.Skipped++
			continue
		}
		res.Inserted++
		if renamed {
			res.Renamed++
		}
	}
	return res, nil
}

func decodeDatasets(raw string, hint detect.Hint) ([]*models.Dataset, error) {
	data := []byte(raw)

	var envelope models.ExportEnvelope
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Version >= 1 {
		return envelope.Datasets, nil
	}

	if looksLikeDatasetRecords(data) {
		var list []*models.Dataset
		if err := json.Unmarshal(data, &list); err == nil {
			return list, nil
		}
	}

	return datasetFromBlob(raw, hint)
}

// looksLikeDatasetRecords distinguishes an array of dataset records from a
// plain row array: records carry a name plus payload fields.
func looksLikeDatasetRecords(data []byte) bool {
	var probe []map[string]any
	if err := json.Unmarshal(data, &probe); err != nil || len(probe) == 0 {
		return false
	}
	first := probe[0]
	if _, ok := first["name"].(string); !ok {
		return false
	}
	_, hasData := first["data"]
	_, hasFormat := first["format"]
	return hasData || hasFormat
}

// datasetFromBlob wraps a raw payload into a single dataset record using
// format detection. Remote URLs become lazy url-source datasets.
func datasetFromBlob(raw string, hint detect.Hint) ([]*models.Dataset, error) {
	detection := detect.Detect(raw, hint)
	d := &models.Dataset{Name: hintName(hint)}

	if detection.Remote {
		d.Source = models.SourceURL
		d.Format = models.FormatJSON
		d.Data = strings.TrimSpace(raw)
		return []*models.Dataset{d}, nil
	}

	payload, err := detect.ParseRows(raw, detection.Format)
	if err != nil {
		return nil, &models.MalformedInputError{Err: err}
	}
	if detection.Format == models.FormatJSON {
		if _, ok := payload.([]any); !ok {
			return nil, &models.MalformedInputError{Err: fmt.Errorf("json payload is not an array of rows")}
		}
	}
	d.Source = models.SourceInline
	d.Format = detection.Format
	d.Data = payload
	return []*models.Dataset{d}, nil
}

func hintName(hint Hint) string {
	base := filepath.Base(hint.Filename)
	if base == "." || base == "/" || base == "" {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

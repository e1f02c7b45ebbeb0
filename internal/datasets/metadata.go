package datasets

import (
	"bytes"
	"context"

	json "github.com/goccy/go-json"

	"vsd/internal/detect"
	"vsd/internal/models"
)

// metadataSampleRows bounds how many rows feed column type inference.
const metadataSampleRows = 100

// computeMetadata refreshes the advisory metadata fields from the decoded
// payload and its canonical serialization. Non-tabular payloads count as a
// single row with no columns.
func computeMetadata(d *models.Dataset, raw []byte) {
	d.Size = int64(len(raw))
	d.RowCount = 0
	d.ColumnCount = 0
	d.Columns = nil

	rows, ok := d.Data.([]any)
	if !ok {
		if d.Data != nil {
			d.RowCount = 1
		}
		return
	}

	d.RowCount = len(rows)
	if len(rows) == 0 {
		return
	}
	first, ok := rows[0].(map[string]any)
	if !ok {
		return
	}

	names := firstRowKeys(raw)
	if len(names) == 0 {
		for k := range first {
			names = append(names, k)
		}
	}

	d.ColumnCount = len(names)
	d.Columns = make([]models.Column, 0, len(names))
	for _, name := range names {
		d.Columns = append(d.Columns, models.Column{
			Name: name,
			Type: detect.InferColumnType(columnValues(rows, name)),
		})
	}
}

func columnValues(rows []any, column string) []any {
	values := make([]any, 0, min(len(rows), metadataSampleRows))
	for _, r := range rows {
		row, ok := r.(map[string]any)
		if !ok {
			continue
		}
		values = append(values, row[column])
		if len(values) == metadataSampleRows {
			break
		}
	}
	return values
}

// firstRowKeys reads the first object of a serialized row array with a
// token scanner, so column order follows the payload text rather than Go
// map iteration.
func firstRowKeys(raw []byte) []string {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil || tok != json.Delim('[') {
		return nil
	}
	tok, err = dec.Token()
	if err != nil || tok != json.Delim('{') {
		return nil
	}

	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil
		}
		key, ok := tok.(string)
		if !ok {
			return nil
		}
		keys = append(keys, key)
		var discard any
		if err := dec.Decode(&discard); err != nil {
			return nil
		}
	}
	return keys
}

// refreshRemote fetches the remote payload and recomputes metadata from it.
// Any failure leaves d untouched so prior metadata survives.
func refreshRemote(ctx context.Context, fetcher FetcherInterface, d *models.Dataset) error {
	raw, err := fetcher.Fetch(ctx, d.URL())
	if err != nil {
		return err
	}

	payload, err := detect.ParseRows(string(raw), d.Format)
	if err != nil {
		return &models.FetchError{URL: d.URL(), Kind: models.FetchParse, Err: err}
	}

	// Compute against a scratch dataset holding the parsed remote payload;
	// the stored payload stays the URL string.
	scratch := &models.Dataset{Data: payload, Format: d.Format, Source: models.SourceInline}
	computeMetadata(scratch, raw)
	d.RowCount = scratch.RowCount
	d.ColumnCount = scratch.ColumnCount
	d.Columns = scratch.Columns
	d.Size = scratch.Size
	return nil
}

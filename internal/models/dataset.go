package models

import "time"

type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatTSV      Format = "tsv"
	FormatTopoJSON Format = "topojson"
)

func (f Format) Valid() bool {
	switch f {
	case FormatJSON, FormatCSV, FormatTSV, FormatTopoJSON:
		return true
	}
	return false
}

type Source string

const (
	SourceInline Source = "inline"
	SourceURL    Source = "url"
)

type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

type ColumnType string

const (
	ColumnNumber  ColumnType = "number"
	ColumnDate    ColumnType = "date"
	ColumnBoolean ColumnType = "boolean"
	ColumnText    ColumnType = "text"
)

type Column struct {
	Name string     `json:"name"`
	Type ColumnType `json:"type"`
}

// Dataset is a stored, named, reusable data payload. For SourceInline, Data
// holds the decoded payload (a []any of row objects for tabular formats, an
// arbitrary JSON value for TopoJSON); for SourceURL it holds the URL string.
// RowCount/ColumnCount/Columns/Size are advisory caches recomputed after
// every mutation of Data or Format, never authoritative.
type Dataset struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Created     time.Time      `json:"created"`
	Modified    time.Time      `json:"modified"`
	Data        any            `json:"data"`
	Format      Format         `json:"format"`
	Source      Source         `json:"source"`
	Comment     string         `json:"comment"`
	RowCount    int            `json:"rowCount"`
	ColumnCount int            `json:"columnCount"`
	Columns     []Column       `json:"columns"`
	Size        int64          `json:"size"`
	Meta        map[string]any `json:"meta,omitempty"`
}

// URL returns the remote address for SourceURL datasets, or "".
func (d *Dataset) URL() string {
	if d.Source != SourceURL {
		return ""
	}
	u, _ := d.Data.(string)
	return u
}

func (d *Dataset) Clone() *Dataset {
	c := *d
	c.Columns = append([]Column(nil), d.Columns...)
	if d.Meta != nil {
		c.Meta = make(map[string]any, len(d.Meta))
		for k, v := range d.Meta {
			c.Meta[k] = v
		}
	}
	return &c
}

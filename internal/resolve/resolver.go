// Package resolve substitutes symbolic dataset references in specification
// trees with concrete data objects before a render.
package resolve

import (
	"context"
	"fmt"

	"vsd/internal/models"
	"vsd/internal/providers"
	"vsd/internal/spectree"
)

// DatasetSource is the lookup the resolver needs from the dataset store.
type DatasetSource interface {
	GetByName(ctx context.Context, name string) (*models.Dataset, error)
}

type ResolverInterface interface {
	Resolve(ctx context.Context, specText string) (map[string]any, error)
	ResolveTree(ctx context.Context, tree map[string]any) (map[string]any, error)
}

type Resolver struct {
	datasets DatasetSource
	logger   providers.Logger
}

func NewResolver(datasets DatasetSource, logger providers.Logger) ResolverInterface {
	return &Resolver{datasets: datasets, logger: logger}
}

// Resolve parses specText and substitutes every named reference at any
// depth. Resolution is all-or-nothing: one dangling reference fails the
// whole call and the input is never mutated.
func (r *Resolver) Resolve(ctx context.Context, specText string) (map[string]any, error) {
	tree, err := spectree.Parse(specText)
	if err != nil {
		return nil, err
	}
	return r.ResolveTree(ctx, tree)
}

// ResolveTree resolves an already-parsed tree. Data objects without a name
// (inline values, urls, already-resolved output) pass through unchanged,
// so resolving twice is a no-op.
func (r *Resolver) ResolveTree(ctx context.Context, tree map[string]any) (map[string]any, error) {
	return spectree.Transform(tree, func(data map[string]any) (map[string]any, error) {
		name, ok := spectree.RefName(data)
		if !ok {
			return data, nil
		}
		dataset, err := r.datasets.GetByName(ctx, name)
		if err != nil {
			return nil, err
		}
		return substitution(dataset)
	})
}

// substitution builds the data object replacing a reference. The mapping is
// total over the format enum; a format outside it is a defect.
func substitution(d *models.Dataset) (map[string]any, error) {
	if d.Source == models.SourceURL {
		return map[string]any{
			"url":    d.URL(),
			"format": map[string]any{"type": string(d.Format)},
		}, nil
	}

	switch d.Format {
	case models.FormatJSON:
		return map[string]any{"values": d.Data}, nil
	case models.FormatCSV, models.FormatTSV, models.FormatTopoJSON:
		return map[string]any{
			"values": d.Data,
			"format": map[string]any{"type": string(d.Format)},
		}, nil
	default:
		return nil, fmt.Errorf("dataset %q has unrecognized format %q", d.Name, d.Format)
	}
}

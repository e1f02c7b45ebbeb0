package transfer

import (
	"context"

	"vsd/internal/datasets"
	"vsd/internal/models"
)

// Export snapshots both stores into one versioned envelope.
func (e *Engine) Export(ctx context.Context) (*models.ExportEnvelope, error) {
	ds, err := e.datasets.List(ctx, datasets.ListOptions{SortKey: "name"})
	if err != nil {
		return nil, err
	}
	return &models.ExportEnvelope{
		Version:  models.ArchiveVersion,
		Snippets: e.snippets.GetSnapshot(),
		Datasets: ds,
	}, nil
}

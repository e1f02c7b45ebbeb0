package di

import (
	"vsd/internal/datasets"
	"vsd/internal/resolve"
)

// NewDatasetSource narrows the dataset store to the lookup the resolver needs.
func NewDatasetSource(ds datasets.StoreInterface) resolve.DatasetSource {
	return ds
}

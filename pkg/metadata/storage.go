package metadata

import (
	"context"

	sstorage "github.com/jjo/promql-complete/pkg/storage"
)

// StorageProvider answers metadata lookups from an in-memory metric store.
// Useful for sessions working on a loaded metrics file with no Prometheus
// around.
type StorageProvider struct {
	store *sstorage.SimpleStorage
}

// NewStorageProvider wraps the given store. A nil store behaves like Offline.
func NewStorageProvider(store *sstorage.SimpleStorage) *StorageProvider {
	return &StorageProvider{store: store}
}

func (p *StorageProvider) LabelNames(_ context.Context, metric string) ([]string, error) {
	if p.store == nil {
		return nil, nil
	}
	return p.store.LabelNames(metric), nil
}

func (p *StorageProvider) LabelValues(_ context.Context, label, metric string) ([]string, error) {
	if p.store == nil {
		return nil, nil
	}
	return p.store.LabelValues(label, metric), nil
}

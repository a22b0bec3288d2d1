// Package memory holds in-process implementations of the storage ports,
// used when no database path is configured and in tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/boddenberg/timesheet-charts-go/internal/domain"
)

// DatasetStore implements port.DatasetStore in memory.
type DatasetStore struct {
	mu    sync.RWMutex
	items map[string]domain.Dataset
}

// NewDatasetStore creates an empty store.
func NewDatasetStore() *DatasetStore {
	return &DatasetStore{items: make(map[string]domain.Dataset)}
}

func (s *DatasetStore) Save(_ context.Context, ds *domain.Dataset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[ds.ID] = *ds
	return nil
}

func (s *DatasetStore) Get(_ context.Context, id string) (*domain.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ds, ok := s.items[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "dataset", ID: id}
	}
	return &ds, nil
}

func (s *DatasetStore) List(_ context.Context, limit int) ([]domain.DatasetInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.DatasetInfo, 0, len(s.items))
	for _, ds := range s.items {
		out = append(out, domain.DatasetInfo{
			ID:        ds.ID,
			Source:    ds.Source,
			Mode:      ds.Mode,
			Rows:      ds.Rows,
			Bytes:     len(ds.CSV),
			CreatedAt: ds.CreatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *DatasetStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return &domain.ErrNotFound{Resource: "dataset", ID: id}
	}
	delete(s.items, id)
	return nil
}

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps records in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: map[string][]byte{}}
}

func (s *MemoryStore) Create(ctx context.Context, d *Dataset) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to marshal dataset: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[d.ID]; exists {
		return fmt.Errorf("dataset %s already exists", d.ID)
	}
	s.items[d.ID] = data
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Dataset, error) {
	s.mu.RLock()
	data, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return unmarshalDataset(data)
}

func (s *MemoryStore) Update(ctx context.Context, id string, fn func(d *Dataset) error) (*Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	d, err := unmarshalDataset(data)
	if err != nil {
		return nil, err
	}
	if err := fn(d); err != nil {
		return nil, err
	}
	d.UpdatedAt = time.Now().UTC()

	data, err = json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal dataset: %w", err)
	}
	s.items[id] = data
	return d, nil
}

func (s *MemoryStore) List(ctx context.Context, owner string) ([]*Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Dataset
	for _, data := range s.items {
		d, err := unmarshalDataset(data)
		if err != nil {
			return nil, err
		}
		if d.Owner == owner {
			out = append(out, d)
		}
	}
	sortByCreation(out)
	return out, nil
}

func unmarshalDataset(data []byte) (*Dataset, error) {
	var d Dataset
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to unmarshal dataset: %w", err)
	}
	return &d, nil
}

func sortByCreation(items []*Dataset) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID < items[j].ID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
}

package service

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/dataprep/ingest/internal/client"
	"github.com/dataprep/ingest/internal/model"
)

// Catalog keeps the last dataset listing and wraps the per-dataset calls.
type Catalog struct {
	api    client.DatasetAPI
	logger *zap.Logger

	mu    sync.RWMutex
	items []model.DatasetInfo
}

func NewCatalog(api client.DatasetAPI, logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Catalog{api: api, logger: logger}
}

// Refresh reloads the listing.
func (c *Catalog) Refresh(ctx context.Context) error {
	resp, err := c.api.ListDatasets(ctx)
	if err != nil {
		return fmt.Errorf("failed to list datasets: %w", err)
	}
	c.mu.Lock()
	c.items = resp.Items
	c.mu.Unlock()
	c.logger.Debug("Dataset list refreshed", zap.Int("count", len(resp.Items)))
	return nil
}

// Items returns the listing from the last successful refresh.
func (c *Catalog) Items() []model.DatasetInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]model.DatasetInfo(nil), c.items...)
}

func (c *Catalog) Status(ctx context.Context, datasetID string) (*model.StatusResponse, error) {
	return c.api.GetDatasetStatus(ctx, datasetID)
}

func (c *Catalog) Detail(ctx context.Context, datasetID string) (*model.DatasetDetail, error) {
	return c.api.GetDatasetDetail(ctx, datasetID)
}

// Archive archives the dataset and drops it from the cached listing.
func (c *Catalog) Archive(ctx context.Context, datasetID string) (bool, error) {
	resp, err := c.api.ArchiveDataset(ctx, datasetID)
	if err != nil {
		return false, fmt.Errorf("failed to archive dataset: %w", err)
	}
	if resp.Archived {
		c.mu.Lock()
		kept := c.items[:0:0]
		for _, it := range c.items {
			if it.ID != datasetID {
				kept = append(kept, it)
			}
		}
		c.items = kept
		c.mu.Unlock()
		c.logger.Info("Dataset archived", zap.String("dataset_id", datasetID))
	}
	return resp.Archived, nil
}

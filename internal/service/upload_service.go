package service

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/dataprep/ingest/internal/client"
	"github.com/dataprep/ingest/internal/poller"
)

// Refresher reloads whatever view lists the datasets.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// UploadService uploads a dataset and follows its processing job
type UploadService struct {
	api       client.DatasetAPI
	poller    *poller.Poller
	refresher Refresher
	logger    *zap.Logger
}

func NewUploadService(api client.DatasetAPI, p *poller.Poller, refresher Refresher, logger *zap.Logger) *UploadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UploadService{api: api, poller: p, refresher: refresher, logger: logger}
}

// Upload sends the file and starts polling the job it created. The
// subscriber receives every observation; once the job succeeds the dataset
// list is refreshed.
func (s *UploadService) Upload(ctx context.Context, filename string, file io.Reader, datasetName string, subscriber func(poller.Observation)) (*poller.Handle, error) {
	resp, err := s.api.UploadDataset(ctx, filename, file, datasetName)
	if err != nil {
		return nil, fmt.Errorf("failed to upload dataset: %w", err)
	}
	if resp.DatasetID == "" {
		return nil, fmt.Errorf("upload accepted without a dataset id")
	}

	s.logger.Info("Dataset uploaded",
		zap.String("dataset_id", resp.DatasetID),
		zap.String("filename", filename),
		zap.String("message", resp.Message))

	return s.Follow(resp.DatasetID, subscriber), nil
}

// Follow polls an already uploaded dataset.
func (s *UploadService) Follow(datasetID string, subscriber func(poller.Observation)) *poller.Handle {
	return s.poller.Start(datasetID, func(obs poller.Observation) {
		if subscriber != nil {
			subscriber(obs)
		}
		if obs.State == poller.StateSucceeded && s.refresher != nil {
			if err := s.refresher.Refresh(context.Background()); err != nil {
				s.logger.Warn("Failed to refresh dataset list", zap.String("dataset_id", datasetID), zap.Error(err))
			}
		}
	})
}

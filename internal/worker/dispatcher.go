package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Dispatcher schedules the analysis of an uploaded dataset.
type Dispatcher interface {
	Dispatch(ctx context.Context, datasetID string) error
}

// AsynqDispatcher enqueues analysis tasks on redis.
type AsynqDispatcher struct {
	client *asynq.Client
}

func NewAsynqDispatcher(client *asynq.Client) *AsynqDispatcher {
	return &AsynqDispatcher{client: client}
}

func (d *AsynqDispatcher) Dispatch(ctx context.Context, datasetID string) error {
	task, err := NewAnalyzeTask(datasetID)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	_, err = d.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueAnalysis),
		asynq.MaxRetry(3),
		asynq.Retention(24*time.Hour),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}
	return nil
}

// LocalDispatcher runs the analysis on a goroutine. It is used when no
// redis is configured.
type LocalDispatcher struct {
	worker *AnalysisWorker
	logger *zap.Logger
}

func NewLocalDispatcher(w *AnalysisWorker, logger *zap.Logger) *LocalDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocalDispatcher{worker: w, logger: logger}
}

func (d *LocalDispatcher) Dispatch(_ context.Context, datasetID string) error {
	go func() {
		if err := d.worker.Run(context.Background(), datasetID); err != nil {
			d.logger.Error("Analysis failed", zap.String("dataset_id", datasetID), zap.Error(err))
		}
	}()
	return nil
}

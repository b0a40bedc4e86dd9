package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/dataprep/ingest/internal/model"
	"github.com/dataprep/ingest/internal/store"
)

const (
	TaskTypeAnalyze = "dataset:analyze"
	QueueAnalysis   = "analysis"
)

// Notifier receives every status change the worker stores.
type Notifier interface {
	PublishStatus(datasetID, status, step string, progress int, errMsg string)
}

// AnalysisWorker walks an uploaded dataset through the processing states
// and stores its profile.
type AnalysisWorker struct {
	store     store.Store
	stepDelay time.Duration
	notifier  Notifier
	logger    *zap.Logger
}

// NewAnalysisWorker creates a worker. stepDelay is the pause between two
// status changes, so that clients get to see the intermediate states.
func NewAnalysisWorker(st store.Store, stepDelay time.Duration, logger *zap.Logger) *AnalysisWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalysisWorker{store: st, stepDelay: stepDelay, logger: logger.Named("analysis_worker")}
}

// WithNotifier makes the worker publish its status changes to n.
func (w *AnalysisWorker) WithNotifier(n Notifier) *AnalysisWorker {
	w.notifier = n
	return w
}

// ProcessTask handles dataset:analyze tasks
func (w *AnalysisWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload struct {
		DatasetID string `json:"datasetId"`
	}
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %w", asynq.SkipRetry)
	}
	return w.Run(ctx, payload.DatasetID)
}

// Run processes one dataset to completion.
func (w *AnalysisWorker) Run(ctx context.Context, datasetID string) error {
	logger := w.logger.With(zap.String("dataset_id", datasetID))
	logger.Info("Starting analysis")

	steps := []struct {
		status   string
		progress int
	}{
		{store.StatusUploading, 10},
		{store.StatusUploading, 30},
		{store.StatusAnalyzing, 50},
	}
	for _, step := range steps {
		if err := w.setStatus(ctx, datasetID, step.status, step.progress); err != nil {
			return err
		}
		if err := w.pause(ctx); err != nil {
			logger.Info("Analysis cancelled")
			return err
		}
	}

	d, err := w.store.Get(ctx, datasetID)
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}
	profile, err := ProfileCSV(bytes.NewReader(d.Data))
	if err != nil {
		logger.Warn("Analysis failed", zap.Error(err))
		return w.fail(ctx, datasetID, err.Error())
	}

	if err := w.setStatus(ctx, datasetID, store.StatusAnalyzing, 80); err != nil {
		return err
	}
	if err := w.pause(ctx); err != nil {
		return err
	}

	done, err := w.store.Update(ctx, datasetID, func(d *store.Dataset) error {
		d.Status = store.StatusDone
		d.Progress = 100
		d.Profile = profile
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to complete dataset: %w", err)
	}
	w.notify(done)

	logger.Info("Analysis completed",
		zap.Int("rows", profile.RowCount),
		zap.Int("columns", len(profile.Columns)))
	return nil
}

func (w *AnalysisWorker) setStatus(ctx context.Context, datasetID, status string, progress int) error {
	d, err := w.store.Update(ctx, datasetID, func(d *store.Dataset) error {
		d.Status = status
		d.Step = string(model.DatasetStepInitialAnalysis)
		d.Progress = progress
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to update progress: %w", err)
	}
	w.notify(d)
	return nil
}

func (w *AnalysisWorker) fail(ctx context.Context, datasetID, msg string) error {
	d, err := w.store.Update(ctx, datasetID, func(d *store.Dataset) error {
		d.Status = store.StatusFailed
		d.ErrorMessage = msg
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to mark dataset as failed: %w", err)
	}
	w.notify(d)
	return nil
}

func (w *AnalysisWorker) notify(d *store.Dataset) {
	if w.notifier == nil {
		return
	}
	w.notifier.PublishStatus(d.ID, d.Status, d.Step, d.Progress, d.ErrorMessage)
}

func (w *AnalysisWorker) pause(ctx context.Context) error {
	if w.stepDelay <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(w.stepDelay):
		return nil
	}
}

// NewAnalyzeTask builds the task that analyzes datasetID.
func NewAnalyzeTask(datasetID string) (*asynq.Task, error) {
	data, err := json.Marshal(map[string]string{"datasetId": datasetID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeAnalyze, data), nil
}

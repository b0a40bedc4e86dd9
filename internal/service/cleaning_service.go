package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/dataprep/ingest/internal/client"
	"github.com/dataprep/ingest/internal/model"
	"github.com/dataprep/ingest/internal/plan"
	"github.com/dataprep/ingest/internal/wire"
)

var ErrPlanInvalid = errors.New("cleaning plan has blocking issues")

// SavePolicy decides what Save does with a plan that fails validation.
type SavePolicy string

const (
	// SavePolicyReject refuses to send a plan with issues.
	SavePolicyReject SavePolicy = "reject"
	// SavePolicyOmit sends it anyway; values that cannot be expressed on
	// the wire are left out.
	SavePolicyOmit SavePolicy = "omit"
)

func ParseSavePolicy(raw string) (SavePolicy, error) {
	switch SavePolicy(strings.ToLower(strings.TrimSpace(raw))) {
	case "", SavePolicyReject:
		return SavePolicyReject, nil
	case SavePolicyOmit:
		return SavePolicyOmit, nil
	}
	return "", fmt.Errorf("unknown save policy %q", raw)
}

// InvalidPlanError carries the issues that blocked a save.
type InvalidPlanError struct {
	Issues plan.Issues
}

func (e *InvalidPlanError) Error() string {
	return fmt.Sprintf("%s: %s", ErrPlanInvalid, e.Issues.Error())
}

func (e *InvalidPlanError) Unwrap() error { return ErrPlanInvalid }

// Editor is one open cleaning plan.
type Editor struct {
	*plan.Store
	DatasetID string
	Dataset   *model.DatasetSummary
}

// CleaningService loads, seeds and saves cleaning plans
type CleaningService struct {
	api    client.DatasetAPI
	policy SavePolicy
	logger *zap.Logger
}

func NewCleaningService(api client.DatasetAPI, policy SavePolicy, logger *zap.Logger) *CleaningService {
	if policy == "" {
		policy = SavePolicyReject
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CleaningService{api: api, policy: policy, logger: logger}
}

// Open fetches the column analysis of datasetID and seeds a new editor.
func (s *CleaningService) Open(ctx context.Context, datasetID string) (*Editor, error) {
	resp, err := s.api.GetCleaningPlan(ctx, datasetID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cleaning plan: %w", err)
	}

	store := plan.NewStore(s.logger.With(zap.String("dataset_id", datasetID)))
	store.Seed(resp.Columns)

	s.logger.Info("Cleaning plan opened",
		zap.String("dataset_id", datasetID),
		zap.Int("columns", len(resp.Columns)))

	return &Editor{Store: store, DatasetID: datasetID, Dataset: resp.Dataset}, nil
}

// Payload returns the wire form of the editor's current plan.
func (s *CleaningService) Payload(e *Editor) wire.SavePlanRequest {
	return wire.ToWirePayload(e.DatasetID, e.Plans())
}

// Save validates the plan according to the save policy and posts it.
func (s *CleaningService) Save(ctx context.Context, e *Editor) (*wire.SavePlanResponse, error) {
	if issues := e.Validate(); len(issues) > 0 {
		if s.policy == SavePolicyReject {
			return nil, &InvalidPlanError{Issues: issues}
		}
		s.logger.Warn("Saving cleaning plan with issues",
			zap.String("dataset_id", e.DatasetID),
			zap.Int("issues", len(issues)),
			zap.String("first", issues[0].String()))
	}

	payload := s.Payload(e)
	resp, err := s.api.SaveCleaningPlan(ctx, e.DatasetID, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to save cleaning plan: %w", err)
	}

	s.logger.Info("Cleaning plan saved",
		zap.String("dataset_id", e.DatasetID),
		zap.Bool("ok", resp.OK))
	return resp, nil
}

package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/dataprep/ingest/internal/store"
	"github.com/dataprep/ingest/internal/wire"
	"github.com/dataprep/ingest/pkg/response"
)

type CleaningHandler struct {
	store     store.Store
	validator *validator.Validate
	logger    *zap.Logger
}

func NewCleaningHandler(st store.Store, v *validator.Validate, logger *zap.Logger) *CleaningHandler {
	return &CleaningHandler{
		store:     st,
		validator: v,
		logger:    logger.Named("cleaning_handler"),
	}
}

// GetPlan handles GET /cleaning/:id/plan
func (h *CleaningHandler) GetPlan(c *fiber.Ctx) error {
	d, err := loadOwned(c, h.store)
	if err != nil {
		return storeError(c, h.logger, err)
	}
	if d.Status != store.StatusDone || d.Profile == nil {
		return response.Conflict(c, "Dataset analysis is not finished")
	}
	return response.OK(c, planView(d))
}

// SavePlan handles POST /cleaning/:id/plan
func (h *CleaningHandler) SavePlan(c *fiber.Ctx) error {
	d, err := loadOwned(c, h.store)
	if err != nil {
		return storeError(c, h.logger, err)
	}
	if d.Status != store.StatusDone || d.Profile == nil {
		return response.Conflict(c, "Dataset analysis is not finished")
	}

	var req wire.SavePlanRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	if req.DatasetID != d.ID {
		return response.ValidationError(c, "dataset_id does not match the URL", map[string]interface{}{
			"dataset_id": req.DatasetID,
		})
	}

	var unknown []string
	for _, col := range req.Columns {
		if _, ok := d.Profile.Column(col.Name); !ok {
			unknown = append(unknown, col.Name)
		}
	}
	if len(unknown) > 0 {
		return response.ValidationError(c, "Unknown columns", map[string]interface{}{
			"columns": unknown,
		})
	}

	_, err = h.store.Update(c.Context(), d.ID, func(d *store.Dataset) error {
		d.Plan = &req
		return nil
	})
	if err != nil {
		return storeError(c, h.logger, err)
	}

	h.logger.Info("Cleaning plan saved",
		zap.String("dataset_id", d.ID),
		zap.Int("columns", len(req.Columns)))

	return response.OK(c, wire.SavePlanResponse{OK: true})
}

package handler

import (
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dataprep/ingest/internal/middleware"
	"github.com/dataprep/ingest/internal/model"
	"github.com/dataprep/ingest/internal/store"
	"github.com/dataprep/ingest/internal/worker"
	"github.com/dataprep/ingest/pkg/response"
)

const maxUploadSize = 50 * 1024 * 1024 // 50MB

type DatasetsHandler struct {
	store      store.Store
	dispatcher worker.Dispatcher
	validator  *validator.Validate
	logger     *zap.Logger
}

func NewDatasetsHandler(st store.Store, d worker.Dispatcher, v *validator.Validate, logger *zap.Logger) *DatasetsHandler {
	return &DatasetsHandler{
		store:      st,
		dispatcher: d,
		validator:  v,
		logger:     logger.Named("datasets_handler"),
	}
}

// List handles GET /datasets
func (h *DatasetsHandler) List(c *fiber.Ctx) error {
	records, err := h.store.List(c.Context(), middleware.GetUserID(c))
	if err != nil {
		h.logger.Error("Failed to list datasets", zap.Error(err))
		return response.ServiceError(c, "Failed to list datasets")
	}

	items := make([]model.DatasetInfo, 0, len(records))
	for _, d := range records {
		if d.Archived {
			continue
		}
		items = append(items, infoView(d))
	}
	return response.OK(c, model.DatasetListResponse{Items: items})
}

// Upload handles POST /datasets/upload
func (h *DatasetsHandler) Upload(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return response.ValidationError(c, "File is required", nil)
	}

	if file.Size > maxUploadSize {
		return response.TooLarge(c, "File size exceeds 50MB limit", map[string]interface{}{
			"maxSize":  maxUploadSize,
			"fileSize": file.Size,
		})
	}

	if !strings.EqualFold(filepath.Ext(file.Filename), ".csv") {
		return response.ValidationError(c, "Invalid file type. Supported: CSV", map[string]interface{}{
			"filename": file.Filename,
		})
	}

	name := strings.TrimSpace(c.FormValue("dataset_name"))
	if err := h.validator.Var(name, "omitempty,max=255"); err != nil {
		return response.ValidationError(c, "dataset_name must be at most 255 characters", nil)
	}

	f, err := file.Open()
	if err != nil {
		return response.ServiceError(c, "Failed to open file")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return response.ServiceError(c, "Failed to read file")
	}

	d := &store.Dataset{
		ID:       uuid.NewString(),
		Owner:    middleware.GetUserID(c),
		Name:     strings.TrimSuffix(file.Filename, filepath.Ext(file.Filename)),
		Filename: file.Filename,
		Status:   store.StatusQueued,
		Step:     string(model.DatasetStepInitialAnalysis),
		Data:     data,
	}
	d.CreatedAt = time.Now().UTC()
	d.UpdatedAt = d.CreatedAt
	if name != "" {
		d.Name = name
		d.CustomName = &name
	}

	if err := h.store.Create(c.Context(), d); err != nil {
		h.logger.Error("Failed to store dataset", zap.Error(err))
		return response.ServiceError(c, "Failed to store dataset")
	}

	if err := h.dispatcher.Dispatch(c.Context(), d.ID); err != nil {
		h.logger.Error("Failed to schedule analysis", zap.String("dataset_id", d.ID), zap.Error(err))
		_, _ = h.store.Update(c.Context(), d.ID, func(d *store.Dataset) error {
			d.Status = store.StatusFailed
			d.ErrorMessage = "analysis could not be scheduled"
			return nil
		})
		return response.ServiceError(c, "Failed to schedule analysis")
	}

	h.logger.Info("Dataset uploaded",
		zap.String("dataset_id", d.ID),
		zap.String("filename", d.Filename),
		zap.Int("bytes", len(data)))

	return response.Accepted(c, model.UploadResponse{
		DatasetID: d.ID,
		Status:    model.DatasetStatus(d.Status),
		Message:   "Upload accepted, analysis queued",
	})
}

// Status handles GET /datasets/:id/status
func (h *DatasetsHandler) Status(c *fiber.Ctx) error {
	d, err := loadOwned(c, h.store)
	if err != nil {
		return h.storeError(c, err)
	}
	return response.OK(c, statusView(d))
}

// Detail handles GET /datasets/:id
func (h *DatasetsHandler) Detail(c *fiber.Ctx) error {
	d, err := loadOwned(c, h.store)
	if err != nil {
		return h.storeError(c, err)
	}
	return response.OK(c, detailView(d))
}

// Archive handles DELETE /datasets/:id
func (h *DatasetsHandler) Archive(c *fiber.Ctx) error {
	d, err := loadOwned(c, h.store)
	if err != nil {
		return h.storeError(c, err)
	}

	_, err = h.store.Update(c.Context(), d.ID, func(d *store.Dataset) error {
		d.Archived = true
		return nil
	})
	if err != nil {
		return h.storeError(c, err)
	}
	return response.OK(c, model.ArchiveResponse{Archived: true})
}

func (h *DatasetsHandler) storeError(c *fiber.Ctx, err error) error {
	return storeError(c, h.logger, err)
}

// loadOwned fetches the :id dataset. Records of other users and archived
// records are reported as missing.
func loadOwned(c *fiber.Ctx, st store.Store) (*store.Dataset, error) {
	id := c.Params("id")
	if id == "" {
		return nil, store.ErrNotFound
	}
	d, err := st.Get(c.Context(), id)
	if err != nil {
		return nil, err
	}
	if d.Owner != middleware.GetUserID(c) || d.Archived {
		return nil, store.ErrNotFound
	}
	return d, nil
}

func storeError(c *fiber.Ctx, logger *zap.Logger, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return response.NotFound(c, "Dataset not found")
	}
	logger.Error("Store operation failed", zap.Error(err))
	return response.ServiceError(c, "Store operation failed")
}

func formatValidationErrors(err error) interface{} {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		errs := make(map[string]string)
		for _, e := range validationErrors {
			errs[e.Namespace()] = e.Tag()
		}
		return errs
	}
	return nil
}

// Package client talks to the dataset ingestion backend over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dataprep/ingest/internal/auth"
	"github.com/dataprep/ingest/internal/model"
	"github.com/dataprep/ingest/internal/wire"
)

// DatasetAPI is the set of backend operations the services depend on.
type DatasetAPI interface {
	ListDatasets(ctx context.Context) (*model.DatasetListResponse, error)
	UploadDataset(ctx context.Context, filename string, file io.Reader, datasetName string) (*model.UploadResponse, error)
	GetDatasetStatus(ctx context.Context, datasetID string) (*model.StatusResponse, error)
	GetDatasetDetail(ctx context.Context, datasetID string) (*model.DatasetDetail, error)
	ArchiveDataset(ctx context.Context, datasetID string) (*model.ArchiveResponse, error)
	GetCleaningPlan(ctx context.Context, datasetID string) (*model.CleaningPlanResponse, error)
	SaveCleaningPlan(ctx context.Context, datasetID string, req wire.SavePlanRequest) (*wire.SavePlanResponse, error)
}

// APIError is a non-2xx backend reply.
type APIError struct {
	Op         string
	StatusCode int
	Status     string
	Body       string
}

func (e *APIError) Error() string {
	msg := e.Status
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Body != "" {
		return fmt.Sprintf("%s failed: %d %s: %s", e.Op, e.StatusCode, msg, e.Body)
	}
	return fmt.Sprintf("%s failed: %d %s", e.Op, e.StatusCode, msg)
}

// DatasetsClient implements DatasetAPI
type DatasetsClient struct {
	httpClient *http.Client
	baseURL    string
	session    *auth.Session
	logger     *zap.Logger
}

// Config for NewDatasetsClient
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// NewDatasetsClient creates a client bound to session. A nil session sends
// no Authorization header.
func NewDatasetsClient(cfg Config, session *auth.Session, logger *zap.Logger) *DatasetsClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DatasetsClient{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		session:    session,
		logger:     logger.Named("datasets_client"),
	}
}

// ListDatasets returns the datasets visible to the session.
func (c *DatasetsClient) ListDatasets(ctx context.Context) (*model.DatasetListResponse, error) {
	body, err := c.get(ctx, "listDatasets", "/datasets")
	if err != nil {
		return nil, err
	}
	return decode("listDatasets", body, wire.DecodeDatasetList)
}

// UploadDataset sends file as multipart form data. datasetName is optional.
func (c *DatasetsClient) UploadDataset(ctx context.Context, filename string, file io.Reader, datasetName string) (*model.UploadResponse, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if datasetName = strings.TrimSpace(datasetName); datasetName != "" {
		if err := mw.WriteField("dataset_name", datasetName); err != nil {
			return nil, fmt.Errorf("failed to write form field: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/datasets/upload", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	body, err := c.doRequest("uploadDataset", req)
	if err != nil {
		return nil, err
	}
	return decode("uploadDataset", body, wire.DecodeUpload)
}

// GetDatasetStatus returns the processing status of a dataset.
func (c *DatasetsClient) GetDatasetStatus(ctx context.Context, datasetID string) (*model.StatusResponse, error) {
	body, err := c.get(ctx, "getDatasetStatus", "/datasets/"+url.PathEscape(datasetID)+"/status")
	if err != nil {
		return nil, err
	}
	resp, err := decode("getDatasetStatus", body, wire.DecodeStatus)
	if err != nil {
		return nil, err
	}
	if resp.DatasetID == "" {
		resp.DatasetID = datasetID
	}
	return resp, nil
}

func (c *DatasetsClient) GetDatasetDetail(ctx context.Context, datasetID string) (*model.DatasetDetail, error) {
	body, err := c.get(ctx, "getDatasetDetail", "/datasets/"+url.PathEscape(datasetID))
	if err != nil {
		return nil, err
	}
	return decode("getDatasetDetail", body, wire.DecodeDatasetDetail)
}

// ArchiveDataset removes a dataset from the listing.
func (c *DatasetsClient) ArchiveDataset(ctx context.Context, datasetID string) (*model.ArchiveResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/datasets/"+url.PathEscape(datasetID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	body, err := c.doRequest("archiveDataset", req)
	if err != nil {
		return nil, err
	}
	return decode("archiveDataset", body, wire.DecodeArchive)
}

// GetCleaningPlan returns the column analysis a plan is seeded from.
func (c *DatasetsClient) GetCleaningPlan(ctx context.Context, datasetID string) (*model.CleaningPlanResponse, error) {
	body, err := c.get(ctx, "getCleaningPlan", "/cleaning/"+url.PathEscape(datasetID)+"/plan")
	if err != nil {
		return nil, err
	}
	return decode("getCleaningPlan", body, wire.DecodeCleaningPlan)
}

// SaveCleaningPlan posts the wire payload.
func (c *DatasetsClient) SaveCleaningPlan(ctx context.Context, datasetID string, payload wire.SavePlanRequest) (*wire.SavePlanResponse, error) {
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/cleaning/"+url.PathEscape(datasetID)+"/plan", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.doRequest("saveCleaningPlan", req)
	if err != nil {
		return nil, err
	}
	return decode("saveCleaningPlan", body, wire.DecodeSaveResult)
}

// get sends a GET request and returns the raw body
func (c *DatasetsClient) get(ctx context.Context, op, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.doRequest(op, req)
}

// doRequest executes an HTTP request. A 204 reply yields a nil body.
func (c *DatasetsClient) doRequest(op string, req *http.Request) ([]byte, error) {
	req.Header.Set("Accept", "application/json")
	if header, err := c.session.Authorization(); err == nil {
		req.Header.Set("Authorization", header)
	}

	c.logger.Debug("Request", zap.String("op", op), zap.String("method", req.Method), zap.String("url", req.URL.String()))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Request failed", zap.String("op", op), zap.Error(err))
		return nil, fmt.Errorf("%s: failed to send request: %w", op, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("Backend error",
			zap.String("op", op),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", truncate(respBody, 512)))
		return nil, &APIError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Status:     strings.TrimSpace(strings.TrimPrefix(resp.Status, fmt.Sprint(resp.StatusCode))),
			Body:       string(truncate(respBody, 512)),
		}
	}

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	return respBody, nil
}

func decode[T any](op string, body []byte, fn func([]byte) (T, error)) (T, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		body = []byte("{}")
	}
	v, err := fn(body)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("%s: failed to decode response: %w", op, err)
	}
	return v, nil
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}

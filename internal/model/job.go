package model

import "time"

// DatasetJob tracks one upload-and-analyze lifecycle as seen by the client.
type DatasetJob struct {
	ID           string        `json:"id"`
	Status       DatasetStatus `json:"status"`
	Step         DatasetStep   `json:"step,omitempty"`
	Progress     int           `json:"progress"`
	ErrorMessage *string       `json:"errorMessage,omitempty"`
	UpdatedAt    *time.Time    `json:"updatedAt,omitempty"`
}

// StatusResponse is the decoded body of GET /datasets/{id}/status
type StatusResponse struct {
	DatasetID    string        `json:"dataset_id"`
	Status       DatasetStatus `json:"status"`
	Step         DatasetStep   `json:"step,omitempty"`
	Progress     int           `json:"progress"`
	ErrorMessage *string       `json:"error_message,omitempty"`
	UpdatedAt    *time.Time    `json:"updated_at,omitempty"`
}

// Job converts a status response into the job view.
func (r *StatusResponse) Job() DatasetJob {
	job := DatasetJob{
		ID:        r.DatasetID,
		Status:    r.Status,
		Step:      r.Step,
		Progress:  r.Progress,
		UpdatedAt: r.UpdatedAt,
	}
	if r.Status == DatasetStatusFailed {
		job.ErrorMessage = r.ErrorMessage
	}
	return job
}

// UploadResponse is the decoded body of POST /datasets/upload
type UploadResponse struct {
	DatasetID string        `json:"dataset_id"`
	Status    DatasetStatus `json:"status"`
	Message   string        `json:"message"`
}

// Package store persists the dev server's dataset records.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/dataprep/ingest/internal/model"
	"github.com/dataprep/ingest/internal/wire"
)

var ErrNotFound = errors.New("dataset not found")

// Backend status values. The transfer phase keeps the name the real
// backend reports.
const (
	StatusQueued    = "queued"
	StatusUploading = "uploading_hdfs"
	StatusAnalyzing = "analyzing"
	StatusDone      = "done"
	StatusFailed    = "failed"
)

// Dataset is one uploaded file and everything known about it.
type Dataset struct {
	ID           string    `json:"id"`
	Owner        string    `json:"owner"`
	Name         string    `json:"name"`
	Filename     string    `json:"filename"`
	CustomName   *string   `json:"custom_name,omitempty"`
	Status       string    `json:"status"`
	Step         string    `json:"step"`
	Progress     int       `json:"progress"`
	ErrorMessage string    `json:"error_message,omitempty"`
	Archived     bool      `json:"archived"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Data    []byte                `json:"data,omitempty"`
	Profile *Profile              `json:"profile,omitempty"`
	Plan    *wire.SavePlanRequest `json:"plan,omitempty"`
}

// Profile is the analysis of a dataset's content.
type Profile struct {
	RowCount        int             `json:"row_count"`
	Columns         []ColumnProfile `json:"columns"`
	ConstantColumns []string        `json:"constant_columns"`
	GeneratedAt     time.Time       `json:"generated_at"`
}

// ColumnProfile describes one column of a profiled dataset.
type ColumnProfile struct {
	Name     string       `json:"name"`
	Dtype    string       `json:"dtype"`
	Nulls    int          `json:"nulls"`
	Distinct int          `json:"distinct"`
	Stats    *model.Stats `json:"stats,omitempty"`
	Values   []string     `json:"values,omitempty"`
}

// Column returns the profile of the named column.
func (p *Profile) Column(name string) (ColumnProfile, bool) {
	if p == nil {
		return ColumnProfile{}, false
	}
	for _, c := range p.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnProfile{}, false
}

// Store keeps dataset records.
type Store interface {
	Create(ctx context.Context, d *Dataset) error
	Get(ctx context.Context, id string) (*Dataset, error)
	// Update applies fn to the stored record and saves the result. An error
	// from fn aborts the update.
	Update(ctx context.Context, id string, fn func(d *Dataset) error) (*Dataset, error)
	// List returns the owner's records, oldest first.
	List(ctx context.Context, owner string) ([]*Dataset, error)
}

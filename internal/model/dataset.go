package model

import "time"

// DatasetInfo is one row of the dataset list.
type DatasetInfo struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Filename    string        `json:"filename"`
	CustomName  *string       `json:"custom_name,omitempty"`
	RowCount    *int          `json:"row_count"`
	ColumnCount *int          `json:"column_count"`
	Step        DatasetStep   `json:"step"`
	Status      DatasetStatus `json:"status"`
	CreatedAt   *time.Time    `json:"created_at,omitempty"`
}

// DisplayName prefers the custom name, then the name, then the filename.
func (d DatasetInfo) DisplayName() string {
	if d.CustomName != nil && *d.CustomName != "" {
		return *d.CustomName
	}
	if d.Name != "" {
		return d.Name
	}
	return d.Filename
}

// DatasetListResponse is the decoded body of GET /datasets
type DatasetListResponse struct {
	Items []DatasetInfo `json:"items"`
}

// SchemaField is one column of the analysis schema.
type SchemaField struct {
	Name  string `json:"name"`
	Dtype string `json:"dtype"`
}

// DatasetAnalysis is the initial analysis attached to a dataset detail.
type DatasetAnalysis struct {
	DatasetID       string           `json:"dataset_id"`
	GeneratedAt     *time.Time       `json:"generated_at,omitempty"`
	RowCount        int              `json:"row_count"`
	ColumnCount     int              `json:"column_count"`
	Schema          []SchemaField    `json:"schema"`
	NullCounts      map[string]int   `json:"null_counts"`
	DistinctCounts  map[string]int   `json:"distinct_counts,omitempty"`
	ConstantColumns []string         `json:"constant_columns,omitempty"`
	Suggestions     []string         `json:"suggestions,omitempty"`
	Stats           map[string]Stats `json:"stats,omitempty"`
}

// DatasetDetail is the decoded body of GET /datasets/{id}
type DatasetDetail struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Filename     string           `json:"filename"`
	CustomName   *string          `json:"custom_name,omitempty"`
	Status       DatasetStatus    `json:"status"`
	Step         DatasetStep      `json:"step"`
	RowCount     *int             `json:"row_count"`
	ColumnCount  *int             `json:"column_count"`
	ErrorMessage *string          `json:"error_message"`
	CreatedAt    *time.Time       `json:"created_at,omitempty"`
	UpdatedAt    *time.Time       `json:"updated_at,omitempty"`
	Analysis     *DatasetAnalysis `json:"analysis,omitempty"`
}

// ArchiveResponse is the decoded body of DELETE /datasets/{id}
type ArchiveResponse struct {
	Archived bool `json:"archived"`
}

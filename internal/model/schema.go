package model

// Stats holds the numeric summary of a column. Absent values stay nil.
type Stats struct {
	Min    *float64 `json:"min,omitempty"`
	Max    *float64 `json:"max,omitempty"`
	Mean   *float64 `json:"mean,omitempty"`
	Median *float64 `json:"median,omitempty"`
}

// ColumnSchema is one source column as reported by the backend analysis.
type ColumnSchema struct {
	Name     string   `json:"name"`
	Dtype    string   `json:"dtype"`
	Nulls    int      `json:"nulls"`
	Distinct *int     `json:"distinct,omitempty"`
	Stats    *Stats   `json:"stats,omitempty"`
	Values   []string `json:"values,omitempty"`
}

// DatasetSummary is the dataset header returned with a cleaning plan.
type DatasetSummary struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Filename    string        `json:"filename"`
	Step        DatasetStep   `json:"step"`
	Status      DatasetStatus `json:"status"`
	RowCount    *int          `json:"row_count"`
	ColumnCount *int          `json:"column_count"`
}

// CleaningPlanResponse is the decoded body of GET /cleaning/{id}/plan
type CleaningPlanResponse struct {
	Dataset *DatasetSummary `json:"dataset,omitempty"`
	Columns []ColumnSchema  `json:"columns"`
}

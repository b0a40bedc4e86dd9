package wire

// Backend imputation methods
const (
	MethodDropRow             = "drop_row"
	MethodRandomFromExisting  = "random_from_existing"
	MethodMedian              = "median"
	MethodMean                = "mean"
	MethodMode                = "mode"
	MethodValue               = "value"
	MethodMin                 = "min"
	MethodMax                 = "max"
	MethodRandomBetweenMinMax = "random_between_min_max"
)

// Imputation is the backend form of a column imputation.
type Imputation struct {
	Method string  `json:"method" validate:"required,oneof=drop_row random_from_existing median mean mode value min max random_between_min_max"`
	Value  *string `json:"value,omitempty"`
}

// ColumnPlan is the backend form of one column plan.
type ColumnPlan struct {
	Name       string      `json:"name" validate:"required"`
	RenameTo   string      `json:"rename_to"`
	Dtype      string      `json:"dtype" validate:"required,oneof=int double boolean string"`
	Drop       bool        `json:"drop"`
	Imputation *Imputation `json:"imputation"`
}

// SavePlanRequest is the body of POST /cleaning/{id}/plan
type SavePlanRequest struct {
	DatasetID string       `json:"dataset_id" validate:"required"`
	Columns   []ColumnPlan `json:"columns" validate:"dive"`
}

// SavePlanResponse is the reply of POST /cleaning/{id}/plan
type SavePlanResponse struct {
	OK bool `json:"ok"`
}

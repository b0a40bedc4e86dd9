package model

import "strings"

// Dataset status
type DatasetStatus string

const (
	DatasetStatusQueued    DatasetStatus = "queued"
	DatasetStatusUploading DatasetStatus = "uploading"
	DatasetStatusAnalyzing DatasetStatus = "analyzing"
	DatasetStatusDone      DatasetStatus = "done"
	DatasetStatusFailed    DatasetStatus = "failed"
)

var ValidDatasetStatuses = []DatasetStatus{
	DatasetStatusQueued, DatasetStatusUploading, DatasetStatusAnalyzing,
	DatasetStatusDone, DatasetStatusFailed,
}

// IsTerminal reports whether no further status change is expected.
func (s DatasetStatus) IsTerminal() bool {
	return s == DatasetStatusDone || s == DatasetStatusFailed
}

// ParseDatasetStatus maps a backend status string onto the closed status set.
// The backend reports the transfer phase as "uploading_hdfs".
func ParseDatasetStatus(raw string) (DatasetStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "queued":
		return DatasetStatusQueued, true
	case "uploading", "uploading_hdfs":
		return DatasetStatusUploading, true
	case "analyzing":
		return DatasetStatusAnalyzing, true
	case "done":
		return DatasetStatusDone, true
	case "failed":
		return DatasetStatusFailed, true
	}
	return DatasetStatusQueued, false
}

// Dataset processing steps
type DatasetStep string

const (
	DatasetStepInitialAnalysis DatasetStep = "initial_analysis"
)

// Target types a column can be converted to
type TargetType string

const (
	TargetString  TargetType = "string"
	TargetInt     TargetType = "int"
	TargetDouble  TargetType = "double"
	TargetBoolean TargetType = "boolean"
)

var ValidTargetTypes = []TargetType{
	TargetString, TargetInt, TargetDouble, TargetBoolean,
}

// IsNumeric reports whether t is int or double.
func (t TargetType) IsNumeric() bool {
	return t == TargetInt || t == TargetDouble
}

// IsValid reports whether t is one of the four target types.
func (t TargetType) IsValid() bool {
	for _, v := range ValidTargetTypes {
		if t == v {
			return true
		}
	}
	return false
}

// Imputation methods
type ImputationMethod string

const (
	MethodDropRow            ImputationMethod = "drop_row"
	MethodRandomFromExisting ImputationMethod = "random_from_existing"
	MethodCategoricalMode    ImputationMethod = "categorical_mode"
	MethodNumericMedian      ImputationMethod = "numeric_median"
	MethodNumericMean        ImputationMethod = "numeric_mean"
	MethodRandomRange        ImputationMethod = "random_range"
	MethodConstant           ImputationMethod = "constant"
	MethodChooseValue        ImputationMethod = "choose_value"
)

var ValidImputationMethods = []ImputationMethod{
	MethodDropRow, MethodRandomFromExisting, MethodCategoricalMode,
	MethodNumericMedian, MethodNumericMean, MethodRandomRange,
	MethodConstant, MethodChooseValue,
}

// IsValid reports whether m names one of the imputation variants.
func (m ImputationMethod) IsValid() bool {
	for _, v := range ValidImputationMethods {
		if m == v {
			return true
		}
	}
	return false
}

// Package wire translates between the editing model and the JSON shapes the
// backend speaks.
package wire

import (
	"github.com/dataprep/ingest/internal/model"
)

// ToWire converts one column plan to its backend form.
func ToWire(p model.ColumnPlan) ColumnPlan {
	renameTo := p.NewName
	if renameTo == "" {
		renameTo = p.Name
	}
	return ColumnPlan{
		Name:       p.Name,
		RenameTo:   renameTo,
		Dtype:      Dtype(p.TargetType),
		Drop:       p.Drop,
		Imputation: ImputationToWire(p.Imputation),
	}
}

// ToWirePayload builds the save request for a whole plan.
func ToWirePayload(datasetID string, plans []model.ColumnPlan) SavePlanRequest {
	cols := make([]ColumnPlan, 0, len(plans))
	for _, p := range plans {
		cols = append(cols, ToWire(p))
	}
	return SavePlanRequest{DatasetID: datasetID, Columns: cols}
}

// Dtype maps a target type to the backend dtype name.
func Dtype(t model.TargetType) string {
	switch t {
	case model.TargetInt:
		return "int"
	case model.TargetDouble:
		return "double"
	case model.TargetBoolean:
		return "boolean"
	default:
		return "string"
	}
}

// ImputationToWire maps an imputation variant onto the backend vocabulary.
// Absent and unmapped variants yield nil, which is sent as JSON null.
func ImputationToWire(imp model.Imputation) *Imputation {
	switch v := imp.(type) {
	case model.NumericMedian:
		return &Imputation{Method: MethodMedian}
	case model.NumericMean:
		return &Imputation{Method: MethodMean}
	case model.RandomRange:
		out := &Imputation{Method: MethodRandomBetweenMinMax}
		if v.Finite() {
			s := v.String()
			out.Value = &s
		}
		return out
	case model.CategoricalMode:
		return &Imputation{Method: MethodMode}
	case model.Constant:
		val := v.Value
		return &Imputation{Method: MethodValue, Value: &val}
	case model.ChooseValue:
		val := v.Value
		return &Imputation{Method: MethodValue, Value: &val}
	case model.DropRow:
		return &Imputation{Method: MethodDropRow}
	case model.RandomFromExisting:
		return &Imputation{Method: MethodRandomFromExisting}
	}
	return nil
}

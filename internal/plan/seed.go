package plan

import (
	"strings"

	"github.com/dataprep/ingest/internal/model"
)

// SeedTargetType maps a backend dtype to a target type. The checks run in a
// fixed order: "int" wins over the floating point names, which win over "bool".
func SeedTargetType(dtype string) model.TargetType {
	t := strings.ToLower(dtype)
	switch {
	case strings.Contains(t, "int"):
		return model.TargetInt
	case strings.Contains(t, "double"), strings.Contains(t, "float"), strings.Contains(t, "decimal"):
		return model.TargetDouble
	case strings.Contains(t, "bool"):
		return model.TargetBoolean
	default:
		return model.TargetString
	}
}

// SeedPlans builds the initial plan list, one untouched plan per column.
func SeedPlans(columns []model.ColumnSchema) []model.ColumnPlan {
	plans := make([]model.ColumnPlan, 0, len(columns))
	for _, c := range columns {
		plans = append(plans, model.ColumnPlan{
			Name:       c.Name,
			NewName:    c.Name,
			TargetType: SeedTargetType(c.Dtype),
			Drop:       false,
		})
	}
	return plans
}

// ColumnMeta keeps the analysis figures of a column next to its plan.
type ColumnMeta struct {
	Dtype    string
	Nulls    int
	Distinct *int
	Stats    *model.Stats
	Values   []string
}

func metaFrom(c model.ColumnSchema) ColumnMeta {
	var values []string
	if len(c.Values) > 0 {
		values = append(values, c.Values...)
	}
	return ColumnMeta{
		Dtype:    c.Dtype,
		Nulls:    c.Nulls,
		Distinct: c.Distinct,
		Stats:    c.Stats,
		Values:   values,
	}
}

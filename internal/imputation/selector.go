// Package imputation decides which imputation methods apply to a target type
// and keeps a column's imputation compatible when its type changes.
package imputation

import (
	"github.com/dataprep/ingest/internal/model"
)

var (
	numericMethods = []model.ImputationMethod{
		model.MethodNumericMedian,
		model.MethodNumericMean,
		model.MethodRandomRange,
		model.MethodDropRow,
		model.MethodConstant,
	}
	booleanMethods = []model.ImputationMethod{
		model.MethodCategoricalMode,
		model.MethodDropRow,
		model.MethodConstant,
	}
	stringMethods = []model.ImputationMethod{
		model.MethodRandomFromExisting,
		model.MethodCategoricalMode,
		model.MethodDropRow,
		model.MethodConstant,
		model.MethodChooseValue,
	}
)

// AllowedMethods returns the methods valid for t in presentation order.
// Any type outside the four known ones is treated as string.
func AllowedMethods(t model.TargetType) []model.ImputationMethod {
	var methods []model.ImputationMethod
	switch t {
	case model.TargetInt, model.TargetDouble:
		methods = numericMethods
	case model.TargetBoolean:
		methods = booleanMethods
	default:
		methods = stringMethods
	}
	out := make([]model.ImputationMethod, len(methods))
	copy(out, methods)
	return out
}

// IsAllowed reports whether m may be used for a column of type t.
func IsAllowed(t model.TargetType, m model.ImputationMethod) bool {
	for _, allowed := range AllowedMethods(t) {
		if allowed == m {
			return true
		}
	}
	return false
}

// Reconcile returns imp unchanged when its method is still valid for the new
// type, and nil otherwise.
func Reconcile(imp model.Imputation, newType model.TargetType) model.Imputation {
	if imp == nil {
		return nil
	}
	if !IsAllowed(newType, imp.Method()) {
		return nil
	}
	return imp
}

// Default returns the variant for m at its starting value. Switching method
// always goes through Default, so a method switch resets the value.
func Default(m model.ImputationMethod) (model.Imputation, bool) {
	switch m {
	case model.MethodDropRow:
		return model.DropRow{}, true
	case model.MethodRandomFromExisting:
		return model.RandomFromExisting{}, true
	case model.MethodCategoricalMode:
		return model.CategoricalMode{}, true
	case model.MethodNumericMedian:
		return model.NumericMedian{}, true
	case model.MethodNumericMean:
		return model.NumericMean{}, true
	case model.MethodRandomRange:
		return model.RandomRange{Min: 0, Max: 1}, true
	case model.MethodConstant:
		return model.Constant{Value: ""}, true
	case model.MethodChooseValue:
		return model.ChooseValue{Value: ""}, true
	}
	return nil, false
}

// NeedsValue reports whether m carries a user-supplied value.
func NeedsValue(m model.ImputationMethod) bool {
	return m == model.MethodRandomRange || m == model.MethodConstant || m == model.MethodChooseValue
}

// WithValue applies raw user input to imp. Range input must be "min,max" with
// two finite numbers; constant and choice values are taken verbatim. It
// returns false, leaving imp untouched, when the input does not fit.
func WithValue(imp model.Imputation, raw string) (model.Imputation, bool) {
	switch v := imp.(type) {
	case model.RandomRange:
		r, ok := model.ParseRange(raw)
		if !ok {
			return v, false
		}
		return r, true
	case model.Constant:
		return model.Constant{Value: raw}, true
	case model.ChooseValue:
		return model.ChooseValue{Value: raw}, true
	}
	return imp, false
}

package model

import (
	"math"
	"strconv"
	"strings"
)

// Imputation is the strategy used to fill missing values in a column.
// The set of implementations is closed: each variant carries only the
// fields its method needs.
type Imputation interface {
	Method() ImputationMethod
	isImputation()
}

type DropRow struct{}

type RandomFromExisting struct{}

type CategoricalMode struct{}

type NumericMedian struct{}

type NumericMean struct{}

// RandomRange draws uniformly between Min and Max.
type RandomRange struct {
	Min float64
	Max float64
}

// Constant fills missing cells with Value.
type Constant struct {
	Value string
}

// ChooseValue fills missing cells with a value picked by the user,
// usually one of the column's sample values.
type ChooseValue struct {
	Value string
}

func (DropRow) Method() ImputationMethod            { return MethodDropRow }
func (RandomFromExisting) Method() ImputationMethod { return MethodRandomFromExisting }
func (CategoricalMode) Method() ImputationMethod    { return MethodCategoricalMode }
func (NumericMedian) Method() ImputationMethod      { return MethodNumericMedian }
func (NumericMean) Method() ImputationMethod        { return MethodNumericMean }
func (RandomRange) Method() ImputationMethod        { return MethodRandomRange }
func (Constant) Method() ImputationMethod           { return MethodConstant }
func (ChooseValue) Method() ImputationMethod        { return MethodChooseValue }

func (DropRow) isImputation()            {}
func (RandomFromExisting) isImputation() {}
func (CategoricalMode) isImputation()    {}
func (NumericMedian) isImputation()      {}
func (NumericMean) isImputation()        {}
func (RandomRange) isImputation()        {}
func (Constant) isImputation()           {}
func (ChooseValue) isImputation()        {}

// Finite reports whether both bounds are real numbers.
func (r RandomRange) Finite() bool {
	return !math.IsNaN(r.Min) && !math.IsInf(r.Min, 0) && !math.IsNaN(r.Max) && !math.IsInf(r.Max, 0)
}

// WellFormed reports whether both bounds are finite and ordered.
func (r RandomRange) WellFormed() bool {
	return r.Finite() && r.Min <= r.Max
}

// String renders the range as "min,max".
func (r RandomRange) String() string {
	return formatNumber(r.Min) + "," + formatNumber(r.Max)
}

// ParseRange parses "min,max" into a RandomRange. Both parts must be finite numbers.
func ParseRange(raw string) (RandomRange, bool) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return RandomRange{}, false
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return RandomRange{}, false
	}
	hi, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return RandomRange{}, false
	}
	r := RandomRange{Min: lo, Max: hi}
	if !r.Finite() {
		return RandomRange{}, false
	}
	return r, true
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

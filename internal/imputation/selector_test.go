package imputation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dataprep/ingest/internal/model"
)

func TestAllowedMethods(t *testing.T) {
	tests := []struct {
		target model.TargetType
		want   []model.ImputationMethod
	}{
		{model.TargetInt, []model.ImputationMethod{
			model.MethodNumericMedian, model.MethodNumericMean, model.MethodRandomRange,
			model.MethodDropRow, model.MethodConstant,
		}},
		{model.TargetDouble, []model.ImputationMethod{
			model.MethodNumericMedian, model.MethodNumericMean, model.MethodRandomRange,
			model.MethodDropRow, model.MethodConstant,
		}},
		{model.TargetBoolean, []model.ImputationMethod{
			model.MethodCategoricalMode, model.MethodDropRow, model.MethodConstant,
		}},
		{model.TargetString, []model.ImputationMethod{
			model.MethodRandomFromExisting, model.MethodCategoricalMode, model.MethodDropRow,
			model.MethodConstant, model.MethodChooseValue,
		}},
		{"timestamp", []model.ImputationMethod{
			model.MethodRandomFromExisting, model.MethodCategoricalMode, model.MethodDropRow,
			model.MethodConstant, model.MethodChooseValue,
		}},
	}

	for _, tt := range tests {
		t.Run(string(tt.target), func(t *testing.T) {
			assert.Equal(t, tt.want, AllowedMethods(tt.target))
		})
	}
}

func TestAllowedMethods_ReturnsCopy(t *testing.T) {
	got := AllowedMethods(model.TargetInt)
	got[0] = model.MethodChooseValue
	assert.Equal(t, model.MethodNumericMedian, AllowedMethods(model.TargetInt)[0])
}

func TestReconcile_Grid(t *testing.T) {
	for _, target := range model.ValidTargetTypes {
		for _, m := range model.ValidImputationMethods {
			t.Run(string(target)+"/"+string(m), func(t *testing.T) {
				imp, ok := Default(m)
				require.True(t, ok)

				got := Reconcile(imp, target)
				if IsAllowed(target, m) {
					assert.Equal(t, imp, got, "compatible imputation is kept unchanged")
				} else {
					assert.Nil(t, got)
				}
				if got != nil {
					assert.Contains(t, AllowedMethods(target), got.Method())
				}
			})
		}
	}
}

func TestReconcile_KeepsValue(t *testing.T) {
	imp := model.RandomRange{Min: 3, Max: 7}
	assert.Equal(t, imp, Reconcile(imp, model.TargetDouble))
	assert.Nil(t, Reconcile(nil, model.TargetInt))
}

func TestDefault(t *testing.T) {
	for _, m := range model.ValidImputationMethods {
		imp, ok := Default(m)
		require.True(t, ok, m)
		assert.Equal(t, m, imp.Method())
	}
	_, ok := Default("interpolate")
	assert.False(t, ok)
}

func TestWithValue(t *testing.T) {
	tests := []struct {
		name   string
		imp    model.Imputation
		raw    string
		want   model.Imputation
		wantOK bool
	}{
		{"range", model.RandomRange{}, "10,20", model.RandomRange{Min: 10, Max: 20}, true},
		{"range with spaces", model.RandomRange{}, " 1.5 , 2 ", model.RandomRange{Min: 1.5, Max: 2}, true},
		{"range missing max", model.RandomRange{Min: 0, Max: 1}, "10", model.RandomRange{Min: 0, Max: 1}, false},
		{"range not numeric", model.RandomRange{Min: 0, Max: 1}, "a,b", model.RandomRange{Min: 0, Max: 1}, false},
		{"range infinite", model.RandomRange{Min: 0, Max: 1}, "0,Inf", model.RandomRange{Min: 0, Max: 1}, false},
		{"constant verbatim", model.Constant{}, " 42 ", model.Constant{Value: " 42 "}, true},
		{"choice", model.ChooseValue{}, "Paris", model.ChooseValue{Value: "Paris"}, true},
		{"no value variant", model.NumericMean{}, "1", model.NumericMean{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := WithValue(tt.imp, tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheckValue(t *testing.T) {
	tests := []struct {
		name    string
		imp     model.Imputation
		target  model.TargetType
		wantErr bool
	}{
		{"median", model.NumericMedian{}, model.TargetInt, false},
		{"range ok", model.RandomRange{Min: 1, Max: 2}, model.TargetInt, false},
		{"range equal bounds", model.RandomRange{Min: 2, Max: 2}, model.TargetDouble, false},
		{"range reversed", model.RandomRange{Min: 3, Max: 2}, model.TargetInt, true},
		{"int constant", model.Constant{Value: "7"}, model.TargetInt, false},
		{"int constant not int", model.Constant{Value: "7.5"}, model.TargetInt, true},
		{"double constant", model.Constant{Value: "7.5"}, model.TargetDouble, false},
		{"boolean constant", model.Constant{Value: "true"}, model.TargetBoolean, false},
		{"boolean constant bad", model.Constant{Value: "maybe"}, model.TargetBoolean, true},
		{"string constant", model.Constant{Value: "n/a"}, model.TargetString, false},
		{"empty constant", model.Constant{Value: "  "}, model.TargetString, true},
		{"empty choice", model.ChooseValue{}, model.TargetString, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckValue(tt.imp, tt.target)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

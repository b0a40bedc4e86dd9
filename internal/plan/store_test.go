package plan

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dataprep/ingest/internal/model"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func sampleColumns() []model.ColumnSchema {
	return []model.ColumnSchema{
		{Name: "age", Dtype: "Int32", Nulls: 5, Stats: &model.Stats{Min: floatPtr(18), Max: floatPtr(90.5)}},
		{Name: "city", Dtype: "object", Nulls: 2, Distinct: intPtr(12), Values: []string{"Paris", "Lyon"}},
		{Name: "score", Dtype: "float64", Nulls: 0},
		{Name: "active", Dtype: "bool", Nulls: 1},
	}
}

func seededStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(zap.NewNop())
	s.Seed(sampleColumns())
	return s
}

func TestSeedTargetType(t *testing.T) {
	tests := []struct {
		dtype string
		want  model.TargetType
	}{
		{"Int32", model.TargetInt},
		{"int64", model.TargetInt},
		{"BIGINT", model.TargetInt},
		{"float64", model.TargetDouble},
		{"Double", model.TargetDouble},
		{"decimal(10,2)", model.TargetDouble},
		{"decimal_int", model.TargetInt},
		{"bool", model.TargetBoolean},
		{"Boolean", model.TargetBoolean},
		{"object", model.TargetString},
		{"", model.TargetString},
		{"datetime64[ns]", model.TargetString},
	}

	for _, tt := range tests {
		t.Run(tt.dtype, func(t *testing.T) {
			assert.Equal(t, tt.want, SeedTargetType(tt.dtype))
		})
	}
}

func TestSeed_AgeScenario(t *testing.T) {
	s := NewStore(nil)
	plans := s.Seed([]model.ColumnSchema{{Name: "age", Dtype: "Int32", Nulls: 5}})

	require.Len(t, plans, 1)
	assert.Equal(t, model.ColumnPlan{
		Name:       "age",
		NewName:    "age",
		TargetType: model.TargetInt,
		Drop:       false,
	}, plans[0])
	assert.Nil(t, plans[0].Imputation)
}

func TestSeed_Idempotent(t *testing.T) {
	a := NewStore(nil).Seed(sampleColumns())
	b := NewStore(nil).Seed(sampleColumns())
	assert.Equal(t, a, b)
}

func TestPatch_RetypeClearsIncompatibleImputation(t *testing.T) {
	s := seededStore(t)
	_, err := s.Patch(0, SetImputation(model.NumericMedian{}))
	require.NoError(t, err)

	var seen [][]model.ColumnPlan
	unsubscribe := s.Subscribe(func(p []model.ColumnPlan) { seen = append(seen, p) })
	defer unsubscribe()

	plans, err := s.Patch(0, Retype(model.TargetString))
	require.NoError(t, err)

	assert.Equal(t, model.TargetString, plans[0].TargetType)
	assert.Nil(t, plans[0].Imputation)

	// one transition, never an intermediate list with string + median
	require.Len(t, seen, 1)
	assert.Equal(t, model.TargetString, seen[0][0].TargetType)
	assert.Nil(t, seen[0][0].Imputation)
}

func TestPatch_RetypeKeepsCompatibleImputation(t *testing.T) {
	s := seededStore(t)
	_, err := s.Patch(0, SetImputation(model.Constant{Value: "0"}))
	require.NoError(t, err)

	plans, err := s.Patch(0, Retype(model.TargetString))
	require.NoError(t, err)
	assert.Equal(t, model.Constant{Value: "0"}, plans[0].Imputation)
}

func TestPatch_DoesNotMutatePreviousList(t *testing.T) {
	s := seededStore(t)
	before := s.Plans()

	after, err := s.Patch(1, Rename("town"))
	require.NoError(t, err)

	assert.Equal(t, "city", before[1].NewName)
	assert.Equal(t, "town", after[1].NewName)
	assert.Equal(t, "city", after[1].Name)
}

func TestPatch_Errors(t *testing.T) {
	tests := []struct {
		name  string
		index int
		patch Patch
		want  error
	}{
		{"negative index", -1, Rename("x"), ErrIndexOutOfRange},
		{"index past end", 4, Rename("x"), ErrIndexOutOfRange},
		{"median on string", 1, SetImputation(model.NumericMedian{}), ErrMethodNotAllowed},
		{"choice on int", 0, SetImputation(model.ChooseValue{Value: "a"}), ErrMethodNotAllowed},
		{"unknown type", 0, Retype("timestamp"), ErrUnknownType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := seededStore(t)
			before := s.Plans()

			plans, err := s.Patch(tt.index, tt.patch)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, before, plans)
			assert.Equal(t, before, s.Plans())
		})
	}
}

func TestPatch_RetypeAndImputationTogether(t *testing.T) {
	s := seededStore(t)

	// the new imputation is checked against the new type
	plans, err := s.Patch(1, Merge(Retype(model.TargetDouble), SetImputation(model.NumericMean{})))
	require.NoError(t, err)
	assert.Equal(t, model.TargetDouble, plans[1].TargetType)
	assert.Equal(t, model.NumericMean{}, plans[1].Imputation)
}

func TestSelectMethod(t *testing.T) {
	s := seededStore(t)

	plans, err := s.SelectMethod(0, model.MethodRandomRange)
	require.NoError(t, err)
	assert.Equal(t, model.RandomRange{Min: 0, Max: 1}, plans[0].Imputation)

	plans, err = s.SetImputationValue(0, "10,20")
	require.NoError(t, err)
	assert.Equal(t, model.RandomRange{Min: 10, Max: 20}, plans[0].Imputation)

	// a method switch resets the value
	plans, err = s.SelectMethod(0, model.MethodConstant)
	require.NoError(t, err)
	assert.Equal(t, model.Constant{Value: ""}, plans[0].Imputation)

	plans, err = s.SelectMethod(0, "")
	require.NoError(t, err)
	assert.Nil(t, plans[0].Imputation)

	_, err = s.SelectMethod(0, "interpolate")
	assert.ErrorIs(t, err, ErrUnknownMethod)

	_, err = s.SelectMethod(1, model.MethodNumericMedian)
	assert.ErrorIs(t, err, ErrMethodNotAllowed)
}

func TestSetImputationValue(t *testing.T) {
	s := seededStore(t)

	_, err := s.SetImputationValue(0, "1,2")
	assert.ErrorIs(t, err, ErrNoImputation)

	_, err = s.SelectMethod(0, model.MethodRandomRange)
	require.NoError(t, err)

	for _, raw := range []string{"", "10", "a,b", "1,2,3", "NaN,4"} {
		plans, err := s.SetImputationValue(0, raw)
		assert.ErrorIs(t, err, ErrMalformedValue, raw)
		assert.Equal(t, model.RandomRange{Min: 0, Max: 1}, plans[0].Imputation, raw)
	}

	_, err = s.SelectMethod(1, model.MethodChooseValue)
	require.NoError(t, err)
	plans, err := s.SetImputationValue(1, "Paris")
	require.NoError(t, err)
	assert.Equal(t, model.ChooseValue{Value: "Paris"}, plans[1].Imputation)

	_, err = s.SelectMethod(1, model.MethodCategoricalMode)
	require.NoError(t, err)
	_, err = s.SetImputationValue(1, "x")
	assert.ErrorIs(t, err, ErrMalformedValue)
}

func TestToggleDrop(t *testing.T) {
	s := seededStore(t)
	_, err := s.Patch(2, Rename("points"))
	require.NoError(t, err)

	plans, err := s.ToggleDrop(2)
	require.NoError(t, err)
	assert.True(t, plans[2].Drop)
	assert.Equal(t, "points", plans[2].NewName)

	plans, err = s.ToggleDrop(2)
	require.NoError(t, err)
	assert.False(t, plans[2].Drop)
}

func TestMetaAndRangeHint(t *testing.T) {
	s := seededStore(t)

	meta, ok := s.Meta("city")
	require.True(t, ok)
	assert.Equal(t, 2, meta.Nulls)
	assert.Equal(t, 12, *meta.Distinct)
	assert.Equal(t, []string{"Paris", "Lyon"}, meta.Values)

	_, ok = s.Meta("missing")
	assert.False(t, ok)

	assert.Equal(t, "18,90.5", s.RangeHint(0))
	assert.Equal(t, "min,max", s.RangeHint(2))
	assert.Equal(t, "min,max", s.RangeHint(9))
}

func TestApplySuggestions(t *testing.T) {
	s := seededStore(t)
	_, err := s.Patch(2, SetImputation(model.NumericMean{}))
	require.NoError(t, err)

	calls := 0
	s.Subscribe(func([]model.ColumnPlan) { calls++ })

	plans := s.ApplySuggestions()
	assert.Equal(t, 1, calls)
	assert.Equal(t, model.NumericMedian{}, plans[0].Imputation)
	assert.Equal(t, model.CategoricalMode{}, plans[1].Imputation)
	assert.Nil(t, plans[2].Imputation)
	assert.Equal(t, model.CategoricalMode{}, plans[3].Imputation)
}

func TestSubscribe_Unsubscribe(t *testing.T) {
	s := seededStore(t)
	calls := 0
	unsubscribe := s.Subscribe(func([]model.ColumnPlan) { calls++ })

	_, err := s.ToggleDrop(0)
	require.NoError(t, err)
	unsubscribe()
	_, err = s.ToggleDrop(0)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
}

func TestConcurrentPatches(t *testing.T) {
	s := seededStore(t)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.ToggleDrop(1)
		}()
	}
	wg.Wait()

	// an even number of toggles lands back on the seed value
	assert.False(t, s.Plans()[1].Drop)
}

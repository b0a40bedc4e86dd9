package plan

import "github.com/dataprep/ingest/internal/model"

// Suggest returns the imputation suggested for a column: none without nulls,
// the median for numeric targets and the mode otherwise.
func Suggest(p model.ColumnPlan, meta ColumnMeta) model.Imputation {
	if meta.Nulls == 0 {
		return nil
	}
	if p.TargetType.IsNumeric() {
		return model.NumericMedian{}
	}
	return model.CategoricalMode{}
}

// ApplySuggestions sets the suggested imputation on every column in one update.
func (s *Store) ApplySuggestions() []model.ColumnPlan {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	next := clonePlans(s.plans)
	for i, p := range next {
		next[i].Imputation = Suggest(p, s.meta[p.Name])
	}
	s.mu.RUnlock()

	s.mu.Lock()
	s.plans = next
	s.mu.Unlock()

	return s.publish(next)
}

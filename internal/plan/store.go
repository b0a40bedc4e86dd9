// Package plan holds the editable per-column cleaning plan of one dataset.
package plan

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/dataprep/ingest/internal/imputation"
	"github.com/dataprep/ingest/internal/model"
)

var (
	ErrIndexOutOfRange  = errors.New("column index out of range")
	ErrUnknownColumn    = errors.New("unknown column")
	ErrUnknownType      = errors.New("unknown target type")
	ErrUnknownMethod    = errors.New("unknown imputation method")
	ErrMethodNotAllowed = errors.New("imputation method not allowed for target type")
	ErrNoImputation     = errors.New("column has no imputation")
	ErrMalformedValue   = errors.New("malformed imputation value")
)

// Store is the plan list of one editing session. Every write produces a new
// list; lists handed out earlier are never modified. Subscribers see each
// write exactly once, in order, and must not write to the store from the
// callback.
type Store struct {
	writeMu sync.Mutex
	mu      sync.RWMutex

	plans       []model.ColumnPlan
	meta        map[string]ColumnMeta
	names       map[string]struct{}
	subscribers map[int]func([]model.ColumnPlan)
	nextSub     int

	validate *validator.Validate
	logger   *zap.Logger
}

// NewStore returns an empty store.
func NewStore(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		meta:        map[string]ColumnMeta{},
		names:       map[string]struct{}{},
		subscribers: map[int]func([]model.ColumnPlan){},
		validate:    newValidator(),
		logger:      logger,
	}
}

// Seed replaces the store content with one plan per column and returns it.
func (s *Store) Seed(columns []model.ColumnSchema) []model.ColumnPlan {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	plans := SeedPlans(columns)
	meta := make(map[string]ColumnMeta, len(columns))
	names := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		meta[c.Name] = metaFrom(c)
		names[c.Name] = struct{}{}
	}

	s.mu.Lock()
	s.plans = plans
	s.meta = meta
	s.names = names
	s.mu.Unlock()

	s.logger.Debug("Seeded cleaning plan", zap.Int("columns", len(plans)))
	return s.publish(plans)
}

// Plans returns the current list.
func (s *Store) Plans() []model.ColumnPlan {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clonePlans(s.plans)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.plans)
}

// Plan returns the plan at index i.
func (s *Store) Plan(i int) (model.ColumnPlan, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.plans) {
		return model.ColumnPlan{}, false
	}
	return s.plans[i], true
}

// Index returns the position of the column named name, or -1.
func (s *Store) Index(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i, p := range s.plans {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// Meta returns the analysis figures of a column.
func (s *Store) Meta(name string) (ColumnMeta, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.meta[name]
	return m, ok
}

// Subscribe registers f to receive every new list. The returned function
// removes the subscription.
func (s *Store) Subscribe(f func([]model.ColumnPlan)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = f
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// Patch applies p to the plan at index i and returns the new list. A target
// type change reconciles the imputation in the same update. On error the
// store is unchanged and the current list is returned.
func (s *Store) Patch(i int, p Patch) ([]model.ColumnPlan, error) {
	return s.update(i, func(cur model.ColumnPlan) (model.ColumnPlan, error) {
		return applyPatch(cur, p)
	})
}

// SelectMethod switches the imputation of column i to method m at its
// default value. An empty method clears the imputation.
func (s *Store) SelectMethod(i int, m model.ImputationMethod) ([]model.ColumnPlan, error) {
	if m == "" {
		return s.Patch(i, ClearImputation())
	}
	imp, ok := imputation.Default(m)
	if !ok {
		return s.Plans(), fmt.Errorf("%w: %q", ErrUnknownMethod, m)
	}
	return s.Patch(i, SetImputation(imp))
}

// SetImputationValue applies raw user input to the value of column i's
// imputation. Malformed input leaves the plan unchanged.
func (s *Store) SetImputationValue(i int, raw string) ([]model.ColumnPlan, error) {
	return s.update(i, func(cur model.ColumnPlan) (model.ColumnPlan, error) {
		if cur.Imputation == nil {
			return cur, ErrNoImputation
		}
		if !imputation.NeedsValue(cur.Imputation.Method()) {
			return cur, fmt.Errorf("%w: %s takes no value", ErrMalformedValue, cur.Imputation.Method())
		}
		next, ok := imputation.WithValue(cur.Imputation, raw)
		if !ok {
			return cur, fmt.Errorf("%w: %q", ErrMalformedValue, raw)
		}
		cur.Imputation = next
		return cur, nil
	})
}

// ToggleDrop flips the drop flag of column i. Other fields are kept.
func (s *Store) ToggleDrop(i int) ([]model.ColumnPlan, error) {
	return s.update(i, func(cur model.ColumnPlan) (model.ColumnPlan, error) {
		cur.Drop = !cur.Drop
		return cur, nil
	})
}

// RangeHint returns the "min,max" placeholder for column i, built from the
// column stats when known.
func (s *Store) RangeHint(i int) string {
	p, ok := s.Plan(i)
	if !ok {
		return "min,max"
	}
	m, ok := s.Meta(p.Name)
	if !ok || m.Stats == nil || (m.Stats.Min == nil && m.Stats.Max == nil) {
		return "min,max"
	}
	lo, hi := "min", "max"
	if m.Stats.Min != nil {
		lo = strconv.FormatFloat(*m.Stats.Min, 'f', -1, 64)
	}
	if m.Stats.Max != nil {
		hi = strconv.FormatFloat(*m.Stats.Max, 'f', -1, 64)
	}
	return lo + "," + hi
}

func (s *Store) update(i int, fn func(model.ColumnPlan) (model.ColumnPlan, error)) ([]model.ColumnPlan, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	if i < 0 || i >= len(s.plans) {
		cur := clonePlans(s.plans)
		s.mu.RUnlock()
		return cur, fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	next := clonePlans(s.plans)
	s.mu.RUnlock()

	updated, err := fn(next[i])
	if err != nil {
		s.logger.Debug("Rejected plan update", zap.Int("index", i), zap.Error(err))
		return s.Plans(), err
	}
	next[i] = updated

	s.mu.Lock()
	s.plans = next
	s.mu.Unlock()

	return s.publish(next), nil
}

// publish hands the new list to subscribers. Caller holds writeMu.
func (s *Store) publish(plans []model.ColumnPlan) []model.ColumnPlan {
	s.mu.RLock()
	subs := make([]func([]model.ColumnPlan), 0, len(s.subscribers))
	for _, f := range s.subscribers {
		subs = append(subs, f)
	}
	s.mu.RUnlock()

	for _, f := range subs {
		f(clonePlans(plans))
	}
	return clonePlans(plans)
}

func applyPatch(cur model.ColumnPlan, p Patch) (model.ColumnPlan, error) {
	if p.TargetType != nil {
		if !p.TargetType.IsValid() {
			return cur, fmt.Errorf("%w: %q", ErrUnknownType, *p.TargetType)
		}
		cur.TargetType = *p.TargetType
		cur.Imputation = imputation.Reconcile(cur.Imputation, cur.TargetType)
	}
	if p.Imputation != nil {
		imp := p.Imputation.To
		if imp != nil && !imputation.IsAllowed(cur.TargetType, imp.Method()) {
			return cur, fmt.Errorf("%w: %s for %s", ErrMethodNotAllowed, imp.Method(), cur.TargetType)
		}
		cur.Imputation = imp
	}
	if p.NewName != nil {
		cur.NewName = *p.NewName
	}
	if p.Drop != nil {
		cur.Drop = *p.Drop
	}
	return cur, nil
}

func clonePlans(plans []model.ColumnPlan) []model.ColumnPlan {
	if plans == nil {
		return []model.ColumnPlan{}
	}
	out := make([]model.ColumnPlan, len(plans))
	copy(out, plans)
	return out
}

package plan

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dataprep/ingest/internal/imputation"
	"github.com/dataprep/ingest/internal/model"
)

// Issue is one problem found in a plan list.
type Issue struct {
	Index   int    `json:"index"`
	Column  string `json:"column"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("column %d (%s) %s: %s", i.Index, i.Column, i.Field, i.Message)
}

// Issues is a non-empty validation result usable as an error.
type Issues []Issue

func (is Issues) Error() string {
	parts := make([]string, len(is))
	for i, issue := range is {
		parts[i] = issue.String()
	}
	return strings.Join(parts, "; ")
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the current list. Dropped columns only get the structural
// checks since the rest of their plan is ignored on submission.
func (s *Store) Validate() []Issue {
	s.mu.RLock()
	plans := clonePlans(s.plans)
	names := s.names
	s.mu.RUnlock()

	return validatePlans(s.validate, plans, names)
}

func validatePlans(v *validator.Validate, plans []model.ColumnPlan, names map[string]struct{}) []Issue {
	var issues []Issue
	outputs := map[string]int{}

	for i, p := range plans {
		add := func(field, msg string) {
			issues = append(issues, Issue{Index: i, Column: p.Name, Field: field, Message: msg})
		}

		if err := v.Struct(p); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) {
				for _, fe := range verrs {
					add(fe.Field(), describe(fe))
				}
			} else {
				add("", err.Error())
			}
		}
		if p.Name != "" {
			if _, ok := names[p.Name]; !ok {
				add("name", "column is not part of the dataset schema")
			}
		}
		if p.Drop {
			continue
		}

		if p.Imputation != nil {
			if !imputation.IsAllowed(p.TargetType, p.Imputation.Method()) {
				add("imputation", fmt.Sprintf("method %s does not apply to %s", p.Imputation.Method(), p.TargetType))
			} else if err := imputation.CheckValue(p.Imputation, p.TargetType); err != nil {
				add("imputation", err.Error())
			}
		}

		out := p.OutputName()
		if first, dup := outputs[out]; dup {
			add("new_name", fmt.Sprintf("output name %q is already used by column %d", out, first))
		} else {
			outputs[out] = i
		}
	}
	return issues
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of %s", fe.Param())
	}
	return fmt.Sprintf("failed %s", fe.Tag())
}

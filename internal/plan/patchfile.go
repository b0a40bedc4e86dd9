package plan

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dataprep/ingest/internal/model"
)

// PatchFile is a batch of column edits read from YAML:
//
//	suggest: true
//	columns:
//	  - name: age
//	    new_name: age_years
//	    target_type: int
//	    imputation: random_range
//	    value: "18,65"
//	  - name: notes
//	    drop: true
type PatchFile struct {
	Suggest bool         `yaml:"suggest"`
	Columns []ColumnEdit `yaml:"columns"`
}

// ColumnEdit targets one column by source name. An imputation of "none"
// or "" clears it.
type ColumnEdit struct {
	Name       string  `yaml:"name"`
	NewName    *string `yaml:"new_name"`
	TargetType *string `yaml:"target_type"`
	Drop       *bool   `yaml:"drop"`
	Imputation *string `yaml:"imputation"`
	Value      *string `yaml:"value"`
}

// LoadPatchFile reads and parses a patch file.
func LoadPatchFile(path string) (*PatchFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read patch file: %w", err)
	}
	return ParsePatchFile(data)
}

// ParsePatchFile parses YAML patch content.
func ParsePatchFile(data []byte) (*PatchFile, error) {
	var f PatchFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse patch file: %w", err)
	}
	for i, c := range f.Columns {
		if c.Name == "" {
			return nil, fmt.Errorf("column edit at index %d: name is required", i)
		}
	}
	return &f, nil
}

// Apply runs the edits against s in file order: suggestions first, then per
// column the rename/type/drop patch, the method and finally the value. It
// stops at the first rejected edit.
func (f *PatchFile) Apply(s *Store) error {
	if f.Suggest {
		s.ApplySuggestions()
	}
	for _, c := range f.Columns {
		idx := s.Index(c.Name)
		if idx < 0 {
			return fmt.Errorf("%w: %s", ErrUnknownColumn, c.Name)
		}

		var p Patch
		if c.NewName != nil {
			p = Merge(p, Rename(*c.NewName))
		}
		if c.TargetType != nil {
			p = Merge(p, Retype(model.TargetType(*c.TargetType)))
		}
		if c.Drop != nil {
			p = Merge(p, SetDrop(*c.Drop))
		}
		if !p.IsEmpty() {
			if _, err := s.Patch(idx, p); err != nil {
				return fmt.Errorf("column %s: %w", c.Name, err)
			}
		}

		if c.Imputation != nil {
			m := model.ImputationMethod(*c.Imputation)
			if m == "none" {
				m = ""
			}
			if _, err := s.SelectMethod(idx, m); err != nil {
				return fmt.Errorf("column %s: %w", c.Name, err)
			}
		}
		if c.Value != nil {
			if _, err := s.SetImputationValue(idx, *c.Value); err != nil {
				return fmt.Errorf("column %s: %w", c.Name, err)
			}
		}
	}
	return nil
}

package plan

import "github.com/dataprep/ingest/internal/model"

// Patch is a partial update of one column plan. Nil fields are left alone.
type Patch struct {
	NewName    *string
	TargetType *model.TargetType
	Drop       *bool
	Imputation *ImputationChange
}

// ImputationChange replaces the imputation. A nil To clears it.
type ImputationChange struct {
	To model.Imputation
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.NewName == nil && p.TargetType == nil && p.Drop == nil && p.Imputation == nil
}

func Rename(name string) Patch {
	return Patch{NewName: &name}
}

func Retype(t model.TargetType) Patch {
	return Patch{TargetType: &t}
}

func SetDrop(drop bool) Patch {
	return Patch{Drop: &drop}
}

func SetImputation(imp model.Imputation) Patch {
	return Patch{Imputation: &ImputationChange{To: imp}}
}

func ClearImputation() Patch {
	return Patch{Imputation: &ImputationChange{}}
}

// Merge combines patches; later fields win.
func Merge(patches ...Patch) Patch {
	var out Patch
	for _, p := range patches {
		if p.NewName != nil {
			out.NewName = p.NewName
		}
		if p.TargetType != nil {
			out.TargetType = p.TargetType
		}
		if p.Drop != nil {
			out.Drop = p.Drop
		}
		if p.Imputation != nil {
			out.Imputation = p.Imputation
		}
	}
	return out
}

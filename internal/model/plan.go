package model

// ColumnPlan is the user-editable cleaning plan of one source column.
// Name is the identity key and never changes once seeded.
type ColumnPlan struct {
	Name       string     `json:"name" validate:"required"`
	NewName    string     `json:"new_name"`
	TargetType TargetType `json:"target_type" validate:"required,oneof=string int double boolean"`
	Drop       bool       `json:"drop"`
	Imputation Imputation `json:"-"`
}

// OutputName is the column name after renaming.
func (p ColumnPlan) OutputName() string {
	if p.NewName != "" {
		return p.NewName
	}
	return p.Name
}

// MethodOf returns the method of imp, or "" when imp is nil.
func MethodOf(imp Imputation) ImputationMethod {
	if imp == nil {
		return ""
	}
	return imp.Method()
}

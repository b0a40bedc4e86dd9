package imputation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dataprep/ingest/internal/model"
)

// CheckValue reports why the value carried by imp is not ready for
// submission against target type t. Variants without a value always pass.
func CheckValue(imp model.Imputation, t model.TargetType) error {
	switch v := imp.(type) {
	case model.RandomRange:
		if !v.WellFormed() {
			return fmt.Errorf("range %q needs two finite numbers with min <= max", v.String())
		}
	case model.Constant:
		return checkLiteral(v.Value, t)
	case model.ChooseValue:
		return checkLiteral(v.Value, t)
	}
	return nil
}

func checkLiteral(value string, t model.TargetType) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return fmt.Errorf("a value is required")
	}
	switch t {
	case model.TargetInt:
		if _, err := strconv.ParseInt(value, 10, 64); err != nil {
			return fmt.Errorf("%q is not an integer", value)
		}
	case model.TargetDouble:
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return fmt.Errorf("%q is not a number", value)
		}
	case model.TargetBoolean:
		if _, err := strconv.ParseBool(value); err != nil {
			return fmt.Errorf("%q is not a boolean", value)
		}
	}
	return nil
}

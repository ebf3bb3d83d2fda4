package common

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var paramValidator = validator.New()

// DecodeParams binds a raw action params object onto a typed struct (via
// its json tags) and runs struct-tag validation, so every handler sees a
// well-formed, range-checked parameter set or a single describable error.
func DecodeParams(params map[string]any, out any) error {
	raw, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}
	if err := paramValidator.Struct(out); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			v := verrs[0]
			return fmt.Errorf("invalid params: field %q failed %q", v.Field(), v.Tag())
		}
		return fmt.Errorf("invalid params: %w", err)
	}
	return nil
}

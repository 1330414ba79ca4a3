package contract

import (
	"fmt"
	"sort"

	"github.com/goliatone/go-contractgen/pkg/model"
	"github.com/goliatone/go-contractgen/pkg/validation"
)

// Values converts loosely typed input into tagged values using the types
// declared by tpl. Keys the template does not declare are tagged by their Go
// type. Every conversion failure is reported in a single ValidationError.
func Values(tpl model.Template, raw map[string]any) (map[string]model.Value, error) {
	out := make(map[string]model.Value, len(raw))
	var violations []model.Violation

	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		kind, declared := declaredType(tpl, key)
		if !declared {
			out[key] = model.Infer(raw[key])
			continue
		}
		value, err := model.Coerce(kind, raw[key])
		if err != nil {
			violations = append(violations, model.Violation{
				FieldID: key,
				Rule:    validation.RuleType,
				Message: fmt.Sprintf("%s: %v", key, err),
			})
			continue
		}
		out[key] = value
	}
	if len(violations) > 0 {
		return out, &model.ValidationError{Violations: violations}
	}
	return out, nil
}

// normalizeValues re-tags values whose kind differs from the declared field
// type. Values that cannot be converted are kept as given and reported by
// validation.Validate as type violations.
func normalizeValues(tpl model.Template, values map[string]model.Value) map[string]model.Value {
	out := make(map[string]model.Value, len(values))
	for key, value := range values {
		kind, declared := declaredType(tpl, key)
		if declared && value.IsSet() && value.Kind() != kind {
			if coerced, err := model.Coerce(kind, value); err == nil {
				value = coerced
			}
		}
		out[key] = value
	}
	return out
}

func declaredType(tpl model.Template, fieldID string) (model.FieldType, bool) {
	if field, ok := tpl.Field(fieldID); ok {
		return field.Type, true
	}
	if field, ok := tpl.Calculated(fieldID); ok && field.Type != "" {
		return field.Type, true
	}
	return "", false
}

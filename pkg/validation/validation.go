// Package validation checks contract field values against a template's
// field schema.
package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"sync"

	"github.com/goliatone/go-contractgen/pkg/model"
)

// Rule names reported on violations.
const (
	RuleRequired = "required"
	RulePattern  = "pattern"
	RuleMin      = "min"
	RuleMax      = "max"
	RuleType     = "type"
)

var patterns sync.Map // pattern -> *regexp.Regexp or error

// Validate returns every violation of values against fields. It never stops
// at the first problem and never reports keys the schema does not declare.
// A value whose kind cannot be converted to the declared field type is a
// type violation and skips the remaining rules. An empty result means the
// values are valid.
func Validate(fields []model.FieldDescriptor, values map[string]model.Value) []model.Violation {
	var out []model.Violation
	for _, field := range fields {
		value, present := values[field.FieldID]
		if !present || value.Empty() {
			if field.Required {
				out = append(out, model.Violation{
					FieldID: field.FieldID,
					Rule:    RuleRequired,
					Message: fmt.Sprintf("%s is required", field.FieldID),
				})
			}
			continue
		}
		if v := checkType(field, value); v != nil {
			out = append(out, *v)
			continue
		}
		out = append(out, checkRule(field, value)...)
	}
	return out
}

// Error wraps violations in a *model.ValidationError, or returns nil when
// there are none.
func Error(violations []model.Violation) error {
	if len(violations) == 0 {
		return nil
	}
	return &model.ValidationError{Violations: violations}
}

func checkType(field model.FieldDescriptor, value model.Value) *model.Violation {
	if value.Kind() == field.Type || !field.Type.Valid() {
		return nil
	}
	if _, err := model.Coerce(field.Type, value); err == nil {
		return nil
	}
	return &model.Violation{
		FieldID: field.FieldID,
		Rule:    RuleType,
		Message: fmt.Sprintf("%s is not a valid %s value", field.FieldID, field.Type),
	}
}

func checkRule(field model.FieldDescriptor, value model.Value) []model.Violation {
	rule := field.Validation
	if rule.Empty() {
		return nil
	}
	var out []model.Violation

	if rule.Pattern != "" {
		re, err := compile(rule.Pattern)
		switch {
		case err != nil:
			out = append(out, model.Violation{
				FieldID: field.FieldID,
				Rule:    RulePattern,
				Message: fmt.Sprintf("%s has an invalid pattern %q", field.FieldID, rule.Pattern),
			})
		case !re.MatchString(value.String()):
			out = append(out, model.Violation{
				FieldID: field.FieldID,
				Rule:    RulePattern,
				Message: fmt.Sprintf("%s does not match pattern %q", field.FieldID, rule.Pattern),
			})
		}
	}

	if !field.Type.Numeric() || (rule.Min == nil && rule.Max == nil) {
		return out
	}
	number, ok := numeric(field.Type, value)
	if !ok {
		return out
	}
	if rule.Min != nil && number < *rule.Min {
		out = append(out, model.Violation{
			FieldID: field.FieldID,
			Rule:    RuleMin,
			Message: fmt.Sprintf("%s must be at least %s", field.FieldID, formatBound(*rule.Min)),
		})
	}
	if rule.Max != nil && number > *rule.Max {
		out = append(out, model.Violation{
			FieldID: field.FieldID,
			Rule:    RuleMax,
			Message: fmt.Sprintf("%s must be at most %s", field.FieldID, formatBound(*rule.Max)),
		})
	}
	return out
}

// numeric reads the number behind value, converting loosely typed input such
// as "1200" when the field is declared numeric.
func numeric(kind model.FieldType, value model.Value) (float64, bool) {
	if n, ok := value.Number(); ok {
		return n, true
	}
	coerced, err := model.Coerce(kind, value)
	if err != nil {
		return 0, false
	}
	return coerced.Number()
}

func compile(pattern string) (*regexp.Regexp, error) {
	if cached, ok := patterns.Load(pattern); ok {
		switch v := cached.(type) {
		case *regexp.Regexp:
			return v, nil
		case error:
			return nil, v
		}
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		patterns.Store(pattern, err)
		return nil, err
	}
	patterns.Store(pattern, re)
	return re, nil
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

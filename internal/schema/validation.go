package schema

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/goliatone/go-contractgen/pkg/calc"
	"github.com/goliatone/go-contractgen/pkg/model"
)

func validateDescriptor(field model.FieldDescriptor) error {
	if !field.Type.Valid() {
		return fmt.Errorf("schema builder: field %q has unknown type %q", field.FieldID, field.Type)
	}
	rule := field.Validation
	if rule.Empty() {
		return nil
	}
	if rule.Pattern != "" {
		if _, err := regexp.Compile(rule.Pattern); err != nil {
			return fmt.Errorf("schema builder: field %q has invalid pattern: %w", field.FieldID, err)
		}
	}
	if rule.Min != nil && rule.Max != nil && *rule.Min > *rule.Max {
		return fmt.Errorf("schema builder: field %q has min greater than max", field.FieldID)
	}
	return nil
}

// validateCalculated checks calculated descriptors and returns their ids
// together with the non-calculated field ids their expressions read, in
// order of first reference.
func validateCalculated(fields []model.CalculatedField) (map[string]struct{}, []string, error) {
	ids := make(map[string]struct{}, len(fields))
	deps := make(map[string][]string, len(fields))
	for idx, field := range fields {
		id := strings.TrimSpace(field.FieldID)
		if id == "" {
			return nil, nil, fmt.Errorf("schema builder: calculated field %d has no fieldId", idx)
		}
		if _, exists := ids[id]; exists {
			return nil, nil, fmt.Errorf("schema builder: duplicate calculated fieldId %q", id)
		}
		if field.Type != "" && !field.Type.Valid() {
			return nil, nil, fmt.Errorf("schema builder: calculated field %q has unknown type %q", id, field.Type)
		}
		expr, err := calc.Parse(field.Expression)
		if err != nil {
			return nil, nil, fmt.Errorf("schema builder: calculated field %q: %w", id, err)
		}
		for _, ref := range expr.References() {
			if ref == id {
				return nil, nil, fmt.Errorf("schema builder: calculated field %q references itself", id)
			}
		}
		ids[id] = struct{}{}
		deps[id] = expr.References()
	}

	var (
		inputs []string
		seen   = make(map[string]struct{})
		state  = make(map[string]int) // 1 visiting, 2 done
	)
	var visit func(id string) error
	visit = func(id string) error {
		switch state[id] {
		case 1:
			return fmt.Errorf("schema builder: calculated field %q is part of a reference cycle", id)
		case 2:
			return nil
		}
		state[id] = 1
		for _, ref := range deps[id] {
			if _, ok := ids[ref]; ok {
				if err := visit(ref); err != nil {
					return err
				}
				continue
			}
			if _, ok := seen[ref]; !ok {
				seen[ref] = struct{}{}
				inputs = append(inputs, ref)
			}
		}
		state[id] = 2
		return nil
	}
	for _, field := range fields {
		if err := visit(strings.TrimSpace(field.FieldID)); err != nil {
			return nil, nil, err
		}
	}
	return ids, inputs, nil
}

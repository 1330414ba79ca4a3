package schema

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-contractgen/pkg/model"
	"github.com/goliatone/go-contractgen/pkg/placeholder"
)

// Options configures the builder.
type Options struct {
	Labeler  func(string) string
	Inferrer func(string) model.FieldType
}

func defaultOptions() Options {
	return Options{
		Labeler:  DefaultLabeler,
		Inferrer: InferType,
	}
}

// Builder derives the field schema of a template from its content.
type Builder struct {
	opts Options
}

// New creates a Builder with the supplied options.
func New(options Options) *Builder {
	opts := defaultOptions()
	if options.Labeler != nil {
		opts.Labeler = options.Labeler
	}
	if options.Inferrer != nil {
		opts.Inferrer = options.Inferrer
	}
	return &Builder{opts: opts}
}

// Build reconciles the placeholders found in draft.Content with the explicit
// descriptors of the draft. Placeholders come first in order of appearance;
// explicit entries win over inferred ones and explicit entries without a
// placeholder are appended. Calculated field ids never appear in the result.
//
// Every field read by a calculated expression is required and numeric:
// inputs missing from the schema are appended, inferred types are widened
// to number and an explicitly typed non-numeric input is an error.
func (b *Builder) Build(draft model.TemplateDraft) ([]model.FieldDescriptor, error) {
	explicit, order, err := b.explicitFields(draft.RequiredFields)
	if err != nil {
		return nil, err
	}
	calculated, inputs, err := validateCalculated(draft.CalculatedFields)
	if err != nil {
		return nil, err
	}

	ids := placeholder.Parse(draft.Content)
	fields := make([]model.FieldDescriptor, 0, len(ids)+len(order))
	used := make(map[string]struct{}, len(ids))

	for _, id := range ids {
		if _, ok := calculated[id]; ok {
			continue
		}
		used[id] = struct{}{}
		if field, ok := explicit[id]; ok {
			fields = append(fields, field)
			continue
		}
		fields = append(fields, model.FieldDescriptor{
			FieldID:  id,
			Label:    b.opts.Labeler(id),
			Type:     b.opts.Inferrer(id),
			Required: true,
		})
	}

	for _, id := range order {
		if _, ok := used[id]; ok {
			continue
		}
		if _, ok := calculated[id]; ok {
			continue
		}
		fields = append(fields, explicit[id])
	}

	return b.requireInputs(fields, inputs, typedFields(draft.RequiredFields))
}

func (b *Builder) requireInputs(fields []model.FieldDescriptor, inputs []string, typed map[string]struct{}) ([]model.FieldDescriptor, error) {
	if len(inputs) == 0 {
		return fields, nil
	}
	index := make(map[string]int, len(fields))
	for i, field := range fields {
		index[field.FieldID] = i
	}
	for _, id := range inputs {
		i, ok := index[id]
		if !ok {
			fields = append(fields, model.FieldDescriptor{
				FieldID:  id,
				Label:    b.opts.Labeler(id),
				Type:     numericType(b.opts.Inferrer(id)),
				Required: true,
			})
			continue
		}
		field := &fields[i]
		if !field.Type.Numeric() {
			if _, ok := typed[id]; ok {
				return nil, fmt.Errorf("schema builder: field %q is used in a calculation but has type %q", id, field.Type)
			}
			field.Type = model.FieldTypeNumber
		}
		field.Required = true
	}
	return fields, nil
}

func numericType(kind model.FieldType) model.FieldType {
	if kind.Numeric() {
		return kind
	}
	return model.FieldTypeNumber
}

// typedFields lists the explicit descriptors that declare their own type.
func typedFields(fields []model.FieldDescriptor) map[string]struct{} {
	out := make(map[string]struct{})
	for _, field := range fields {
		if field.Type != "" {
			out[strings.TrimSpace(field.FieldID)] = struct{}{}
		}
	}
	return out
}

// Calculated fills defaults on calculated field descriptors.
func (b *Builder) Calculated(fields []model.CalculatedField) []model.CalculatedField {
	if len(fields) == 0 {
		return nil
	}
	out := make([]model.CalculatedField, 0, len(fields))
	for _, field := range fields {
		field.FieldID = strings.TrimSpace(field.FieldID)
		if field.Label == "" {
			field.Label = b.opts.Labeler(field.FieldID)
		}
		if field.Type == "" {
			field.Type = b.opts.Inferrer(field.FieldID)
		}
		out = append(out, field)
	}
	return out
}

func (b *Builder) explicitFields(fields []model.FieldDescriptor) (map[string]model.FieldDescriptor, []string, error) {
	if len(fields) == 0 {
		return nil, nil, nil
	}
	out := make(map[string]model.FieldDescriptor, len(fields))
	order := make([]string, 0, len(fields))
	for idx, field := range fields {
		field.FieldID = strings.TrimSpace(field.FieldID)
		if field.FieldID == "" {
			return nil, nil, fmt.Errorf("schema builder: required field %d has no fieldId", idx)
		}
		if _, exists := out[field.FieldID]; exists {
			return nil, nil, fmt.Errorf("schema builder: duplicate fieldId %q", field.FieldID)
		}
		if field.Label == "" {
			field.Label = b.opts.Labeler(field.FieldID)
		}
		if field.Type == "" {
			field.Type = b.opts.Inferrer(field.FieldID)
		}
		if err := validateDescriptor(field); err != nil {
			return nil, nil, err
		}
		out[field.FieldID] = field
		order = append(order, field.FieldID)
	}
	return out, order, nil
}

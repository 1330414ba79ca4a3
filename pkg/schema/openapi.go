package schema

import (
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-contractgen/pkg/model"
)

const (
	fieldTypeExtension = "x-contractgen-type"
	fieldIDExtension   = "x-contractgen-field"
	calculatedFormat   = "x-contractgen-calculated"
)

// OpenAPI describes the field values of a template as an OpenAPI 3 object
// schema. Dotted field ids become nested objects; an object is required by
// its parent when any of its children is required. Calculated fields are
// listed as read-only properties.
func OpenAPI(tpl model.Template) *openapi3.Schema {
	root := openapi3.NewObjectSchema()
	root.Title = tpl.Name
	root.Description = tpl.Description

	for _, field := range tpl.RequiredFields {
		insertProperty(root, field.FieldID, fieldSchema(field), field.Required)
	}
	for _, field := range tpl.CalculatedFields {
		prop := primitiveSchema(field.Type)
		prop.Title = field.Label
		prop.Description = field.Expression
		prop.ReadOnly = true
		prop.Extensions = map[string]any{
			fieldTypeExtension: string(field.Type),
			fieldIDExtension:   field.FieldID,
			calculatedFormat:   true,
		}
		insertProperty(root, field.FieldID, prop, false)
	}
	sortRequired(root)
	return root
}

func fieldSchema(field model.FieldDescriptor) *openapi3.Schema {
	prop := primitiveSchema(field.Type)
	prop.Title = field.Label
	prop.Description = field.HelpText
	prop.Extensions = map[string]any{
		fieldTypeExtension: string(field.Type),
		fieldIDExtension:   field.FieldID,
	}
	if field.Placeholder != "" && prop.Type.Is(openapi3.TypeString) {
		prop.Example = field.Placeholder
	}

	rule := field.Validation
	if rule.Empty() {
		return prop
	}
	if field.Type.Numeric() {
		if rule.Min != nil {
			prop.WithMin(*rule.Min)
		}
		if rule.Max != nil {
			prop.WithMax(*rule.Max)
		}
	}
	if rule.Pattern != "" && !field.Type.Numeric() && field.Type != model.FieldTypeCheckbox {
		prop.WithPattern(rule.Pattern)
	}
	if len(rule.Options) > 0 && field.Type == model.FieldTypeSelect {
		options := make([]any, 0, len(rule.Options))
		for _, option := range rule.Options {
			options = append(options, option)
		}
		prop.WithEnum(options...)
	}
	return prop
}

func primitiveSchema(kind model.FieldType) *openapi3.Schema {
	switch kind {
	case model.FieldTypeNumber:
		return openapi3.NewFloat64Schema()
	case model.FieldTypeCurrency:
		return openapi3.NewFloat64Schema().WithFormat("currency")
	case model.FieldTypeCheckbox:
		return openapi3.NewBoolSchema()
	case model.FieldTypeDate:
		return openapi3.NewStringSchema().WithFormat("date")
	case model.FieldTypeTextarea:
		return openapi3.NewStringSchema().WithFormat("textarea")
	default:
		return openapi3.NewStringSchema()
	}
}

func insertProperty(root *openapi3.Schema, fieldID string, prop *openapi3.Schema, required bool) {
	segments := strings.Split(fieldID, ".")
	parent := root
	var chain []*openapi3.Schema

	for _, segment := range segments[:len(segments)-1] {
		ref, ok := parent.Properties[segment]
		if ok && ref != nil && ref.Value != nil && ref.Value.Type.Is(openapi3.TypeObject) {
			chain = append(chain, parent)
			parent = ref.Value
			continue
		}
		if ok {
			// A primitive already owns this segment; keep the dotted id flat.
			root.WithProperty(fieldID, prop)
			if required {
				addRequired(root, fieldID)
			}
			return
		}
		child := openapi3.NewObjectSchema()
		parent.WithProperty(segment, child)
		chain = append(chain, parent)
		parent = child
	}

	leaf := segments[len(segments)-1]
	if existing, ok := parent.Properties[leaf]; ok && existing != nil && existing.Value != nil && existing.Value.Type.Is(openapi3.TypeObject) {
		root.WithProperty(fieldID, prop)
		if required {
			addRequired(root, fieldID)
		}
		return
	}
	parent.WithProperty(leaf, prop)
	if !required {
		return
	}

	addRequired(parent, leaf)
	for i := len(chain) - 1; i >= 0; i-- {
		addRequired(chain[i], segments[i])
	}
}

func addRequired(schema *openapi3.Schema, name string) {
	for _, existing := range schema.Required {
		if existing == name {
			return
		}
	}
	schema.Required = append(schema.Required, name)
}

func sortRequired(schema *openapi3.Schema) {
	if schema == nil {
		return
	}
	sort.Strings(schema.Required)
	for _, ref := range schema.Properties {
		if ref != nil {
			sortRequired(ref.Value)
		}
	}
}

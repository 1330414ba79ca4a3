package schema

import (
	"strings"

	"github.com/goliatone/go-contractgen/pkg/model"
	"github.com/goliatone/go-contractgen/pkg/placeholder"
)

type inferenceRule struct {
	needles []string
	kind    model.FieldType
}

// Evaluated top-down; the first rule with a matching needle wins.
var inferenceRules = []inferenceRule{
	{needles: []string{"email"}, kind: model.FieldTypeText},
	{needles: []string{"phone"}, kind: model.FieldTypeText},
	{needles: []string{"date"}, kind: model.FieldTypeDate},
	{needles: []string{"cost", "price", "amount"}, kind: model.FieldTypeCurrency},
	{needles: []string{"area", "quantity", "thickness"}, kind: model.FieldTypeNumber},
	{needles: []string{"description", "notes"}, kind: model.FieldTypeTextarea},
	{needles: []string{"type", "category"}, kind: model.FieldTypeSelect},
}

var currencySuffixes = []string{"cost", "price", "amount"}

// InferType guesses the input kind of a field from the lower-cased leaf
// segment of its id. A leaf ending in a monetary word is always currency, so
// `updatePrice` does not fall into the date rule.
func InferType(fieldID string) model.FieldType {
	leaf := strings.ToLower(placeholder.Leaf(fieldID))
	for _, suffix := range currencySuffixes {
		if strings.HasSuffix(leaf, suffix) {
			return model.FieldTypeCurrency
		}
	}
	for _, rule := range inferenceRules {
		for _, needle := range rule.needles {
			if strings.Contains(leaf, needle) {
				return rule.kind
			}
		}
	}
	return model.FieldTypeText
}
